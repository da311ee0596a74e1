package corpus

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Default cache directory for fetched export bundles
	DefaultCacheDir = "~/.cache/nerbench"
)

// DownloadConfig configures export bundle downloading
type DownloadConfig struct {
	BaseURL       string // Export service base URL
	Subcollection string
	CacheDir      string
	ForceDownload bool
	Token         string // Bearer token for restricted exports
}

// Downloader fetches and caches corpus export files over HTTP
type Downloader struct {
	config DownloadConfig
	client *http.Client
}

// NewDownloader creates a new export downloader
func NewDownloader(config DownloadConfig) *Downloader {
	if config.CacheDir == "" {
		config.CacheDir = DefaultCacheDir
	}

	// Expand ~ to home directory
	if strings.HasPrefix(config.CacheDir, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			config.CacheDir = filepath.Join(homeDir, config.CacheDir[1:])
		}
	}

	return &Downloader{
		config: config,
		client: &http.Client{},
	}
}

// cacheRoot is where this subcollection's files land.
func (d *Downloader) cacheRoot() string {
	return filepath.Join(d.config.CacheDir, d.config.Subcollection)
}

// FetchManifest downloads the manifest file and returns its cached path.
func (d *Downloader) FetchManifest(filename string) (string, error) {
	return d.fetch(filename, filepath.Join(d.cacheRoot(), filename))
}

// FetchOCR downloads one document's OCR page file into the cache layout
// the Loader expects (ocr/<subcollection>/<identifier>.json).
func (d *Downloader) FetchOCR(identifier string) (string, error) {
	remote := fmt.Sprintf("ocr/%s/%s.json", d.config.Subcollection, identifier)
	local := filepath.Join(d.cacheRoot(), "ocr", d.config.Subcollection, identifier+".json")
	return d.fetch(remote, local)
}

// CachedManifestPath returns where a manifest file would be cached.
func (d *Downloader) CachedManifestPath(filename string) string {
	return filepath.Join(d.cacheRoot(), filename)
}

// OCRDir returns the cache's OCR root, suitable for NewLoader.
func (d *Downloader) OCRDir() string {
	return filepath.Join(d.cacheRoot(), "ocr")
}

// ClearCache removes all cached files for the subcollection
func (d *Downloader) ClearCache() error {
	root := d.cacheRoot()
	slog.Info("Clearing cache", "path", root)
	return os.RemoveAll(root)
}

func (d *Downloader) fetch(remotePath, localPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Check if file already exists in cache
	if !d.config.ForceDownload {
		if _, err := os.Stat(localPath); err == nil {
			slog.Debug("Using cached file", "path", localPath)
			return localPath, nil
		}
	}

	url := strings.TrimRight(d.config.BaseURL, "/") + "/" + remotePath
	slog.Info("Downloading export file", "url", url)

	if err := d.downloadFile(url, localPath); err != nil {
		return "", fmt.Errorf("failed to download %s: %w", remotePath, err)
	}

	return localPath, nil
}

// downloadFile downloads a file from a URL to a local path
func (d *Downloader) downloadFile(url, destPath string) error {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if d.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.config.Token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	// Write to a temp file first so a partial download never looks cached
	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	totalSize := resp.ContentLength
	downloaded := int64(0)

	buf := make([]byte, 32*1024) // 32KB buffer

	for {
		nr, er := resp.Body.Read(buf)
		if nr > 0 {
			nw, ew := out.Write(buf[0:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if ew == nil {
					ew = fmt.Errorf("invalid write result")
				}
			}
			downloaded += int64(nw)

			// Log progress every 10MB
			if downloaded%(10*1024*1024) == 0 {
				progress := float64(downloaded) / float64(totalSize) * 100
				slog.Debug("Download progress",
					"downloaded_mb", downloaded/(1024*1024),
					"total_mb", totalSize/(1024*1024),
					"progress", fmt.Sprintf("%.1f%%", progress))
			}

			if ew != nil {
				err = ew
				break
			}
			if nr != nw {
				err = io.ErrShortWrite
				break
			}
		}
		if er != nil {
			if er != io.EOF {
				err = er
			}
			break
		}
	}

	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}

	return nil
}
