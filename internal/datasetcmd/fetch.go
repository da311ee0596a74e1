package datasetcmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prairie-archives/nerbench/internal/corpus"
	"github.com/spf13/cobra"
)

// NewFetchCmd creates the fetch command for downloading the corpus export bundle
func NewFetchCmd() *cobra.Command {
	var baseURL string
	var idsFile string
	var subcollection string
	var cacheDir string
	var manifestName string
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the OCR export bundle into the local cache",
		Long: `Download the corpus manifest and the OCR page file of every document in
the ids file from the export service.

Files land in the cache directory laid out the way 'dataset extract'
expects; already-cached files are skipped unless --force is given. A
restricted export reads its bearer token from EXPORT_API_TOKEN.`,
		Example: `  # Fetch the curated Saskatchewan sample
  nerbench dataset fetch --base-url https://export.example.org/v1 \
    --ids-file ./ids.txt --subcollection saskatchewan_1808_1946`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				return fmt.Errorf("--base-url is required")
			}
			if idsFile == "" {
				return fmt.Errorf("--ids-file is required")
			}
			return executeFetch(baseURL, idsFile, subcollection, cacheDir, manifestName, force)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Export service base URL (required)")
	cmd.Flags().StringVar(&idsFile, "ids-file", "", "File with one document identifier per line (required)")
	cmd.Flags().StringVar(&subcollection, "subcollection", "", "Subcollection the ids belong to")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (default ~/.cache/nerbench)")
	cmd.Flags().StringVar(&manifestName, "manifest", "documents.jsonl", "Manifest filename to fetch")
	cmd.Flags().BoolVar(&force, "force", false, "Re-download files already in the cache")

	_ = cmd.MarkFlagRequired("base-url")
	_ = cmd.MarkFlagRequired("ids-file")

	return cmd
}

func executeFetch(baseURL, idsFile, subcollection, cacheDir, manifestName string, force bool) error {
	ids, err := corpus.LoadIDs(idsFile)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("ids file %s is empty", idsFile)
	}

	downloader := corpus.NewDownloader(corpus.DownloadConfig{
		BaseURL:       baseURL,
		Subcollection: subcollection,
		CacheDir:      cacheDir,
		ForceDownload: force,
		Token:         os.Getenv("EXPORT_API_TOKEN"),
	})

	slog.Info("Fetching export bundle", "base_url", baseURL, "documents", len(ids))

	manifestPath, err := downloader.FetchManifest(manifestName)
	if err != nil {
		return err
	}

	fetched := 0
	for i, id := range ids {
		if _, err := downloader.FetchOCR(id); err != nil {
			return fmt.Errorf("failed to fetch OCR for %s: %w", id, err)
		}
		fetched++
		if (i+1)%25 == 0 {
			slog.Info("Fetch progress", "fetched", i+1, "total", len(ids))
		}
	}

	slog.Info("Export bundle ready", "manifest", manifestPath, "ocr_files", fetched)

	fmt.Printf("\nManifest: %s\n", manifestPath)
	fmt.Printf("OCR files: %d under %s\n", fetched, downloader.OCRDir())
	fmt.Printf("\nExtract snippets with:\n")
	fmt.Printf("  nerbench dataset extract --corpus %s --ocr-dir %s --ids-file %s", manifestPath, downloader.OCRDir(), idsFile)
	if subcollection != "" {
		fmt.Printf(" --subcollection %s", subcollection)
	}
	fmt.Println()

	return nil
}
