// Package corpus reads the OCR document export this workflow samples from:
// a manifest (documents.jsonl or documents.parquet), per-document OCR page
// files, and the curated ids.txt sample list.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Loader handles loading of the corpus export
type Loader struct {
	manifestPath string
	ocrDir       string
}

// NewLoader creates a new corpus loader
func NewLoader(manifestPath, ocrDir string) *Loader {
	return &Loader{
		manifestPath: manifestPath,
		ocrDir:       ocrDir,
	}
}

// Load loads manifest records from the export (JSONL or Parquet)
func (l *Loader) Load() ([]DocumentRecord, error) {
	ext := strings.ToLower(filepath.Ext(l.manifestPath))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".jsonl", ".json":
		return l.loadJSONL()
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// LoadSubcollection loads manifest records belonging to one subcollection.
// An empty subcollection loads everything.
func (l *Loader) LoadSubcollection(subcollection string) ([]DocumentRecord, error) {
	records, err := l.Load()
	if err != nil {
		return nil, err
	}
	if subcollection == "" {
		return records, nil
	}

	var filtered []DocumentRecord
	for _, r := range records {
		if r.Subcollection == subcollection {
			filtered = append(filtered, r)
		}
	}

	slog.Debug("Filtered manifest by subcollection",
		"subcollection", subcollection,
		"matched", len(filtered),
		"total", len(records))

	return filtered, nil
}

// loadJSONL loads manifest records from a JSONL file
func (l *Loader) loadJSONL() ([]DocumentRecord, error) {
	slog.Debug("Opening JSONL manifest", "path", l.manifestPath)

	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var records []DocumentRecord
	scanner := bufio.NewScanner(file)

	// Increase buffer size for large JSON lines
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var record DocumentRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse manifest line %d: %w", lineNum, err)
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	slog.Debug("Finished reading JSONL manifest", "total_records", len(records))

	return records, nil
}

// loadParquet loads manifest records from a Parquet file
func (l *Loader) loadParquet() ([]DocumentRecord, error) {
	slog.Debug("Opening Parquet manifest", "path", l.manifestPath)

	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet manifest: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet manifest opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[DocumentRecord](pf)
	defer reader.Close()

	var records []DocumentRecord
	rows := make([]DocumentRecord, 128) // Read in batches

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet manifest", "total_records", len(records))

	return records, nil
}

// LoadDocument joins one manifest record with its OCR pages from
// ocr/<subcollection>/<identifier>.json.
func (l *Loader) LoadDocument(record DocumentRecord) (*Document, error) {
	path := filepath.Join(l.ocrDir, record.Subcollection, record.Identifier+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OCR file for %s: %w", record.Identifier, err)
	}

	var pages []Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to parse OCR file %s: %w", path, err)
	}

	return &Document{DocumentRecord: record, Pages: pages}, nil
}

// LoadIDs reads the curated sample list, one identifier per line.
// Blank lines and surrounding whitespace are ignored.
func LoadIDs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ids file: %w", err)
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ids file: %w", err)
	}

	return ids, nil
}
