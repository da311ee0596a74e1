package datasetcmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/corpus"
	"github.com/prairie-archives/nerbench/internal/extract"
	"github.com/prairie-archives/nerbench/internal/workspace"
	"github.com/spf13/cobra"
)

// NewExtractCmd creates the extract command for sampling snippets out of the corpus
func NewExtractCmd() *cobra.Command {
	var configPath string
	var workspaceDir string
	var corpusManifest string
	var ocrDir string
	var idsFile string
	var subcollection string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract annotation snippets from the corpus documents",
		Long: `Extract entity-dense snippets from the OCR text of every document in the
ids file.

Each document's text is normalized, cut along sentence boundaries into
candidate passages, scored for entity density, and the densest
non-overlapping candidates become the document's snippets file. A
SUMMARY.json ties the whole extraction together.`,
		Example: `  # Extract using paths from nerbench.yaml
  nerbench dataset extract --ids-file ./ids.txt

  # Explicit corpus location
  nerbench dataset extract --corpus ./export_bundle/documents.jsonl \
    --ocr-dir ./export_bundle/ocr --ids-file ./ids.txt --subcollection saskatchewan_1808_1946`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if idsFile == "" {
				return fmt.Errorf("--ids-file is required")
			}
			return executeExtract(configPath, workspaceDir, corpusManifest, ocrDir, idsFile, subcollection)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")
	cmd.Flags().StringVar(&corpusManifest, "corpus", "", "Corpus manifest path (.jsonl or .parquet, overrides config)")
	cmd.Flags().StringVar(&ocrDir, "ocr-dir", "", "OCR page file directory (overrides config)")
	cmd.Flags().StringVar(&idsFile, "ids-file", "", "File with one document identifier per line (required)")
	cmd.Flags().StringVar(&subcollection, "subcollection", "", "Restrict the manifest to one subcollection (overrides config)")

	_ = cmd.MarkFlagRequired("ids-file")

	return cmd
}

func executeExtract(configPath, workspaceDir, corpusManifest, ocrDir, idsFile, subcollection string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workspaceDir == "" {
		workspaceDir = cfg.Workspace
	}
	if corpusManifest == "" {
		corpusManifest = cfg.Corpus.Manifest
	}
	if ocrDir == "" {
		ocrDir = cfg.Corpus.OCRDir
	}
	if subcollection == "" {
		subcollection = cfg.Corpus.Subcollection
	}

	ws := workspace.New(workspaceDir)
	loader := corpus.NewLoader(corpusManifest, ocrDir)

	ids, err := corpus.LoadIDs(idsFile)
	if err != nil {
		return err
	}

	records, err := loader.LoadSubcollection(subcollection)
	if err != nil {
		return err
	}
	byID := make(map[string]corpus.DocumentRecord, len(records))
	for _, r := range records {
		byID[r.Identifier] = r
	}

	slog.Info("Starting snippet extraction",
		"documents", len(ids),
		"manifest", corpusManifest,
		"workspace", workspaceDir)

	summary := &workspace.Summary{}

	for _, id := range ids {
		record, ok := byID[id]
		if !ok {
			slog.Warn("Document not in manifest, skipping", "document", id)
			continue
		}

		doc, err := loader.LoadDocument(record)
		if err != nil {
			return err
		}

		res, err := extract.Extract(doc.FullText())
		if err != nil {
			if errors.Is(err, extract.ErrTooShort) {
				slog.Warn("Document text too short, skipping", "document", id, "chars", len(doc.FullText()))
				continue
			}
			return fmt.Errorf("extraction failed for %s: %w", id, err)
		}

		sf := &workspace.SnippetsFile{
			DocumentID: id,
			Metadata: workspace.DocumentMetadata{
				Title:              record.Title,
				Year:               record.Year,
				Language:           record.Language,
				Collection:         record.Collection,
				DocType:            record.DocType(),
				WordCount:          res.WordCount,
				CharCount:          res.CharCount,
				TotalPages:         doc.PageCount(),
				ExtractionStrategy: string(res.Strategy),
				NumSnippets:        len(res.Snippets),
			},
			Snippets: res.Snippets,
		}
		if err := ws.SaveSnippets(sf); err != nil {
			return err
		}

		slog.Info("Extracted snippets",
			"document", id,
			"strategy", res.Strategy,
			"snippets", len(res.Snippets),
			"words", res.WordCount)

		summary.TotalDocuments++
		summary.TotalSnippets += len(res.Snippets)
		summary.Documents = append(summary.Documents, workspace.SummaryRow{
			DocumentID:  id,
			Title:       truncate(record.Title, 80),
			Year:        record.Year,
			Language:    record.Language,
			DocType:     record.DocType(),
			NumSnippets: len(res.Snippets),
			WordCount:   res.WordCount,
		})
	}

	if summary.TotalDocuments == 0 {
		return fmt.Errorf("no documents extracted: nothing in %s matched the manifest", idsFile)
	}

	if err := ws.SaveSummary(summary); err != nil {
		return err
	}

	printExtractionSummary(summary)
	fmt.Printf("\nSnippets saved to: %s\n", ws.SnippetsDir())

	return nil
}

func printExtractionSummary(s *workspace.Summary) {
	divider := strings.Repeat("=", 100)

	fmt.Printf("\n%s\n", divider)
	fmt.Printf("SNIPPET EXTRACTION SUMMARY: %d documents, %d snippets\n", s.TotalDocuments, s.TotalSnippets)
	fmt.Printf("%s\n", divider)
	fmt.Printf("%-28s %-40s %-6s %-4s %-12s %-8s %-8s\n",
		"Document", "Title", "Year", "Lang", "Type", "Snips", "Words")
	fmt.Printf("%s\n", strings.Repeat("-", 100))

	for _, row := range s.Documents {
		fmt.Printf("%-28s %-40s %-6s %-4s %-12s %-8d %-8d\n",
			truncate(row.DocumentID, 28),
			truncate(row.Title, 40),
			row.Year,
			row.Language,
			row.DocType,
			row.NumSnippets,
			row.WordCount)
	}
	fmt.Printf("%s\n", divider)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
