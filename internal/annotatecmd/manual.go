package annotatecmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prairie-archives/nerbench/internal/annotate"
	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/workspace"
	"github.com/spf13/cobra"
)

// NewNewCmd creates the new command for manual annotation
func NewNewCmd() *cobra.Command {
	var configPath string
	var workspaceDir string

	cmd := &cobra.Command{
		Use:   "new [document]",
		Short: "Annotate a document's snippets manually from scratch",
		Long: `Create a gold standard file by typing entities in directly, without an AI
draft.

For each snippet you enter entity text; all case-insensitive occurrences
are located and you pick one or all of them (or give character offsets when
the text cannot be found verbatim, e.g. across OCR artifacts). Entities are
confirmed in <<<context>>> before they are added.

Without a document argument, lists the documents with extracted snippets.`,
		Example: `  # List documents ready for annotation
  nerbench annotate new

  # Annotate one document
  nerbench annotate new ptr_19260121`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			document := ""
			if len(args) > 0 {
				document = args[0]
			}
			return executeNew(ctx, configPath, workspaceDir, document)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")

	return cmd
}

func executeNew(ctx context.Context, configPath, workspaceDir, document string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workspaceDir == "" {
		workspaceDir = cfg.Workspace
	}
	ws := workspace.New(workspaceDir)

	if document == "" {
		return listAnnotatable(ws)
	}

	snips, err := ws.LoadSnippets(document)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no snippets found for %s, run 'nerbench dataset extract' first", document)
		}
		return err
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("GOLD STANDARD ANNOTATION")
	fmt.Printf("Document: %s\n", document)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
	fmt.Printf("Title: %s\n", snips.Metadata.Title)
	fmt.Printf("Year: %s  Language: %s  Snippets: %d\n",
		snips.Metadata.Year, snips.Metadata.Language, len(snips.Snippets))

	in := annotate.NewLineReader(os.Stdin)
	fmt.Print("\nPress Enter to begin annotation (Ctrl+C aborts)...")
	if _, err := in.ReadLine(ctx); err != nil {
		return interrupted(err)
	}

	var annotated []workspace.AnnotatedSnippet
	for i, s := range snips.Snippets {
		snippet, err := annotateSnippet(ctx, in, s, i+1, len(snips.Snippets))
		if err != nil {
			return interrupted(err)
		}
		if snippet != nil {
			annotated = append(annotated, *snippet)
		}
	}

	if len(annotated) == 0 {
		fmt.Println("\nNo snippets were annotated. Nothing was written.")
		return nil
	}

	gold := annotate.ManualGold(document, snips.Metadata, annotated)
	if err := ws.SaveGold(gold); err != nil {
		return err
	}
	printGoldSummary(ws.GoldPath(document), gold)
	fmt.Println("\nAnnotation complete.")

	return nil
}

// annotateSnippet runs the entity entry loop for one snippet. A nil snippet
// without an error means the annotator skipped it.
func annotateSnippet(ctx context.Context, in *annotate.LineReader, s workspace.Snippet, num, total int) (*workspace.AnnotatedSnippet, error) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("SNIPPET %s (%d/%d)  chars [%d, %d)  density %.3f\n",
		s.SnippetID, num, total, s.CharStart, s.CharEnd, s.EntityDensityScore)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println(s.Text)
	fmt.Println(strings.Repeat("-", 80))

	var spans []entity.Span
	for {
		fmt.Print("\nEntity text (or 'done' to finish, 'skip' to skip snippet): ")
		text, err := in.ReadLine(ctx)
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(text) {
		case "done":
			return &workspace.AnnotatedSnippet{
				SnippetID:          s.SnippetID,
				Text:               s.Text,
				CharStart:          s.CharStart,
				CharEnd:            s.CharEnd,
				EntityDensityScore: s.EntityDensityScore,
				Entities:           spans,
			}, nil
		case "skip":
			fmt.Println("  Snippet skipped")
			return nil, nil
		case "":
			continue
		}

		selected, err := resolveOccurrences(ctx, in, s.Text, text)
		if err != nil {
			return nil, err
		}
		if len(selected) == 0 {
			continue
		}

		typ, err := promptType(ctx, in)
		if err != nil {
			return nil, err
		}
		if typ == "" {
			fmt.Println("  Entity entry canceled.")
			continue
		}

		fmt.Print("  Notes (optional): ")
		notes, err := in.ReadLine(ctx)
		if err != nil {
			return nil, err
		}

		for _, occ := range selected {
			span := entity.Span{
				Text:       entity.Slice(s.Text, occ.Start, occ.End),
				Start:      occ.Start,
				End:        occ.End,
				Type:       typ,
				Confidence: 1.0,
				Notes:      notes,
			}
			spans = append(spans, span)
			fmt.Printf("  Added: %q (%s)\n", span.Text, typ)
		}
	}
}

// resolveOccurrences narrows a literal search down to the occurrences to
// annotate. No match falls back to manual character offsets; several matches
// ask which one (or all).
func resolveOccurrences(ctx context.Context, in *annotate.LineReader, text, query string) ([]annotate.Occurrence, error) {
	occs := annotate.FindAllFold(text, query)

	if len(occs) == 0 {
		fmt.Printf("  WARNING: %q not found in snippet.\n", query)
		fmt.Print("  Enter character positions manually? (y/n): ")
		line, err := in.ReadLine(ctx)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(line, "y") {
			return nil, nil
		}

		start, err := promptInt(ctx, in, "    Start position: ")
		if err != nil {
			return nil, err
		}
		end, err := promptInt(ctx, in, "    End position: ")
		if err != nil {
			return nil, err
		}
		if start == nil || end == nil || *start < 0 || *start >= *end || *end > entity.TextLen(text) {
			fmt.Println("  Invalid positions, skipping entity.")
			return nil, nil
		}
		occ := annotate.Occurrence{Start: *start, End: *end}
		fmt.Printf("  Match: ...%s...\n", annotate.Highlight(text, occ.Start, occ.End, 30, "<<<", ">>>"))
		return []annotate.Occurrence{occ}, nil
	}

	if len(occs) == 1 {
		fmt.Printf("  Match: ...%s...\n", annotate.Highlight(text, occs[0].Start, occs[0].End, 30, "<<<", ">>>"))
		return occs, nil
	}

	fmt.Printf("  Found %d matches:\n", len(occs))
	for i, occ := range occs {
		fmt.Printf("    %d. ...%s...\n", i+1, annotate.Highlight(text, occ.Start, occ.End, 30, "<<<", ">>>"))
	}
	fmt.Printf("  Which one? (1-%d, or 'all' for all): ", len(occs))
	line, err := in.ReadLine(ctx)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(line, "all") {
		return occs, nil
	}
	idx, aerr := strconv.Atoi(line)
	if aerr != nil || idx < 1 || idx > len(occs) {
		fmt.Println("  Invalid choice, skipping entity.")
		return nil, nil
	}
	return occs[idx-1 : idx], nil
}

func listAnnotatable(ws *workspace.Workspace) error {
	docs, err := ws.ListSnippets()
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Printf("No snippets in %s\n", ws.SnippetsDir())
		fmt.Println("\nExtract some first:")
		fmt.Println("  nerbench dataset extract --ids-file <ids.txt>")
		return nil
	}

	fmt.Printf("%-28s %-10s %-12s %-10s %-6s\n", "Document", "Snippets", "Type", "Language", "Gold")
	fmt.Println(strings.Repeat("-", 70))
	for _, docID := range docs {
		snips, err := ws.LoadSnippets(docID)
		if err != nil {
			return err
		}
		fmt.Printf("%-28s %-10d %-12s %-10s %-6s\n",
			docID,
			len(snips.Snippets),
			snips.Metadata.DocType,
			snips.Metadata.Language,
			yesNo(ws.GoldExists(docID)))
	}
	fmt.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}
