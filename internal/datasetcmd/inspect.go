package datasetcmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/workspace"
	"github.com/spf13/cobra"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var configPath string
	var workspaceDir string
	var interactive bool
	var showGold bool

	cmd := &cobra.Command{
		Use:   "inspect [document]",
		Short: "Inspect a document's snippets (and gold annotations when present)",
		Long: `Inspect the extracted snippets of one document.

This command is useful for eyeballing OCR quality, density scores, and the
gold annotations before running models. Without a document argument it
lists the documents with extracted snippets.`,
		Example: `  # List documents with snippets
  nerbench dataset inspect

  # Page through one document's snippets
  nerbench dataset inspect ptr_19260121 --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create a context that gets canceled on an interrupt signal (Ctrl+C)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop() // Ensure the signal handler is cleaned up

			document := ""
			if len(args) > 0 {
				document = args[0]
			}
			return executeInspect(ctx, configPath, workspaceDir, document, interactive, showGold)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")
	cmd.Flags().BoolVar(&interactive, "interactive", true, "Pause after each snippet (press Enter to continue)")
	cmd.Flags().BoolVar(&showGold, "gold", true, "Show gold entities when the document has them")

	return cmd
}

func executeInspect(ctx context.Context, configPath, workspaceDir, document string, interactive, showGold bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workspaceDir == "" {
		workspaceDir = cfg.Workspace
	}
	ws := workspace.New(workspaceDir)

	if document == "" {
		return listSnippetDocuments(ws)
	}

	snips, err := ws.LoadSnippets(document)
	if err != nil {
		return err
	}

	var gold *workspace.AnnotationFile
	if showGold && ws.GoldExists(document) {
		gold, err = ws.LoadGold(document)
		if err != nil {
			return err
		}
	}

	fmt.Printf("%s — %s (%s, %s, %d words, strategy %s)\n",
		document,
		snips.Metadata.Title,
		snips.Metadata.Year,
		snips.Metadata.DocType,
		snips.Metadata.WordCount,
		snips.Metadata.ExtractionStrategy)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for i, s := range snips.Snippets {
		// Check for context cancellation (e.g., Ctrl+C) at the start of each iteration
		select {
		case <-ctx.Done():
			fmt.Println("\nInspection interrupted.")
			return nil // Return nil for a clean exit
		default:
			// Continue processing the snippet
		}

		fmt.Printf("SNIPPET %s (%d/%d)  chars [%d, %d)  density %.3f\n",
			s.SnippetID, i+1, len(snips.Snippets), s.CharStart, s.CharEnd, s.EntityDensityScore)
		fmt.Println(strings.Repeat("-", 80))
		fmt.Println(s.Text)
		fmt.Println(strings.Repeat("-", 80))

		if gold != nil {
			printGoldEntities(gold, s.SnippetID)
		}

		fmt.Println()

		if interactive && i < len(snips.Snippets)-1 {
			fmt.Print("Press Enter for the next snippet (q to stop, Ctrl+C to quit)...")

			// Channel to signal user input
			inputCh := make(chan string, 1)
			// Goroutine to wait for Enter key
			go func() {
				line, _ := reader.ReadString('\n')
				inputCh <- strings.TrimSpace(line)
			}()

			// Wait for either user input or context cancellation (Ctrl+C)
			select {
			case <-ctx.Done():
				// Context was canceled
				fmt.Println("\nInspection interrupted.")
				return nil // Clean exit
			case line := <-inputCh:
				if strings.EqualFold(line, "q") {
					return nil
				}
				fmt.Println()
			}
		}
	}

	return nil
}

func listSnippetDocuments(ws *workspace.Workspace) error {
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

	fmt.Printf("%-28s %-10s %-6s %-10s\n", "Document", "Snippets", "Gold", "Draft")
	fmt.Printf("%s\n", strings.Repeat("-", 60))
	for _, docID := range docs {
		snips, err := ws.LoadSnippets(docID)
		if err != nil {
			return err
		}
		fmt.Printf("%-28s %-10d %-6s %-10s\n",
			docID,
			len(snips.Snippets),
			yesNo(ws.GoldExists(docID)),
			yesNo(ws.DraftExists(docID)))
	}
	return nil
}

func printGoldEntities(gold *workspace.AnnotationFile, snippetID string) {
	s := gold.Snippet(snippetID)
	if s == nil || len(s.Entities) == 0 {
		fmt.Println("Gold entities: none")
		return
	}
	fmt.Printf("Gold entities (%d):\n", len(s.Entities))
	for _, e := range s.Entities {
		fmt.Printf("  [%4d,%4d) %-5s %q\n", e.Start, e.End, e.Type, e.Text)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
