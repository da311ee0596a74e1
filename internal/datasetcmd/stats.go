package datasetcmd

import (
	"fmt"
	"strings"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/workspace"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command summarizing the gold standard
func NewStatsCmd() *cobra.Command {
	var configPath string
	var workspaceDir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize gold standard annotation progress",
		Long: `Print per-document and per-type entity counts across the gold standard,
the reviewed/unreviewed split, and the documents still waiting for
annotation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeStats(configPath, workspaceDir)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")

	return cmd
}

func executeStats(configPath, workspaceDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workspaceDir == "" {
		workspaceDir = cfg.Workspace
	}
	ws := workspace.New(workspaceDir)

	goldDocs, err := ws.ListGold()
	if err != nil {
		return err
	}

	divider := strings.Repeat("=", 90)
	fmt.Printf("\n%s\n", divider)
	fmt.Printf("GOLD STANDARD STATISTICS: %s\n", ws.Root)
	fmt.Printf("%s\n\n", divider)

	if len(goldDocs) == 0 {
		fmt.Println("No gold standard files yet.")
	} else {
		if err := printGoldStats(ws, goldDocs); err != nil {
			return err
		}
	}

	return printPendingDocuments(ws, goldDocs)
}

func printGoldStats(ws *workspace.Workspace, goldDocs []string) error {
	fmt.Printf("%-28s %-6s %-6s %-6s %-6s %-8s %-10s %-10s\n",
		"Document", "LOC", "PER", "ORG", "MISC", "Total", "Reviewed", "Snippets")
	fmt.Printf("%s\n", strings.Repeat("-", 90))

	typeTotals := make(map[entity.Type]int)
	grand := 0
	reviewed := 0
	snippets := 0

	for _, docID := range goldDocs {
		gold, err := ws.LoadGold(docID)
		if err != nil {
			return err
		}

		counts := gold.CountByType()
		total := gold.CountEntities()

		docReviewed := 0
		for _, s := range gold.Snippets {
			for _, e := range s.Entities {
				if e.Reviewed {
					docReviewed++
				}
			}
		}

		fmt.Printf("%-28s %-6d %-6d %-6d %-6d %-8d %-10d %-10d\n",
			truncate(docID, 28),
			counts[entity.LOC],
			counts[entity.PER],
			counts[entity.ORG],
			counts[entity.MISC],
			total,
			docReviewed,
			len(gold.Snippets))

		for typ, n := range counts {
			typeTotals[typ] += n
		}
		grand += total
		reviewed += docReviewed
		snippets += len(gold.Snippets)
	}

	fmt.Printf("%s\n", strings.Repeat("-", 90))
	fmt.Printf("%-28s %-6d %-6d %-6d %-6d %-8d %-10d %-10d\n",
		"TOTAL",
		typeTotals[entity.LOC],
		typeTotals[entity.PER],
		typeTotals[entity.ORG],
		typeTotals[entity.MISC],
		grand,
		reviewed,
		snippets)

	if grand > 0 {
		fmt.Printf("\nReviewed entities: %d/%d (%.1f%%)\n", reviewed, grand, 100*float64(reviewed)/float64(grand))
	}

	models, err := ws.ListModels()
	if err != nil {
		return err
	}
	if len(models) > 0 {
		fmt.Printf("Models with predictions: %s\n", strings.Join(models, ", "))
	}

	return nil
}

func printPendingDocuments(ws *workspace.Workspace, goldDocs []string) error {
	snippetDocs, err := ws.ListSnippets()
	if err != nil {
		return err
	}

	goldSet := make(map[string]bool, len(goldDocs))
	for _, d := range goldDocs {
		goldSet[d] = true
	}

	var pending []string
	for _, d := range snippetDocs {
		if !goldSet[d] {
			pending = append(pending, d)
		}
	}

	if len(pending) > 0 {
		fmt.Printf("\nDocuments with snippets awaiting annotation (%d):\n", len(pending))
		for _, d := range pending {
			marker := "manual"
			if ws.DraftExists(d) {
				marker = "draft ready"
			}
			fmt.Printf("  %-28s %s\n", d, marker)
		}
	} else if len(snippetDocs) > 0 {
		fmt.Println("\nEvery document with snippets has a gold standard file.")
	}

	return nil
}
