// Package annotatecmd implements the annotate command group: AI draft
// generation, interactive draft review, and manual annotation from scratch.
package annotatecmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prairie-archives/nerbench/internal/annotate"
	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/tagger"
	"github.com/prairie-archives/nerbench/internal/workspace"
	"github.com/spf13/cobra"
)

// NewDraftCmd creates the draft command
func NewDraftCmd() *cobra.Command {
	var configPath string
	var workspaceDir string
	var model string
	var document string
	var force bool

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Generate AI draft annotations for extracted snippets",
		Long: `Pre-annotate extracted snippets with a configured model.

Drafts feed the review step: a human accepts, rejects, or fixes each draft
entity, which is much faster than annotating from scratch. Documents that
already have a draft are skipped unless --force is given.`,
		Example: `  # Draft every document with snippets
  nerbench annotate draft --model spacy_en_core_web_sm

  # Redo one document with a different model
  nerbench annotate draft --model gemini-flash --document ptr_19260121 --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				return fmt.Errorf("--model is required")
			}
			return executeDraft(cmd.Context(), configPath, workspaceDir, model, document, force)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")
	cmd.Flags().StringVar(&model, "model", "", "Model name from the config (required)")
	cmd.Flags().StringVar(&document, "document", "", "Draft a single document id")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate drafts that already exist")

	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func executeDraft(ctx context.Context, configPath, workspaceDir, model, document string, force bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workspaceDir == "" {
		workspaceDir = cfg.Workspace
	}
	ws := workspace.New(workspaceDir)

	mc, err := cfg.Model(model)
	if err != nil {
		return err
	}
	tg, err := tagger.ForModel(mc)
	if err != nil {
		return err
	}

	var docIDs []string
	if document != "" {
		docIDs = []string{document}
	} else {
		docIDs, err = ws.ListSnippets()
		if err != nil {
			return fmt.Errorf("failed to list snippets: %w", err)
		}
		if len(docIDs) == 0 {
			return fmt.Errorf("no snippets in %s, run 'nerbench dataset extract' first", ws.SnippetsDir())
		}
	}

	slog.Info("Starting draft generation", "model", model, "documents", len(docIDs))

	drafted, skipped, entities := 0, 0, 0
	for _, docID := range docIDs {
		if !force && ws.DraftExists(docID) {
			slog.Info("Draft already exists, skipping", "document", docID)
			skipped++
			continue
		}

		draft, err := annotate.GenerateDraft(ctx, ws, tg, docID)
		if err != nil {
			return fmt.Errorf("draft generation failed for %s: %w", docID, err)
		}
		drafted++
		entities += draft.TotalEntities
	}

	fmt.Printf("\nDraft generation complete: %d drafted, %d skipped, %d entities detected\n",
		drafted, skipped, entities)
	fmt.Printf("Drafts saved to: %s\n", ws.DraftsDir())
	fmt.Printf("\nReview them with:\n")
	fmt.Printf("  nerbench annotate review [document]\n")

	return nil
}
