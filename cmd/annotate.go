package cmd

import (
	"github.com/prairie-archives/nerbench/internal/annotatecmd"
	"github.com/spf13/cobra"
)

func newAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Draft, review, and manual annotation tools",
		Long: `Tools for turning extracted snippets into gold-standard annotations.

Supports generating AI draft annotations with a configured model, reviewing
drafts entity by entity into gold files, and annotating snippets manually
from scratch.`,
	}

	// Add annotate subcommands
	cmd.AddCommand(annotatecmd.NewDraftCmd())
	cmd.AddCommand(annotatecmd.NewReviewCmd())
	cmd.AddCommand(annotatecmd.NewNewCmd())

	return cmd
}
