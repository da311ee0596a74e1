package cmd

import (
	"github.com/prairie-archives/nerbench/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "NER evaluation tools",
		Long: `Evaluation tools for scoring NER model predictions against the gold standard.

Supports running model predictions over the gold snippets, computing exact and
partial span-match precision/recall/F1 with a categorized error list, and
rendering saved evaluation reports.`,
	}

	// Add eval subcommands
	cmd.AddCommand(evalcmd.NewPredictCmd())
	cmd.AddCommand(evalcmd.NewRunCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}
