package cmd

import (
	"github.com/prairie-archives/nerbench/internal/datasetcmd"
	"github.com/spf13/cobra"
)

func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Corpus sampling and test-set inspection tools",
		Long: `Tools for building and browsing the test dataset.

Supports fetching the OCR export bundle, extracting entity-dense snippets
from the corpus documents, inspecting snippets and gold annotations, and
summarizing annotation progress per document and entity type.`,
	}

	// Add dataset subcommands
	cmd.AddCommand(datasetcmd.NewFetchCmd())
	cmd.AddCommand(datasetcmd.NewExtractCmd())
	cmd.AddCommand(datasetcmd.NewInspectCmd())
	cmd.AddCommand(datasetcmd.NewStatsCmd())

	return cmd
}
