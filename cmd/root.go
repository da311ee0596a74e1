package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "nerbench",
		Short: "Gold-standard NER test sets from historical OCR text",
		Long: `nerbench builds a gold-standard named entity recognition test set from
historical OCR documents and scores NER models against it.

The workflow: extract entity-dense snippets from the corpus, pre-annotate
them with a model, review the drafts into a gold standard, run model
predictions, and evaluate exact and partial span matches per entity type
and per document.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(newDatasetCmd())
	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newEvalCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// setupLogging installs the default slog handler on stderr, so log lines
// never interleave with the tables and prompts written to stdout.
func setupLogging(flagLevel string) {
	level := flagLevel
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}

	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
}
