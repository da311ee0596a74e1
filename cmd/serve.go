package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/handlers"
	"github.com/prairie-archives/nerbench/internal/workspace"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var configPath string
	var workspaceDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the annotation progress and review API",
		Long: `Starts the nerbench JSON API on the specified port.

The API reports per-document workflow progress (snippets, drafts, gold
standard, predictions), serves saved evaluation reports, and drives
draft reviews through review sessions.`,
		Example: `  # Start server on default port 8214
  nerbench serve

  # Start server on custom port
  nerbench serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if workspaceDir == "" {
				workspaceDir = cfg.Workspace
			}

			handler := handlers.New(workspace.New(workspaceDir))

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/progress", handler.HandleProgress)
			mux.HandleFunc("/api/documents", handler.HandleDocuments)
			mux.HandleFunc("/api/documents/", handler.HandleDocumentDetail)
			mux.HandleFunc("/api/reports", handler.HandleReports)
			mux.HandleFunc("/api/reports/", handler.HandleReportDetail)
			mux.HandleFunc("/api/sessions", handler.HandleSessions)
			mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("nerbench API available", "addr", addr, "workspace", workspaceDir, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8214", "Port to listen on")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")

	return cmd
}
