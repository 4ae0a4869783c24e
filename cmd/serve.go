package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pypeit/pypeitfile/internal/discover"
	"github.com/pypeit/pypeitfile/internal/filecmd"
	"github.com/pypeit/pypeitfile/internal/handlers"
	"github.com/pypeit/pypeitfile/internal/storage"
	"github.com/pypeit/pypeitfile/internal/watch"
)

func newServeCmd() *cobra.Command {
	var port string
	var watchFiles bool

	cmd := &cobra.Command{
		Use:   "serve FILE|DIR...",
		Short: "Serve reduction files over a JSON API",
		Long: `Starts an HTTP server exposing the given reduction files, their validation
results and their frames:

  GET /api/files                  list files with frame and issue counts
  GET /api/files/{name}           parsed file and validation report
  GET /api/files/{name}/frames    frames, filtered by ?type= and ?calib=
  GET /healthcheck

Directories are searched for .pypeit files. Files are served under their
path relative to the common root, e.g. shane_kast_blue/600_4310_d55/shane_kast_blue_A.pypeit.

With --watch the files are reparsed whenever they change on disk.`,
		Example: `  # Serve every reduction file below a directory on the default port 8888
  pypeitfile serve REDUX_OUT

  # Keep the served files in sync with edits
  pypeitfile serve --watch --port 3000 keck_mosfire_A.pypeit`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reductions, err := discover.Expand(args)
			if err != nil {
				return err
			}
			if len(reductions) == 0 {
				return fmt.Errorf("no %s files found", discover.Ext)
			}

			store := storage.New()
			for _, r := range reductions {
				entry := store.Load(r.Name, r.Path)
				if entry.Err != "" {
					slog.Warn("Reduction file did not parse", "path", r.Path, "err", entry.Err)
				}
			}
			handler := handlers.New(store)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/files", handler.HandleFiles)
			mux.HandleFunc("/api/files/", handler.HandleFileDetail)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if watchFiles {
				watcher, err := watch.New(discover.Paths(reductions), func(path string) {
					entry, ok := store.Reload(path)
					if !ok {
						slog.Info("Reduction file removed", "path", path)
						return
					}
					slog.Info("Reloaded reduction file", "name", entry.Name, "issues", len(entry.Report.Issues), "err", entry.Err)
				})
				if err != nil {
					return fmt.Errorf("failed to start watcher: %w", err)
				}
				go func() {
					if err := watcher.Run(ctx); err != nil {
						slog.Error("Watcher failed", "err", err)
					}
				}()
			}

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Reduction files available", "addr", addr, "url", "http://localhost"+addr+"/api/files", "files", len(reductions))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
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

	cmd.Flags().StringVarP(&port, "port", "p", filecmd.Getenv(filecmd.EnvPort, filecmd.DefaultPort), "Port to listen on")
	cmd.Flags().BoolVar(&watchFiles, "watch", false, "Reload files when they change")

	return cmd
}
