package filecmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/pypeit/pypeitfile/internal/discover"
	"github.com/pypeit/pypeitfile/internal/export"
	"github.com/pypeit/pypeitfile/internal/watch"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "watch FILE|DIR...",
		Short: "Revalidate reduction files whenever they change",
		Long: `Validate the files once, then again every time one of them is saved.
Runs until interrupted.`,
		Example: `  pypeitfile watch keck_mosfire_A.pypeit keck_mosfire_B.pypeit`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeWatch(cmd.Context(), cmd.OutOrStdout(), args, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

func executeWatch(ctx context.Context, w io.Writer, args []string, strict bool) error {
	reductions, err := discover.Expand(args)
	if err != nil {
		return err
	}
	paths := discover.Paths(reductions)

	var mu sync.Mutex
	report := func(path string) {
		r := validateOne(path)
		mu.Lock()
		defer mu.Unlock()
		if err := export.WriteValidation(w, export.FormatText, []export.FileReport{r}); err != nil {
			slog.Error("Failed to write report", "path", path, "err", err)
		}
		if !r.OK(strict) {
			slog.Warn("Reduction file has problems", "path", path)
		}
	}

	for _, path := range paths {
		report(path)
	}

	watcher, err := watch.New(paths, report)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	slog.Info("Watching reduction files", "count", len(paths))
	return watcher.Run(ctx)
}
