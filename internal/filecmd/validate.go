package filecmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pypeit/pypeitfile/internal/discover"
	"github.com/pypeit/pypeitfile/internal/export"
	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// ErrValidation is returned when at least one file fails validation.
var ErrValidation = errors.New("validation failed")

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	var strict bool
	var format string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "validate FILE|DIR...",
		Short: "Check reduction files for structural and consistency errors",
		Long: `Parse each reduction file and check it for duplicate filenames, malformed
identifiers, dangling background pairings, undefined setups and science frames
without wavelength calibrations.

Directories are searched for .pypeit files. Files laid out as
<instrument>/<setup>/<name>.pypeit are summarized per setup.

Files are checked concurrently. The command fails if any file has errors, or
any warnings when --strict is given.`,
		Example: `  # Validate every reduction file below a directory, with a per-setup summary
  pypeitfile validate REDUX_OUT

  # Treat warnings as errors and emit JSON
  pypeitfile validate --strict --format json keck_mosfire_A.pypeit`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeValidate(cmd.Context(), cmd.OutOrStdout(), args, format, strict, concurrency)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	cmd.Flags().StringVar(&format, "format", export.FormatText, "Output format (text, json, yaml)")
	cmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of files checked in parallel")

	return cmd
}

// ValidateFiles parses and validates paths concurrently. Reports are
// returned in the order of paths; parse failures are recorded, not returned.
func ValidateFiles(ctx context.Context, paths []string, concurrency int) ([]export.FileReport, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	reports := make([]export.FileReport, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = validateOne(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func validateOne(path string) export.FileReport {
	report := export.FileReport{Path: path}
	f, err := pypeit.ParseFile(path)
	if err != nil {
		report.Error = err.Error()
		slog.Debug("Reduction file did not parse", "path", path, "err", err)
		return report
	}
	report.Issues = pypeit.Validate(f).Issues
	slog.Debug("Validated reduction file", "path", path, "issues", len(report.Issues))
	return report
}

func executeValidate(ctx context.Context, w io.Writer, args []string, format string, strict bool, concurrency int) error {
	reductions, err := discover.Expand(args)
	if err != nil {
		return err
	}
	if len(reductions) == 0 {
		return fmt.Errorf("no %s files found", discover.Ext)
	}

	reports, err := ValidateFiles(ctx, discover.Paths(reductions), concurrency)
	if err != nil {
		return err
	}
	for i, r := range reductions {
		reports[i].Setup = r.Key
	}
	if err := export.WriteValidation(w, format, reports); err != nil {
		return err
	}
	if format == export.FormatText {
		if err := export.WriteSetupSummary(w, export.SummarizeSetups(reports, strict)); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range reports {
		if !r.OK(strict) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrValidation, failed, len(reports))
	}
	return nil
}
