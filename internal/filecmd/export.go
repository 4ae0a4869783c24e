package filecmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"github.com/pypeit/pypeitfile/internal/export"
	"github.com/pypeit/pypeitfile/internal/pypeit"
)

const formatParquet = "parquet"

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export a reduction file as Parquet, YAML or JSON",
		Long: `Export the frame table of a reduction file for analysis elsewhere.

parquet writes one row per active frame with typed numeric columns.
yaml writes the whole file: parameters, setups, frames and validation issues.
json writes the frames with their typed fields.`,
		Example: `  # Frames as Parquet next to the reduction file
  pypeitfile export keck_mosfire_A.pypeit --format parquet

  # Whole file as YAML on stdout
  pypeitfile export keck_mosfire_A.pypeit --format yaml --output -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + format
			}
			return executeExport(cmd.OutOrStdout(), args[0], format, output)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatParquet, "Export format (parquet, yaml, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path, - for stdout (default: FILE with the format's extension)")

	return cmd
}

func executeExport(stdout io.Writer, path, format, output string) error {
	f, err := pypeit.ParseFile(path)
	if err != nil {
		return err
	}

	var render func(io.Writer) error
	switch format {
	case formatParquet:
		if output == "-" {
			return fmt.Errorf("parquet output needs a file path")
		}
		render = func(w io.Writer) error { return export.WriteParquet(w, path, f.Frames()) }
	case export.FormatYAML:
		render = func(w io.Writer) error { return export.WriteYAML(w, path, f, pypeit.Validate(f)) }
	case export.FormatJSON:
		render = func(w io.Writer) error { return export.WriteFrames(w, export.FormatJSON, f.Frames()) }
	default:
		return fmt.Errorf("unsupported export format: %s (supported: parquet, yaml, json)", format)
	}

	if output == "-" {
		return render(stdout)
	}
	if err := writeAtomic(output, render); err != nil {
		return err
	}

	absPath, _ := filepath.Abs(output)
	fmt.Fprintf(stdout, "✅ Exported %d frames to: %s\n", len(f.Frames()), absPath)
	return nil
}

// writeAtomic renders into a pending file that replaces path only on success.
func writeAtomic(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending export file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			slog.Debug("cleanup pending export file", "path", path, "err", err)
		}
	}()

	if err := render(pendingFile); err != nil {
		return err
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace export file: %w", err)
	}
	return nil
}
