package filecmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pypeit/pypeitfile/internal/compare"
	"github.com/pypeit/pypeitfile/internal/export"
	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// ErrDifferent is returned by diff --exit-code when the files differ.
var ErrDifferent = errors.New("files differ")

// NewDiffCmd creates the diff command
func NewDiffCmd() *cobra.Command {
	var format string
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two reduction files",
		Long: `Compare the parameters, setups, paths and frame tables of two reduction
files. Frames are matched by filename and compared cell by cell; formatting
and commented-out rows are ignored.`,
		Example: `  # What changed since the file was generated
  pypeitfile diff keck_mosfire_A.pypeit.orig keck_mosfire_A.pypeit

  # Machine-readable
  pypeitfile diff --format json a.pypeit b.pypeit`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeDiff(cmd.OutOrStdout(), args[0], args[1], format, exitCode)
		},
	}

	cmd.Flags().StringVar(&format, "format", export.FormatText, "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Fail when the files differ")

	return cmd
}

func executeDiff(w io.Writer, oldPath, newPath, format string, exitCode bool) error {
	a, err := pypeit.ParseFile(oldPath)
	if err != nil {
		return err
	}
	b, err := pypeit.ParseFile(newPath)
	if err != nil {
		return err
	}

	c := compare.Files(oldPath, a, newPath, b)
	switch format {
	case export.FormatText:
		c.PrintSummary(w)
	case export.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to encode comparison: %w", err)
		}
	case export.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to encode comparison: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	if exitCode && !c.Equal() {
		return ErrDifferent
	}
	return nil
}
