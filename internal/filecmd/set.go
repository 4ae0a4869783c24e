package filecmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// NewSetCmd creates the set command
func NewSetCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "set FILE PATH=VALUE...",
		Short: "Override reduction parameters",
		Long: `Set parameters in the run configuration. PATH is the dotted section path of
the parameter, e.g. reduce.skysub.bspline_spacing sets bspline_spacing under
[reduce] [[skysub]]. Missing sections are created.`,
		Example: `  # Print the file with a new sky subtraction spacing
  pypeitfile set keck_mosfire_A.pypeit reduce.skysub.bspline_spacing=0.8

  # Change the lamps in place
  pypeitfile set -w keck_mosfire_A.pypeit "calibrations.wavelengths.lamps=ArI, NeI"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeSet(cmd.OutOrStdout(), args[0], args[1:], write)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write result to the source file instead of stdout")

	return cmd
}

// ParseAssignment splits a PATH=VALUE argument.
func ParseAssignment(arg string) (path, value string, err error) {
	path, value, ok := strings.Cut(arg, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", "", fmt.Errorf("invalid assignment %q (expected PATH=VALUE)", arg)
	}
	return path, strings.TrimSpace(value), nil
}

func executeSet(w io.Writer, path string, assignments []string, write bool) error {
	f, err := pypeit.ParseFile(path)
	if err != nil {
		return err
	}

	for _, arg := range assignments {
		key, value, err := ParseAssignment(arg)
		if err != nil {
			return err
		}
		if err := f.Config.Set(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}

	if write {
		return pypeit.WriteFile(path, f)
	}
	return pypeit.Write(w, f)
}
