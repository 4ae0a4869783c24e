package filecmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pypeit/pypeitfile/internal/export"
	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var showParams bool

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Summarize a PypeIt reduction file",
		Long: `Print the spectrograph, parameter overrides, instrument setups and a
breakdown of the frame table by frame type and calibration group.

A .parquet frame export written by "export --format parquet" is summarized
by source file and frame type instead.`,
		Example: `  # Summarize a reduction file
  pypeitfile inspect keck_mosfire_A.pypeit

  # Hide the parameter overrides
  pypeitfile inspect keck_mosfire_A.pypeit --params=false

  # Summarize a Parquet frame export
  pypeitfile inspect frames.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.EqualFold(filepath.Ext(args[0]), ".parquet") {
				return executeInspectParquet(cmd.OutOrStdout(), args[0])
			}
			f, err := pypeit.ParseFile(args[0])
			if err != nil {
				return err
			}
			return executeInspect(cmd.OutOrStdout(), args[0], f, showParams)
		},
	}

	cmd.Flags().BoolVar(&showParams, "params", true, "Show parameter overrides")

	return cmd
}

func executeInspect(w io.Writer, path string, f *pypeit.File, showParams bool) error {
	fmt.Fprintf(w, "File:          %s\n", path)
	fmt.Fprintf(w, "Spectrograph:  %s\n", orDash(f.Spectrograph()))
	fmt.Fprintln(w, strings.Repeat("=", 60))

	if showParams && f.Config != nil {
		fmt.Fprintln(w, "Parameters:")
		f.Config.Walk(func(path string, sec *pypeit.Section) {
			for _, p := range sec.Params {
				key := p.Key
				if path != "" {
					key = path + "." + key
				}
				fmt.Fprintf(w, "  %s = %s\n", key, p.Value)
			}
		})
		fmt.Fprintln(w)
	}

	if len(f.Setups) > 0 {
		fmt.Fprintln(w, "Setups:")
		for _, s := range f.Setups {
			fmt.Fprintf(w, "  %s\n", s.Name)
			for _, a := range s.Attrs {
				fmt.Fprintf(w, "    %-18s %s\n", a.Key+":", a.Value)
			}
		}
		fmt.Fprintln(w)
	}

	if f.Table == nil {
		fmt.Fprintln(w, "No data block")
		return nil
	}

	frames := f.Frames()
	fmt.Fprintf(w, "Paths:         %s\n", strings.Join(f.Table.Paths, ", "))
	fmt.Fprintf(w, "Frames:        %d active, %d commented out\n", len(frames), len(f.Table.Rows)-len(frames))

	counts := make(map[pypeit.FrameType]int)
	for _, fr := range frames {
		for _, ft := range fr.FrameTypes {
			counts[ft]++
		}
	}
	types := make([]string, 0, len(counts))
	for ft := range counts {
		types = append(types, string(ft))
	}
	sort.Strings(types)
	for _, ft := range types {
		fmt.Fprintf(w, "  %-18s %d\n", ft+":", counts[pypeit.FrameType(ft)])
	}

	groups := pypeit.CalibGroups(frames)
	if len(groups) > 0 {
		fmt.Fprintf(w, "Calib groups:  %d\n", len(groups))
	}
	if pairs := pypeit.Pairs(frames); len(pairs) > 0 {
		fmt.Fprintf(w, "Bkg pairs:     %d\n", len(pairs))
	}
	return nil
}

func executeInspectParquet(w io.Writer, path string) error {
	records, err := export.ReadParquet(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "File:          %s\n", path)
	fmt.Fprintf(w, "Records:       %d\n", len(records))
	fmt.Fprintln(w, strings.Repeat("=", 60))

	var sources []string
	perSource := make(map[string]int)
	counts := make(map[string]int)
	for _, rec := range records {
		if _, ok := perSource[rec.Source]; !ok {
			sources = append(sources, rec.Source)
		}
		perSource[rec.Source]++
		for _, ft := range rec.FrameTypes {
			counts[ft]++
		}
	}

	fmt.Fprintln(w, "Sources:")
	for _, src := range sources {
		fmt.Fprintf(w, "  %s (%d frames)\n", orDash(src), perSource[src])
	}

	types := make([]string, 0, len(counts))
	for ft := range counts {
		types = append(types, ft)
	}
	sort.Strings(types)
	fmt.Fprintln(w, "Frame types:")
	for _, ft := range types {
		fmt.Fprintf(w, "  %-18s %d\n", ft+":", counts[ft])
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
