package filecmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// NewGroupsCmd creates the groups command
func NewGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups FILE",
		Short: "Show calibration groups and background pairings",
		Long: `Show which frames each calibration group holds, which frames are co-added
under each combination ID, and which frames are subtracted as background from
each science or standard frame.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frames, err := pypeit.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}
			return executeGroups(cmd.OutOrStdout(), frames)
		},
	}
	return cmd
}

func executeGroups(w io.Writer, frames []pypeit.Frame) error {
	fmt.Fprintln(w, "Calibration groups")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, g := range pypeit.CalibGroups(frames) {
		fmt.Fprintf(w, "calib %d:\n", g.ID)
		for _, ft := range pypeit.KnownFrameTypes {
			of := g.Of(ft)
			if len(of) == 0 {
				continue
			}
			fmt.Fprintf(w, "  %-16s %s\n", string(ft)+":", filenames(of))
		}
	}

	if combs := pypeit.Combinations(frames); len(combs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Combinations")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, c := range combs {
			fmt.Fprintf(w, "comb_id %d: %s\n", c.ID, filenames(c.Frames))
		}
	}

	if pairs := pypeit.Pairs(frames); len(pairs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Background pairs")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, p := range pairs {
			bkg := filenames(p.Backgrounds)
			if bkg == "" {
				bkg = fmt.Sprintf("(no frame with comb_id %d)", p.Science.BkgID)
			}
			fmt.Fprintf(w, "%s - %s\n", p.Science.Filename, bkg)
		}
	}
	return nil
}

func filenames(frames []pypeit.Frame) string {
	names := make([]string, len(frames))
	for i, fr := range frames {
		names[i] = fr.Filename
	}
	return strings.Join(names, ", ")
}
