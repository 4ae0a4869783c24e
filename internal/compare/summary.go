package compare

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintSummary writes a human-readable report of the comparison.
func (c *Comparison) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "--- %s\n+++ %s\n", c.Old, c.New)
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if c.Equal() {
		fmt.Fprintln(w, "No differences")
		return
	}

	printChanges(w, "PARAMETERS", c.Params)
	printChanges(w, "SETUPS", c.Setups)
	printChanges(w, "PATHS", c.Paths)
	printChanges(w, "COLUMNS", c.Columns)

	if len(c.Frames) > 0 {
		fmt.Fprintln(w, "FRAMES")
		fmt.Fprintln(w, strings.Repeat("-", 70))
		for _, fd := range c.Frames {
			switch fd.Kind {
			case KindAdded:
				fmt.Fprintf(w, "+ %s\n", fd.Filename)
			case KindRemoved:
				fmt.Fprintf(w, "- %s\n", fd.Filename)
			default:
				fmt.Fprintf(w, "~ %s\n", fd.Filename)
				for _, cell := range fd.Cells {
					fmt.Fprintf(w, "    %s: %s -> %s\n", cell.Key, cell.Old, cell.New)
				}
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "FRAME STATISTICS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Unchanged: %d  Changed: %d  Added: %d  Removed: %d\n",
		c.Unchanged, c.Count(KindChanged), c.Count(KindAdded), c.Count(KindRemoved))

	cols := make([]string, 0, len(c.ColumnStats))
	for col, stats := range c.ColumnStats {
		if stats.Changed > 0 {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	for _, col := range cols {
		stats := c.ColumnStats[col]
		total := stats.Same + stats.Changed
		fmt.Fprintf(w, "  %-12s %d/%d changed (%.1f%%)\n", col+":", stats.Changed, total,
			float64(stats.Changed)/float64(total)*100)
	}
}

func printChanges(w io.Writer, title string, changes []Change) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, ch := range changes {
		switch ch.Kind {
		case KindAdded:
			fmt.Fprintln(w, strings.TrimSpace("+ "+ch.Key+" "+ch.New))
		case KindRemoved:
			fmt.Fprintln(w, strings.TrimSpace("- "+ch.Key+" "+ch.Old))
		default:
			fmt.Fprintf(w, "~ %s: %s -> %s\n", ch.Key, ch.Old, ch.New)
		}
	}
	fmt.Fprintln(w)
}
