package filecmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pypeit/pypeitfile/internal/catalog"
	"github.com/pypeit/pypeitfile/internal/discover"
	"github.com/pypeit/pypeitfile/internal/export"
	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// NewIndexCmd creates the index command and its subcommands
func NewIndexCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Maintain a searchable catalog of frames across reduction files",
		Long: `Index the frame tables of many reduction files into a SQLite catalog and
search them by target, frame type, setup or source file.

The catalog path defaults to $PYPEITFILE_INDEX, or pypeit_frames.db.`,
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", Getenv(EnvIndex, defaultIndexPath), "Path to the catalog database")

	cmd.AddCommand(newIndexAddCmd(&dbPath))
	cmd.AddCommand(newIndexFindCmd(&dbPath))
	cmd.AddCommand(newIndexSourcesCmd(&dbPath))
	cmd.AddCommand(newIndexRemoveCmd(&dbPath))

	return cmd
}

func newIndexAddCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add FILE|DIR...",
		Short: "Index (or re-index) reduction files",
		Long:  "Index reduction files. Directories are searched for .pypeit files.",
		Example: `  pypeitfile index add REDUX_OUT
  pypeitfile index add --db night1.db keck_mosfire_A.pypeit`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Open(*dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			return executeIndexAdd(cmd, store, args)
		},
	}
}

func executeIndexAdd(cmd *cobra.Command, store *catalog.Store, args []string) error {
	reductions, err := discover.Expand(args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	total := 0
	for _, path := range discover.Paths(reductions) {
		f, err := pypeit.ParseFile(path)
		if err != nil {
			return err
		}
		source, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		n, err := store.Index(cmd.Context(), source, f)
		if err != nil {
			return err
		}
		slog.Debug("Indexed reduction file", "path", source, "frames", n)
		fmt.Fprintf(w, "Indexed %d frames from %s\n", n, path)
		total += n
	}
	fmt.Fprintf(w, "✅ %d frames from %d files\n", total, len(reductions))
	return nil
}

func newIndexFindCmd(dbPath *string) *cobra.Command {
	var q catalog.Query
	var frameType string
	var format string

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Search indexed frames",
		Example: `  # All arcs taken for Setup A
  pypeitfile index find --type arc --setup A

  # Science frames of a target as JSON
  pypeitfile index find --target ngc --type science --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if frameType != "" {
				q.FrameType = pypeit.FrameType(frameType)
				if !q.FrameType.Known() {
					return fmt.Errorf("unknown frame type: %s", frameType)
				}
			}
			store, err := catalog.Open(*dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Find(cmd.Context(), q)
			if err != nil {
				return err
			}
			return writeEntries(cmd.OutOrStdout(), format, entries)
		},
	}

	cmd.Flags().StringVar(&q.Target, "target", "", "Target name substring (case-insensitive)")
	cmd.Flags().StringVar(&frameType, "type", "", "Frame type")
	cmd.Flags().StringVar(&q.Setup, "setup", "", "Setup identifier")
	cmd.Flags().StringVar(&q.Source, "source", "", "Absolute path of the indexed reduction file")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "Maximum number of frames (0 for all)")
	cmd.Flags().StringVar(&format, "format", export.FormatText, "Output format (text, json)")

	return cmd
}

func writeEntries(w io.Writer, format string, entries []catalog.Entry) error {
	switch format {
	case export.FormatText:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FILENAME\tFRAMETYPE\tTARGET\tSETUP\tMJD\tCALIB\tSOURCE")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.5f\t%s\t%s\n",
				e.Filename, e.FrameType, orDash(e.Target), orDash(e.Setup), e.MJD, orDash(e.Calib), e.Source)
		}
		return tw.Flush()
	case export.FormatJSON:
		if entries == nil {
			entries = []catalog.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func newIndexSourcesCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List indexed reduction files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Open(*dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			sources, err := store.Sources(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tSPECTROGRAPH\tFRAMES\tINDEXED")
			for _, s := range sources {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Path, orDash(s.Spectrograph), s.Frames, s.IndexedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func newIndexRemoveCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove FILE...",
		Short: "Drop reduction files and their frames from the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Open(*dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, path := range args {
				source, err := filepath.Abs(path)
				if err != nil {
					return fmt.Errorf("failed to resolve %s: %w", path, err)
				}
				if err := store.Remove(cmd.Context(), source); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", source)
			}
			return nil
		},
	}
}
