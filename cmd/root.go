package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pypeit/pypeitfile/internal/filecmd"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "pypeitfile",
		Short: "Read, check and rewrite PypeIt reduction files",
		Long: `pypeitfile works with the .pypeit files that drive a PypeIt reduction: the
parameter overrides, the instrument setup block and the frame table.

It validates files, rewrites them in canonical layout, queries frames and
calibration groups, exports frame tables and indexes many files into a
searchable catalog.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			filecmd.SetupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(filecmd.NewInspectCmd())
	cmd.AddCommand(filecmd.NewValidateCmd())
	cmd.AddCommand(filecmd.NewFmtCmd())
	cmd.AddCommand(filecmd.NewFramesCmd())
	cmd.AddCommand(filecmd.NewGroupsCmd())
	cmd.AddCommand(filecmd.NewSetCmd())
	cmd.AddCommand(filecmd.NewDiffCmd())
	cmd.AddCommand(filecmd.NewExportCmd())
	cmd.AddCommand(filecmd.NewIndexCmd())
	cmd.AddCommand(filecmd.NewWatchCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
