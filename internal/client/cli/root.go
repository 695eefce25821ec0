package cli

import (
	"log/slog"

	"github.com/dmitrijs2005/photovault/internal/buildinfo"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the photovault command tree around a.
func NewRootCommand(a *App) *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "photovault",
		Short:         "End-to-end encrypted photo backup and sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			return a.open(cmd.Context(), level)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.Close()
		},
	}

	a.config.BindFlags(root)
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug records")

	root.AddCommand(
		newLoginCommand(a),
		newKeysCommand(a),
		newDirsCommand(a),
		newIndexCommand(a),
		newSyncCommand(a),
		newStatusCommand(a),
		newGetCommand(a),
		newResetCommand(a),
		newVersionCommand(a),
	)
	return root
}

func newVersionCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// Needs no data directory.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(*cobra.Command, []string) {
			buildinfo.PrintBuildData(a.out)
		},
	}
}
