package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/flowmap/internal/logging"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "flowmap",
		Short: "Normalize location and flow tables into flow map datasets",
		Long: `flowmap reads a locations table (id, name, lat, lon) and a flows table
(origin, dest, count, optional time), maps their columns, coerces the values
and aggregates repeated flows into a dataset ready for rendering.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newServeCmd(),
		newImportCmd(),
		newMatchCmd(),
		newTemplatesCmd(),
	)
	return cmd
}
