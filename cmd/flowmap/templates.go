package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/flowmap/internal/properties"
)

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the property templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTIME DATA\tDESCRIPTION")
			for _, t := range properties.Templates() {
				timeData := ""
				if t.HasTimeData {
					timeData = "required"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, timeData, t.Description)
			}
			return tw.Flush()
		},
	}
}
