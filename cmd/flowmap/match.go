package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/flowmap/internal/core"
)

func newMatchCmd() *cobra.Command {
	var entity, sheet string

	cmd := &cobra.Command{
		Use:   "match FILE",
		Short: "Propose a field mapping for a file's columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			et, err := core.ParseEntity(entity)
			if err != nil {
				return err
			}
			text, err := readTable(args[0], sheet)
			if err != nil {
				return err
			}
			preview, err := core.DescribeSchema(text, et, nil)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(preview.Mapping); err != nil {
				return err
			}
			if len(preview.Unmapped) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "unmapped fields: %v (columns: %v)\n", preview.Unmapped, preview.Columns)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&entity, "type", "t", "", "Table type: locations or flows (required)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read from an XLSX file")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
