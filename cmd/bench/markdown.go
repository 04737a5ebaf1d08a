package main

import (
	"github.com/spf13/cobra"
)

func newMarkdownTableCommand() *cobra.Command {
	var jsonFile string

	cmd := &cobra.Command{
		Use:   "markdown-table",
		Short: "Output a Markdown table for the last session in the JSON report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := loadReports(jsonFile)
			if err != nil {
				return err
			}
			return writeMarkdownTable(cmd.OutOrStdout(), sessions)
		},
	}

	cmd.Flags().StringVar(&jsonFile, "jsonfile", "test-results.json", "path to JSON file for markdown table")
	return cmd
}
