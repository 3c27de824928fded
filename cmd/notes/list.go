package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notes/pkg/core"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		notes := store.Snapshot().Notes
		if listJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(notes)
		}

		for _, n := range notes {
			title := n.Title
			if title == "" {
				title = core.DefaultTitle
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", n.ID, n.UpdatedAt.Local().Format("2006-01-02 15:04"), title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
