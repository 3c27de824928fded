package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/notes/pkg/adapters/lifecycle"
	"github.com/aretw0/notes/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print realtime changes to the notes table until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		backend, err := openBackend(slog.Default())
		if err != nil {
			return err
		}
		if c, ok := backend.(io.Closer); ok {
			defer c.Close()
		}
		if !backend.Configured() {
			return errNotConfigured
		}

		src := lifecycle.NewSource(backend)
		if err := src.Start(ctx); err != nil {
			return explain(err)
		}
		slog.Info("watching for changes", "relation", core.Relation)

		for e := range src.Events() {
			c, ok := e.(core.Change)
			if !ok {
				continue
			}
			title := ""
			if c.New != nil {
				title = c.New.Title
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-6s  %s  %s\n",
				c.CommitTime.Local().Format(time.TimeOnly), c.Kind, c.ID(), title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
