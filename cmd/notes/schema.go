package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/notes"
	"github.com/aretw0/notes/pkg/adapters/sqlite"
	"github.com/aretw0/notes/pkg/adapters/supabase"
	"github.com/aretw0/notes/pkg/core"
)

var schemaApply bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the DDL for the notes table, or create it on a local database",
	Long: `Print the DDL the configured backend expects.

On Supabase, run the printed SQL in the project's SQL editor. On a local
SQLite database, --apply creates the table directly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !notes.IsLocal(cfg.URL) {
			if schemaApply {
				return fmt.Errorf("--apply is only supported on sqlite:// databases; run the SQL below in the Supabase SQL editor\n\n%s", supabase.SchemaSQL)
			}
			fmt.Fprint(cmd.OutOrStdout(), supabase.SchemaSQL)
			return nil
		}

		if !schemaApply {
			fmt.Fprint(cmd.OutOrStdout(), sqlite.SchemaSQL)
			return nil
		}

		backend, err := openBackend(slog.Default())
		if err != nil {
			return err
		}
		applier, ok := backend.(core.SchemaApplier)
		if !ok || !backend.Configured() {
			return errNotConfigured
		}
		if err := applier.ApplySchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "notes table ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVar(&schemaApply, "apply", false, "Create the table (sqlite only)")
}
