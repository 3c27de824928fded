package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/notes/pkg/mirror"
)

var (
	importPattern string
	importWatch   bool
)

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Write every note to <dir> as Markdown with YAML frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		m, err := mirror.New(store, mirror.Config{Dir: args[0], Logger: slog.Default()})
		if err != nil {
			return err
		}
		res, err := m.Export(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d notes to %s\n", res.Written, args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Create or update notes from Markdown files in <dir>",
	Long: `Import Markdown files matching --pattern. A file whose frontmatter id
names an existing note updates it; any other file creates a note and gets the
new id written into its frontmatter.

With --watch, files are re-imported as they change until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := loadStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		m, err := mirror.New(store, mirror.Config{
			Dir:     args[0],
			Pattern: importPattern,
			Logger:  slog.Default(),
			OnImport: func(path string, a mirror.Action) {
				if importWatch && a != mirror.ActionUnchanged {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", a, path)
				}
			},
		})
		if err != nil {
			return err
		}

		res, err := m.Import(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d created, %d updated, %d unchanged, %d failed\n",
			args[0], res.Created, res.Updated, res.Unchanged, res.Failed)
		if err != nil {
			return explain(err)
		}
		if !importWatch {
			return nil
		}

		done, err := m.Watch(ctx)
		if err != nil {
			return err
		}
		slog.Info("watching for file changes", "dir", args[0], "pattern", importPattern)
		<-done
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	importCmd.Flags().StringVar(&importPattern, "pattern", mirror.DefaultPattern, "doublestar pattern of files to import")
	importCmd.Flags().BoolVarP(&importWatch, "watch", "w", false, "Keep importing files as they change")
}
