package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notes/pkg/core"
)

var (
	noteTitle   string
	noteContent string
	deleteYes   bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	Long: `Create a note. Content is read from --content, or from stdin when
--content is "-".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(cmd, noteContent)
		if err != nil {
			return err
		}

		store, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		d := core.Draft{Content: core.Text(content)}
		if cmd.Flags().Changed("title") {
			d.Title = core.Text(noteTitle)
		}
		n, err := store.Create(cmd.Context(), d)
		if err != nil {
			return explain(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), n.ID)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the title or content of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var p core.Patch
		if cmd.Flags().Changed("title") {
			p.Title = core.Text(noteTitle)
		}
		if cmd.Flags().Changed("content") {
			content, err := readContent(cmd, noteContent)
			if err != nil {
				return err
			}
			p.Content = core.Text(content)
		}
		if p.Title == nil && p.Content == nil {
			return fmt.Errorf("nothing to change: pass --title and/or --content")
		}

		store, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Update(cmd.Context(), args[0], p)
		if err != nil {
			return explain(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", n.ID)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		id := args[0]
		if !deleteYes {
			title := id
			for _, n := range store.Snapshot().Notes {
				if n.ID == id {
					title = fmt.Sprintf("%q (%s)", n.Title, id)
				}
			}
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %s? [y/N] ", title))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
		}

		if _, err := store.Delete(cmd.Context(), id); err != nil {
			return explain(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		return nil
	},
}

func readContent(cmd *cobra.Command, value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func init() {
	rootCmd.AddCommand(addCmd, editCmd, rmCmd)

	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVarP(&noteTitle, "title", "t", "", "note title")
		c.Flags().StringVarP(&noteContent, "content", "c", "", `note content ("-" reads stdin)`)
	}
	rmCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}
