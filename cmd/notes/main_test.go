package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notes/pkg/adapters/supabase"
	"github.com/aretw0/notes/pkg/core"
)

// resetFlags restores every flag to its default so that commands can be
// executed repeatedly in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.DiscardHandler)) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("NOTES_CONFIG_DIR", t.TempDir())
	for _, k := range []string{"SUPABASE_URL", "SUPABASE_KEY", "NOTES_URL", "NOTES_KEY"} {
		t.Setenv(k, "")
	}
	return "sqlite://" + filepath.Join(t.TempDir(), "notes.db")
}

func TestCLI_SQLiteLifecycle(t *testing.T) {
	url := isolate(t)
	conn := []string{"--url", url, "--key", "local"}
	run := func(stdin string, args ...string) string {
		t.Helper()
		out, err := execute(t, stdin, append(conn, args...)...)
		require.NoError(t, err, out)
		return out
	}

	_, err := execute(t, "", append(conn, "list")...)
	require.Error(t, err)
	assert.True(t, core.IsTableMissing(err))
	assert.Contains(t, err.Error(), "notes schema")

	assert.Contains(t, run("", "schema", "--apply"), "notes table ready")

	id := strings.TrimSpace(run("from stdin", "add", "-t", "hello", "-c", "-"))
	require.NotEmpty(t, id)

	out := run("", "list")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "hello")

	out = run("", "list", "--json")
	var listed []core.Note
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "from stdin", listed[0].Content)

	_, err = execute(t, "", append(conn, "edit", id)...)
	assert.ErrorContains(t, err, "nothing to change")

	assert.Contains(t, run("", "edit", id, "--title", "renamed"), "Updated "+id)
	assert.Contains(t, run("", "list"), "renamed")

	assert.Contains(t, run("n\n", "rm", id), "Aborted")
	assert.Contains(t, run("", "list"), id)

	assert.Contains(t, run("y\n", "rm", id), "Deleted "+id)
	assert.NotContains(t, run("", "list"), id)
}

func TestCLI_ExportImport(t *testing.T) {
	url := isolate(t)
	conn := []string{"--url", url, "--key", "local"}
	dir := t.TempDir()

	_, err := execute(t, "", append(conn, "schema", "--apply")...)
	require.NoError(t, err)
	_, err = execute(t, "", append(conn, "add", "-t", "first", "-c", "body")...)
	require.NoError(t, err)

	out, err := execute(t, "", append(conn, "export", dir)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 notes")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "draft.md"), []byte("just text\n"), 0644))

	out, err = execute(t, "", append(conn, "import", dir)...)
	require.NoError(t, err)
	assert.Contains(t, out, "1 created, 0 updated, 1 unchanged, 0 failed")

	out, err = execute(t, "", append(conn, "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "draft")
}

func TestCLI_NotConfigured(t *testing.T) {
	isolate(t)

	_, err := execute(t, "", "list")
	assert.ErrorIs(t, err, errNotConfigured)

	_, err = execute(t, "", "add", "-t", "x")
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestCLI_Schema(t *testing.T) {
	isolate(t)

	out, err := execute(t, "", "schema")
	require.NoError(t, err)
	assert.Equal(t, supabase.SchemaSQL, out)

	_, err = execute(t, "", "schema", "--apply")
	assert.ErrorContains(t, err, "only supported on sqlite")
}

func TestCLI_Version(t *testing.T) {
	isolate(t)
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "notes version "))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"y", true},
		{"\n", false},
		{"no\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := confirm(strings.NewReader(tt.input), &out, "Sure? ")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Sure? ", out.String())
	}
}

func TestExplain(t *testing.T) {
	assert.NoError(t, explain(nil))
	assert.ErrorIs(t, explain(core.ErrEnvMissing), errNotConfigured)

	missing := explain(core.ErrTableMissing)
	assert.ErrorIs(t, missing, core.ErrTableMissing)
	assert.Contains(t, missing.Error(), "notes schema")

	other := errors.New("boom")
	assert.Equal(t, other, explain(other))
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logLevel("warning"))
	assert.Equal(t, slog.LevelError, logLevel("error"))
	assert.Equal(t, slog.LevelInfo, logLevel("nonsense"))

	verbose = true
	defer func() { verbose = false }()
	assert.Equal(t, slog.LevelDebug, logLevel("error"))
}
