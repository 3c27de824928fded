package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aretw0/notes/pkg/core"
	"github.com/aretw0/notes/pkg/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive list/detail view (default)",
	Args:  cobra.NoArgs,
	RunE:  runUI,
}

// runUI owns the terminal, so logs go to cfg.LogFile instead of stderr.
func runUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	store, backend, err := openStore(ctx, true, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := tui.Options{Logger: logger}
	if applier, ok := backend.(core.SchemaApplier); ok && backend.Configured() {
		opts.ApplySchema = applier.ApplySchema
	}

	logger.Info("ui started", "backend", store.State().(core.StoreState).BackendType, "realtime", cfg.Realtime)
	err = tui.Run(ctx, store, opts)
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(uiCmd)
	rootCmd.RunE = runUI
	rootCmd.Args = cobra.NoArgs
}

