package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/notes"
	"github.com/aretw0/notes/pkg/core"
)

var errNotConfigured = errors.New("backend not configured: set SUPABASE_URL and SUPABASE_KEY, or pass --url and --key")

// openBackend builds the backend selected by the loaded configuration.
func openBackend(logger *slog.Logger) (core.Backend, error) {
	return notes.OpenBackend(cfg.URL, cfg.Key,
		notes.WithLogger(logger),
		notes.WithHTTPTimeout(cfg.HTTPTimeout),
	)
}

// openStore opens a session and loads the notes list. Realtime is only
// enabled when the command asks for it and the configuration allows it.
func openStore(ctx context.Context, realtime bool, logger *slog.Logger) (*core.Store, core.Backend, error) {
	backend, err := openBackend(logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := notes.New(cfg.URL, cfg.Key,
		notes.WithBackend(backend),
		notes.WithLogger(logger),
		notes.WithRealtime(realtime && cfg.Realtime),
	)
	if err != nil {
		return nil, nil, err
	}
	return store, backend, nil
}

// loadStore is openStore for one-shot commands: it fails when the backend is
// not configured, and refreshes once.
func loadStore(ctx context.Context) (*core.Store, error) {
	store, _, err := openStore(ctx, false, slog.Default())
	if err != nil {
		return nil, err
	}
	if store.EnvMissing() {
		store.Close()
		return nil, errNotConfigured
	}
	if err := store.Open(ctx); err != nil {
		store.Close()
		return nil, explain(err)
	}
	return store, nil
}

// explain adds remediation to errors users can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case core.IsTableMissing(err):
		return fmt.Errorf("%w: run `notes schema` for the DDL (or `notes schema --apply` on sqlite)", err)
	case errors.Is(err, core.ErrEnvMissing):
		return errNotConfigured
	}
	return err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
