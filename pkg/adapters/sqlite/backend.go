// Package sqlite implements core.Backend on a local SQLite database.
//
// It stands in for the hosted service when working offline: the notes relation,
// column names and error taxonomy are the same, and committed writes are
// published to in-process subscribers as a change feed.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/aretw0/notes/pkg/core"
)

//go:embed schema.sql
var SchemaSQL string

// timeFormat is fixed width so that text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Config holds the configuration for the SQLite backend.
type Config struct {
	Path   string // database file
	Key    string // required for Configured, not otherwise checked
	Logger *slog.Logger
}

// Backend implements core.Backend using SQLite.
type Backend struct {
	config Config
	broker *broker

	mu sync.Mutex // serializes writes and their publication
	db *sql.DB
}

// NewBackend creates a new SQLite backend. The database is opened on first use.
func NewBackend(config Config) *Backend {
	config.Path = strings.TrimSpace(config.Path)
	config.Key = strings.TrimSpace(config.Key)
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{config: config, broker: newBroker()}
}

// Configured reports whether both the database path and the key are set.
func (b *Backend) Configured() bool {
	return b.config.Path != "" && b.config.Key != ""
}

func (b *Backend) conn(op string) (*sql.DB, error) {
	if !b.Configured() {
		return nil, fmt.Errorf("%s: %w", op, core.ErrEnvMissing)
	}
	if b.db != nil {
		return b.db, nil
	}

	if dir := filepath.Dir(b.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, core.NewTransportError(op, fmt.Errorf("failed to create database directory: %w", err))
		}
	}
	db, err := sql.Open("sqlite", b.config.Path)
	if err != nil {
		return nil, core.NewTransportError(op, fmt.Errorf("failed to open database: %w", err))
	}
	db.SetMaxOpenConns(1)
	b.db = db
	b.config.Logger.Debug("sqlite database opened", "path", b.config.Path)
	return db, nil
}

// ApplySchema creates the notes relation if it does not exist.
func (b *Backend) ApplySchema(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.conn("schema")
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, SchemaSQL); err != nil {
		return translate("schema", err)
	}
	return nil
}

// List returns all notes ordered by updated_at descending.
func (b *Backend) List(ctx context.Context) ([]core.Note, error) {
	b.mu.Lock()
	db, err := b.conn("list")
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id, title, content, created_at, updated_at FROM notes ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, translate("list", err)
	}
	defer rows.Close()

	notes := []core.Note{}
	for rows.Next() {
		n, err := hydrateNote(rows)
		if err != nil {
			return nil, core.NewTransportError("list", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list", err)
	}
	return notes, nil
}

// Insert creates a note with a new UUID v7 and publishes the insert.
func (b *Backend) Insert(ctx context.Context, d core.Draft) (core.Note, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.conn("insert")
	if err != nil {
		return core.Note{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return core.Note{}, core.NewTransportError("insert", fmt.Errorf("generating UUID v7: %w", err))
	}

	now := time.Now().UTC()
	n := core.Note{ID: id.String(), CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC()}
	if d.Title != nil {
		n.Title = *d.Title
	}
	if d.Content != nil {
		n.Content = *d.Content
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = now
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO notes (id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		n.ID, n.Title, n.Content, n.CreatedAt.Format(timeFormat), n.UpdatedAt.Format(timeFormat))
	if err != nil {
		return core.Note{}, translate("insert", err)
	}

	b.publish(core.Change{Kind: core.ChangeInsert, New: &n, CommitTime: now})
	return n, nil
}

// Update applies p to the note with the given ID and publishes the update.
func (b *Backend) Update(ctx context.Context, id string, p core.Patch) (core.Note, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.conn("update")
	if err != nil {
		return core.Note{}, err
	}

	updatedAt := p.UpdatedAt.UTC()
	if p.UpdatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	sets := []string{"updated_at = ?"}
	args := []any{updatedAt.Format(timeFormat)}
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *p.Content)
	}
	args = append(args, id)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return core.Note{}, translate("update", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return core.Note{}, translate("update", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return core.Note{}, &core.TransportError{Op: "update", Message: fmt.Sprintf("note %s not found", id)}
	}

	row := tx.QueryRowContext(ctx,
		"SELECT id, title, content, created_at, updated_at FROM notes WHERE id = ?", id)
	n, err := hydrateNote(row)
	if err != nil {
		return core.Note{}, translate("update", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Note{}, translate("update", err)
	}

	b.publish(core.Change{Kind: core.ChangeUpdate, New: &n, CommitTime: time.Now().UTC()})
	return n, nil
}

// Delete removes the note with the given ID. Deleting an unknown ID succeeds
// and publishes nothing.
func (b *Backend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.conn("delete")
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return translate("delete", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		b.publish(core.Change{Kind: core.ChangeDelete, Old: &core.Note{ID: id}, CommitTime: time.Now().UTC()})
	}
	return nil
}

// Subscribe delivers changes committed through this backend until the
// subscription is closed. ctx only bounds the table probe. Writes from other
// processes are not seen.
func (b *Backend) Subscribe(ctx context.Context, onChange func(core.Change)) (core.Subscription, error) {
	b.mu.Lock()
	db, err := b.conn("subscribe")
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Match the hosted service, which refuses to join a channel for a missing relation.
	var probe int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM notes LIMIT 1").Scan(&probe)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, translate("subscribe", err)
	}

	return b.broker.subscribe(ctx, onChange), nil
}

func (b *Backend) publish(c core.Change) {
	b.broker.publish(c)
	b.config.Logger.Debug("change published", "kind", c.Kind, "id", c.ID())
}

// Close ends every subscription and releases the database handle.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.broker.closeAll()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

// hydrateNote converts a notes row into a core.Note.
func hydrateNote(row scanner) (core.Note, error) {
	var n core.Note
	var createdAt, updatedAt string
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &createdAt, &updatedAt); err != nil {
		return core.Note{}, err
	}
	var err error
	n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.Note{}, fmt.Errorf("parsing created_at: %w", err)
	}
	n.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return core.Note{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return n, nil
}

var _ core.Backend = (*Backend)(nil)
var _ core.SchemaApplier = (*Backend)(nil)
