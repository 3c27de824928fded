package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/notes/pkg/core"
)

const (
	// DefaultPattern selects every Markdown file below the directory.
	DefaultPattern = "**/*.md"
	// DefaultDebounce is the quiet period before a changed file is imported.
	DefaultDebounce = 50 * time.Millisecond

	fileExt = ".md"
)

// Session is the part of a notes session the mirror reads and writes.
// *core.Store satisfies it.
type Session interface {
	EnvMissing() bool
	Snapshot() core.Session
	Create(ctx context.Context, d core.Draft) (*core.Note, error)
	Update(ctx context.Context, id string, p core.Patch) (*core.Note, error)
}

// Action is the outcome of importing one file.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// Result summarizes an Export or Import run.
type Result struct {
	Written   int
	Created   int
	Updated   int
	Unchanged int
	Failed    int
}

func (r *Result) record(a Action) {
	switch a {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	case ActionUnchanged:
		r.Unchanged++
	}
}

// Config holds the configuration for a Mirror.
type Config struct {
	Dir          string
	Pattern      string        // doublestar pattern relative to Dir; default DefaultPattern
	Debounce     time.Duration // default DefaultDebounce
	Logger       *slog.Logger
	ErrorHandler func(error) // called for per-file failures while watching
	OnImport     func(path string, a Action)
}

// Mirror maps a notes session onto a directory of Markdown files.
type Mirror struct {
	config  Config
	session Session

	mu         sync.Mutex
	watching   bool
	lastImport *time.Time
}

// New creates a Mirror of session rooted at config.Dir.
func New(session Session, config Config) (*Mirror, error) {
	if config.Dir == "" {
		return nil, errors.New("mirror directory is required")
	}
	if config.Pattern == "" {
		config.Pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(config.Pattern) {
		return nil, fmt.Errorf("invalid pattern %q", config.Pattern)
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Mirror{config: config, session: session}, nil
}

// FileName returns the file a note is exported to.
func FileName(n core.Note) string {
	return n.ID + fileExt
}

// Export writes every note in the session to the directory.
func (m *Mirror) Export(ctx context.Context) (Result, error) {
	var res Result
	if m.session.EnvMissing() {
		return res, fmt.Errorf("export: %w", core.ErrEnvMissing)
	}
	if err := os.MkdirAll(m.config.Dir, 0755); err != nil {
		return res, fmt.Errorf("failed to create export directory: %w", err)
	}

	for _, n := range m.session.Snapshot().Notes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(m.config.Dir, FileName(n))
		if err := writeNote(path, n); err != nil {
			return res, err
		}
		res.Written++
		m.config.Logger.Debug("note exported", "id", n.ID, "path", path)
	}
	return res, nil
}

// Import reads every file matching the pattern into the session. A failing
// file is counted and logged; the run continues with the next file.
func (m *Mirror) Import(ctx context.Context) (Result, error) {
	var res Result
	if m.session.EnvMissing() {
		return res, fmt.Errorf("import: %w", core.ErrEnvMissing)
	}

	matches, err := doublestar.Glob(os.DirFS(m.config.Dir), m.config.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return res, fmt.Errorf("failed to match %s: %w", m.config.Pattern, err)
	}

	var errs []error
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if ignored(rel) {
			continue
		}
		a, err := m.ImportFile(ctx, filepath.Join(m.config.Dir, filepath.FromSlash(rel)))
		if err != nil {
			if core.IsTableMissing(err) {
				return res, err
			}
			res.Failed++
			errs = append(errs, err)
			m.config.Logger.Warn("import failed", "path", rel, "error", err)
			continue
		}
		res.record(a)
	}
	return res, errors.Join(errs...)
}

// ImportFile reads one file into the session. A file whose id is known updates
// that note when title or content differ. Any other file creates a note, and
// the new id is written back into the file.
func (m *Mirror) ImportFile(ctx context.Context, path string) (Action, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	n, err := Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if n.Title == "" {
		n.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	defer m.recordImport()

	if n.ID != "" {
		if existing, ok := find(m.session.Snapshot().Notes, n.ID); ok {
			if existing.Title == n.Title && existing.Content == n.Content {
				m.notify(path, ActionUnchanged)
				return ActionUnchanged, nil
			}
			if _, err := m.session.Update(ctx, n.ID, core.Patch{Title: core.Text(n.Title), Content: core.Text(n.Content)}); err != nil {
				return "", err
			}
			m.config.Logger.Info("note updated from file", "id", n.ID, "path", path)
			m.notify(path, ActionUpdated)
			return ActionUpdated, nil
		}
	}

	created, err := m.session.Create(ctx, core.Draft{
		Title:     core.Text(n.Title),
		Content:   core.Text(n.Content),
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return "", err
	}
	if created == nil {
		return "", fmt.Errorf("import: %w", core.ErrEnvMissing)
	}

	if err := writeNote(path, *created); err != nil {
		return "", err
	}
	m.config.Logger.Info("note created from file", "id", created.ID, "path", path)
	m.notify(path, ActionCreated)
	return ActionCreated, nil
}

func (m *Mirror) notify(path string, a Action) {
	if m.config.OnImport != nil {
		m.config.OnImport(path, a)
	}
}

func (m *Mirror) recordImport() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.lastImport = &now
}

func (m *Mirror) setWatching(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watching = active
}

func find(notes []core.Note, id string) (core.Note, bool) {
	for _, n := range notes {
		if n.ID == id {
			return n, true
		}
	}
	return core.Note{}, false
}

// ignored reports whether a path relative to the mirror root is one of our
// temp files or lives in a hidden directory.
func ignored(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// match reports whether a path relative to the mirror root is imported.
func (m *Mirror) match(rel string) bool {
	if ignored(rel) {
		return false
	}
	ok, err := doublestar.Match(m.config.Pattern, filepath.ToSlash(rel))
	return err == nil && ok
}
