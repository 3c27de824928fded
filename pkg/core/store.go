package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultTitle is the title given to notes created without one.
const DefaultTitle = "Untitled"

// ErrClosed is returned by Open once the session has been closed.
var ErrClosed = errors.New("notes session is closed")

// Session is the state of one notes session as seen by renderers.
type Session struct {
	Notes        []Note
	ActiveNoteID string // "" when no note is selected
	Loading      bool
	Error        string // "" when the last refresh succeeded
	TableMissing bool
	EnvMissing   bool
}

// ActiveNote returns the note whose ID equals ActiveNoteID.
func (s Session) ActiveNote() (Note, bool) {
	if s.ActiveNoteID == "" {
		return Note{}, false
	}
	for _, n := range s.Notes {
		if n.ID == s.ActiveNoteID {
			return n, true
		}
	}
	return Note{}, false
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRealtime enables or disables the change feed subscription.
// By default, realtime is enabled.
func WithRealtime(enabled bool) StoreOption {
	return func(s *Store) {
		s.realtime = enabled
	}
}

// WithClock overrides the source of "now" used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store holds a session's notes and reconciles local optimistic edits with the
// backend's change feed.
//
// Local mutations and realtime changes are applied in the order their
// completions arrive; the last one applied wins. After Close, late completions
// are dropped instead of being applied to a dead session.
type Store struct {
	backend    Backend
	logger     *slog.Logger
	now        func() time.Time
	realtime   bool
	envMissing bool

	mu          sync.Mutex
	session     Session
	opened      bool
	closed      bool
	sub         Subscription
	subscribing bool
	updated     chan struct{}
}

// NewStore creates a Store over backend. Whether the backend is configured is
// evaluated once, here, and does not change for the lifetime of the store.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend:  backend,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		realtime: true,
		updated:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.envMissing = backend == nil || !backend.Configured()
	s.session = Session{Notes: []Note{}, EnvMissing: s.envMissing}
	return s
}

// Open mounts the session. With realtime enabled it subscribes to the change
// feed and loads the initial list; otherwise it performs a one-shot Refresh.
// It does nothing when the backend is not configured.
//
// The subscription outlives ctx and is released by Close.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.opened || s.envMissing {
		s.mu.Unlock()
		return nil
	}
	s.opened = true
	s.mu.Unlock()

	// Subscribe before listing so rows committed while the list is in flight
	// are not missed.
	serr := s.subscribe(ctx)
	if err := s.load(ctx); err != nil {
		return err
	}
	return serr
}

// subscribe establishes the change feed unless realtime is off, the session
// is not open, or a live subscription already exists.
func (s *Store) subscribe(ctx context.Context) error {
	s.mu.Lock()
	if !s.realtime || !s.opened || s.closed || s.sub != nil || s.subscribing {
		s.mu.Unlock()
		return nil
	}
	s.subscribing = true
	s.mu.Unlock()

	sub, err := s.backend.Subscribe(ctx, s.Apply)

	s.mu.Lock()
	s.subscribing = false
	if err != nil {
		s.mu.Unlock()
		err = classify("subscribe", err)
		s.logger.Error("realtime subscribe failed", "error", err)
		s.latch(err)
		return err
	}
	if s.closed {
		s.mu.Unlock()
		_ = sub.Close()
		return nil
	}
	s.sub = sub
	s.mu.Unlock()

	s.logger.Debug("realtime subscription established", "relation", Relation)
	go s.watchSubscription(sub)
	return nil
}

// watchSubscription forgets sub once its delivery stops, so that the next
// Refresh subscribes again.
func (s *Store) watchSubscription(sub Subscription) {
	<-sub.Done()

	s.mu.Lock()
	if s.closed || s.sub != sub {
		s.mu.Unlock()
		return
	}
	s.sub = nil
	s.mu.Unlock()

	s.logger.Warn("realtime subscription ended", "relation", Relation)
	s.mutate(func(*Session) {})
}

// Refresh reloads the notes list from the backend. On an open realtime
// session whose change feed is down (it could not be established, or its
// connection ended) it subscribes again first; a failure to do so is logged
// and does not fail the refresh.
func (s *Store) Refresh(ctx context.Context) error {
	if s.envMissing {
		return nil
	}
	_ = s.subscribe(ctx)
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) error {
	s.mutate(func(ss *Session) {
		ss.Loading = true
		ss.Error = ""
	})

	notes, err := s.backend.List(ctx)
	err = classify("list", err)

	s.mutate(func(ss *Session) {
		ss.Loading = false
		switch {
		case IsTableMissing(err):
			ss.TableMissing = true
			ss.Notes = []Note{}
		case err != nil:
			ss.Error = Message(err)
		default:
			ss.TableMissing = false
			ss.Notes = slices.Clone(notes)
			if ss.Notes == nil {
				ss.Notes = []Note{}
			}
		}
	})

	if err != nil {
		s.logger.Warn("refresh failed", "error", err)
	}
	return err
}

// Create inserts a note and makes it the active one. Missing fields default to
// DefaultTitle, empty content and the current time. It returns nil, nil without
// contacting the backend when the backend is not configured.
func (s *Store) Create(ctx context.Context, d Draft) (*Note, error) {
	if s.envMissing {
		return nil, nil
	}

	now := s.now().UTC()
	if d.Title == nil {
		d.Title = Text(DefaultTitle)
	}
	if d.Content == nil {
		d.Content = Text("")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}

	n, err := s.backend.Insert(ctx, d)
	if err != nil {
		err = classify("insert", err)
		s.latch(err)
		return nil, err
	}

	s.mutate(func(ss *Session) {
		ss.TableMissing = false
		// The change feed may have delivered this row already.
		ss.Notes = slices.DeleteFunc(ss.Notes, func(x Note) bool { return x.ID == n.ID })
		ss.Notes = slices.Insert(ss.Notes, 0, n)
		ss.ActiveNoteID = n.ID
	})
	return &n, nil
}

// Update applies p to the note with the given ID. UpdatedAt is always set to
// the current time. The note keeps its position in the list until the next Refresh.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*Note, error) {
	if s.envMissing {
		return nil, nil
	}

	p.UpdatedAt = s.now().UTC()

	n, err := s.backend.Update(ctx, id, p)
	if err != nil {
		err = classify("update", err)
		s.latch(err)
		return nil, err
	}

	s.mutate(func(ss *Session) {
		ss.TableMissing = false
		replace(ss.Notes, n)
	})
	return &n, nil
}

// Delete removes the note with the given ID. It reports false without
// contacting the backend when the backend is not configured.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if s.envMissing {
		return false, nil
	}

	if err := s.backend.Delete(ctx, id); err != nil {
		err = classify("delete", err)
		s.latch(err)
		return false, err
	}

	s.mutate(func(ss *Session) {
		ss.TableMissing = false
		ss.Notes = slices.DeleteFunc(ss.Notes, func(x Note) bool { return x.ID == id })
		if ss.ActiveNoteID == id {
			ss.ActiveNoteID = ""
		}
	})
	return true, nil
}

// Select makes id the active note. An empty id clears the selection.
func (s *Store) Select(id string) {
	s.mutate(func(ss *Session) {
		ss.ActiveNoteID = id
	})
}

// Apply merges a change from the realtime feed into the session.
func (s *Store) Apply(c Change) {
	applied := s.mutate(func(ss *Session) {
		ss.Notes = merge(ss.Notes, c)
	})
	if applied {
		s.logger.Debug("change applied", "kind", c.Kind, "id", c.ID())
	}
}

// merge applies one change to notes. Inserts of a known id replace the entry in
// place; updates and deletes of an unknown id are no-ops.
func merge(notes []Note, c Change) []Note {
	switch c.Kind {
	case ChangeInsert:
		if c.New == nil {
			return notes
		}
		if replace(notes, *c.New) {
			return notes
		}
		return slices.Insert(notes, 0, *c.New)
	case ChangeUpdate:
		if c.New != nil {
			replace(notes, *c.New)
		}
		return notes
	case ChangeDelete:
		id := c.ID()
		if id == "" {
			return notes
		}
		return slices.DeleteFunc(notes, func(x Note) bool { return x.ID == id })
	}
	return notes
}

func replace(notes []Note, n Note) bool {
	i := slices.IndexFunc(notes, func(x Note) bool { return x.ID == n.ID })
	if i < 0 {
		return false
	}
	notes[i] = n
	return true
}

// ActiveNote returns the currently selected note, if any.
func (s *Store) ActiveNote() (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.ActiveNote()
}

// Snapshot returns a copy of the session state.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss := s.session
	ss.Notes = slices.Clone(s.session.Notes)
	return ss
}

// EnvMissing reports whether the backend was unconfigured when the store was created.
func (s *Store) EnvMissing() bool {
	return s.envMissing
}

// Updated returns a channel that receives a value after the session changes.
// Signals are coalesced. The channel is closed by Close.
func (s *Store) Updated() <-chan struct{} {
	return s.updated
}

// Close ends the session and releases the realtime subscription. A backend
// that implements io.Closer is closed as well.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sub := s.sub
	s.sub = nil
	close(s.updated)
	s.mu.Unlock()

	var errs []error
	if sub != nil {
		errs = append(errs, sub.Close())
	}
	if c, ok := s.backend.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// latch records a missing table for the rest of the session, until a later call succeeds.
func (s *Store) latch(err error) {
	if IsTableMissing(err) {
		s.mutate(func(ss *Session) {
			ss.TableMissing = true
		})
	}
}

// mutate applies fn to the session unless the store has been closed.
func (s *Store) mutate(fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	fn(&s.session)

	select {
	case s.updated <- struct{}{}:
	default:
	}
	return true
}
