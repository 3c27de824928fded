package core_test

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/notes/pkg/core"
)

// fakeBackend implements core.Backend in memory.
// It records every call so tests can assert that nothing reached the backend.
type fakeBackend struct {
	mu         sync.Mutex
	configured bool
	notes      map[string]core.Note
	seq        int
	calls      []string
	failWith   error
	onChange   func(core.Change)
	subClosed  bool
	subscribed int
	sub        *fakeSub
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		configured: true,
		notes:      make(map[string]core.Note),
	}
}

func (f *fakeBackend) record(op string) error {
	f.calls = append(f.calls, op)
	return f.failWith
}

func (f *fakeBackend) Configured() bool { return f.configured }

func (f *fakeBackend) List(ctx context.Context) ([]core.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list"); err != nil {
		return nil, err
	}
	var notes []core.Note
	for _, n := range f.notes {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

func (f *fakeBackend) Insert(ctx context.Context, d core.Draft) (core.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("insert"); err != nil {
		return core.Note{}, err
	}
	f.seq++
	n := core.Note{
		ID:        fmt.Sprintf("note-%d", f.seq),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Title != nil {
		n.Title = *d.Title
	}
	if d.Content != nil {
		n.Content = *d.Content
	}
	f.notes[n.ID] = n
	return n, nil
}

func (f *fakeBackend) Update(ctx context.Context, id string, p core.Patch) (core.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update"); err != nil {
		return core.Note{}, err
	}
	n, ok := f.notes[id]
	if !ok {
		return core.Note{}, &core.TransportError{Op: "update", Message: "note not found"}
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	n.UpdatedAt = p.UpdatedAt
	f.notes[id] = n
	return n, nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return err
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeBackend) Subscribe(ctx context.Context, onChange func(core.Change)) (core.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("subscribe"); err != nil {
		return nil, err
	}
	f.subscribed++
	f.onChange = onChange
	f.subClosed = false
	f.sub = &fakeSub{f: f, done: make(chan struct{})}
	return f.sub, nil
}

// drop ends the current subscription as a lost connection would.
func (f *fakeBackend) drop() {
	f.mu.Lock()
	sub := f.sub
	f.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// emit delivers a change as if it came from the realtime feed.
func (f *fakeBackend) emit(c core.Change) {
	f.mu.Lock()
	fn := f.onChange
	closed := f.subClosed
	f.mu.Unlock()
	if fn != nil && !closed {
		fn(c)
	}
}

func (f *fakeBackend) callsSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

type fakeSub struct {
	f    *fakeBackend
	done chan struct{}
	once sync.Once
}

func (s *fakeSub) Close() error {
	s.once.Do(func() {
		s.f.mu.Lock()
		s.f.subClosed = true
		s.f.mu.Unlock()
		close(s.done)
	})
	return nil
}

func (s *fakeSub) Done() <-chan struct{} {
	return s.done
}
