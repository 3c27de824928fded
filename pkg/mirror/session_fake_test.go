package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/notes/pkg/core"
)

// fakeSession is an in-memory Session.
type fakeSession struct {
	mu         sync.Mutex
	envMissing bool
	notes      []core.Note
	nextID     int
	creates    int
	updates    int
}

func (f *fakeSession) EnvMissing() bool { return f.envMissing }

func (f *fakeSession) Snapshot() core.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return core.Session{Notes: append([]core.Note(nil), f.notes...)}
}

func (f *fakeSession) Create(ctx context.Context, d core.Draft) (*core.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.creates++
	n := core.Note{ID: fmt.Sprintf("note-%d", f.nextID), CreatedAt: d.CreatedAt, UpdatedAt: time.Now()}
	if d.Title != nil {
		n.Title = *d.Title
	}
	if d.Content != nil {
		n.Content = *d.Content
	}
	f.notes = append([]core.Note{n}, f.notes...)
	return &n, nil
}

func (f *fakeSession) Update(ctx context.Context, id string, p core.Patch) (*core.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	for i := range f.notes {
		if f.notes[i].ID == id {
			if p.Title != nil {
				f.notes[i].Title = *p.Title
			}
			if p.Content != nil {
				f.notes[i].Content = *p.Content
			}
			n := f.notes[i]
			return &n, nil
		}
	}
	return nil, &core.TransportError{Op: "update", Message: "note " + id + " not found"}
}

func (f *fakeSession) counts() (creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.updates
}
