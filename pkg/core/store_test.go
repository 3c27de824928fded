package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notes/pkg/core"
)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T, b *fakeBackend, opts ...core.StoreOption) *core.Store {
	t.Helper()
	opts = append([]core.StoreOption{core.WithClock(tickingClock())}, opts...)
	s := core.NewStore(b, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_EnvMissing_NoBackendCalls(t *testing.T) {
	b := newFakeBackend()
	b.configured = false
	s := newTestStore(t, b)
	ctx := context.Background()

	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Refresh(ctx))

	n, err := s.Create(ctx, core.Draft{Title: core.Text("A")})
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = s.Update(ctx, "x", core.Patch{Title: core.Text("B")})
	require.NoError(t, err)
	assert.Nil(t, n)

	ok, err := s.Delete(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, b.callsSnapshot(), "no backend call may be attempted")
	snap := s.Snapshot()
	assert.True(t, snap.EnvMissing)
	assert.True(t, s.EnvMissing())
	assert.Empty(t, snap.Notes)
}

func TestStore_Open_SubscribesOnce(t *testing.T) {
	b := newFakeBackend()
	s := newTestStore(t, b)
	ctx := context.Background()

	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Open(ctx))

	assert.Equal(t, 1, b.subscribed)
	assert.Equal(t, []string{"subscribe", "list"}, b.callsSnapshot())

	require.NoError(t, s.Close())
	assert.True(t, b.subClosed, "close must release the subscription")
	assert.ErrorIs(t, s.Open(ctx), core.ErrClosed)
}

func TestStore_Refresh_ResubscribesAfterFailedSubscribe(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)

	b.failWith = fmt.Errorf("subscribe: %w", core.ErrTableMissing)
	err := s.Open(ctx)
	require.True(t, core.IsTableMissing(err))
	assert.Zero(t, b.subscribed)
	assert.False(t, s.State().(core.StoreState).Subscribed)

	// The table now exists.
	b.failWith = nil
	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 1, b.subscribed)
	assert.True(t, s.State().(core.StoreState).Subscribed)
	assert.False(t, s.Snapshot().TableMissing)

	b.emit(core.Change{Kind: core.ChangeInsert, New: &core.Note{ID: "remote"}})
	require.Len(t, s.Snapshot().Notes, 1)

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 1, b.subscribed, "a live subscription is kept")
}

func TestStore_Refresh_ResubscribesAfterDrop(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)
	require.NoError(t, s.Open(ctx))

	b.drop()
	assert.Eventually(t, func() bool {
		return !s.State().(core.StoreState).Subscribed
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 2, b.subscribed)

	b.emit(core.Change{Kind: core.ChangeInsert, New: &core.Note{ID: "remote"}})
	assert.Len(t, s.Snapshot().Notes, 1)
}

func TestStore_Refresh_BeforeOpenDoesNotSubscribe(t *testing.T) {
	b := newFakeBackend()
	s := newTestStore(t, b)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Zero(t, b.subscribed)
	assert.Equal(t, []string{"list"}, b.callsSnapshot())
}

func TestStore_Open_WithoutRealtimeRefreshesOnce(t *testing.T) {
	b := newFakeBackend()
	b.notes["n1"] = core.Note{ID: "n1", Title: "first"}
	s := newTestStore(t, b, core.WithRealtime(false))

	require.NoError(t, s.Open(context.Background()))

	assert.Equal(t, []string{"list"}, b.callsSnapshot())
	assert.Zero(t, b.subscribed)
	assert.Len(t, s.Snapshot().Notes, 1)
}

func TestStore_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("Orders by backend and clears flags", func(t *testing.T) {
		b := newFakeBackend()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		b.notes["old"] = core.Note{ID: "old", UpdatedAt: base}
		b.notes["new"] = core.Note{ID: "new", UpdatedAt: base.Add(time.Hour)}
		s := newTestStore(t, b)

		require.NoError(t, s.Refresh(ctx))

		snap := s.Snapshot()
		require.Len(t, snap.Notes, 2)
		assert.Equal(t, "new", snap.Notes[0].ID)
		assert.False(t, snap.Loading)
		assert.False(t, snap.TableMissing)
		assert.Empty(t, snap.Error)
	})

	t.Run("Table missing empties notes", func(t *testing.T) {
		b := newFakeBackend()
		b.notes["n1"] = core.Note{ID: "n1"}
		s := newTestStore(t, b)
		require.NoError(t, s.Refresh(ctx))

		b.failWith = fmt.Errorf("list notes: %w", core.ErrTableMissing)
		err := s.Refresh(ctx)
		require.Error(t, err)
		assert.True(t, core.IsTableMissing(err))

		snap := s.Snapshot()
		assert.True(t, snap.TableMissing)
		assert.NotNil(t, snap.Notes)
		assert.Empty(t, snap.Notes)
		assert.Empty(t, snap.Error)
		assert.False(t, snap.Loading)
	})

	t.Run("Transport error keeps previous notes", func(t *testing.T) {
		b := newFakeBackend()
		b.notes["n1"] = core.Note{ID: "n1"}
		s := newTestStore(t, b)
		require.NoError(t, s.Refresh(ctx))

		b.failWith = errors.New("connection refused")
		err := s.Refresh(ctx)

		var te *core.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "list", te.Op)

		snap := s.Snapshot()
		assert.Equal(t, "connection refused", snap.Error)
		assert.Len(t, snap.Notes, 1)
		assert.False(t, snap.TableMissing)
	})
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)

	first, err := s.Create(ctx, core.Draft{})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, core.DefaultTitle, first.Title)
	assert.Equal(t, "", first.Content)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)

	second, err := s.Create(ctx, core.Draft{Title: core.Text("A"), Content: core.Text("body")})
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Notes, 2)
	assert.Equal(t, second.ID, snap.Notes[0].ID, "new note goes to the front")
	assert.Equal(t, second.ID, snap.ActiveNoteID)

	active, ok := s.ActiveNote()
	require.True(t, ok)
	assert.Equal(t, "A", active.Title)
	assert.Equal(t, "body", active.Content)
}

func TestStore_Create_AfterRealtimeEcho(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)
	require.NoError(t, s.Open(ctx))

	// The change feed wins the race against the insert response.
	s.Apply(core.Change{Kind: core.ChangeInsert, New: &core.Note{ID: "note-1", Title: "echo"}})
	s.Apply(core.Change{Kind: core.ChangeInsert, New: &core.Note{ID: "other"}})

	n, err := s.Create(ctx, core.Draft{Title: core.Text("A")})
	require.NoError(t, err)
	require.Equal(t, "note-1", n.ID)

	snap := s.Snapshot()
	require.Len(t, snap.Notes, 2, "ids stay unique")
	assert.Equal(t, "note-1", snap.Notes[0].ID)
	assert.Equal(t, "A", snap.Notes[0].Title)
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)

	a, err := s.Create(ctx, core.Draft{Title: core.Text("a")})
	require.NoError(t, err)
	c, err := s.Create(ctx, core.Draft{Title: core.Text("c")})
	require.NoError(t, err)
	before := s.Snapshot()

	updated, err := s.Update(ctx, a.ID, core.Patch{Title: core.Text("a2")})
	require.NoError(t, err)
	assert.Equal(t, "a2", updated.Title)
	assert.False(t, updated.UpdatedAt.Before(a.UpdatedAt))

	after := s.Snapshot()
	require.Len(t, after.Notes, len(before.Notes))
	assert.Equal(t, c.ID, after.Notes[0].ID, "position is unchanged")
	assert.Equal(t, before.Notes[0], after.Notes[0], "other entries are untouched")
	assert.Equal(t, a.ID, after.Notes[1].ID)
	assert.Equal(t, "a2", after.Notes[1].Title)
}

func TestStore_Update_ForcesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)
	n, err := s.Create(ctx, core.Draft{})
	require.NoError(t, err)

	stale := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	updated, err := s.Update(ctx, n.ID, core.Patch{Content: core.Text("x"), UpdatedAt: stale})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(n.UpdatedAt))
}

func TestStore_Update_Failure(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)

	_, err := s.Update(ctx, "missing", core.Patch{Title: core.Text("x")})
	var te *core.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "note not found", te.Message)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)

	keep, err := s.Create(ctx, core.Draft{Title: core.Text("keep")})
	require.NoError(t, err)
	gone, err := s.Create(ctx, core.Draft{Title: core.Text("gone")})
	require.NoError(t, err)

	ok, err := s.Delete(ctx, gone.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	snap := s.Snapshot()
	require.Len(t, snap.Notes, 1)
	assert.Equal(t, keep.ID, snap.Notes[0].ID)
	assert.Empty(t, snap.ActiveNoteID)

	s.Select(keep.ID)
	_, err = s.Create(ctx, core.Draft{})
	require.NoError(t, err)
	s.Select(keep.ID)
	ok, err = s.Delete(ctx, "note-3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, keep.ID, s.Snapshot().ActiveNoteID, "deleting another note keeps the selection")
}

func TestStore_CreateThenDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newFakeBackend())

	n, err := s.Create(ctx, core.Draft{Title: core.Text("A")})
	require.NoError(t, err)
	_, err = s.Delete(ctx, n.ID)
	require.NoError(t, err)

	snap := s.Snapshot()
	for _, x := range snap.Notes {
		assert.NotEqual(t, n.ID, x.ID)
	}
	assert.Empty(t, snap.ActiveNoteID)
	_, ok := s.ActiveNote()
	assert.False(t, ok)
}

func TestStore_TableMissingLatch(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)

	b.failWith = fmt.Errorf("insert: %w", core.ErrTableMissing)
	n, err := s.Create(ctx, core.Draft{})
	assert.Nil(t, n)
	require.True(t, core.IsTableMissing(err), "caller still observes the failure")
	assert.True(t, s.Snapshot().TableMissing)

	b.failWith = errors.New("timeout")
	_, err = s.Delete(ctx, "x")
	require.Error(t, err)
	assert.True(t, s.Snapshot().TableMissing, "other failures do not clear the flag")

	b.failWith = nil
	_, err = s.Create(ctx, core.Draft{})
	require.NoError(t, err)
	assert.False(t, s.Snapshot().TableMissing, "a successful call clears the flag")
}

func TestStore_Apply(t *testing.T) {
	note := func(id, title string) *core.Note { return &core.Note{ID: id, Title: title} }

	tests := []struct {
		name    string
		initial []string
		change  core.Change
		want    []string
	}{
		{"insert new id prepends", []string{"a", "b"}, core.Change{Kind: core.ChangeInsert, New: note("c", "c")}, []string{"c", "a", "b"}},
		{"insert known id replaces in place", []string{"a", "b"}, core.Change{Kind: core.ChangeInsert, New: note("b", "b2")}, []string{"a", "b2"}},
		{"update replaces in place", []string{"a", "b"}, core.Change{Kind: core.ChangeUpdate, New: note("a", "a2")}, []string{"a2", "b"}},
		{"update unknown id is a no-op", []string{"a"}, core.Change{Kind: core.ChangeUpdate, New: note("z", "z")}, []string{"a"}},
		{"delete removes by old row", []string{"a", "b"}, core.Change{Kind: core.ChangeDelete, Old: note("a", "")}, []string{"b"}},
		{"delete unknown id is a no-op", []string{"a"}, core.Change{Kind: core.ChangeDelete, Old: note("z", "")}, []string{"a"}},
		{"unknown kind is ignored", []string{"a"}, core.Change{Kind: "TRUNCATE", New: note("q", "q")}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			s := newTestStore(t, b)
			// Seed in reverse so the final order matches tt.initial.
			for i := len(tt.initial) - 1; i >= 0; i-- {
				s.Apply(core.Change{Kind: core.ChangeInsert, New: note(tt.initial[i], tt.initial[i])})
			}

			s.Apply(tt.change)

			var got []string
			for _, n := range s.Snapshot().Notes {
				got = append(got, n.Title)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_OptimisticUpdateThenEchoes_LastAppliedWins(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newTestStore(t, b)
	require.NoError(t, s.Open(ctx))

	n, err := s.Create(ctx, core.Draft{Title: core.Text("v0")})
	require.NoError(t, err)
	_, err = s.Update(ctx, n.ID, core.Patch{Title: core.Text("local")})
	require.NoError(t, err)

	b.emit(core.Change{Kind: core.ChangeUpdate, New: &core.Note{ID: n.ID, Title: "echo-1"}})
	b.emit(core.Change{Kind: core.ChangeUpdate, New: &core.Note{ID: n.ID, Title: "echo-2"}})

	active, ok := s.ActiveNote()
	require.True(t, ok)
	assert.Equal(t, "echo-2", active.Title)
}

func TestStore_Close_DropsLateCompletions(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := core.NewStore(b)
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	n, err := s.Create(ctx, core.Draft{Title: core.Text("late")})
	require.NoError(t, err)
	require.NotNil(t, n, "the backend call itself still completes")

	s.Apply(core.Change{Kind: core.ChangeInsert, New: &core.Note{ID: "late-event"}})
	s.Select("late-event")

	snap := s.Snapshot()
	assert.Empty(t, snap.Notes)
	assert.Empty(t, snap.ActiveNoteID)

	// Ranging terminates only because Close closed the channel.
	for range s.Updated() {
	}
}

func TestStore_UpdatedSignal(t *testing.T) {
	s := newTestStore(t, newFakeBackend())

	s.Select("a")
	s.Select("b")

	select {
	case <-s.Updated():
	case <-time.After(time.Second):
		t.Fatal("expected an update signal")
	}
	select {
	case <-s.Updated():
		t.Fatal("signals are coalesced")
	default:
	}
}

func TestStore_Introspection(t *testing.T) {
	b := newFakeBackend()
	s := newTestStore(t, b)
	require.NoError(t, s.Open(context.Background()))

	st, ok := s.State().(core.StoreState)
	require.True(t, ok)
	assert.True(t, st.Subscribed)
	assert.True(t, st.Realtime)
	assert.Equal(t, "unknown", st.BackendType)
	assert.Equal(t, "store", s.ComponentType())
}
