// Package core holds the notes domain: the Note entity, the Backend contract
// that hosted or local databases implement, and the Store that keeps a session's
// view of the notes collection in sync with the backend's change feed.
package core

import (
	"fmt"
	"time"
)

// Relation is the backend table holding notes.
const Relation = "notes"

// ChangeKind represents the type of row change delivered by a change feed.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// Change represents a row change on the notes relation.
// New is set for inserts and updates, Old for deletes (and updates when the
// backend replicates full rows).
type Change struct {
	Kind       ChangeKind
	New        *Note
	Old        *Note
	CommitTime time.Time
}

// ID returns the id of the row the change refers to.
func (c Change) ID() string {
	switch {
	case c.Kind == ChangeDelete && c.Old != nil:
		return c.Old.ID
	case c.New != nil:
		return c.New.ID
	case c.Old != nil:
		return c.Old.ID
	}
	return ""
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s", c.Kind, c.ID())
}
