package core

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Notes        int    `json:"notes"`
	ActiveNoteID string `json:"active_note_id,omitempty"`
	Loading      bool   `json:"loading"`
	TableMissing bool   `json:"table_missing"`
	EnvMissing   bool   `json:"env_missing"`
	Realtime     bool   `json:"realtime"`
	Subscribed   bool   `json:"subscribed"`
	Closed       bool   `json:"closed"`
	BackendType  string `json:"backend_type"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	backendType := "unknown"
	if comp, ok := s.backend.(introspection.Component); ok {
		backendType = comp.ComponentType()
	}

	return StoreState{
		Notes:        len(s.session.Notes),
		ActiveNoteID: s.session.ActiveNoteID,
		Loading:      s.session.Loading,
		TableMissing: s.session.TableMissing,
		EnvMissing:   s.envMissing,
		Realtime:     s.realtime,
		Subscribed:   s.sub != nil,
		Closed:       s.closed,
		BackendType:  backendType,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
