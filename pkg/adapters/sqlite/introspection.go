package sqlite

import (
	"github.com/aretw0/introspection"
)

// BackendState exposes internal state for observability.
type BackendState struct {
	Path        string `json:"path"`
	Configured  bool   `json:"configured"`
	Open        bool   `json:"open"`
	Subscribers int    `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BackendState{
		Path:        b.config.Path,
		Configured:  b.Configured(),
		Open:        b.db != nil,
		Subscribers: b.broker.len(),
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "sqlite"
}

var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)
