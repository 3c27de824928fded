package mirror

import (
	"os"
	"time"

	"github.com/aretw0/introspection"
)

// MirrorState exposes internal state for observability.
type MirrorState struct {
	Dir        string     `json:"dir"`
	Pattern    string     `json:"pattern"`
	Watching   bool       `json:"watching"`
	LastImport *time.Time `json:"last_import,omitempty"`
}

// State implements introspection.Introspectable.
func (m *Mirror) State() any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MirrorState{
		Dir:        m.config.Dir,
		Pattern:    m.config.Pattern,
		Watching:   m.watching,
		LastImport: m.lastImport,
	}
}

// ComponentType implements introspection.Component.
func (m *Mirror) ComponentType() string {
	return "mirror"
}

var _ introspection.Introspectable = (*Mirror)(nil)
var _ introspection.Component = (*Mirror)(nil)

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
