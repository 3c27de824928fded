package notes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/notes/internal/platform"
	"github.com/aretw0/notes/pkg/core"
)

// --- Types ---

// Note is a public alias for the domain note.
type Note = core.Note

// Store is a public alias for the session store.
type Store = core.Store

// --- Configuration ---

// Option defines a functional option for configuring a session.
type Option = platform.Option

// WithLogger sets the logger for the store and its backend.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithBackend allows injecting a custom storage adapter.
func WithBackend(b core.Backend) Option {
	return platform.WithBackend(b)
}

// WithRealtime enables or disables the change feed subscription.
func WithRealtime(enabled bool) Option {
	return platform.WithRealtime(enabled)
}

// WithHTTPTimeout bounds each request to the hosted service.
func WithHTTPTimeout(d time.Duration) Option {
	return platform.WithHTTPTimeout(d)
}

// WithHTTPClient replaces the HTTP client used for the hosted service.
func WithHTTPClient(c *http.Client) Option {
	return platform.WithHTTPClient(c)
}

// WithForceTemp forces a local database into the temporary dev directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox applied to local databases under `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New creates a session Store over the backend selected by url.
func New(url, key string, opts ...Option) (*core.Store, error) {
	return platform.New(url, key, opts...)
}

// OpenBackend constructs the backend selected by url without a store.
func OpenBackend(url, key string, opts ...Option) (core.Backend, error) {
	return platform.OpenBackend(url, key, opts...)
}

// --- Safety & Utils ---

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// IsLocal reports whether url selects the local SQLite adapter.
func IsLocal(url string) bool {
	return platform.IsLocal(url)
}
