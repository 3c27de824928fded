package platform

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/notes/pkg/adapters/sqlite"
	"github.com/aretw0/notes/pkg/adapters/supabase"
	"github.com/aretw0/notes/pkg/core"
)

// Scheme prefixes that select the local adapter.
const (
	SchemeSQLite = "sqlite://"
	SchemeFile   = "file:"
)

// New creates a notes Store over the backend selected by uri.
//
//	store, err := platform.New(os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_KEY"))
//
// An empty uri or key yields a store in the EnvMissing state, which never
// calls the backend.
func New(uri, key string, opts ...Option) (*core.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	backend, err := openBackend(uri, key, o)
	if err != nil {
		return nil, err
	}

	return core.NewStore(backend,
		core.WithLogger(o.logger),
		core.WithRealtime(o.realtime),
	), nil
}

// OpenBackend selects and constructs the backend for uri:
// http(s) URLs use the hosted service, sqlite:// and file: use a local database.
func OpenBackend(uri, key string, opts ...Option) (core.Backend, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return openBackend(uri, key, o)
}

func openBackend(uri, key string, o *options) (core.Backend, error) {
	if o.backend != nil {
		return o.backend, nil
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	uri = strings.TrimSpace(uri)
	switch {
	case strings.HasPrefix(uri, SchemeSQLite), strings.HasPrefix(uri, SchemeFile):
		return initSQLite(uri, key, o, logger), nil
	case uri == "", strings.HasPrefix(uri, "https://"), strings.HasPrefix(uri, "http://"):
		return supabase.New(supabase.Config{
			URL:        uri,
			Key:        key,
			Timeout:    o.httpTimeout,
			HTTPClient: o.httpClient,
			Logger:     logger.With("component", "supabase"),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported backend url %q", uri)
	}
}

// initSQLite resolves the database path under the dev safety rules.
func initSQLite(uri, key string, o *options, logger *slog.Logger) *sqlite.Backend {
	path := strings.TrimPrefix(strings.TrimPrefix(uri, SchemeSQLite), SchemeFile)
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	useTemp := o.forceTemp || (o.devSafety && IsDevRun())
	resolved := ResolveDatabasePath(path, useTemp)
	if useTemp && resolved != path {
		logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}

	return sqlite.NewBackend(sqlite.Config{
		Path:   resolved,
		Key:    key,
		Logger: logger.With("component", "sqlite"),
	})
}

// IsLocal reports whether uri selects the local adapter.
func IsLocal(uri string) bool {
	uri = strings.TrimSpace(uri)
	return strings.HasPrefix(uri, SchemeSQLite) || strings.HasPrefix(uri, SchemeFile)
}
