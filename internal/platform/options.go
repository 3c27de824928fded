package platform

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/notes/pkg/core"
)

// options holds the internal configuration for a notes session.
type options struct {
	backend     core.Backend
	logger      *slog.Logger
	realtime    bool
	httpTimeout time.Duration
	httpClient  *http.Client
	devSafety   bool
	forceTemp   bool
}

// Option defines a functional option for configuring a notes session.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		realtime:  true,
		devSafety: true,
	}
}

// WithLogger sets the logger for the store and the backend.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBackend injects a backend (e.g. a fake in tests).
// If provided, the URI is ignored.
func WithBackend(b core.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithRealtime enables or disables the change feed subscription.
func WithRealtime(enabled bool) Option {
	return func(o *options) {
		o.realtime = enabled
	}
}

// WithHTTPTimeout bounds each request to the hosted service. Zero means the
// adapter default.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *options) {
		o.httpTimeout = d
	}
}

// WithHTTPClient replaces the HTTP client used for the hosted service.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithForceTemp forces a local database into the temporary dev directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox applied to local databases when running
// via `go run` or `go test`. By default (true), the database is re-rooted into
// a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
