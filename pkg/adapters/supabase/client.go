// Package supabase implements core.Backend on top of a Supabase project:
// PostgREST for CRUD and the Realtime websocket for the change feed.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aretw0/notes/pkg/core"
)

const (
	// DefaultSchema is the Postgres schema holding the notes relation.
	DefaultSchema = "public"
	// DefaultTimeout bounds each REST request.
	DefaultTimeout = 15 * time.Second
	// DefaultHeartbeat is the Realtime heartbeat interval.
	DefaultHeartbeat = 30 * time.Second
)

// Config holds the configuration for the Supabase client.
type Config struct {
	URL        string // project URL, e.g. https://xyz.supabase.co
	Key        string // anon or service key
	Schema     string
	Timeout    time.Duration
	Heartbeat  time.Duration
	Logger     *slog.Logger
	HTTPClient *http.Client      // optional
	Dialer     *websocket.Dialer // optional
}

// Client implements core.Backend against Supabase.
type Client struct {
	config Config
	http   *http.Client

	mu            sync.Mutex
	subscriptions int
}

// New creates a new Supabase client. It never fails: an empty URL or key
// yields a client that reports Configured() == false.
func New(config Config) *Client {
	config.URL = strings.TrimRight(strings.TrimSpace(config.URL), "/")
	config.Key = strings.TrimSpace(config.Key)
	if config.Schema == "" {
		config.Schema = DefaultSchema
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Heartbeat <= 0 {
		config.Heartbeat = DefaultHeartbeat
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	hc := config.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: config.Timeout}
	}

	return &Client{config: config, http: hc}
}

// Configured reports whether both the project URL and the key are set.
func (c *Client) Configured() bool {
	return c.config.URL != "" && c.config.Key != ""
}

// List returns all notes ordered by updated_at descending.
func (c *Client) List(ctx context.Context) ([]core.Note, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "updated_at.desc")

	var notes []core.Note
	if err := c.do(ctx, "list", http.MethodGet, q, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Insert creates a note and returns the stored row.
func (c *Client) Insert(ctx context.Context, d core.Draft) (core.Note, error) {
	var rows []core.Note
	if err := c.do(ctx, "insert", http.MethodPost, nil, d, &rows); err != nil {
		return core.Note{}, err
	}
	if len(rows) == 0 {
		return core.Note{}, &core.TransportError{Op: "insert", Message: "insert returned no row"}
	}
	return rows[0], nil
}

// Update applies p to the note with the given ID and returns the stored row.
func (c *Client) Update(ctx context.Context, id string, p core.Patch) (core.Note, error) {
	var rows []core.Note
	if err := c.do(ctx, "update", http.MethodPatch, idFilter(id), p, &rows); err != nil {
		return core.Note{}, err
	}
	if len(rows) == 0 {
		return core.Note{}, &core.TransportError{Op: "update", Message: fmt.Sprintf("note %s not found", id)}
	}
	return rows[0], nil
}

// Delete removes the note with the given ID.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, idFilter(id), nil, nil)
}

func idFilter(id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return q
}

// do performs one PostgREST request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method string, query url.Values, body, out any) error {
	if !c.Configured() {
		return fmt.Errorf("%s: %w", op, core.ErrEnvMissing)
	}

	endpoint := c.config.URL + "/rest/v1/" + core.Relation
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return core.NewTransportError(op, fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return core.NewTransportError(op, err)
	}
	c.setHeaders(req, method)

	c.config.Logger.Debug("postgrest request", "op", op, "method", method)

	resp, err := c.http.Do(req)
	if err != nil {
		return core.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return translate(op, apiErr)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.NewTransportError(op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, method string) {
	req.Header.Set("apikey", c.config.Key)
	req.Header.Set("Authorization", "Bearer "+c.config.Key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Profile", c.config.Schema)

	switch method {
	case http.MethodPost, http.MethodPatch:
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Profile", c.config.Schema)
		req.Header.Set("Prefer", "return=representation")
	case http.MethodDelete:
		req.Header.Set("Content-Profile", c.config.Schema)
		req.Header.Set("Prefer", "return=minimal")
	}
}

func (c *Client) host() string {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

var _ core.Backend = (*Client)(nil)
