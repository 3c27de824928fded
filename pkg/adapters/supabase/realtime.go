package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/gorilla/websocket"

	"github.com/aretw0/notes/pkg/core"
)

const (
	// ChannelTopic is the Realtime channel joined for notes changes.
	ChannelTopic = "realtime:public:notes-changes"

	joinTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// Phoenix channel events used by Supabase Realtime.
const (
	eventJoin            = "phx_join"
	eventLeave           = "phx_leave"
	eventReply           = "phx_reply"
	eventError           = "phx_error"
	eventClose           = "phx_close"
	eventHeartbeat       = "heartbeat"
	eventSystem          = "system"
	eventPostgresChanges = "postgres_changes"
)

// message is a Phoenix v1 JSON frame.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
	JoinRef string          `json:"join_ref,omitempty"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data struct {
		Schema          string     `json:"schema"`
		Table           string     `json:"table"`
		Type            string     `json:"type"`
		CommitTimestamp string     `json:"commit_timestamp"`
		Record          *core.Note `json:"record"`
		OldRecord       *core.Note `json:"old_record"`
	} `json:"data"`
}

// Subscribe joins the notes Realtime channel and delivers changes to onChange
// from a background goroutine until the subscription is closed or the server
// ends the connection. ctx bounds the dial and the join only.
func (c *Client) Subscribe(ctx context.Context, onChange func(core.Change)) (core.Subscription, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("subscribe: %w", core.ErrEnvMissing)
	}

	endpoint, err := c.realtimeURL()
	if err != nil {
		return nil, core.NewTransportError("subscribe", err)
	}

	dialer := c.config.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, core.NewTransportError("subscribe", fmt.Errorf("failed to connect realtime: %w", err))
	}

	sub := &subscription{
		conn:     conn,
		logger:   c.config.Logger,
		onChange: onChange,
		release:  c.releaseSubscription,
		done:     make(chan struct{}),
	}
	if err := sub.join(ctx, c.config.Key, c.config.Schema); err != nil {
		_ = conn.Close()
		return nil, err
	}

	c.mu.Lock()
	c.subscriptions++
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub.cancel = cancel

	onErr := lifecycle.WithErrorHandler(func(err error) {
		c.config.Logger.Error("realtime loop failed", "error", err)
	})
	lifecycle.Go(runCtx, sub.readLoop, onErr)
	lifecycle.Go(runCtx, func(ctx context.Context) error {
		return sub.heartbeatLoop(ctx, c.config.Heartbeat)
	}, onErr)

	return sub, nil
}

func (c *Client) releaseSubscription() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscriptions > 0 {
		c.subscriptions--
	}
}

func (c *Client) realtimeURL() (string, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return "", fmt.Errorf("invalid project url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/v1/websocket"
	q := url.Values{}
	q.Set("apikey", c.config.Key)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// subscription is one joined Realtime channel over its own websocket.
type subscription struct {
	conn     *websocket.Conn
	logger   *slog.Logger
	onChange func(core.Change)
	release  func()
	cancel   context.CancelFunc
	done     chan struct{}

	writeMu sync.Mutex
	ref     atomic.Uint64
	joinRef string
	closing atomic.Bool
	once    sync.Once
}

func (s *subscription) nextRef() string {
	return strconv.FormatUint(s.ref.Add(1), 10)
}

func (s *subscription) send(topic, event string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	ref := s.nextRef()
	msg := message{Topic: topic, Event: event, Payload: data, Ref: ref, JoinRef: s.joinRef}
	if topic == "phoenix" {
		msg.JoinRef = ""
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ref, s.conn.WriteJSON(msg)
}

// join sends phx_join for the notes relation and waits for the reply.
func (s *subscription) join(ctx context.Context, key, schema string) error {
	s.joinRef = "1"
	s.ref.Store(0)
	payload := map[string]any{
		"config": map[string]any{
			"broadcast": map[string]any{"self": false},
			"presence":  map[string]any{"key": ""},
			"postgres_changes": []map[string]string{
				{"event": "*", "schema": schema, "table": core.Relation},
			},
		},
		"access_token": key,
	}
	ref, err := s.send(ChannelTopic, eventJoin, payload)
	if err != nil {
		return core.NewTransportError("subscribe", fmt.Errorf("failed to send join: %w", err))
	}

	deadline := time.Now().Add(joinTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetReadDeadline(deadline)
	defer s.conn.SetReadDeadline(time.Time{})

	for {
		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			return core.NewTransportError("subscribe", fmt.Errorf("failed to join channel: %w", err))
		}
		if msg.Event != eventReply || msg.Ref != ref {
			continue
		}
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return core.NewTransportError("subscribe", fmt.Errorf("malformed join reply: %w", err))
		}
		if reply.Status == "ok" {
			return nil
		}
		return translate("subscribe", &APIError{Message: replyReason(reply.Response)})
	}
}

func replyReason(raw json.RawMessage) string {
	var r struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &r); err == nil {
		if r.Reason != "" {
			return r.Reason
		}
		if r.Message != "" {
			return r.Message
		}
	}
	return "channel join rejected"
}

func (s *subscription) readLoop(ctx context.Context) error {
	defer s.Close()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closing.Load() || ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("realtime connection closed by server")
				return nil
			}
			return fmt.Errorf("realtime read: %w", err)
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("dropping malformed realtime frame", "error", err)
			continue
		}
		s.dispatch(msg)
	}
}

func (s *subscription) dispatch(msg message) {
	switch msg.Event {
	case eventPostgresChanges:
		c, ok := decodeChange(msg.Payload)
		if !ok {
			s.logger.Debug("ignoring change for another relation")
			return
		}
		if s.closing.Load() {
			return
		}
		s.onChange(c)
	case eventError, eventClose:
		s.logger.Warn("realtime channel event", "event", msg.Event, "topic", msg.Topic)
	case eventSystem:
		s.logger.Debug("realtime system message", "payload", string(msg.Payload))
	}
}

func decodeChange(raw json.RawMessage) (core.Change, bool) {
	var p changePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return core.Change{}, false
	}
	if p.Data.Table != "" && p.Data.Table != core.Relation {
		return core.Change{}, false
	}

	c := core.Change{
		Kind: core.ChangeKind(strings.ToUpper(p.Data.Type)),
		New:  rowOrNil(p.Data.Record),
		Old:  rowOrNil(p.Data.OldRecord),
	}
	if ts, err := time.Parse(time.RFC3339Nano, p.Data.CommitTimestamp); err == nil {
		c.CommitTime = ts
	}
	return c, true
}

// rowOrNil treats the empty record Realtime sends for deletes as absent.
func rowOrNil(n *core.Note) *core.Note {
	if n == nil || n.ID == "" {
		return nil
	}
	return n
}

func (s *subscription) heartbeatLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Unblocks readLoop.
			s.Close()
			return nil
		case <-ticker.C:
			if _, err := s.send("phoenix", eventHeartbeat, struct{}{}); err != nil {
				if s.closing.Load() {
					return nil
				}
				s.Close()
				return fmt.Errorf("realtime heartbeat: %w", err)
			}
		}
	}
}

// Close leaves the channel and closes the websocket.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.closing.Store(true)
		_, _ = s.send(ChannelTopic, eventLeave, struct{}{})

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()

		err = s.conn.Close()
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
		if s.cancel != nil {
			s.cancel()
		}
		if s.release != nil {
			s.release()
		}
		close(s.done)
	})
	return err
}

// Done is closed once the subscription has stopped delivering changes.
func (s *subscription) Done() <-chan struct{} {
	return s.done
}
