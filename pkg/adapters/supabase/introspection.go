package supabase

import (
	"github.com/aretw0/introspection"
)

// ClientState exposes internal state for observability.
type ClientState struct {
	Host          string `json:"host"`
	Schema        string `json:"schema"`
	Configured    bool   `json:"configured"`
	Subscriptions int    `json:"subscriptions"`
}

// State implements introspection.Introspectable.
func (c *Client) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()

	return ClientState{
		Host:          c.host(),
		Schema:        c.config.Schema,
		Configured:    c.Configured(),
		Subscriptions: c.subscriptions,
	}
}

// ComponentType implements introspection.Component.
func (c *Client) ComponentType() string {
	return "supabase"
}

var _ introspection.Introspectable = (*Client)(nil)
var _ introspection.Component = (*Client)(nil)
