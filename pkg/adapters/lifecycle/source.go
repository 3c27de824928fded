// Package lifecycle bridges a backend's change feed to the generic
// lifecycle.Event stream.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notes/pkg/core"
)

// bufferSize bounds changes queued between the backend and the consumer.
const bufferSize = 64

type changeSource struct {
	backend core.Backend
	out     chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits the backend's changes.
// core.Change implements lifecycle.Event.
func NewSource(backend core.Backend) lifecycle.Source {
	return &changeSource{
		backend: backend,
		out:     make(chan lifecycle.Event, bufferSize),
	}
}

func (s *changeSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start subscribes to the backend and forwards changes until ctx ends or the
// subscription stops. Events is closed once forwarding stops.
func (s *changeSource) Start(ctx context.Context) error {
	changes := make(chan core.Change, bufferSize)
	sub, err := s.backend.Subscribe(ctx, func(c core.Change) {
		select {
		case changes <- c:
		case <-ctx.Done():
		}
	})
	if err != nil {
		close(s.out)
		return fmt.Errorf("change source: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sub.Done():
				return nil
			case c := <-changes:
				select {
				case s.out <- c:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
