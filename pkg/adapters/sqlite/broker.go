package sqlite

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notes/pkg/core"
)

const subscriberBuffer = 64

// broker fans committed changes out to in-process subscribers. Each subscriber
// drains its own queue on a goroutine, so delivery is asynchronous but keeps
// commit order.
type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

type subscriber struct {
	id      int
	queue   chan core.Change
	done    chan struct{}
	once    sync.Once
	release func(int)
}

func newBroker() *broker {
	return &broker{subs: make(map[int]*subscriber)}
}

func (b *broker) subscribe(ctx context.Context, onChange func(core.Change)) *subscriber {
	b.mu.Lock()
	b.nextID++
	s := &subscriber{
		id:      b.nextID,
		queue:   make(chan core.Change, subscriberBuffer),
		done:    make(chan struct{}),
		release: b.remove,
	}
	b.subs[s.id] = s
	b.mu.Unlock()

	// Delivery is ended by Close, not by the caller's context.
	lifecycle.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		defer s.Close()
		for {
			select {
			case <-s.done:
				return nil
			case c := <-s.queue:
				select {
				case <-s.done:
					return nil
				default:
				}
				onChange(c)
			}
		}
	})
	return s
}

// publish must be called with the write lock that serialized the commit held.
func (b *broker) publish(c core.Change) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.queue <- c:
		case <-s.done:
		}
	}
}

func (b *broker) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// closeAll ends every subscription.
func (b *broker) closeAll() {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

func (b *broker) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Done is closed once delivery to this subscriber has stopped.
func (s *subscriber) Done() <-chan struct{} {
	return s.done
}

// Close stops delivery to this subscriber.
func (s *subscriber) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.release(s.id)
	})
	return nil
}
