package core

import "context"

// Backend defines the contract for the database holding the notes relation.
// Adhering to this interface keeps the Store independent of the hosted service
// (Supabase) or local engine (SQLite) behind it.
//
// Every method except Configured fails with an error wrapping ErrTableMissing
// when the relation does not exist, or with a *TransportError otherwise.
type Backend interface {
	// Configured reports whether both the endpoint URL and the access key are set.
	Configured() bool

	// List returns all notes ordered by UpdatedAt descending.
	List(ctx context.Context) ([]Note, error)

	// Insert creates a note. The backend assigns the ID.
	Insert(ctx context.Context, d Draft) (Note, error)

	// Update applies p to the note with the given ID and returns the stored row.
	Update(ctx context.Context, id string, p Patch) (Note, error)

	// Delete removes the note with the given ID.
	Delete(ctx context.Context, id string) error

	// Subscribe delivers row changes on the notes relation in commit order until
	// the returned Subscription is closed. Delivery is at-least-once.
	// ctx bounds establishing the subscription only; cancelling it afterwards
	// does not stop delivery.
	Subscribe(ctx context.Context, onChange func(Change)) (Subscription, error)
}

// Subscription is a live change feed. Close stops delivery and releases the
// underlying connection; it is safe to call more than once.
type Subscription interface {
	Close() error
	// Done is closed once delivery has stopped, by Close or because the
	// connection ended.
	Done() <-chan struct{}
}

// SchemaApplier is implemented by backends that can create the notes relation themselves.
type SchemaApplier interface {
	ApplySchema(ctx context.Context) error
}
