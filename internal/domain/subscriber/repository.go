package subscriber

import "context"

// Repository provides access to subscriber billing profiles
type Repository interface {
	// Get returns the profile for a chat id, or ErrNotFound
	Get(ctx context.Context, chatID int64) (*Subscriber, error)
	// List returns every stored profile
	List(ctx context.Context) ([]*Subscriber, error)
	// ListActive returns every profile with the active flag set
	ListActive(ctx context.Context) ([]*Subscriber, error)
	// Save creates or overwrites the profile for its chat id
	Save(ctx context.Context, sub *Subscriber) error
	// Deactivate clears the active flag without deleting the profile
	Deactivate(ctx context.Context, chatID int64) error
}
