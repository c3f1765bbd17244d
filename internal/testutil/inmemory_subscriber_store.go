package testutil

import (
	"context"
	"sync"

	"github.com/recurpix/recurpix/internal/domain/subscriber"
	ierr "github.com/recurpix/recurpix/internal/errors"
)

// InMemorySubscriberStore is an in-memory implementation of
// subscriber.Repository for tests
type InMemorySubscriberStore struct {
	mu          sync.RWMutex
	subscribers map[int64]*subscriber.Subscriber

	// SaveErr, when set, is returned by Save to simulate write failures
	SaveErr error
}

func NewInMemorySubscriberStore() *InMemorySubscriberStore {
	return &InMemorySubscriberStore{
		subscribers: make(map[int64]*subscriber.Subscriber),
	}
}

func (s *InMemorySubscriberStore) Get(ctx context.Context, chatID int64) (*subscriber.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscribers[chatID]
	if !ok {
		return nil, ierr.NewError("subscriber not found").
			WithHintf("No billing profile for chat %d", chatID).
			Mark(ierr.ErrNotFound)
	}
	copied := *sub
	return &copied, nil
}

func (s *InMemorySubscriberStore) List(ctx context.Context) ([]*subscriber.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*subscriber.Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		copied := *sub
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemorySubscriberStore) ListActive(ctx context.Context) ([]*subscriber.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*subscriber.Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		if !sub.Active {
			continue
		}
		copied := *sub
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemorySubscriberStore) Save(ctx context.Context, sub *subscriber.Subscriber) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sub
	s.subscribers[sub.ChatID] = &copied
	return nil
}

func (s *InMemorySubscriberStore) Deactivate(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscribers[chatID]
	if !ok {
		return ierr.NewError("subscriber not found").
			Mark(ierr.ErrNotFound)
	}
	sub.Active = false
	return nil
}
