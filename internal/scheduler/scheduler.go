package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/recurpix/recurpix/internal/logger"
)

// Task runs on every tick of an armed timer
type Task func(ctx context.Context)

// Scheduler associates at most one pending retry timer per key.
// Arm and Disarm are atomic: re-arming a key cancels and replaces any
// existing timer, and the most recent call wins.
type Scheduler struct {
	mu      sync.Mutex
	entries map[int64]*entry
	logger  *logger.Logger
}

type entry struct {
	ticker *time.Ticker
	done   chan struct{}
}

// New creates a new Scheduler
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		entries: make(map[int64]*entry),
		logger:  log,
	}
}

// Arm schedules task to run every interval for key, replacing any timer
// already armed for that key
func (s *Scheduler) Arm(key int64, interval time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		existing.ticker.Stop()
		close(existing.done)
	}

	e := &entry{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	s.entries[key] = e

	s.logger.Debugw("armed retry timer", "key", key, "interval", interval)

	go func() {
		for {
			select {
			case <-e.ticker.C:
				task(context.Background())
			case <-e.done:
				return
			}
		}
	}()
}

// Disarm cancels the timer for key, if any. Safe to call for keys that
// were never armed.
func (s *Scheduler) Disarm(key int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.ticker.Stop()
	close(e.done)
	delete(s.entries, key)

	s.logger.Debugw("disarmed retry timer", "key", key)
}

// Armed reports whether a timer is currently scheduled for key
func (s *Scheduler) Armed(key int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[key]
	return ok
}

// Stop disarms every timer
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		e.ticker.Stop()
		close(e.done)
		delete(s.entries, key)
	}
}
