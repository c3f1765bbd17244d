package store

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"github.com/recurpix/recurpix/internal/config"
	"github.com/recurpix/recurpix/internal/domain/subscriber"
	ierr "github.com/recurpix/recurpix/internal/errors"
	"github.com/recurpix/recurpix/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore is a subscriber repository backed by a single JSON document
// on disk. The whole document is read once at construction and rewritten
// after every mutation; the in-memory map stays authoritative when a
// write fails.
type FileStore struct {
	mu          sync.RWMutex
	path        string
	subscribers map[int64]*subscriber.Subscriber
	logger      *logger.Logger
}

// NewFileStore loads the document at cfg.Store.Path. A missing or corrupt
// file degrades to an empty store rather than failing startup.
func NewFileStore(cfg *config.Configuration, log *logger.Logger) (subscriber.Repository, error) {
	s := &FileStore{
		path:        cfg.Store.Path,
		subscribers: make(map[int64]*subscriber.Subscriber),
		logger:      log,
	}

	if err := s.load(); err != nil {
		log.Warnw("failed to load subscriber store, starting empty",
			"path", s.path,
			"error", err)
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return ierr.WithError(err).
			WithHint("Failed to read subscriber store").
			Mark(ierr.ErrPersistence)
	}

	var doc map[string]*subscriber.Subscriber
	if err := json.Unmarshal(data, &doc); err != nil {
		return ierr.WithError(err).
			WithHint("Subscriber store document is corrupt").
			Mark(ierr.ErrPersistence)
	}

	for key, sub := range doc {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil || sub == nil {
			s.logger.Warnw("skipping malformed subscriber entry", "key", key)
			continue
		}
		sub.ChatID = chatID
		s.subscribers[chatID] = sub
	}
	return nil
}

// flush rewrites the full document via a temp file and rename.
// Callers must hold at least a read lock.
func (s *FileStore) flush() error {
	doc := make(map[string]*subscriber.Subscriber, len(s.subscribers))
	for chatID, sub := range s.subscribers {
		doc[strconv.FormatInt(chatID, 10)] = sub
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode subscriber store").
			Mark(ierr.ErrPersistence)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".subscribers-*.json")
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to write subscriber store").
			Mark(ierr.ErrPersistence)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return ierr.WithError(err).
			WithHint("Failed to write subscriber store").
			Mark(ierr.ErrPersistence)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return ierr.WithError(err).
			WithHint("Failed to write subscriber store").
			Mark(ierr.ErrPersistence)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return ierr.WithError(err).
			WithHint("Failed to replace subscriber store").
			Mark(ierr.ErrPersistence)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, chatID int64) (*subscriber.Subscriber, error) {
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

func (s *FileStore) List(ctx context.Context) ([]*subscriber.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*subscriber.Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		copied := *sub
		out = append(out, &copied)
	}
	return out, nil
}

func (s *FileStore) ListActive(ctx context.Context) ([]*subscriber.Subscriber, error) {
	subs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(subs, func(sub *subscriber.Subscriber, _ int) bool {
		return sub.Active
	}), nil
}

func (s *FileStore) Save(ctx context.Context, sub *subscriber.Subscriber) error {
	if sub == nil {
		return ierr.NewError("subscriber cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sub
	s.subscribers[sub.ChatID] = &copied

	if err := s.flush(); err != nil {
		// In-memory state stays authoritative until the next successful write.
		s.logger.Errorw("failed to persist subscriber store",
			"chat_id", sub.ChatID,
			"error", err)
		return err
	}
	return nil
}

func (s *FileStore) Deactivate(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscribers[chatID]
	if !ok {
		return ierr.NewError("subscriber not found").
			WithHintf("No billing profile for chat %d", chatID).
			Mark(ierr.ErrNotFound)
	}
	sub.Active = false

	if err := s.flush(); err != nil {
		s.logger.Errorw("failed to persist subscriber store",
			"chat_id", chatID,
			"error", err)
		return err
	}
	return nil
}
