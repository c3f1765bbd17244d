package service

import (
	"context"
	"sync"

	"github.com/recurpix/recurpix/internal/integration/telegram"
	"github.com/recurpix/recurpix/internal/logger"
)

// Presenter implements the message replacement protocol: per subscriber,
// at most one orchestrator-originated message is live. The previous
// message is deleted best-effort before each send; deletion failures
// (already removed, too old) are non-fatal.
type Presenter struct {
	mu          sync.Mutex
	lastMessage map[int64]int64
	channel     ChatChannel
	logger      *logger.Logger
}

// NewPresenter creates a new Presenter
func NewPresenter(channel ChatChannel, log *logger.Logger) *Presenter {
	return &Presenter{
		lastMessage: make(map[int64]int64),
		channel:     channel,
		logger:      log,
	}
}

// PresentText replaces the subscriber's live message with a text message
func (p *Presenter) PresentText(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.removePrevious(ctx, chatID)

	msgID, err := p.channel.SendMessage(ctx, chatID, text, markup)
	if err != nil {
		return err
	}
	p.lastMessage[chatID] = msgID
	return nil
}

// PresentPhoto replaces the subscriber's live message with a photo and caption
func (p *Presenter) PresentPhoto(ctx context.Context, chatID int64, photo []byte, caption string, markup *telegram.InlineKeyboardMarkup) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.removePrevious(ctx, chatID)

	msgID, err := p.channel.SendPhoto(ctx, chatID, photo, caption, markup)
	if err != nil {
		return err
	}
	p.lastMessage[chatID] = msgID
	return nil
}

// LastMessageID returns the id of the subscriber's live message, if any
func (p *Presenter) LastMessageID(chatID int64) (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgID, ok := p.lastMessage[chatID]
	return msgID, ok
}

// removePrevious deletes the tracked live message. The caller holds the lock.
func (p *Presenter) removePrevious(ctx context.Context, chatID int64) {
	msgID, ok := p.lastMessage[chatID]
	if !ok {
		return
	}
	if err := p.channel.DeleteMessage(ctx, chatID, msgID); err != nil {
		p.logger.Debugw("failed to delete previous message",
			"chat_id", chatID,
			"message_id", msgID,
			"error", err)
	}
	delete(p.lastMessage, chatID)
}
