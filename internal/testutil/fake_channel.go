package testutil

import (
	"context"
	"sync"

	"github.com/recurpix/recurpix/internal/integration/telegram"
)

// SentMessage records one outbound message through the fake channel
type SentMessage struct {
	MessageID int64
	ChatID    int64
	Text      string
	Photo     []byte
	Markup    *telegram.InlineKeyboardMarkup
}

// DeletedMessage records one delete call
type DeletedMessage struct {
	ChatID    int64
	MessageID int64
}

// FakeChannel is an in-memory implementation of service.ChatChannel for
// tests. Message ids are sequential.
type FakeChannel struct {
	mu sync.Mutex

	// SendErr, when set, fails SendMessage and SendPhoto
	SendErr error
	// DeleteErr, when set, fails DeleteMessage (the presenter must treat
	// this as non-fatal)
	DeleteErr error

	nextID    int64
	Sent      []SentMessage
	Deleted   []DeletedMessage
	Answers   []string
	Commands  []telegram.BotCommand
	UpdatesFn func(offset int64) []telegram.Update
}

func NewFakeChannel() *FakeChannel {
	return &FakeChannel{}
}

func (c *FakeChannel) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.Update, error) {
	c.mu.Lock()
	fn := c.UpdatesFn
	c.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(offset), nil
}

func (c *FakeChannel) SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return 0, c.SendErr
	}

	c.nextID++
	c.Sent = append(c.Sent, SentMessage{
		MessageID: c.nextID,
		ChatID:    chatID,
		Text:      text,
		Markup:    markup,
	})
	return c.nextID, nil
}

func (c *FakeChannel) SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string, markup *telegram.InlineKeyboardMarkup) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return 0, c.SendErr
	}

	c.nextID++
	c.Sent = append(c.Sent, SentMessage{
		MessageID: c.nextID,
		ChatID:    chatID,
		Text:      caption,
		Photo:     photo,
		Markup:    markup,
	})
	return c.nextID, nil
}

func (c *FakeChannel) DeleteMessage(ctx context.Context, chatID, msgID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.DeleteErr != nil {
		return c.DeleteErr
	}
	c.Deleted = append(c.Deleted, DeletedMessage{ChatID: chatID, MessageID: msgID})
	return nil
}

func (c *FakeChannel) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Answers = append(c.Answers, text)
	return nil
}

func (c *FakeChannel) SetMyCommands(ctx context.Context, commands []telegram.BotCommand) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Commands = commands
	return nil
}

// SentTo returns every message sent to a chat id
func (c *FakeChannel) SentTo(chatID int64) []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []SentMessage
	for _, msg := range c.Sent {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

// LastSent returns the most recent message sent to a chat id
func (c *FakeChannel) LastSent(chatID int64) (SentMessage, bool) {
	msgs := c.SentTo(chatID)
	if len(msgs) == 0 {
		return SentMessage{}, false
	}
	return msgs[len(msgs)-1], true
}
