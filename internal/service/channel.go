package service

import (
	"context"

	"github.com/recurpix/recurpix/internal/integration/telegram"
)

// ChatChannel is the consumed capability set of the chat transport.
// The concrete implementation lives in internal/integration/telegram;
// tests use the fake in internal/testutil.
type ChatChannel interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (int64, error)
	SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string, markup *telegram.InlineKeyboardMarkup) (int64, error)
	DeleteMessage(ctx context.Context, chatID, msgID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
	SetMyCommands(ctx context.Context, commands []telegram.BotCommand) error
}
