package telegram

import stdjson "encoding/json"

// Typed subset of the Bot API objects the orchestrator consumes.

// Update is one inbound event from the Bot API long poll
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an inbound or outbound chat message
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// Chat identifies the conversation a message belongs to
type Chat struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// User is the sender of a message or callback
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// CallbackQuery is the event fired when an inline keyboard button is pressed
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// InlineKeyboardMarkup attaches buttons to an outbound message
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is a single actionable affordance
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// BotCommand registers one slash command with the Bot API
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// apiResponse is the Bot API envelope around every result
type apiResponse struct {
	OK          bool               `json:"ok"`
	Description string             `json:"description,omitempty"`
	ErrorCode   int                `json:"error_code,omitempty"`
	Result      stdjson.RawMessage `json:"result,omitempty"`
}
