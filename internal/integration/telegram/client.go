package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	jsoniter "github.com/json-iterator/go"

	"github.com/recurpix/recurpix/internal/config"
	ierr "github.com/recurpix/recurpix/internal/errors"
	"github.com/recurpix/recurpix/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultBaseURL = "https://api.telegram.org"

// Client is a thin Bot API client. Transient transport failures are
// retried by the underlying retryable client before surfacing.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient creates a new Bot API client from the configured token
func NewClient(cfg *config.Configuration, log *logger.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil

	return &Client{
		baseURL: defaultBaseURL,
		token:   cfg.Telegram.Token,
		http:    rc.StandardClient(),
		logger:  log,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake server
func NewClientWithBaseURL(baseURL, token string, log *logger.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil

	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    rc.StandardClient(),
		logger:  log,
	}
}

// GetUpdates long polls the Bot API for inbound events after offset
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	result, err := c.call(ctx, "getUpdates", map[string]any{
		"offset":  offset,
		"timeout": timeoutSeconds,
	})
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode updates").
			Mark(ierr.ErrHTTPClient)
	}
	return updates, nil
}

// SendMessage sends a text message and returns the new message id
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (int64, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}

	result, err := c.call(ctx, "sendMessage", payload)
	if err != nil {
		return 0, err
	}
	return messageID(result)
}

// SendPhoto uploads a photo with a caption and returns the new message id
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string, markup *InlineKeyboardMarkup) (int64, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return 0, ierr.WithError(err).Mark(ierr.ErrSystem)
		}
	}
	if markup != nil {
		encoded, err := json.Marshal(markup)
		if err != nil {
			return 0, ierr.WithError(err).Mark(ierr.ErrSystem)
		}
		if err := writer.WriteField("reply_markup", string(encoded)); err != nil {
			return 0, ierr.WithError(err).Mark(ierr.ErrSystem)
		}
	}

	part, err := writer.CreateFormFile("photo", "charge.png")
	if err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	if _, err := part.Write(photo); err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	if err := writer.Close(); err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), &body)
	if err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	result, err := c.do(req, "sendPhoto")
	if err != nil {
		return 0, err
	}
	return messageID(result)
}

// DeleteMessage removes a previously sent message
func (c *Client) DeleteMessage(ctx context.Context, chatID, msgID int64) error {
	_, err := c.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": msgID,
	})
	return err
}

// AnswerCallbackQuery acknowledges a button press with a short notice
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
	}
	_, err := c.call(ctx, "answerCallbackQuery", payload)
	return err
}

// SetMyCommands registers the bot command list
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	_, err := c.call(ctx, "setMyCommands", map[string]any{
		"commands": commands,
	})
	return err
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Chat channel unreachable").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read chat channel response").
			Mark(ierr.ErrHTTPClient)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode chat channel response").
			Mark(ierr.ErrHTTPClient)
	}

	if !envelope.OK {
		c.logger.Errorw("bot api call failed",
			"method", method,
			"error_code", envelope.ErrorCode,
			"description", envelope.Description)
		return nil, ierr.NewError("bot api call failed").
			WithHintf("%s: %s", method, envelope.Description).
			Mark(ierr.ErrHTTPClient)
	}
	return envelope.Result, nil
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func messageID(result []byte) (int64, error) {
	var msg Message
	if err := json.Unmarshal(result, &msg); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to decode sent message").
			Mark(ierr.ErrHTTPClient)
	}
	return msg.MessageID, nil
}
