// Package telegram wraps the Bot API SDK behind the narrow send/edit
// contract the core depends on. Lifecycle code never imports the SDK
// directly; it sees Sender and structured errors only.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatRef addresses a chat either by numeric id (preferred) or by public
// @username. Exactly one side is expected to be set.
type ChatRef struct {
	ID       int64
	Username string
}

// Configured reports whether the ref points anywhere at all.
func (r ChatRef) Configured() bool {
	return r.ID != 0 || r.Username != ""
}

func (r ChatRef) String() string {
	if r.ID != 0 {
		return fmt.Sprintf("%d", r.ID)
	}
	return "@" + r.Username
}

// SendOptions mirror the subset of message options the platform uses.
type SendOptions struct {
	ParseMode             string
	DisableWebPagePreview bool
	ReplyMarkup           interface{}
}

// Sender is the transport contract: deliver a message, or edit one in
// place. Failures carry the Bot API description for classification.
type Sender interface {
	SendMessage(ctx context.Context, ref ChatRef, text string, opts *SendOptions) (int, error)
	EditMessageText(ctx context.Context, ref ChatRef, messageID int, text string, opts *SendOptions) error
}

// Client implements Sender over the long-polling Bot API SDK.
type Client struct {
	api *tgbotapi.BotAPI
}

func NewClient(token string, debug bool) (*Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("bot init: %w", err)
	}
	api.Debug = debug
	return &Client{api: api}, nil
}

// API exposes the underlying SDK handle for the update loop and the
// interactive keyboards; lifecycle code must stay on the Sender contract.
func (c *Client) API() *tgbotapi.BotAPI {
	return c.api
}

// Username returns the authorized bot's username.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

func (c *Client) SendMessage(ctx context.Context, ref ChatRef, text string, opts *SendOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(ref.ID, text)
	if ref.ID == 0 {
		msg.ChannelUsername = "@" + ref.Username
	}
	if opts != nil {
		msg.ParseMode = opts.ParseMode
		msg.DisableWebPagePreview = opts.DisableWebPagePreview
		msg.ReplyMarkup = opts.ReplyMarkup
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Client) EditMessageText(ctx context.Context, ref ChatRef, messageID int, text string, opts *SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.EditMessageTextConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:    ref.ID,
			MessageID: messageID,
		},
		Text: text,
	}
	if ref.ID == 0 {
		edit.ChannelUsername = "@" + ref.Username
	}
	if opts != nil {
		edit.ParseMode = opts.ParseMode
		edit.DisableWebPagePreview = opts.DisableWebPagePreview
		switch markup := opts.ReplyMarkup.(type) {
		case tgbotapi.InlineKeyboardMarkup:
			edit.ReplyMarkup = &markup
		case *tgbotapi.InlineKeyboardMarkup:
			edit.ReplyMarkup = markup
		}
	}

	_, err := c.api.Request(edit)
	return err
}

// ErrorDescription extracts the human-readable Bot API error description,
// which the publisher pattern-matches to classify failures.
func ErrorDescription(err error) string {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
