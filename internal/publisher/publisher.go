// Package publisher turns an approved goal into a channel post and keeps
// that post up to date. A goal gets at most one channel message: once a
// message id is stored, publishing again degrades to an in-place edit.
package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yolchi-backend/internal/callback"
	"yolchi-backend/internal/models"
	"yolchi-backend/internal/platform/telegram"
	"yolchi-backend/internal/storage"
)

// ErrorKind is the closed set of publish failure classes. Each maps to an
// actionable message for the admin who triggered the publish.
type ErrorKind string

const (
	KindChannelNotConfigured ErrorKind = "channel_not_configured"
	KindChannelNotFound      ErrorKind = "channel_not_found"
	KindInsufficientRights   ErrorKind = "insufficient_rights"
	KindBotBlocked           ErrorKind = "bot_blocked"
	KindUnknown              ErrorKind = "unknown"
)

// PublishError wraps a channel-side failure with its classified kind.
type PublishError struct {
	Kind   ErrorKind
	Detail string
}

func (e *PublishError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Classify maps a transport error onto the closed kind set by matching
// the Bot API description, the only signal the API gives.
func Classify(err error) *PublishError {
	desc := telegram.ErrorDescription(err)
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "chat not found"):
		return &PublishError{Kind: KindChannelNotFound, Detail: desc}
	case strings.Contains(lower, "not enough rights"):
		return &PublishError{Kind: KindInsufficientRights, Detail: desc}
	case strings.Contains(lower, "bot was blocked"), strings.Contains(lower, "bot was kicked"):
		return &PublishError{Kind: KindBotBlocked, Detail: desc}
	default:
		return &PublishError{Kind: KindUnknown, Detail: desc}
	}
}

// ChannelPublisher posts goals to the configured broadcast channel.
type ChannelPublisher struct {
	sender      telegram.Sender
	store       storage.Store
	channel     telegram.ChatRef
	botUsername string
}

func New(sender telegram.Sender, store storage.Store, channel telegram.ChatRef, botUsername string) *ChannelPublisher {
	return &ChannelPublisher{
		sender:      sender,
		store:       store,
		channel:     channel,
		botUsername: botUsername,
	}
}

// Publish sends the formatted goal post to the channel and stores the
// returned message id on the goal. If a message id is already stored the
// call refreshes the existing post instead of creating a second one.
func (p *ChannelPublisher) Publish(ctx context.Context, goal *models.Goal) (int, error) {
	if !p.channel.Configured() {
		return 0, &PublishError{Kind: KindChannelNotConfigured}
	}

	if goal.ChannelMessageID != 0 {
		if err := p.Refresh(ctx, goal); err != nil {
			return 0, err
		}
		return goal.ChannelMessageID, nil
	}

	messageID, err := p.sender.SendMessage(ctx, p.channel, FormatPost(goal), p.postOptions(goal))
	if err != nil {
		return 0, Classify(err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, _, err := p.store.UpdateFields(ctx, storage.Goals, goal.ID, storage.Record{
		"channelMessageId": messageID,
		"channelPostDate":  now,
	}); err != nil {
		return 0, &PublishError{Kind: KindUnknown, Detail: err.Error()}
	}

	goal.ChannelMessageID = messageID
	return messageID, nil
}

// Refresh re-renders the stored channel message, typically after the
// participant count changed. It no-ops when the goal was never posted.
func (p *ChannelPublisher) Refresh(ctx context.Context, goal *models.Goal) error {
	if goal.ChannelMessageID == 0 {
		return nil
	}
	if !p.channel.Configured() {
		return &PublishError{Kind: KindChannelNotConfigured}
	}
	if err := p.sender.EditMessageText(ctx, p.channel, goal.ChannelMessageID, FormatPost(goal), p.postOptions(goal)); err != nil {
		return Classify(err)
	}
	return nil
}

func (p *ChannelPublisher) postOptions(goal *models.Goal) *telegram.SendOptions {
	joinData := callback.Command{Action: callback.ActionJoinGoal, ID: goal.ID}.Encode()
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ QO'SHILISH", joinData),
			tgbotapi.NewInlineKeyboardButtonURL("🤖 BOTGA O'TISH",
				fmt.Sprintf("https://t.me/%s?start=goal_%s", p.botUsername, goal.ID)),
		),
	)
	return &telegram.SendOptions{
		ParseMode:             tgbotapi.ModeHTML,
		DisableWebPagePreview: true,
		ReplyMarkup:           keyboard,
	}
}

const descriptionLimit = 300

// FormatPost renders the channel post body.
func FormatPost(goal *models.Goal) string {
	category := goal.Category
	if category == "" {
		category = "Umumiy"
	}
	author := goal.AuthorName
	if author == "" {
		author = "Noma'lum"
	}

	description := goal.Description
	if runes := []rune(description); len(runes) > descriptionLimit {
		description = string(runes[:descriptionLimit]) + "..."
	}

	hashtags := fmt.Sprintf("#%s #Yolchi_Maqsad", strings.ReplaceAll(category, " ", "_"))

	var b strings.Builder
	b.WriteString("<b>🎯 YANGI MAQSAD</b>\n\n")
	fmt.Fprintf(&b, "<b>📌 Nomi:</b> %s\n", goal.Name)
	fmt.Fprintf(&b, "<b>👤 Muallif:</b> %s\n", author)
	fmt.Fprintf(&b, "<b>🏷️ Kategoriya:</b> %s\n", category)
	fmt.Fprintf(&b, "<b>⏱️ Davomiylik:</b> %s\n", goal.Duration.Label())
	fmt.Fprintf(&b, "<b>👥 Ishtirokchilar:</b> %d ta\n\n", goal.Participants)
	fmt.Fprintf(&b, "<b>📝 Maqsad:</b>\n%s\n\n", description)
	fmt.Fprintf(&b, "<i>%s</i>", hashtags)
	return b.String()
}
