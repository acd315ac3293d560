// Package notify is the single place best-effort messages go through.
// Delivery failures (user blocked the bot, chat gone) are logged and
// swallowed; they never bubble up to the actor who triggered the send.
package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yolchi-backend/internal/callback"
	"yolchi-backend/internal/common/logger"
	"yolchi-backend/internal/platform/telegram"
)

type Notifier struct {
	sender telegram.Sender
}

func New(sender telegram.Sender) *Notifier {
	return &Notifier{sender: sender}
}

// Send delivers text to a user, best effort.
func (n *Notifier) Send(ctx context.Context, userID int64, text string, opts *telegram.SendOptions) {
	if n == nil || n.sender == nil {
		return
	}
	ref := telegram.ChatRef{ID: userID}
	if _, err := n.sender.SendMessage(ctx, ref, text, opts); err != nil {
		logger.Warn().
			Err(err).
			Int64("user_id", userID).
			Str("description", telegram.ErrorDescription(err)).
			Msg("notification send failed")
	}
}

// ApprovalKeyboard builds the approve/reject prompt shown to admins.
func ApprovalKeyboard(goalID string) *telegram.SendOptions {
	approve := callback.Command{Action: callback.ActionApprove, ID: goalID}.Encode()
	reject := callback.Command{Action: callback.ActionReject, ID: goalID}.Encode()
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Tasdiqlash", approve),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rad etish", reject),
		),
	)
	return &telegram.SendOptions{ReplyMarkup: keyboard}
}

// JoinDecisionKeyboard builds the accept/decline prompt shown to a goal
// author when somebody asks to join.
func JoinDecisionKeyboard(participationID string) *telegram.SendOptions {
	accept := callback.Command{Action: callback.ActionAcceptJoin, ID: participationID}.Encode()
	decline := callback.Command{Action: callback.ActionDeclineJoin, ID: participationID}.Encode()
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Qabul qilish", accept),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rad etish", decline),
		),
	)
	return &telegram.SendOptions{ReplyMarkup: keyboard}
}
