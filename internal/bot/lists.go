package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yolchi-backend/internal/callback"
	"yolchi-backend/internal/models"
)

// Pagination scopes. The scope travels inside the callback data, so the
// page handler can re-query and re-render without any stored cursor.
const (
	scopeMyGoals     = "my_goals"
	scopeJoinedGoals = "joined_goals"
	scopeRecs        = "recs"
)

// sendMyGoals renders one page of the author's goals. messageID > 0 edits
// the existing list message in place instead of sending a new one.
func (b *Bot) sendMyGoals(ctx context.Context, chatID, userID int64, page, messageID int) {
	goals, err := b.goals.ByAuthor(ctx, userID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	if len(goals) == 0 {
		b.reply(chatID, "Sizda hali maqsadlar yo'q. 🎯 Yangi maqsad tugmasidan boshlang!", mainMenu())
		return
	}

	pageGoals, page, totalPages := paginate(goals, page)

	var sb strings.Builder
	sb.WriteString("📋 MENING MAQSADLARIM\n\n")
	for i, g := range pageGoals {
		fmt.Fprintf(&sb, "%d. %s %s\n   📂 %s | ⏱ %s | 👥 %d\n\n",
			(page-1)*listPageSize+i+1, statusLabel(g.Status), g.Name,
			g.Category, g.Duration.Label(), g.Participants)
	}

	sb.WriteString("Tugmalar: 📢 yuborish | ▶️ boshlash | 🏁 yakunlash | 👥 ishtirokchilar | 🗑 o'chirish")

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(pageGoals)+1)
	for i := range pageGoals {
		if row := goalButtonsRow((page-1)*listPageSize+i+1, &pageGoals[i]); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if row := paginationRow(scopeMyGoals, page, totalPages); row != nil {
		rows = append(rows, row)
	}

	b.sendOrEdit(chatID, messageID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) sendJoinedGoals(ctx context.Context, chatID, userID int64, page, messageID int) {
	joined, err := b.participations.ForUser(ctx, userID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	if len(joined) == 0 {
		b.reply(chatID, "Siz hali hech qaysi maqsadga qo'shilmagansiz.", mainMenu())
		return
	}

	pageItems, page, totalPages := paginate(joined, page)

	var sb strings.Builder
	sb.WriteString("🤝 QO'SHILGAN MAQSADLAR\n\n")
	for i, jg := range pageItems {
		fmt.Fprintf(&sb, "%d. %s\n   Muallif: %s | Holat: %s\n\n",
			(page-1)*listPageSize+i+1, jg.Goal.Name, jg.Goal.AuthorName,
			participationLabel(jg.Participation.Status))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if row := paginationRow(scopeJoinedGoals, page, totalPages); row != nil {
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		if messageID > 0 {
			b.sendOrEdit(chatID, messageID, sb.String(), tgbotapi.NewInlineKeyboardMarkup())
			return
		}
		b.reply(chatID, sb.String(), mainMenu())
		return
	}
	b.sendOrEdit(chatID, messageID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) sendRecommendations(ctx context.Context, chatID int64, page, messageID int) {
	recs, err := b.recommendations.List(ctx, "", 0)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	if len(recs) == 0 {
		b.reply(chatID, "Hozircha tavsiyalar yo'q.", mainMenu())
		return
	}

	pageRecs, page, totalPages := paginate(recs, page)

	// Page navigation edits the header message; the cards below it are
	// sent once per page view.
	header := fmt.Sprintf("💡 TAVSIYA ETILGAN MAQSADLAR (%d-sahifa)", page)
	var rows [][]tgbotapi.InlineKeyboardButton
	if row := paginationRow(scopeRecs, page, totalPages); row != nil {
		rows = append(rows, row)
	}
	if len(rows) > 0 {
		b.sendOrEdit(chatID, messageID, header, tgbotapi.NewInlineKeyboardMarkup(rows...))
	} else if messageID == 0 {
		b.reply(chatID, header, nil)
	}

	if messageID > 0 {
		return
	}
	for i := range pageRecs {
		rec := pageRecs[i]
		text := fmt.Sprintf("🎯 %s\n📂 %s\n\n%s", rec.Name, rec.Category, rec.Description)
		b.replyInline(chatID, text, recommendationKeyboard(&rec))
	}
}

func (b *Bot) turnPage(ctx context.Context, chatID, userID int64, messageID int, scope string, page int) {
	switch scope {
	case scopeMyGoals:
		b.sendMyGoals(ctx, chatID, userID, page, messageID)
	case scopeJoinedGoals:
		b.sendJoinedGoals(ctx, chatID, userID, page, messageID)
	case scopeRecs:
		b.sendRecommendations(ctx, chatID, page, messageID)
	}
}

func (b *Bot) sendOrEdit(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if messageID > 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
		if _, err := b.api.Request(edit); err != nil {
			b.log.Debug().Err(err).Int64("chat_id", chatID).Msg("list edit failed")
		}
		return
	}
	b.replyInline(chatID, text, kb)
}

// goalButtonsRow builds the action buttons for a list entry, each labeled
// with the entry's number so the row reads against the list above it.
func goalButtonsRow(n int, g *models.Goal) []tgbotapi.InlineKeyboardButton {
	var row []tgbotapi.InlineKeyboardButton
	switch g.Status {
	case models.GoalStatusPending:
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d 📢", n),
			callback.Command{Action: callback.ActionPublishYes, ID: g.ID}.Encode()))
	case models.GoalStatusActive:
		if g.StartDate == nil {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d ▶️", n),
				callback.Command{Action: callback.ActionStartGoal, ID: g.ID}.Encode()))
		} else {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d 🏁", n),
				callback.Command{Action: callback.ActionComplete, ID: g.ID}.Encode()))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d 👥", n),
			callback.Command{Action: callback.ActionMembers, ID: g.ID}.Encode()))
	}
	if !g.Terminal() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d 🗑", n),
			callback.Command{Action: callback.ActionDeleteGoal, ID: g.ID}.Encode()))
	}
	return row
}

// paginate clamps page into range and returns the slice for it.
func paginate[T any](items []T, page int) ([]T, int, int) {
	totalPages := (len(items) + listPageSize - 1) / listPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * listPageSize
	end := start + listPageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page, totalPages
}

func statusLabel(s models.GoalStatus) string {
	switch s {
	case models.GoalStatusPending:
		return "⏳"
	case models.GoalStatusActive:
		return "🔥"
	case models.GoalStatusCompleted:
		return "✅"
	case models.GoalStatusCancelled:
		return "❌"
	default:
		return "❔"
	}
}
