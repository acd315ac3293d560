package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yolchi-backend/internal/callback"
	"yolchi-backend/internal/models"
)

// Reply-keyboard menu labels. The handler matches incoming text against
// these, so they must stay in sync with mainMenu.
const (
	menuNewGoal         = "🎯 Yangi maqsad"
	menuMyGoals         = "📋 Mening maqsadlarim"
	menuJoinedGoals     = "🤝 Qo'shilgan maqsadlar"
	menuRecommendations = "💡 Tavsiyalar"
	menuProfile         = "👤 Profil"
	menuHelp            = "ℹ️ Yordam"
	buttonCancel        = "❌ Bekor qilish"
)

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuNewGoal),
			tgbotapi.NewKeyboardButton(menuMyGoals),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuJoinedGoals),
			tgbotapi.NewKeyboardButton(menuRecommendations),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuProfile),
			tgbotapi.NewKeyboardButton(menuHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCancel)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func durationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, 4)
	row := make([]tgbotapi.KeyboardButton, 0, 2)
	for _, d := range models.Durations() {
		row = append(row, tgbotapi.NewKeyboardButton(d.Label()))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCancel)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, 8)
	row := make([]tgbotapi.KeyboardButton, 0, 2)
	for _, c := range models.Categories {
		row = append(row, tgbotapi.NewKeyboardButton(c))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCancel)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func publishDecisionKeyboard(goalID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Ha, yuborish",
				callback.Command{Action: callback.ActionPublishYes, ID: goalID}.Encode()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Yo'q",
				callback.Command{Action: callback.ActionPublishNo, ID: goalID}.Encode()),
		),
	)
}

func recommendationKeyboard(r *models.Recommendation) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("👍 %d", r.Likes),
				callback.Command{Action: callback.ActionLikeRec, ID: r.ID}.Encode()),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("👎 %d", r.Dislikes),
				callback.Command{Action: callback.ActionDislikeRec, ID: r.ID}.Encode()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Maqsad qilish",
				callback.Command{Action: callback.ActionJoinRec, ID: r.ID}.Encode()),
		),
	)
}

// paginationRow returns prev/next buttons for the given scope, or nil when
// there is a single page.
func paginationRow(scope string, page, totalPages int) []tgbotapi.InlineKeyboardButton {
	if totalPages <= 1 {
		return nil
	}
	var row []tgbotapi.InlineKeyboardButton
	if page > 1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️",
			callback.Command{Action: callback.ActionPage, Scope: scope, Page: page - 1}.Encode()))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("%d/%d", page, totalPages), callback.Command{Action: callback.ActionPage, Scope: scope, Page: page}.Encode()))
	if page < totalPages {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("➡️",
			callback.Command{Action: callback.ActionPage, Scope: scope, Page: page + 1}.Encode()))
	}
	return row
}
