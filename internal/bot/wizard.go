package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yolchi-backend/internal/models"
)

// Goal creation runs as a step machine kept in the session store. Each
// incoming text message advances at most one step; invalid input repeats
// the current prompt.
const (
	stepName        = "waiting_name"
	stepDescription = "waiting_description"
	stepDuration    = "waiting_duration"
	stepCategory    = "waiting_category"
)

type wizardState struct {
	Step        string          `json:"step"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Duration    models.Duration `json:"duration,omitempty"`
	Category    string          `json:"category,omitempty"`
	// ProfileField is set instead of Step when the user is editing a
	// single profile attribute.
	ProfileField string `json:"profileField,omitempty"`
}

func wizardKey(userID int64) string {
	return fmt.Sprintf("wizard:%d", userID)
}

func (b *Bot) wizardState(ctx context.Context, userID int64) (*wizardState, bool) {
	var st wizardState
	ok, err := b.sessions.Get(ctx, wizardKey(userID), &st)
	if err != nil || !ok {
		return nil, false
	}
	return &st, true
}

func (b *Bot) saveWizard(ctx context.Context, userID int64, st *wizardState) {
	if err := b.sessions.Set(ctx, wizardKey(userID), st, b.cfg.Session.TTL); err != nil {
		b.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to save wizard state")
	}
}

func (b *Bot) clearWizard(ctx context.Context, userID int64) {
	_ = b.sessions.Delete(ctx, wizardKey(userID))
}

func (b *Bot) startWizard(ctx context.Context, chatID, userID int64) {
	b.saveWizard(ctx, userID, &wizardState{Step: stepName})
	b.reply(chatID,
		"🎯 YANGI MAQSAD\n\nMaqsadingiz nomini yozing (3-100 belgi):",
		cancelKeyboard())
}

// advanceWizard feeds one text message into the step machine. It returns
// true when the message was consumed by the wizard.
func (b *Bot) advanceWizard(ctx context.Context, msg *tgbotapi.Message) bool {
	userID := msg.From.ID
	st, ok := b.wizardState(ctx, userID)
	if !ok {
		return false
	}

	text := strings.TrimSpace(msg.Text)
	if text == buttonCancel {
		b.clearWizard(ctx, userID)
		b.reply(msg.Chat.ID, "Bekor qilindi.", mainMenu())
		return true
	}

	if st.ProfileField != "" {
		b.applyProfileEdit(ctx, msg.Chat.ID, userID, st.ProfileField, text)
		b.clearWizard(ctx, userID)
		return true
	}

	switch st.Step {
	case stepName:
		if n := len([]rune(text)); n < 3 || n > 100 {
			b.reply(msg.Chat.ID, "⚠️ Nomi 3 dan 100 gacha belgidan iborat bo'lishi kerak. Qaytadan yozing:", nil)
			return true
		}
		st.Name = text
		st.Step = stepDescription
		b.saveWizard(ctx, userID, st)
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"Endi maqsadingiz tavsifini yozing (%d-%d belgi):",
			models.BotDescriptionLimits.Min, models.BotDescriptionLimits.Max), nil)

	case stepDescription:
		if n := len([]rune(text)); n < models.BotDescriptionLimits.Min || n > models.BotDescriptionLimits.Max {
			b.reply(msg.Chat.ID, fmt.Sprintf(
				"⚠️ Tavsif %d dan %d gacha belgidan iborat bo'lishi kerak. Qaytadan yozing:",
				models.BotDescriptionLimits.Min, models.BotDescriptionLimits.Max), nil)
			return true
		}
		st.Description = text
		st.Step = stepDuration
		b.saveWizard(ctx, userID, st)
		b.reply(msg.Chat.ID, "Maqsad davomiyligini tanlang:", durationKeyboard())

	case stepDuration:
		d, ok := durationFromLabel(text)
		if !ok {
			b.reply(msg.Chat.ID, "⚠️ Quyidagi tugmalardan birini tanlang:", durationKeyboard())
			return true
		}
		st.Duration = d
		st.Step = stepCategory
		b.saveWizard(ctx, userID, st)
		b.reply(msg.Chat.ID, "Kategoriyani tanlang:", categoryKeyboard())

	case stepCategory:
		if !models.IsCategory(text) {
			b.reply(msg.Chat.ID, "⚠️ Quyidagi kategoriyalardan birini tanlang:", categoryKeyboard())
			return true
		}
		st.Category = text
		b.finishWizard(ctx, msg.Chat.ID, userID, st)

	default:
		b.clearWizard(ctx, userID)
		return false
	}
	return true
}

func (b *Bot) finishWizard(ctx context.Context, chatID, userID int64, st *wizardState) {
	b.clearWizard(ctx, userID)

	goal, err := b.goals.Create(ctx, userID, models.GoalInput{
		Name:        st.Name,
		Description: st.Description,
		Duration:    st.Duration,
		Category:    st.Category,
	}, models.BotDescriptionLimits)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			b.reply(chatID, "⚠️ "+verr.First(), mainMenu())
			return
		}
		b.log.Error().Err(err).Int64("user_id", userID).Msg("goal create failed")
		b.reply(chatID, textGenericError, mainMenu())
		return
	}

	b.reply(chatID, fmt.Sprintf(
		"✅ Maqsad saqlandi!\n\n🎯 %s\n📂 %s\n⏱ %s\n\nKanalda e'lon qilish uchun adminlarga yuborilsinmi?",
		goal.Name, goal.Category, goal.Duration.Label(),
	), mainMenu())
	b.replyInline(chatID, "Tasdiqlashga yuborish:", publishDecisionKeyboard(goal.ID))
}

func durationFromLabel(label string) (models.Duration, bool) {
	for _, d := range models.Durations() {
		if d.Label() == label {
			return d, true
		}
	}
	return "", false
}

// Profile editing reuses the same session slot: one field at a time.

var profilePrompts = map[string]string{
	"first_name": "Ismingizni yozing:",
	"phone":      "Telefon raqamingizni yozing (+998...):",
	"birth_date": "Tug'ilgan kuningizni yozing (kk.oo.yyyy):",
	"location":   "Qayerdansiz?",
	"bio":        "O'zingiz haqingizda qisqacha yozing:",
}

func (b *Bot) startProfileEdit(ctx context.Context, chatID, userID int64, field string) {
	prompt, ok := profilePrompts[field]
	if !ok {
		return
	}
	b.saveWizard(ctx, userID, &wizardState{ProfileField: field})
	b.reply(chatID, prompt, cancelKeyboard())
}

func (b *Bot) applyProfileEdit(ctx context.Context, chatID, userID int64, field, value string) {
	in := models.ProfileInput{}
	switch field {
	case "first_name":
		in.FirstName = value
	case "phone":
		in.Phone = value
	case "birth_date":
		in.BirthDate = value
	case "location":
		in.Location = value
	case "bio":
		in.Bio = value
	}

	if _, err := b.users.UpdateProfile(ctx, userID, in); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			b.reply(chatID, "⚠️ "+verr.First(), mainMenu())
			return
		}
		b.log.Error().Err(err).Int64("user_id", userID).Msg("profile update failed")
		b.reply(chatID, textGenericError, mainMenu())
		return
	}
	b.reply(chatID, "✅ Profil yangilandi.", mainMenu())
}
