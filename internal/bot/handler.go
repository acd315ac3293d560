// Package bot runs the Telegram side of the platform: the long-polling
// update loop, the goal creation wizard, admin moderation buttons and the
// join request flow.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"yolchi-backend/internal/callback"
	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/models"
	"yolchi-backend/internal/platform/telegram"
	"yolchi-backend/internal/service"
	"yolchi-backend/internal/session"
)

const (
	textGenericError = "⚠️ Xatolik yuz berdi. Iltimos, keyinroq qayta urinib ko'ring."

	textWelcome = "👋 Assalomu alaykum, %s!\n\n" +
		"Yo'lchi — maqsadlaringizga hamroh platforma. Bu yerda maqsad qo'yasiz, " +
		"uni kanalda e'lon qilasiz va boshqalar sizga qo'shiladi.\n\n" +
		"Quyidagi menyudan boshlang 👇"

	textHelp = "ℹ️ YORDAM\n\n" +
		"🎯 Yangi maqsad — maqsad yaratish\n" +
		"📋 Mening maqsadlarim — yaratgan maqsadlaringiz\n" +
		"🤝 Qo'shilgan maqsadlar — siz qo'shilgan maqsadlar\n" +
		"💡 Tavsiyalar — tayyor maqsad g'oyalari\n" +
		"👤 Profil — profilingizni ko'rish va tahrirlash\n\n" +
		"Savollar uchun: @yolchi_support"

	listPageSize = 5
)

// Bot wires the update loop to the services.
type Bot struct {
	client          *telegram.Client
	api             *tgbotapi.BotAPI
	sessions        session.Store
	users           *service.UserService
	goals           *service.GoalService
	participations  *service.ParticipationService
	recommendations *service.RecommendationService
	cfg             *config.Config
	log             zerolog.Logger
}

func New(
	client *telegram.Client,
	sessions session.Store,
	users *service.UserService,
	goals *service.GoalService,
	participations *service.ParticipationService,
	recommendations *service.RecommendationService,
	cfg *config.Config,
) *Bot {
	return &Bot{
		client:          client,
		api:             client.API(),
		sessions:        sessions,
		users:           users,
		goals:           goals,
		participations:  participations,
		recommendations: recommendations,
		cfg:             cfg,
		log:             log.With().Str("component", "bot").Logger(),
	}
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	b.log.Info().Str("username", b.client.Username()).Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Msg("update handler panicked")
			if update.Message != nil {
				b.reply(update.Message.Chat.ID, textGenericError, mainMenu())
			}
		}
	}()

	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From
	user, created, err := b.users.GetOrCreate(ctx, service.Seed{
		ID:           from.ID,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		Username:     from.UserName,
		LanguageCode: from.LanguageCode,
	})
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", from.ID).Msg("get-or-create user failed")
		b.reply(msg.Chat.ID, textGenericError, nil)
		return
	}
	if created {
		b.log.Info().Int64("user_id", from.ID).Msg("new user registered")
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	switch strings.TrimSpace(msg.Text) {
	case menuNewGoal:
		b.clearWizard(ctx, from.ID)
		b.startWizard(ctx, msg.Chat.ID, from.ID)
	case menuMyGoals:
		b.sendMyGoals(ctx, msg.Chat.ID, from.ID, 1, 0)
	case menuJoinedGoals:
		b.sendJoinedGoals(ctx, msg.Chat.ID, from.ID, 1, 0)
	case menuRecommendations:
		b.sendRecommendations(ctx, msg.Chat.ID, 1, 0)
	case menuProfile:
		b.sendProfile(ctx, msg.Chat.ID, from.ID)
	case menuHelp:
		b.reply(msg.Chat.ID, textHelp, mainMenu())
	default:
		if b.advanceWizard(ctx, msg) {
			return
		}
		b.reply(msg.Chat.ID, "Tushunarsiz buyruq. Menyudan foydalaning 👇", mainMenu())
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *models.User) {
	switch msg.Command() {
	case "start":
		b.clearWizard(ctx, msg.From.ID)
		if err := b.users.TouchStart(ctx, msg.From.ID); err != nil {
			b.log.Warn().Err(err).Int64("user_id", msg.From.ID).Msg("touch start failed")
		}
		b.reply(msg.Chat.ID, fmt.Sprintf(textWelcome, user.DisplayName()), mainMenu())

		// Deep links from channel posts arrive as /start goal_<goalID>.
		if arg := msg.CommandArguments(); strings.HasPrefix(arg, "goal_") {
			b.joinGoal(ctx, msg.Chat.ID, msg.From.ID, strings.TrimPrefix(arg, "goal_"))
		}
	case "help":
		b.reply(msg.Chat.ID, textHelp, mainMenu())
	case "stats":
		if !b.cfg.IsAdmin(msg.From.ID) {
			return
		}
		b.sendStats(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, "Tushunarsiz buyruq. /help ni ko'ring.", nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Debug().Err(err).Msg("callback ack failed")
	}

	cmd, err := callback.Parse(cb.Data)
	if err != nil {
		b.log.Warn().Str("data", cb.Data).Msg("unknown callback data")
		return
	}

	userID := cb.From.ID
	chatID := userID
	messageID := 0
	if cb.Message != nil && cb.Message.Chat != nil && cb.Message.Chat.ID == userID {
		chatID = cb.Message.Chat.ID
		messageID = cb.Message.MessageID
	}

	switch cmd.Action {
	case callback.ActionApprove:
		b.approveGoal(ctx, chatID, userID, cmd.ID)
	case callback.ActionReject:
		b.rejectGoal(ctx, chatID, userID, cmd.ID)
	case callback.ActionJoinGoal:
		b.joinGoal(ctx, chatID, userID, cmd.ID)
	case callback.ActionAcceptJoin:
		b.decideJoin(ctx, chatID, userID, cmd.ID, true)
	case callback.ActionDeclineJoin:
		b.decideJoin(ctx, chatID, userID, cmd.ID, false)
	case callback.ActionStartGoal:
		b.lifecycle(ctx, chatID, userID, cmd.ID, b.goals.Start, "▶️ Maqsad boshlandi! Omad!")
	case callback.ActionComplete:
		b.lifecycle(ctx, chatID, userID, cmd.ID, b.goals.Complete, "🏆 Maqsad yakunlandi! Tabriklaymiz!")
	case callback.ActionDeleteGoal:
		b.lifecycle(ctx, chatID, userID, cmd.ID, b.goals.Cancel, "🗑 Maqsad o'chirildi.")
	case callback.ActionMembers:
		b.sendMembers(ctx, chatID, cmd.ID)
	case callback.ActionPublishYes:
		b.submitGoal(ctx, chatID, userID, cmd.ID)
	case callback.ActionPublishNo:
		b.reply(chatID, "Maqsad shaxsiy holda saqlandi.", mainMenu())
	case callback.ActionLikeRec:
		b.voteRecommendation(ctx, cb, cmd.ID, true)
	case callback.ActionDislikeRec:
		b.voteRecommendation(ctx, cb, cmd.ID, false)
	case callback.ActionJoinRec:
		b.adoptRecommendation(ctx, chatID, userID, cmd.ID)
	case callback.ActionEditProfile:
		b.startProfileEdit(ctx, chatID, userID, cmd.ID)
	case callback.ActionPage:
		b.turnPage(ctx, chatID, userID, messageID, cmd.Scope, cmd.Page)
	}
}

func (b *Bot) approveGoal(ctx context.Context, chatID, adminID int64, goalID string) {
	goal, pubErr, err := b.goals.Approve(ctx, adminID, goalID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	if pubErr != nil {
		b.reply(chatID, fmt.Sprintf(
			"✅ \"%s\" tasdiqlandi, lekin kanalga chiqarib bo'lmadi: %s.\nKanal sozlamalarini tekshiring.",
			goal.Name, pubErr.Kind), nil)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ \"%s\" tasdiqlandi va kanalga joylandi.", goal.Name), nil)
}

func (b *Bot) rejectGoal(ctx context.Context, chatID, adminID int64, goalID string) {
	goal, err := b.goals.Reject(ctx, adminID, goalID, "")
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("❌ \"%s\" rad etildi. Muallifga xabar yuborildi.", goal.Name), nil)
}

func (b *Bot) submitGoal(ctx context.Context, chatID, userID int64, goalID string) {
	if err := b.goals.SubmitForApproval(ctx, userID, goalID); err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	b.reply(chatID, "📨 Maqsadingiz adminlarga yuborildi. Tasdiqlangach kanalda e'lon qilinadi.", mainMenu())
}

func (b *Bot) joinGoal(ctx context.Context, chatID, userID int64, goalID string) {
	p, created, err := b.participations.Join(ctx, userID, goalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfJoin):
			b.reply(chatID, "⚠️ O'z maqsadingizga qo'shila olmaysiz.", nil)
		case errors.Is(err, service.ErrNotPublished):
			b.reply(chatID, "⚠️ Bu maqsad hali e'lon qilinmagan.", nil)
		default:
			b.replyServiceError(chatID, err)
		}
		return
	}
	if !created {
		b.reply(chatID, fmt.Sprintf("Siz allaqachon so'rov yuborgansiz (holati: %s).", p.Status), nil)
		return
	}
	b.reply(chatID, "🤝 So'rovingiz maqsad muallifiga yuborildi. Javobini kutib qoling!", mainMenu())
}

func (b *Bot) decideJoin(ctx context.Context, chatID, userID int64, participationID string, accept bool) {
	var err error
	if accept {
		_, err = b.participations.Accept(ctx, userID, participationID)
	} else {
		_, err = b.participations.Reject(ctx, userID, participationID)
	}
	if err != nil {
		if errors.Is(err, service.ErrAlreadyJoined) {
			b.reply(chatID, "Bu so'rov allaqachon ko'rib chiqilgan.", nil)
			return
		}
		b.replyServiceError(chatID, err)
		return
	}
	if accept {
		b.reply(chatID, "✅ Ishtirokchi qabul qilindi.", nil)
	} else {
		b.reply(chatID, "❌ So'rov rad etildi.", nil)
	}
}

func (b *Bot) lifecycle(ctx context.Context, chatID, userID int64, goalID string,
	op func(context.Context, int64, string) (*models.Goal, error), done string) {
	if _, err := op(ctx, userID, goalID); err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	b.reply(chatID, done, nil)
}

func (b *Bot) sendMembers(ctx context.Context, chatID int64, goalID string) {
	members, err := b.participations.ForGoal(ctx, goalID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	if len(members) == 0 {
		b.reply(chatID, "Hozircha hech kim qo'shilmagan.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("👥 ISHTIROKCHILAR\n\n")
	for i, m := range members {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, m.User.DisplayName(), participationLabel(m.Participation.Status))
	}
	b.reply(chatID, sb.String(), nil)
}

func (b *Bot) voteRecommendation(ctx context.Context, cb *tgbotapi.CallbackQuery, recID string, like bool) {
	rec, err := b.recommendations.Vote(ctx, recID, like)
	if err != nil {
		b.replyServiceError(cb.From.ID, err)
		return
	}
	if cb.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, recommendationKeyboard(rec))
	if _, err := b.api.Request(edit); err != nil {
		b.log.Debug().Err(err).Msg("recommendation keyboard refresh failed")
	}
}

// adoptRecommendation turns a curated idea into the user's own draft: the
// wizard resumes at the duration step with everything else prefilled.
func (b *Bot) adoptRecommendation(ctx context.Context, chatID, userID int64, recID string) {
	rec, err := b.recommendations.Get(ctx, recID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	b.saveWizard(ctx, userID, &wizardState{
		Step:        stepDuration,
		Name:        rec.Name,
		Description: rec.Description,
		Category:    rec.Category,
	})
	b.reply(chatID, fmt.Sprintf(
		"🎯 \"%s\" maqsad sifatida tanlandi.\n\nDavomiylikni tanlang:", rec.Name), durationKeyboard())
}

func (b *Bot) sendStats(ctx context.Context, chatID int64) {
	stats, err := b.goals.Stats(ctx)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"📊 PLATFORMA STATISTIKASI\n\n"+
			"👤 Foydalanuvchilar: %d\n"+
			"🎯 Maqsadlar: %d\n"+
			"📢 E'lon qilingan: %d\n"+
			"🏆 Yakunlangan: %d",
		stats.TotalUsers, stats.TotalGoals, stats.PublishedGoals, stats.CompletedGoals), nil)
}

func (b *Bot) sendProfile(ctx context.Context, chatID, userID int64) {
	user, err := b.users.Get(ctx, userID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 PROFIL\n\n")
	fmt.Fprintf(&sb, "Ism: %s\n", user.DisplayName())
	if user.Username != "" {
		fmt.Fprintf(&sb, "Username: @%s\n", user.Username)
	}
	if user.Phone != "" {
		fmt.Fprintf(&sb, "Telefon: %s\n", user.Phone)
	}
	if user.BirthDate != "" {
		fmt.Fprintf(&sb, "Tug'ilgan kun: %s\n", user.BirthDate)
	}
	if user.Location != "" {
		fmt.Fprintf(&sb, "Manzil: %s\n", user.Location)
	}
	if user.Bio != "" {
		fmt.Fprintf(&sb, "Bio: %s\n", user.Bio)
	}
	fmt.Fprintf(&sb, "\n🎯 Yaratilgan maqsadlar: %d\n", user.GoalsCreated)
	fmt.Fprintf(&sb, "🤝 Qo'shilgan maqsadlar: %d\n", user.GoalsJoined)
	fmt.Fprintf(&sb, "💎 Olmoslar: %d", user.Diamonds)

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Ism",
				callback.Command{Action: callback.ActionEditProfile, ID: "first_name"}.Encode()),
			tgbotapi.NewInlineKeyboardButtonData("📱 Telefon",
				callback.Command{Action: callback.ActionEditProfile, ID: "phone"}.Encode()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎂 Tug'ilgan kun",
				callback.Command{Action: callback.ActionEditProfile, ID: "birth_date"}.Encode()),
			tgbotapi.NewInlineKeyboardButtonData("📍 Manzil",
				callback.Command{Action: callback.ActionEditProfile, ID: "location"}.Encode()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Bio",
				callback.Command{Action: callback.ActionEditProfile, ID: "bio"}.Encode()),
		),
	)
	b.replyInline(chatID, sb.String(), kb)
}

func (b *Bot) replyServiceError(chatID int64, err error) {
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		b.reply(chatID, "⚠️ Bu amal faqat adminlar uchun.", nil)
	case errors.Is(err, service.ErrNotAuthor):
		b.reply(chatID, "⚠️ Bu amal faqat maqsad muallifi uchun.", nil)
	case errors.Is(err, service.ErrGoalFinished):
		b.reply(chatID, "⚠️ Bu maqsad allaqachon yakunlangan.", nil)
	case service.IsNotFound(err):
		b.reply(chatID, "⚠️ Topilmadi. Ro'yxatni yangilab ko'ring.", nil)
	default:
		b.log.Error().Err(err).Msg("service call failed")
		b.reply(chatID, textGenericError, nil)
	}
}

func (b *Bot) reply(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) replyInline(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func participationLabel(s models.ParticipationStatus) string {
	switch s {
	case models.ParticipationPending:
		return "⏳ kutilmoqda"
	case models.ParticipationAccepted:
		return "✅ qabul qilingan"
	case models.ParticipationRejected:
		return "❌ rad etilgan"
	case models.ParticipationLeft:
		return "🚪 chiqib ketgan"
	default:
		return string(s)
	}
}
