package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/notify"
	"yolchi-backend/internal/platform/telegram"
	"yolchi-backend/internal/publisher"
	"yolchi-backend/internal/storage"
)

const (
	testAdminID  = int64(99)
	testAuthorID = int64(1001)
	testJoinerID = int64(2002)
)

type sentMessage struct {
	Ref  telegram.ChatRef
	Text string
	Opts *telegram.SendOptions
}

// fakeSender records outgoing traffic and can be told to fail sends.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	edits   []sentMessage
	sendErr error
	nextID  int
}

func (f *fakeSender) SendMessage(ctx context.Context, ref telegram.ChatRef, text string, opts *telegram.SendOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{Ref: ref, Text: text, Opts: opts})
	return f.nextID, nil
}

func (f *fakeSender) EditMessageText(ctx context.Context, ref telegram.ChatRef, messageID int, text string, opts *telegram.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.edits = append(f.edits, sentMessage{Ref: ref, Text: text, Opts: opts})
	return nil
}

// sentTo returns every message delivered to the given chat id.
func (f *fakeSender) sentTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.Ref.ID == chatID {
			out = append(out, m)
		}
	}
	return out
}

type testEnv struct {
	store           storage.Store
	sender          *fakeSender
	users           *UserService
	goals           *GoalService
	participations  *ParticipationService
	recommendations *RecommendationService
	cfg             *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.NewFileStore(t.TempDir(), true)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Telegram.AdminIDs = []int64{testAdminID}
	cfg.Telegram.ChannelID = -1001234567890
	cfg.Telegram.BotUsername = "yolchi_goals_bot"

	sender := &fakeSender{}
	channel := telegram.ChatRef{ID: cfg.Telegram.ChannelID}
	pub := publisher.New(sender, store, channel, cfg.Telegram.BotUsername)
	notifier := notify.New(sender)

	users := NewUserService(store)
	goals := NewGoalService(store, users, pub, notifier, cfg)
	participations := NewParticipationService(store, users, goals, pub, notifier, cfg)
	recommendations := NewRecommendationService(store)

	return &testEnv{
		store:           store,
		sender:          sender,
		users:           users,
		goals:           goals,
		participations:  participations,
		recommendations: recommendations,
		cfg:             cfg,
	}
}

func (e *testEnv) mustUser(t *testing.T, id int64, firstName string) {
	t.Helper()
	_, _, err := e.users.GetOrCreate(context.Background(), Seed{ID: id, FirstName: firstName})
	require.NoError(t, err)
}
