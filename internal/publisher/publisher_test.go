package publisher

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yolchi-backend/internal/models"
	"yolchi-backend/internal/platform/telegram"
	"yolchi-backend/internal/storage"
)

type stubSender struct {
	sendErr  error
	editErr  error
	sent     []string
	edited   []string
	editedID int
	nextID   int
}

func (s *stubSender) SendMessage(ctx context.Context, ref telegram.ChatRef, text string, opts *telegram.SendOptions) (int, error) {
	if s.sendErr != nil {
		return 0, s.sendErr
	}
	s.nextID++
	s.sent = append(s.sent, text)
	return s.nextID, nil
}

func (s *stubSender) EditMessageText(ctx context.Context, ref telegram.ChatRef, messageID int, text string, opts *telegram.SendOptions) error {
	if s.editErr != nil {
		return s.editErr
	}
	s.editedID = messageID
	s.edited = append(s.edited, text)
	return nil
}

func testGoal() *models.Goal {
	return &models.Goal{
		ID:           "1756000000000",
		Name:         "Run 5k",
		Description:  "Har kuni ertalab yugurish",
		Category:     "Sport",
		Duration:     models.Duration21,
		AuthorName:   "Aziza",
		Participants: 3,
	}
}

func newTestPublisher(t *testing.T, sender telegram.Sender) (*ChannelPublisher, storage.Store) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), true)
	require.NoError(t, err)
	return New(sender, store, telegram.ChatRef{ID: -100123}, "yolchi_goals_bot"), store
}

func TestPublishStoresMessageID(t *testing.T) {
	ctx := context.Background()
	sender := &stubSender{}
	pub, store := newTestPublisher(t, sender)

	goal := testGoal()
	rec, err := storage.Encode(goal)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, storage.Goals, rec))

	messageID, err := pub.Publish(ctx, goal)
	require.NoError(t, err)
	assert.Equal(t, 1, messageID)
	assert.Equal(t, 1, goal.ChannelMessageID)

	stored, ok, err := store.FindOne(ctx, storage.Goals, func(r storage.Record) bool {
		return r.ID() == goal.ID
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, stored["channelMessageId"])
	assert.NotNil(t, stored["channelPostDate"])
}

func TestPublishAgainEditsInsteadOfReposting(t *testing.T) {
	ctx := context.Background()
	sender := &stubSender{}
	pub, store := newTestPublisher(t, sender)

	goal := testGoal()
	rec, err := storage.Encode(goal)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, storage.Goals, rec))

	first, err := pub.Publish(ctx, goal)
	require.NoError(t, err)
	second, err := pub.Publish(ctx, goal)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, sender.sent, 1, "only one channel post ever")
	assert.Len(t, sender.edited, 1)
	assert.Equal(t, first, sender.editedID)
}

func TestPublishWithoutChannelConfigured(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir(), true)
	require.NoError(t, err)
	pub := New(&stubSender{}, store, telegram.ChatRef{}, "yolchi_goals_bot")

	_, err = pub.Publish(context.Background(), testGoal())
	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, KindChannelNotConfigured, pubErr.Kind)
}

func TestRefreshWithoutPostIsNoOp(t *testing.T) {
	sender := &stubSender{}
	pub, _ := newTestPublisher(t, sender)

	require.NoError(t, pub.Refresh(context.Background(), testGoal()))
	assert.Empty(t, sender.edited)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		desc string
		want ErrorKind
	}{
		{"Bad Request: chat not found", KindChannelNotFound},
		{"Bad Request: not enough rights to send text messages to the chat", KindInsufficientRights},
		{"Forbidden: bot was blocked by the user", KindBotBlocked},
		{"Forbidden: bot was kicked from the channel chat", KindBotBlocked},
		{"Internal Server Error", KindUnknown},
	}

	for _, tc := range cases {
		got := Classify(&tgbotapi.Error{Message: tc.desc})
		assert.Equal(t, tc.want, got.Kind, tc.desc)
	}
}

func TestFormatPost(t *testing.T) {
	goal := testGoal()
	post := FormatPost(goal)

	assert.Contains(t, post, "🎯 YANGI MAQSAD")
	assert.Contains(t, post, "Run 5k")
	assert.Contains(t, post, "Aziza")
	assert.Contains(t, post, "Sport")
	assert.Contains(t, post, "21 kun")
	assert.Contains(t, post, "3 ta")
	assert.Contains(t, post, "#Sport #Yolchi_Maqsad")
}

func TestFormatPostTruncatesLongDescription(t *testing.T) {
	goal := testGoal()
	goal.Description = strings.Repeat("a", 500)

	post := FormatPost(goal)
	assert.Contains(t, post, strings.Repeat("a", 300)+"...")
	assert.NotContains(t, post, strings.Repeat("a", 301))
}

func TestFormatPostUnderscoresMultiWordCategory(t *testing.T) {
	goal := testGoal()
	goal.Category = "Shaxsiy rivojlanish"

	post := FormatPost(goal)
	assert.Contains(t, post, "#Shaxsiy_rivojlanish")
}
