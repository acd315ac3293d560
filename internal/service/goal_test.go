package service

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yolchi-backend/internal/models"
	"yolchi-backend/internal/publisher"
	"yolchi-backend/internal/storage"
)

func validGoalInput() models.GoalInput {
	return models.GoalInput{
		Name:        "Run 5k",
		Description: strings.Repeat("Har kuni ertalab yugurish. ", 3),
		Duration:    models.Duration21,
		Category:    "Sport",
	}
}

func TestCreateGoalStartsPendingAndUnpublished(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)

	assert.Equal(t, models.GoalStatusPending, goal.Status)
	assert.False(t, goal.IsPublished)
	assert.Equal(t, testAuthorID, goal.AuthorID)
	assert.Equal(t, "Aziza", goal.AuthorName)
	assert.NotEmpty(t, goal.ID)

	author, err := env.users.Get(ctx, testAuthorID)
	require.NoError(t, err)
	assert.Equal(t, 1, author.GoalsCreated)
}

func TestCreateGoalRejectsShortName(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	in := validGoalInput()
	in.Name = "ab"

	_, err := env.goals.Create(ctx, testAuthorID, in, models.BotDescriptionLimits)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	// Nothing persisted, no counter moved.
	goals, err := env.goals.ByAuthor(ctx, testAuthorID)
	require.NoError(t, err)
	assert.Empty(t, goals)

	author, err := env.users.Get(ctx, testAuthorID)
	require.NoError(t, err)
	assert.Zero(t, author.GoalsCreated)
}

func TestCreateGoalDescriptionLimitsDependOnSurface(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	in := validGoalInput()
	in.Description = strings.Repeat("a", 30) // fits bot limits, below web minimum

	_, err := env.goals.Create(ctx, testAuthorID, in, models.BotDescriptionLimits)
	require.NoError(t, err)

	_, err = env.goals.Create(ctx, testAuthorID, in, models.WebDescriptionLimits)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "description")
}

func TestApprovePublishesAndNotifiesAuthor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)

	approved, pubErr, err := env.goals.Approve(ctx, testAdminID, goal.ID)
	require.NoError(t, err)
	require.Nil(t, pubErr)

	assert.Equal(t, models.GoalStatusActive, approved.Status)
	assert.True(t, approved.IsPublished)
	assert.NotZero(t, approved.ChannelMessageID)

	posts := env.sender.sentTo(env.cfg.Telegram.ChannelID)
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0].Text, "Run 5k")
	assert.Contains(t, posts[0].Text, "21 kun")
	assert.Contains(t, posts[0].Text, "#Sport")

	authorMsgs := env.sender.sentTo(testAuthorID)
	require.NotEmpty(t, authorMsgs)
	assert.Contains(t, authorMsgs[len(authorMsgs)-1].Text, "TABRIKLAYMIZ")
}

func TestApproveCommitsDespitePublishFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)

	env.sender.sendErr = &tgbotapi.Error{Message: "Bad Request: chat not found"}

	approved, pubErr, err := env.goals.Approve(ctx, testAdminID, goal.ID)
	require.NoError(t, err)
	require.NotNil(t, pubErr)
	assert.Equal(t, publisher.KindChannelNotFound, pubErr.Kind)

	// The decision stands even though the channel post failed.
	assert.Equal(t, models.GoalStatusActive, approved.Status)
	assert.True(t, approved.IsPublished)

	stored, err := env.goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GoalStatusActive, stored.Status)
	assert.True(t, stored.IsPublished)
	assert.Zero(t, stored.ChannelMessageID)
}

func TestApproveRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)

	_, _, err = env.goals.Approve(ctx, testAuthorID, goal.ID)
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestRejectNotifiesAuthorWithReason(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)

	rejected, err := env.goals.Reject(ctx, testAdminID, goal.ID, "")
	require.NoError(t, err)

	assert.Equal(t, models.GoalStatusCancelled, rejected.Status)
	assert.False(t, rejected.IsPublished)
	assert.Equal(t, "Platforma qoidalariga mos kelmadi", rejected.RejectionReason)

	msgs := env.sender.sentTo(testAuthorID)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1].Text, "RAD ETILDI")
	assert.Contains(t, msgs[len(msgs)-1].Text, "Platforma qoidalariga mos kelmadi")
}

func TestStartSetsDatesFromDuration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)
	_, _, err = env.goals.Approve(ctx, testAdminID, goal.ID)
	require.NoError(t, err)

	started, err := env.goals.Start(ctx, testAuthorID, goal.ID)
	require.NoError(t, err)
	require.NotNil(t, started.StartDate)
	require.NotNil(t, started.EndDate)
	assert.Equal(t, 21*24.0, started.EndDate.Sub(*started.StartDate).Hours())
}

func TestStartCustomDurationLeavesEndOpen(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	in := validGoalInput()
	in.Duration = models.DurationCustom

	goal, err := env.goals.Create(ctx, testAuthorID, in, models.BotDescriptionLimits)
	require.NoError(t, err)
	_, _, err = env.goals.Approve(ctx, testAdminID, goal.ID)
	require.NoError(t, err)

	started, err := env.goals.Start(ctx, testAuthorID, goal.ID)
	require.NoError(t, err)
	require.NotNil(t, started.StartDate)
	assert.Nil(t, started.EndDate)
}

func TestLifecycleIsAuthorGated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	env.mustUser(t, testJoinerID, "Bek")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)

	_, err = env.goals.Start(ctx, testJoinerID, goal.ID)
	assert.ErrorIs(t, err, ErrNotAuthor)
	_, err = env.goals.Complete(ctx, testJoinerID, goal.ID)
	assert.ErrorIs(t, err, ErrNotAuthor)
	_, err = env.goals.Cancel(ctx, testJoinerID, goal.ID)
	assert.ErrorIs(t, err, ErrNotAuthor)
}

func TestCompletedGoalCannotBeCancelledOrRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)
	_, _, err = env.goals.Approve(ctx, testAdminID, goal.ID)
	require.NoError(t, err)
	_, err = env.goals.Start(ctx, testAuthorID, goal.ID)
	require.NoError(t, err)
	_, err = env.goals.Complete(ctx, testAuthorID, goal.ID)
	require.NoError(t, err)

	_, err = env.goals.Cancel(ctx, testAuthorID, goal.ID)
	assert.ErrorIs(t, err, ErrGoalFinished)
	_, err = env.goals.Reject(ctx, testAdminID, goal.ID, "")
	assert.ErrorIs(t, err, ErrGoalFinished)

	got, err := env.goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GoalStatusCompleted, got.Status)
}

func TestPublishedListFiltersAndSearches(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	sport := validGoalInput()
	business := validGoalInput()
	business.Name = "Open a bakery"
	business.Category = "Biznes"

	g1, err := env.goals.Create(ctx, testAuthorID, sport, models.BotDescriptionLimits)
	require.NoError(t, err)
	g2, err := env.goals.Create(ctx, testAuthorID, business, models.BotDescriptionLimits)
	require.NoError(t, err)

	// Only g1 gets approved; g2 stays pending and invisible.
	_, _, err = env.goals.Approve(ctx, testAdminID, g1.ID)
	require.NoError(t, err)

	listed, err := env.goals.Published(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, g1.ID, listed[0].ID)

	_, _, err = env.goals.Approve(ctx, testAdminID, g2.ID)
	require.NoError(t, err)

	byCategory, err := env.goals.Published(ctx, ListQuery{Category: "Biznes"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, g2.ID, byCategory[0].ID)

	bySearch, err := env.goals.Published(ctx, ListQuery{Search: "bakery"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, g2.ID, bySearch[0].ID)
}

func TestCompleteExpiredClosesOverdueGoals(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)
	_, _, err = env.goals.Approve(ctx, testAdminID, goal.ID)
	require.NoError(t, err)
	_, err = env.goals.Start(ctx, testAuthorID, goal.ID)
	require.NoError(t, err)

	// Backdate the deadline so the sweep sees it as overdue.
	past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339Nano)
	_, ok, err := env.store.UpdateFields(ctx, storage.Goals, goal.ID, storage.Record{"endDate": past})
	require.NoError(t, err)
	require.True(t, ok)

	closed, err := env.goals.CompleteExpired(ctx)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, models.GoalStatusCompleted, closed[0].Status)

	stored, err := env.goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GoalStatusCompleted, stored.Status)

	// Second sweep finds nothing left to close.
	closed, err = env.goals.CompleteExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, closed)

	msgs := env.sender.sentTo(testAuthorID)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1].Text, "MUDDAT TUGADI")
}

func TestSubmitForApprovalFansOutToAdmins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)

	require.NoError(t, env.goals.SubmitForApproval(ctx, testAuthorID, goal.ID))

	adminMsgs := env.sender.sentTo(testAdminID)
	require.Len(t, adminMsgs, 1)
	assert.Contains(t, adminMsgs[0].Text, "YANGI MAQSAD")
	assert.Contains(t, adminMsgs[0].Text, "Run 5k")
	require.NotNil(t, adminMsgs[0].Opts, "approval buttons expected")
}
