package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yolchi-backend/internal/models"
)

func publishedGoal(t *testing.T, env *testEnv) *models.Goal {
	t.Helper()
	ctx := context.Background()

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)
	approved, pubErr, err := env.goals.Approve(ctx, testAdminID, goal.ID)
	require.NoError(t, err)
	require.Nil(t, pubErr)
	return approved
}

func TestJoinCreatesPendingRequestAndNotifiesAuthor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	env.mustUser(t, testJoinerID, "Bek")
	goal := publishedGoal(t, env)

	p, created, err := env.participations.Join(ctx, testJoinerID, goal.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.ParticipationPending, p.Status)
	assert.Equal(t, testJoinerID, p.UserID)
	assert.Equal(t, goal.ID, p.GoalID)

	fresh, err := env.goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Participants)

	joiner, err := env.users.Get(ctx, testJoinerID)
	require.NoError(t, err)
	assert.Equal(t, 1, joiner.GoalsJoined)

	authorMsgs := env.sender.sentTo(testAuthorID)
	require.NotEmpty(t, authorMsgs)
	last := authorMsgs[len(authorMsgs)-1]
	assert.Contains(t, last.Text, "QO'SHILISH SO'ROVI")
	assert.Contains(t, last.Text, "Bek")
	require.NotNil(t, last.Opts, "accept/decline buttons expected")
}

func TestJoinIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	env.mustUser(t, testJoinerID, "Bek")
	goal := publishedGoal(t, env)

	first, created, err := env.participations.Join(ctx, testJoinerID, goal.ID)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := env.participations.Join(ctx, testJoinerID, goal.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// Counters moved exactly once.
	fresh, err := env.goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Participants)

	joiner, err := env.users.Get(ctx, testJoinerID)
	require.NoError(t, err)
	assert.Equal(t, 1, joiner.GoalsJoined)
}

func TestJoinRejectsSelfJoinWithoutRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	goal := publishedGoal(t, env)

	_, _, err := env.participations.Join(ctx, testAuthorID, goal.ID)
	assert.ErrorIs(t, err, ErrSelfJoin)

	members, err := env.participations.ForGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	fresh, err := env.goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Zero(t, fresh.Participants)
}

func TestJoinRequiresPublishedGoal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	env.mustUser(t, testJoinerID, "Bek")

	goal, err := env.goals.Create(ctx, testAuthorID, validGoalInput(), models.BotDescriptionLimits)
	require.NoError(t, err)

	_, _, err = env.participations.Join(ctx, testJoinerID, goal.ID)
	assert.ErrorIs(t, err, ErrNotPublished)
}

func TestConcurrentJoinsCountEachUserOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	env.mustUser(t, testJoinerID, "Bek")
	other := int64(3003)
	env.mustUser(t, other, "Gulnora")
	goal := publishedGoal(t, env)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, uid := range []int64{testJoinerID, other} {
			wg.Add(1)
			go func(uid int64) {
				defer wg.Done()
				_, _, err := env.participations.Join(ctx, uid, goal.ID)
				assert.NoError(t, err)
			}(uid)
		}
	}
	wg.Wait()

	members, err := env.participations.ForGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	fresh, err := env.goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Participants)
}

func TestAcceptIsAuthorGatedAndRefreshesPost(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	env.mustUser(t, testJoinerID, "Bek")
	goal := publishedGoal(t, env)

	p, _, err := env.participations.Join(ctx, testJoinerID, goal.ID)
	require.NoError(t, err)

	_, err = env.participations.Accept(ctx, testJoinerID, p.ID)
	assert.ErrorIs(t, err, ErrNotAuthor)

	accepted, err := env.participations.Accept(ctx, testAuthorID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationAccepted, accepted.Status)

	joinerMsgs := env.sender.sentTo(testJoinerID)
	require.NotEmpty(t, joinerMsgs)
	assert.Contains(t, joinerMsgs[len(joinerMsgs)-1].Text, "qabul qilindi")

	// The channel post was re-rendered with the new participant count.
	require.NotEmpty(t, env.sender.edits)
	assert.Contains(t, env.sender.edits[len(env.sender.edits)-1].Text, "1 ta")
}

func TestDecideTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	env.mustUser(t, testJoinerID, "Bek")
	goal := publishedGoal(t, env)

	p, _, err := env.participations.Join(ctx, testJoinerID, goal.ID)
	require.NoError(t, err)

	_, err = env.participations.Accept(ctx, testAuthorID, p.ID)
	require.NoError(t, err)

	_, err = env.participations.Reject(ctx, testAuthorID, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestLeaveKeepsCounters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	env.mustUser(t, testJoinerID, "Bek")
	goal := publishedGoal(t, env)

	_, _, err := env.participations.Join(ctx, testJoinerID, goal.ID)
	require.NoError(t, err)

	left, err := env.participations.Leave(ctx, testJoinerID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationLeft, left.Status)

	fresh, err := env.goals.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Participants, "join counters track lifetime joins")
}

func TestForUserListsJoinedGoals(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, testAuthorID, "Aziza")
	env.mustUser(t, testJoinerID, "Bek")
	goal := publishedGoal(t, env)

	_, _, err := env.participations.Join(ctx, testJoinerID, goal.ID)
	require.NoError(t, err)

	joined, err := env.participations.ForUser(ctx, testJoinerID)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, goal.ID, joined[0].Goal.ID)
	assert.Equal(t, models.ParticipationPending, joined[0].Participation.Status)
}
