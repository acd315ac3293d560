package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yolchi-backend/internal/models"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, created, err := env.users.GetOrCreate(ctx, Seed{ID: 1, FirstName: "Aziza", Username: "aziza"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := env.users.GetOrCreate(ctx, Seed{ID: 1, FirstName: "Changed"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.FirstName, second.FirstName, "existing profile is not overwritten")

	count, err := env.users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTouchStartBumpsCounter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, 1, "Aziza")

	require.NoError(t, env.users.TouchStart(ctx, 1))
	require.NoError(t, env.users.TouchStart(ctx, 1))

	user, err := env.users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, user.StartCount)
	assert.NotNil(t, user.LastActive)
}

func TestUpdateProfileMergesNonEmptyFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, 1, "Aziza")

	_, err := env.users.UpdateProfile(ctx, 1, models.ProfileInput{
		Phone:    "+998901234567",
		Location: "Toshkent",
	})
	require.NoError(t, err)

	user, err := env.users.UpdateProfile(ctx, 1, models.ProfileInput{Bio: "Runner"})
	require.NoError(t, err)

	assert.Equal(t, "+998901234567", user.Phone, "earlier fields survive a partial update")
	assert.Equal(t, "Toshkent", user.Location)
	assert.Equal(t, "Runner", user.Bio)
}

func TestUpdateProfileValidatesFormats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustUser(t, 1, "Aziza")

	_, err := env.users.UpdateProfile(ctx, 1, models.ProfileInput{Phone: "12345"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "phone")

	_, err = env.users.UpdateProfile(ctx, 1, models.ProfileInput{BirthDate: "1990-05-01"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "birth_date")
}

func TestRecommendationVoting(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec, err := env.recommendations.Create(ctx, "Kitob o'qish odati", "Har kuni 20 bet", "Kitobxonlik")
	require.NoError(t, err)

	_, err = env.recommendations.Vote(ctx, rec.ID, true)
	require.NoError(t, err)
	_, err = env.recommendations.Vote(ctx, rec.ID, true)
	require.NoError(t, err)
	voted, err := env.recommendations.Vote(ctx, rec.ID, false)
	require.NoError(t, err)

	assert.Equal(t, 2, voted.Likes)
	assert.Equal(t, 1, voted.Dislikes)
}

func TestRecommendationListOrdersByNetVotes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	low, err := env.recommendations.Create(ctx, "Low", "desc", "Sport")
	require.NoError(t, err)
	high, err := env.recommendations.Create(ctx, "High", "desc", "Sport")
	require.NoError(t, err)

	_, err = env.recommendations.Vote(ctx, high.ID, true)
	require.NoError(t, err)
	_, err = env.recommendations.Vote(ctx, low.ID, false)
	require.NoError(t, err)

	recs, err := env.recommendations.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, high.ID, recs[0].ID)
}

func TestRecommendationCreateRejectsUnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.recommendations.Create(context.Background(), "X", "desc", "Nope")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "category")
}
