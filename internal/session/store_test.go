package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wizardPayload struct {
	Step string `json:"step"`
	Name string `json:"name"`
}

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	in := wizardPayload{Step: "waiting_name", Name: "Run 5k"}
	require.NoError(t, s.Set(ctx, "wizard:1", in, time.Minute))

	var out wizardPayload
	ok, err := s.Get(ctx, "wizard:1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	var out wizardPayload
	ok, err := s.Get(ctx, "absent", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", wizardPayload{Step: "x"}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var out wizardPayload
	ok, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok, "expired entries read as absent")
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", wizardPayload{Step: "x"}, time.Minute))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"), "double delete is fine")

	var out wizardPayload
	ok, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", wizardPayload{Step: "one"}, time.Minute))
	require.NoError(t, s.Set(ctx, "k", wizardPayload{Step: "two"}, time.Minute))

	var out wizardPayload
	ok, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", out.Step)
}

func TestMemoryStoreDefaultCleanupInterval(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", wizardPayload{Step: "one"}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var out wizardPayload
	ok, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}
