package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRepo(t *testing.T) *SessionRepository {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionRepository(client, time.Hour)
}

func TestSessionRepositoryProcessedLifecycle(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	processed, err := repo.Processed(ctx, 42, 7)
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, repo.SetProcessed(ctx, 42, 7))

	processed, err = repo.Processed(ctx, 42, 7)
	require.NoError(t, err)
	assert.True(t, processed)

	// Other tutors and assignments are unaffected.
	processed, err = repo.Processed(ctx, 42, 8)
	require.NoError(t, err)
	assert.False(t, processed)
	processed, err = repo.Processed(ctx, 43, 7)
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, repo.ClearProcessed(ctx, 42, 7))
	processed, err = repo.Processed(ctx, 42, 7)
	require.NoError(t, err)
	assert.False(t, processed)
}
