package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRepository stores the per-tutor "status file processed" flag that
// the upload pipeline sets after a successful run. The flag is keyed by
// (assignment_id, actor_id) and expires on its own.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionRepository{client: client, ttl: ttl}
}

// SetProcessed flags the upload as processed for the given tutor.
func (r *SessionRepository) SetProcessed(ctx context.Context, assignmentID, actorID int64) error {
	key := processedKey(assignmentID, actorID)
	if err := r.client.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), r.ttl).Err(); err != nil {
		return fmt.Errorf("set processed flag: %w", err)
	}
	return nil
}

// Processed reports whether the tutor's upload was already processed.
func (r *SessionRepository) Processed(ctx context.Context, assignmentID, actorID int64) (bool, error) {
	key := processedKey(assignmentID, actorID)
	_, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get processed flag: %w", err)
	}
	return true, nil
}

// ClearProcessed removes the flag, typically before a fresh upload.
func (r *SessionRepository) ClearProcessed(ctx context.Context, assignmentID, actorID int64) error {
	if err := r.client.Del(ctx, processedKey(assignmentID, actorID)).Err(); err != nil {
		return fmt.Errorf("clear processed flag: %w", err)
	}
	return nil
}

func processedKey(assignmentID, actorID int64) string {
	return fmt.Sprintf("statusfile:processed:%d:%d", assignmentID, actorID)
}
