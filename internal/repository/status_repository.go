package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comusielak/exercise-status-api/internal/models"
)

// StatusRepository implements the grading-store write contract. Writes are
// idempotent upserts keyed by (assignment_id, user_id); re-applying the same
// update is a no-op change.
type StatusRepository struct {
	db *sqlx.DB
}

// NewStatusRepository creates a new status repository.
func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// UpsertMemberStatus persists status, mark, notice and comment for one user.
func (r *StatusRepository) UpsertMemberStatus(ctx context.Context, assignmentID, userID int64, update models.StatusUpdate) error {
	const query = `INSERT INTO assignment_members (assignment_id, user_id, status, mark, notice, comment, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (assignment_id, user_id)
        DO UPDATE SET status = EXCLUDED.status, mark = EXCLUDED.mark,
            notice = EXCLUDED.notice, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		assignmentID, userID, update.Status, update.Mark, update.Notice, update.Comment, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("upsert member status: %w", err)
	}
	return nil
}
