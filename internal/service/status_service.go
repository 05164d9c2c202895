package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/comusielak/exercise-status-api/internal/models"
)

type statusWriter interface {
	UpsertMemberStatus(ctx context.Context, assignmentID, userID int64, update models.StatusUpdate) error
}

// ApplyReport summarizes one bulk write to the grading store.
type ApplyReport struct {
	AppliedSubjects []string `json:"appliedSubjects,omitempty"`
	FailedSubjects  []string `json:"failedSubjects,omitempty"`
}

// Applied reports how many subjects were written successfully.
func (r *ApplyReport) Applied() int {
	return len(r.AppliedSubjects)
}

// Clean reports whether every subject was written.
func (r *ApplyReport) Clean() bool {
	return len(r.FailedSubjects) == 0
}

// StatusService applies parsed status updates to the grading store. Team
// updates fan out to every team member so that all members end up with the
// same state. A failed write skips that subject and moves on; one broken
// subject must not block the rest of the batch.
type StatusService struct {
	store  statusWriter
	logger *zap.Logger
}

// NewStatusService constructs a StatusService.
func NewStatusService(store statusWriter, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{store: store, logger: logger}
}

// Apply writes every update to the grading store and reports the outcome per
// subject. Updates are written in input order; re-applying the same batch is
// a no-op because the store upserts.
func (s *StatusService) Apply(ctx context.Context, actx *models.AssignmentContext, updates []models.StatusUpdate) *ApplyReport {
	report := &ApplyReport{}
	for _, update := range updates {
		if update.IsTeam() {
			s.applyTeam(ctx, actx, update, report)
			continue
		}
		s.applyMember(ctx, actx, update, report)
	}
	return report
}

func (s *StatusService) applyMember(ctx context.Context, actx *models.AssignmentContext, update models.StatusUpdate, report *ApplyReport) {
	subject := strconv.FormatInt(update.UserID, 10)
	if m := actx.MemberByID(update.UserID); m != nil {
		subject = m.Login
	}
	if err := s.store.UpsertMemberStatus(ctx, actx.Assignment.ID, update.UserID, update); err != nil {
		s.logger.Error("status write failed",
			zap.Int64("assignment_id", actx.Assignment.ID),
			zap.Int64("user_id", update.UserID),
			zap.Error(err))
		report.FailedSubjects = append(report.FailedSubjects, subject)
		return
	}
	report.AppliedSubjects = append(report.AppliedSubjects, subject)
}

func (s *StatusService) applyTeam(ctx context.Context, actx *models.AssignmentContext, update models.StatusUpdate, report *ApplyReport) {
	subject := fmt.Sprintf("team %d", update.TeamID)
	members := actx.TeamMembers(update.TeamID)
	if len(members) == 0 {
		s.logger.Warn("team update without members skipped",
			zap.Int64("assignment_id", actx.Assignment.ID),
			zap.Int64("team_id", update.TeamID))
		report.FailedSubjects = append(report.FailedSubjects, subject)
		return
	}

	// a failed member write marks the whole team failed so the tutor
	// re-uploads the row instead of leaving members disagreeing
	for _, m := range members {
		if err := s.store.UpsertMemberStatus(ctx, actx.Assignment.ID, m.UserID, update); err != nil {
			s.logger.Error("team status write failed",
				zap.Int64("assignment_id", actx.Assignment.ID),
				zap.Int64("team_id", update.TeamID),
				zap.Int64("user_id", m.UserID),
				zap.Error(err))
			report.FailedSubjects = append(report.FailedSubjects, subject)
			return
		}
	}
	report.AppliedSubjects = append(report.AppliedSubjects, subject)
}
