package service

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/comusielak/exercise-status-api/internal/models"
	"github.com/comusielak/exercise-status-api/internal/statusfile"
	"github.com/comusielak/exercise-status-api/pkg/archive"
	appErrors "github.com/comusielak/exercise-status-api/pkg/errors"
	"github.com/comusielak/exercise-status-api/pkg/scratch"
)

type uploadAssignmentRepository interface {
	LoadContext(ctx context.Context, assignmentID int64) (*models.AssignmentContext, error)
}

type statusApplier interface {
	Apply(ctx context.Context, actx *models.AssignmentContext, updates []models.StatusUpdate) *ApplyReport
}

type sessionFlagger interface {
	SetProcessed(ctx context.Context, assignmentID, actorID int64) error
	Processed(ctx context.Context, assignmentID, actorID int64) (bool, error)
}

// UploadConfig bounds incoming archives.
type UploadConfig struct {
	MaxArchiveBytes int64
}

// UploadService runs the status-file re-upload pipeline: extract the archive,
// locate and parse the embedded status file, apply the updates and flag the
// session. The pipeline never raises past this boundary; whatever happened is
// folded into the returned UploadResult.
type UploadService struct {
	assignments uploadAssignmentRepository
	applier     statusApplier
	sessions    sessionFlagger
	codec       *statusfile.Codec
	scratch     *scratch.Manager
	logger      *zap.Logger
	cfg         UploadConfig
}

// NewUploadService constructs an UploadService.
func NewUploadService(assignments uploadAssignmentRepository, applier statusApplier, sessions sessionFlagger, codec *statusfile.Codec, scratchMgr *scratch.Manager, cfg UploadConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxArchiveBytes <= 0 {
		cfg.MaxArchiveBytes = 100 * 1024 * 1024
	}
	return &UploadService{
		assignments: assignments,
		applier:     applier,
		sessions:    sessions,
		codec:       codec,
		scratch:     scratchMgr,
		logger:      logger,
		cfg:         cfg,
	}
}

// Process runs the full pipeline for one uploaded archive. The returned
// result always describes how far the upload made it; Process itself only
// errors when the assignment cannot be loaded at all.
func (s *UploadService) Process(ctx context.Context, assignmentID, actorID int64, upload models.UploadedFile) (*models.UploadResult, error) {
	actx, err := s.assignments.LoadContext(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "assignment not found")
	}

	result := &models.UploadResult{Stage: models.UploadStageReceived}

	if upload.Size > s.cfg.MaxArchiveBytes {
		result.Stage = models.UploadStageAborted
		result.Message = fmt.Sprintf("archive exceeds the %d byte limit", s.cfg.MaxArchiveBytes)
		return result, nil
	}

	data, err := os.ReadFile(upload.Path)
	if err != nil {
		s.logger.Error("uploaded archive unreadable", zap.String("path", upload.Path), zap.Error(err))
		result.Stage = models.UploadStageAborted
		result.Message = "uploaded archive could not be read"
		return result, nil
	}

	dir, err := s.scratch.Acquire(fmt.Sprintf("upload-%d", assignmentID))
	if err != nil {
		s.logger.Error("scratch dir unavailable", zap.Error(err))
		result.Stage = models.UploadStageAborted
		result.Message = "upload workspace unavailable"
		return result, nil
	}
	defer dir.Release()

	entries, violations, err := archive.Extract(data, dir.Path())
	result.SecurityEvents = len(violations)
	for _, v := range violations {
		s.logger.Warn("archive entry rejected",
			zap.Int64("assignment_id", assignmentID),
			zap.Int64("actor_id", actorID),
			zap.String("entry", v.Name),
			zap.String("reason", v.Reason))
	}
	if err != nil {
		result.Stage = models.UploadStageAborted
		result.Message = "archive could not be extracted"
		return result, nil
	}
	result.Stage = models.UploadStageExtracted
	result.FeedbackFiles = countFeedbackFiles(entries, actx.Assignment.UnitType)

	statusEntry, found := statusfile.FindStatusFile(entries)
	if !found {
		result.Message = "no status file found in archive"
		return result, nil
	}
	result.Stage = models.UploadStageStatusFileLocated

	statusData, err := os.ReadFile(statusEntry.Path)
	if err != nil {
		s.logger.Error("extracted status file unreadable", zap.String("path", statusEntry.Path), zap.Error(err))
		result.Message = "status file could not be read"
		return result, nil
	}

	loaded := s.codec.Read(statusData, statusEntry.OriginalPath, actx)
	if loaded.HasError() {
		if appErrors.HasCode(loaded.Err, appErrors.ErrStatusFileLoad) {
			// unreadable content counts as "zero updates", not a failure
			result.Message = loaded.Describe()
			return result, nil
		}
		result.Stage = models.UploadStageAborted
		result.Message = loaded.Err.Message
		return result, nil
	}
	result.Stage = models.UploadStageStatusFileParsed

	if !loaded.HasUpdates() {
		result.Message = loaded.Describe()
		return result, nil
	}

	report := s.applier.Apply(ctx, actx, loaded.Updates)
	loaded.MarkApplied()
	result.Stage = models.UploadStageUpdatesApplied
	result.UpdatesApplied = report.Applied() > 0
	result.AppliedCount = report.Applied()
	result.FailedSubjects = report.FailedSubjects

	if err := s.sessions.SetProcessed(ctx, assignmentID, actorID); err != nil {
		s.logger.Warn("processed flag not set", zap.Error(err))
	} else {
		result.Stage = models.UploadStageSessionFlagged
	}

	result.Message = loaded.Describe()
	return result, nil
}

// ProcessedBefore reports whether the tutor already ran an upload for the
// assignment since the flag was last cleared.
func (s *UploadService) ProcessedBefore(ctx context.Context, assignmentID, actorID int64) (bool, error) {
	processed, err := s.sessions.Processed(ctx, assignmentID, actorID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload state")
	}
	return processed, nil
}

func countFeedbackFiles(entries []archive.Entry, unit models.UnitType) int {
	count := 0
	for _, files := range statusfile.FindFeedbackFiles(entries, unit) {
		count += len(files)
	}
	return count
}
