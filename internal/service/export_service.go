package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comusielak/exercise-status-api/internal/models"
	"github.com/comusielak/exercise-status-api/internal/statusfile"
	"github.com/comusielak/exercise-status-api/pkg/archive"
	appErrors "github.com/comusielak/exercise-status-api/pkg/errors"
	"github.com/comusielak/exercise-status-api/pkg/export"
	"github.com/comusielak/exercise-status-api/pkg/scratch"
	"github.com/comusielak/exercise-status-api/pkg/storage"
	"github.com/comusielak/exercise-status-api/pkg/tabular"
)

type exportAssignmentRepository interface {
	LoadContext(ctx context.Context, assignmentID int64) (*models.AssignmentContext, error)
	ListSubmissions(ctx context.Context, assignmentID int64) (map[int64][]models.Submission, error)
}

type bundleStorage interface {
	SaveFile(name, sourcePath string) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(exportID string, assignmentID int64, bundle string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (*storage.DownloadClaim, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes bundle generation and download links.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful bundle generation metadata.
type ExportResult struct {
	ExportID     string    `json:"exportId"`
	BundleName   string    `json:"bundleName"`
	Token        string    `json:"token"`
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expiresAt"`
	SubjectCount int       `json:"subjectCount"`
	FileCount    int       `json:"fileCount"`
	SkippedFiles int       `json:"skippedFiles"`
}

// ExportService packages an assignment's submissions and grading state into a
// downloadable ZIP bundle. Staging happens in a scratch directory that is
// released whether or not packaging succeeds; the finished archive moves into
// the bundle store and is addressed by a signed download token.
type ExportService struct {
	assignments exportAssignmentRepository
	scratch     *scratch.Manager
	codec       *statusfile.Codec
	store       bundleStorage
	signer      urlSigner
	pdf         pdfRenderer
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(assignments exportAssignmentRepository, scratchMgr *scratch.Manager, codec *statusfile.Codec, store bundleStorage, signer urlSigner, pdf pdfRenderer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		assignments: assignments,
		scratch:     scratchMgr,
		codec:       codec,
		store:       store,
		signer:      signer,
		pdf:         pdf,
		logger:      logger,
		cfg:         cfg,
	}
}

// Export builds the bundle for one assignment. An empty subjectIDs slice
// selects every subject; otherwise only the named user or team IDs are
// packaged. A missing submission file is logged and skipped; any failure of
// the archive container itself aborts the export.
func (s *ExportService) Export(ctx context.Context, assignmentID int64, subjectIDs []int64) (*ExportResult, error) {
	actx, err := s.assignments.LoadContext(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "assignment not found")
	}
	actx = selectSubjects(actx, subjectIDs)
	submissions, err := s.assignments.ListSubmissions(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	dir, err := s.scratch.Acquire(fmt.Sprintf("export-%d", assignmentID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPackaging.Code, appErrors.ErrPackaging.Status, appErrors.ErrPackaging.Message)
	}
	defer dir.Release()

	exportID := uuid.NewString()
	bundleName := bundleFileName(actx)
	bundlePath := dir.Join(bundleName)

	result, err := s.buildBundle(actx, submissions, bundlePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPackaging.Code, appErrors.ErrPackaging.Status, appErrors.ErrPackaging.Message)
	}

	storedName, err := s.store.SaveFile(bundleName, bundlePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPackaging.Code, appErrors.ErrPackaging.Status, "failed to store export bundle")
	}

	token, expiresAt, err := s.signer.Generate(exportID, assignmentID, storedName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	result.ExportID = exportID
	result.BundleName = storedName
	result.Token = token
	result.URL = fmt.Sprintf("%s/export/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
	result.ExpiresAt = expiresAt

	s.logger.Info("export bundle created",
		zap.Int64("assignment_id", assignmentID),
		zap.String("export_id", exportID),
		zap.Int("subjects", result.SubjectCount),
		zap.Int("files", result.FileCount),
		zap.Int("skipped", result.SkippedFiles))
	return result, nil
}

// OpenBundle resolves a signed token to the stored archive.
func (s *ExportService) OpenBundle(token string) (*os.File, string, error) {
	claim, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download link")
	}
	file, err := s.store.Open(claim.Bundle)
	if err != nil {
		s.logger.Warn("bundle download miss",
			zap.Int64("assignment_id", claim.AssignmentID),
			zap.String("export_id", claim.ExportID))
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export bundle no longer available")
	}
	return file, claim.Bundle, nil
}

// CleanupExpired removes bundles past their retention window.
func (s *ExportService) CleanupExpired() int {
	deleted, err := s.store.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("bundle cleanup failed", zap.Error(err))
		return 0
	}
	if len(deleted) > 0 {
		s.logger.Info("expired export bundles removed", zap.Int("count", len(deleted)))
	}
	return len(deleted)
}

func (s *ExportService) buildBundle(actx *models.AssignmentContext, submissions map[int64][]models.Submission, bundlePath string) (*ExportResult, error) {
	builder, err := archive.NewBuilder(bundlePath)
	if err != nil {
		return nil, err
	}
	closed := false
	defer func() {
		if !closed {
			_ = builder.Close()
		}
	}()

	result := &ExportResult{}

	// everything lives under a single batch folder; the unpackager infers
	// subject identity from the segments below it
	batch := statusfile.SanitizeName(actx.Assignment.Title)

	for _, format := range []tabular.Format{tabular.FormatXLSX, tabular.FormatCSV} {
		data, err := s.codec.Write(actx, format)
		if err != nil {
			return nil, err
		}
		if err := builder.AddBytes(batch+"/status."+string(format), data); err != nil {
			return nil, err
		}
	}

	if actx.IsTeam() {
		result.SubjectCount = len(actx.Teams)
		for _, team := range actx.Teams {
			if err := s.addTeamFolder(builder, batch, actx, team, submissions, result); err != nil {
				return nil, err
			}
		}
	} else {
		result.SubjectCount = len(actx.Members)
		for _, m := range actx.Members {
			if err := s.addMemberFolder(builder, batch+"/"+statusfile.MemberFolder(m), m, submissions[m.UserID], result); err != nil {
				return nil, err
			}
		}
	}

	// the overview sheet is best-effort; a render failure must not sink
	// the whole bundle
	if overview, err := s.renderOverview(actx); err != nil {
		s.logger.Warn("grading overview render failed", zap.Error(err))
	} else if err := builder.AddBytes(batch+"/grading_overview.pdf", overview); err != nil {
		return nil, err
	}

	manifest, err := buildManifest(actx, result)
	if err != nil {
		return nil, err
	}
	if err := builder.AddBytes(batch+"/manifest.json", manifest); err != nil {
		return nil, err
	}
	if err := builder.AddBytes(batch+"/README.md", readmeText(actx)); err != nil {
		return nil, err
	}

	if err := builder.Close(); err != nil {
		return nil, err
	}
	closed = true
	return result, nil
}

func (s *ExportService) addMemberFolder(builder *archive.Builder, folder string, m models.Member, files []models.Submission, result *ExportResult) error {
	if err := builder.AddDir(folder); err != nil {
		return err
	}
	info := fmt.Sprintf("User: %s, %s\nLogin: %s\nUser ID: %d\nStatus: %s\n",
		m.Lastname, m.Firstname, m.Login, m.UserID, m.Status)
	if err := builder.AddBytes(folder+"/user_info.txt", []byte(info)); err != nil {
		return err
	}
	for _, sub := range files {
		if _, err := os.Stat(sub.AbsolutePath); err != nil {
			// stale store entry; the bundle is still useful without it
			s.logger.Warn("submission file missing, skipped",
				zap.String("file", sub.AbsolutePath),
				zap.Error(err))
			result.SkippedFiles++
			continue
		}
		if err := builder.AddFile(sub.AbsolutePath, folder+"/"+sub.Filename); err != nil {
			return err
		}
		result.FileCount++
	}
	return nil
}

func (s *ExportService) addTeamFolder(builder *archive.Builder, batch string, actx *models.AssignmentContext, team models.Team, submissions map[int64][]models.Submission, result *ExportResult) error {
	folder := batch + "/" + statusfile.TeamFolder(team.ID)
	if err := builder.AddDir(folder); err != nil {
		return err
	}

	members := actx.TeamMembers(team.ID)
	var info strings.Builder
	fmt.Fprintf(&info, "Team ID: %d\nMembers:\n", team.ID)
	for _, m := range members {
		fmt.Fprintf(&info, "  %s, %s (%s, %d)\n", m.Lastname, m.Firstname, m.Login, m.UserID)
	}
	if err := builder.AddBytes(folder+"/team_info.txt", []byte(info.String())); err != nil {
		return err
	}

	for _, m := range members {
		if err := s.addMemberFolder(builder, folder+"/"+statusfile.MemberFolder(m), m, submissions[m.UserID], result); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) renderOverview(actx *models.AssignmentContext) ([]byte, error) {
	headers := []string{"Subject", "Status", "Mark", "Notice"}
	rows := make([]map[string]string, 0, len(actx.Members))
	if actx.IsTeam() {
		for _, team := range actx.Teams {
			members := actx.TeamMembers(team.ID)
			var first models.Member
			if len(members) > 0 {
				first = members[0]
			}
			rows = append(rows, map[string]string{
				"Subject": statusfile.TeamFolder(team.ID),
				"Status":  string(first.Status),
				"Mark":    first.Mark,
				"Notice":  first.Notice,
			})
		}
	} else {
		for _, m := range actx.Members {
			rows = append(rows, map[string]string{
				"Subject": m.Login,
				"Status":  string(m.Status),
				"Mark":    m.Mark,
				"Notice":  m.Notice,
			})
		}
	}
	return s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, actx.Assignment.Title)
}

// selectSubjects narrows the context to the requested user or team IDs. Nil
// or empty means everything; unknown IDs are ignored.
func selectSubjects(actx *models.AssignmentContext, subjectIDs []int64) *models.AssignmentContext {
	if len(subjectIDs) == 0 {
		return actx
	}
	wanted := make(map[int64]struct{}, len(subjectIDs))
	for _, id := range subjectIDs {
		wanted[id] = struct{}{}
	}

	filtered := &models.AssignmentContext{Assignment: actx.Assignment}
	if actx.IsTeam() {
		keep := make(map[int64]struct{})
		for _, team := range actx.Teams {
			if _, ok := wanted[team.ID]; !ok {
				continue
			}
			filtered.Teams = append(filtered.Teams, team)
			for _, userID := range team.MemberIDs {
				keep[userID] = struct{}{}
			}
		}
		for _, m := range actx.Members {
			if _, ok := keep[m.UserID]; ok {
				filtered.Members = append(filtered.Members, m)
			}
		}
		return filtered
	}

	for _, m := range actx.Members {
		if _, ok := wanted[m.UserID]; ok {
			filtered.Members = append(filtered.Members, m)
		}
	}
	return filtered
}

// bundleFileName derives a collision-resistant archive name from the
// assignment title, the subject count and a timestamp.
func bundleFileName(actx *models.AssignmentContext) string {
	count := len(actx.Members)
	if actx.IsTeam() {
		count = len(actx.Teams)
	}
	return fmt.Sprintf("%s_%d-subjects_%s.zip",
		statusfile.SanitizeName(actx.Assignment.Title),
		count,
		time.Now().UTC().Format("20060102-150405"))
}

func buildManifest(actx *models.AssignmentContext, result *ExportResult) ([]byte, error) {
	manifest := map[string]interface{}{
		"assignmentId": actx.Assignment.ID,
		"title":        actx.Assignment.Title,
		"unitType":     actx.Assignment.UnitType,
		"generatedAt":  time.Now().UTC().Format(time.RFC3339),
		"subjects":     result.SubjectCount,
		"files":        result.FileCount,
		"skippedFiles": result.SkippedFiles,
		"statusFiles":  []string{"status.xlsx", "status.csv"},
	}
	return json.MarshalIndent(manifest, "", "  ")
}

func readmeText(actx *models.AssignmentContext) []byte {
	var b strings.Builder
	b.WriteString("# " + actx.Assignment.Title + "\n\n")
	b.WriteString("This bundle contains the submitted files and the current grading state\n")
	b.WriteString("for assignment " + strconv.FormatInt(actx.Assignment.ID, 10) + ".\n\n")
	b.WriteString("To grade offline:\n\n")
	b.WriteString("1. Open `status.xlsx` (or `status.csv`).\n")
	b.WriteString("2. Edit status, mark, notice and comment for the subjects you graded.\n")
	b.WriteString("3. Set the `update` column to `1` for every row you want applied.\n")
	b.WriteString("4. Re-zip the bundle (or just the status file) and upload it.\n\n")
	b.WriteString("Rows with `update` left at `0` are ignored on upload. Valid status\n")
	b.WriteString("values are: notgraded, passed, failed.\n")
	return []byte(b.String())
}
