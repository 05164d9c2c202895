package service

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/comusielak/exercise-status-api/internal/models"
	"github.com/comusielak/exercise-status-api/internal/statusfile"
	"github.com/comusielak/exercise-status-api/pkg/export"
	"github.com/comusielak/exercise-status-api/pkg/scratch"
	"github.com/comusielak/exercise-status-api/pkg/storage"
)

type assignmentRepoStub struct {
	actx        *models.AssignmentContext
	submissions map[int64][]models.Submission
}

func (s *assignmentRepoStub) LoadContext(ctx context.Context, assignmentID int64) (*models.AssignmentContext, error) {
	if s.actx == nil {
		return nil, fmt.Errorf("assignment %d missing", assignmentID)
	}
	return s.actx, nil
}

func (s *assignmentRepoStub) ListSubmissions(ctx context.Context, assignmentID int64) (map[int64][]models.Submission, error) {
	return s.submissions, nil
}

func newExportServiceForTest(t *testing.T, repo *assignmentRepoStub) (*ExportService, *storage.BundleStore) {
	t.Helper()
	store, err := storage.NewBundleStore(t.TempDir())
	require.NoError(t, err)
	scratchMgr, err := scratch.NewManager(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(repo, scratchMgr, statusfile.NewCodec(nil), store, signer, export.NewPDFExporter(), cfg, zap.NewNop())
	return svc, store
}

func writeSubmission(t *testing.T, dir, name, content string) models.Submission {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return models.Submission{Filename: name, AbsolutePath: path}
}

func bundleEntryNames(t *testing.T, path string) map[string]bool {
	t.Helper()
	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()
	names := make(map[string]bool, len(reader.File))
	for _, f := range reader.File {
		names[f.Name] = true
	}
	return names
}

func TestExportServiceBuildsMemberBundle(t *testing.T) {
	subDir := t.TempDir()
	repo := &assignmentRepoStub{
		actx: memberContextFixture(),
		submissions: map[int64][]models.Submission{
			101: {writeSubmission(t, subDir, "solution.pdf", "pdf bytes")},
			102: {
				writeSubmission(t, subDir, "main.go", "package main"),
				{Filename: "gone.txt", AbsolutePath: filepath.Join(subDir, "does-not-exist.txt")},
			},
		},
	}
	svc, store := newExportServiceForTest(t, repo)

	result, err := svc.Export(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.SubjectCount)
	assert.Equal(t, 2, result.FileCount)
	assert.Equal(t, 1, result.SkippedFiles)
	assert.Contains(t, result.URL, "/api/v1/export/")
	assert.NotEmpty(t, result.Token)
	assert.Contains(t, result.BundleName, "Exercise_3_3-subjects_")

	names := bundleEntryNames(t, store.Path(result.BundleName))
	assert.True(t, names["Exercise_3/status.xlsx"])
	assert.True(t, names["Exercise_3/status.csv"])
	assert.True(t, names["Exercise_3/manifest.json"])
	assert.True(t, names["Exercise_3/README.md"])
	assert.True(t, names["Exercise_3/grading_overview.pdf"])
	assert.True(t, names["Exercise_3/Doe_Jane_jdoe_101/solution.pdf"])
	assert.True(t, names["Exercise_3/Doe_Jane_jdoe_101/user_info.txt"])
	assert.True(t, names["Exercise_3/Smith_Mark_msmith_102/main.go"])
	// subjects without submissions still get a folder
	assert.True(t, names["Exercise_3/Kim_Ana_akim_103/user_info.txt"])
	assert.False(t, names["Exercise_3/Smith_Mark_msmith_102/gone.txt"])
}

func TestExportServiceBuildsTeamBundle(t *testing.T) {
	subDir := t.TempDir()
	repo := &assignmentRepoStub{
		actx: teamContextFixture(),
		submissions: map[int64][]models.Submission{
			101: {writeSubmission(t, subDir, "report.pdf", "report")},
		},
	}
	svc, store := newExportServiceForTest(t, repo)

	result, err := svc.Export(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SubjectCount)

	names := bundleEntryNames(t, store.Path(result.BundleName))
	assert.True(t, names["Exercise_3/Team_7/team_info.txt"])
	assert.True(t, names["Exercise_3/Team_7/Doe_Jane_jdoe_101/report.pdf"])
	assert.True(t, names["Exercise_3/Team_9/team_info.txt"])
}

func TestExportServiceSelectedSubjects(t *testing.T) {
	repo := &assignmentRepoStub{actx: memberContextFixture()}
	svc, store := newExportServiceForTest(t, repo)

	result, err := svc.Export(context.Background(), 42, []int64{102})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SubjectCount)

	names := bundleEntryNames(t, store.Path(result.BundleName))
	assert.True(t, names["Exercise_3/Smith_Mark_msmith_102/user_info.txt"])
	assert.False(t, names["Exercise_3/Doe_Jane_jdoe_101/user_info.txt"])
}

func TestExportServiceSelectedTeam(t *testing.T) {
	repo := &assignmentRepoStub{actx: teamContextFixture()}
	svc, store := newExportServiceForTest(t, repo)

	result, err := svc.Export(context.Background(), 42, []int64{9})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SubjectCount)

	names := bundleEntryNames(t, store.Path(result.BundleName))
	assert.True(t, names["Exercise_3/Team_9/team_info.txt"])
	assert.False(t, names["Exercise_3/Team_7/team_info.txt"])
}

func TestExportServiceOpenBundleRoundTrip(t *testing.T) {
	repo := &assignmentRepoStub{actx: memberContextFixture()}
	svc, _ := newExportServiceForTest(t, repo)

	result, err := svc.Export(context.Background(), 42, nil)
	require.NoError(t, err)

	file, name, err := svc.OpenBundle(result.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, result.BundleName, name)

	_, _, err = svc.OpenBundle("not.a.valid.token")
	assert.Error(t, err)
}

func TestExportServiceUnknownAssignment(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &assignmentRepoStub{})
	_, err := svc.Export(context.Background(), 999, nil)
	require.Error(t, err)
}
