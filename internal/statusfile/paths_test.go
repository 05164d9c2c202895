package statusfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comusielak/exercise-status-api/internal/models"
	"github.com/comusielak/exercise-status-api/pkg/archive"
)

func TestMemberFolder(t *testing.T) {
	m := models.Member{UserID: 101, Login: "jdoe", Lastname: "Doe", Firstname: "Jane"}
	assert.Equal(t, "Doe_Jane_jdoe_101", MemberFolder(m))

	// non-ASCII and path-hostile characters must not survive
	m = models.Member{UserID: 7, Login: "müller/x", Lastname: "Müller", Firstname: "Jörg"}
	folder := MemberFolder(m)
	assert.NotContains(t, folder, "/")
	assert.NotContains(t, folder, "ü")
	assert.Contains(t, folder, "_7")
}

func TestTeamFolder(t *testing.T) {
	assert.Equal(t, "Team_7", TeamFolder(7))
}

func TestParseSubjectFromPath(t *testing.T) {
	id, ok := ParseSubjectFromPath("Batch/Team_7/Doe_Jane_jdoe_101/solution.pdf", models.UnitTeam)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	id, ok = ParseSubjectFromPath("Batch/Doe_Jane_jdoe_101/solution.pdf", models.UnitIndividual)
	require.True(t, ok)
	assert.Equal(t, int64(101), id)

	// the file segment itself never counts as a subject folder
	_, ok = ParseSubjectFromPath("Doe_Jane_jdoe_101", models.UnitIndividual)
	assert.False(t, ok)

	_, ok = ParseSubjectFromPath("Batch/readme.txt", models.UnitIndividual)
	assert.False(t, ok)

	_, ok = ParseSubjectFromPath("Batch/Team_x/file.txt", models.UnitTeam)
	assert.False(t, ok)
}

func TestIsStatusFileName(t *testing.T) {
	assert.True(t, IsStatusFileName("Batch/status.xlsx"))
	assert.True(t, IsStatusFileName("status.csv"))
	assert.True(t, IsStatusFileName("STATUS.XLS"))
	assert.True(t, IsStatusFileName("Batch\\status_batch.csv"))
	assert.False(t, IsStatusFileName("Batch/manifest.json"))
	assert.False(t, IsStatusFileName("status.pdf"))
}

func TestFindStatusFileFirstMatchWins(t *testing.T) {
	entries := []archive.Entry{
		{OriginalPath: "Batch/README.md"},
		{OriginalPath: "Batch/status.xlsx", Path: "/scratch/status.xlsx"},
		{OriginalPath: "Batch/status.csv", Path: "/scratch/status.csv"},
	}
	entry, ok := FindStatusFile(entries)
	require.True(t, ok)
	assert.Equal(t, "Batch/status.xlsx", entry.OriginalPath)

	_, ok = FindStatusFile([]archive.Entry{{OriginalPath: "notes.txt"}})
	assert.False(t, ok)
}

func TestFindFeedbackFiles(t *testing.T) {
	entries := []archive.Entry{
		{OriginalPath: "Batch/status.csv"},
		{OriginalPath: "Batch/Team_7/Doe_Jane_jdoe_101/feedback.pdf"},
		{OriginalPath: "Batch/Team_7/notes.txt"},
		{OriginalPath: "Batch/Team_9/Kim_Ana_akim_103/review.txt"},
		{OriginalPath: "Batch/unrelated/file.bin"},
	}

	grouped := FindFeedbackFiles(entries, models.UnitTeam)
	require.Len(t, grouped, 2)
	assert.Len(t, grouped[7], 2)
	assert.Len(t, grouped[9], 1)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "na", SanitizeName("///"))
	assert.Equal(t, "a_b", SanitizeName("a b"))
	assert.Equal(t, "x", SanitizeName(".x."))
}
