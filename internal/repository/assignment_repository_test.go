package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comusielak/exercise-status-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryLoadContextIndividual(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT id, title, unit_type FROM assignments").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "unit_type"}).
			AddRow(42, "Algebra II", "individual"))

	mock.ExpectQuery("FROM assignment_members m").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "login", "lastname", "firstname", "status", "mark", "notice", "comment", "plagiarism_flag", "plagiarism_comment"}).
			AddRow(101, "jdoe", "Doe", "Jane", "passed", "A", "", "good", "none", "").
			AddRow(102, "msmith", "Smith", "Mark", "notgraded", "", "", "", "", ""))

	actx, err := repo.LoadContext(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, actx.IsTeam())
	require.Len(t, actx.Members, 2)
	assert.Equal(t, models.StatusPassed, actx.Members[0].Status)
	assert.Empty(t, actx.Teams)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryLoadContextTeam(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT id, title, unit_type FROM assignments").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "unit_type"}).
			AddRow(42, "Group Project", "team"))

	mock.ExpectQuery("FROM assignment_members m").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "login", "lastname", "firstname", "status", "mark", "notice", "comment", "plagiarism_flag", "plagiarism_comment"}).
			AddRow(101, "jdoe", "Doe", "Jane", "passed", "A", "", "", "none", "").
			AddRow(102, "msmith", "Smith", "Mark", "notgraded", "", "", "", "", ""))

	mock.ExpectQuery("SELECT team_id, user_id FROM assignment_teams").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "user_id"}).
			AddRow(7, 101).
			AddRow(7, 102))

	actx, err := repo.LoadContext(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, actx.IsTeam())
	require.Len(t, actx.Teams, 1)
	assert.Equal(t, []int64{101, 102}, actx.Teams[0].MemberIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListSubmissions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT user_id, filename, absolute_path FROM submissions").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "filename", "absolute_path"}).
			AddRow(101, "solution.pdf", "/data/101/solution.pdf").
			AddRow(101, "notes.txt", "/data/101/notes.txt").
			AddRow(102, "main.go", "/data/102/main.go"))

	submissions, err := repo.ListSubmissions(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, submissions[101], 2)
	assert.Len(t, submissions[102], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusRepositoryUpsertMemberStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatusRepository(db)

	mock.ExpectExec("INSERT INTO assignment_members").
		WithArgs(int64(42), int64(101), models.StatusPassed, "A", "n", "c", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertMemberStatus(context.Background(), 42, 101, models.StatusUpdate{
		UserID: 101, Status: models.StatusPassed, Mark: "A", Notice: "n", Comment: "c",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
