package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comusielak/exercise-status-api/internal/models"
)

type statusWriterStub struct {
	written []int64
	failFor map[int64]bool
}

func (s *statusWriterStub) UpsertMemberStatus(ctx context.Context, assignmentID, userID int64, update models.StatusUpdate) error {
	if s.failFor[userID] {
		return fmt.Errorf("write failed for %d", userID)
	}
	s.written = append(s.written, userID)
	return nil
}

func memberContextFixture() *models.AssignmentContext {
	return &models.AssignmentContext{
		Assignment: models.Assignment{ID: 42, Title: "Exercise 3", UnitType: models.UnitIndividual},
		Members: []models.Member{
			{UserID: 101, Login: "jdoe", Lastname: "Doe", Firstname: "Jane", Status: models.StatusNotGraded},
			{UserID: 102, Login: "msmith", Lastname: "Smith", Firstname: "Mark", Status: models.StatusNotGraded},
			{UserID: 103, Login: "akim", Lastname: "Kim", Firstname: "Ana", Status: models.StatusNotGraded},
		},
	}
}

func teamContextFixture() *models.AssignmentContext {
	actx := memberContextFixture()
	actx.Assignment.UnitType = models.UnitTeam
	actx.Teams = []models.Team{
		{ID: 7, MemberIDs: []int64{101, 102}},
		{ID: 9, MemberIDs: []int64{103}},
	}
	return actx
}

func TestStatusServiceApplyMembers(t *testing.T) {
	writer := &statusWriterStub{}
	svc := NewStatusService(writer, nil)

	report := svc.Apply(context.Background(), memberContextFixture(), []models.StatusUpdate{
		{UserID: 101, Status: models.StatusPassed, Mark: "A"},
		{UserID: 103, Status: models.StatusFailed},
	})

	require.True(t, report.Clean())
	assert.Equal(t, 2, report.Applied())
	assert.Equal(t, []string{"jdoe", "akim"}, report.AppliedSubjects)
	assert.Equal(t, []int64{101, 103}, writer.written)
}

func TestStatusServiceApplyTeamFansOut(t *testing.T) {
	writer := &statusWriterStub{}
	svc := NewStatusService(writer, nil)

	report := svc.Apply(context.Background(), teamContextFixture(), []models.StatusUpdate{
		{TeamID: 7, Status: models.StatusPassed, Mark: "B"},
	})

	require.True(t, report.Clean())
	assert.Equal(t, 1, report.Applied())
	// one team update writes every member
	assert.Equal(t, []int64{101, 102}, writer.written)
}

func TestStatusServiceApplyFailureDoesNotBlockOthers(t *testing.T) {
	writer := &statusWriterStub{failFor: map[int64]bool{101: true}}
	svc := NewStatusService(writer, nil)

	report := svc.Apply(context.Background(), memberContextFixture(), []models.StatusUpdate{
		{UserID: 101, Status: models.StatusPassed},
		{UserID: 102, Status: models.StatusPassed},
	})

	assert.False(t, report.Clean())
	assert.Equal(t, []string{"jdoe"}, report.FailedSubjects)
	assert.Equal(t, []string{"msmith"}, report.AppliedSubjects)
	assert.Equal(t, []int64{102}, writer.written)
}

func TestStatusServiceApplyTeamMemberFailureFailsTeam(t *testing.T) {
	writer := &statusWriterStub{failFor: map[int64]bool{102: true}}
	svc := NewStatusService(writer, nil)

	report := svc.Apply(context.Background(), teamContextFixture(), []models.StatusUpdate{
		{TeamID: 7, Status: models.StatusPassed},
		{TeamID: 9, Status: models.StatusFailed},
	})

	assert.Equal(t, []string{"team 7"}, report.FailedSubjects)
	assert.Equal(t, []string{"team 9"}, report.AppliedSubjects)
}

func TestStatusServiceApplyEmptyTeamFails(t *testing.T) {
	writer := &statusWriterStub{}
	svc := NewStatusService(writer, nil)

	actx := teamContextFixture()
	actx.Teams = append(actx.Teams, models.Team{ID: 11})

	report := svc.Apply(context.Background(), actx, []models.StatusUpdate{
		{TeamID: 11, Status: models.StatusPassed},
	})

	assert.Equal(t, []string{"team 11"}, report.FailedSubjects)
	assert.Empty(t, writer.written)
}
