package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/comusielak/exercise-status-api/internal/models"
)

// AssignmentRepository implements the grading-store read contract.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindAssignment returns the assignment row itself.
func (r *AssignmentRepository) FindAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	const query = `SELECT id, title, unit_type FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// LoadContext builds the read-only snapshot of gradable subjects for one
// assignment: every member with their current grading state and, for
// team assignments, the team rosters in stable order.
func (r *AssignmentRepository) LoadContext(ctx context.Context, assignmentID int64) (*models.AssignmentContext, error) {
	assignment, err := r.FindAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	const membersQuery = `SELECT m.user_id, u.login, u.lastname, u.firstname,
        m.status, m.mark, m.notice, m.comment, m.plagiarism_flag, m.plagiarism_comment
        FROM assignment_members m
        JOIN users u ON u.id = m.user_id
        WHERE m.assignment_id = $1
        ORDER BY u.lastname, u.firstname, m.user_id`
	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, membersQuery, assignmentID); err != nil {
		return nil, fmt.Errorf("load assignment members: %w", err)
	}

	actx := &models.AssignmentContext{Assignment: *assignment, Members: members}
	if assignment.UnitType != models.UnitTeam {
		return actx, nil
	}

	const teamsQuery = `SELECT team_id, user_id FROM assignment_teams
        WHERE assignment_id = $1
        ORDER BY team_id, sort_order, user_id`
	rows, err := r.db.QueryxContext(ctx, teamsQuery, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load assignment teams: %w", err)
	}
	defer rows.Close()

	byTeam := make(map[int64]int)
	for rows.Next() {
		var teamID, userID int64
		if err := rows.Scan(&teamID, &userID); err != nil {
			return nil, fmt.Errorf("scan team row: %w", err)
		}
		idx, ok := byTeam[teamID]
		if !ok {
			actx.Teams = append(actx.Teams, models.Team{ID: teamID})
			idx = len(actx.Teams) - 1
			byTeam[teamID] = idx
		}
		actx.Teams[idx].MemberIDs = append(actx.Teams[idx].MemberIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team rows: %w", err)
	}

	return actx, nil
}

// ListSubmissions returns the submitted files per user for the assignment.
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, assignmentID int64) (map[int64][]models.Submission, error) {
	const query = `SELECT user_id, filename, absolute_path FROM submissions
        WHERE assignment_id = $1
        ORDER BY user_id, filename`
	rows, err := r.db.QueryxContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make(map[int64][]models.Submission)
	for rows.Next() {
		var userID int64
		var s models.Submission
		if err := rows.Scan(&userID, &s.Filename, &s.AbsolutePath); err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		submissions[userID] = append(submissions[userID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission rows: %w", err)
	}
	return submissions, nil
}
