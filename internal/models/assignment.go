package models

// UnitType decides whether an assignment grades individuals or teams.
type UnitType string

const (
	UnitIndividual UnitType = "individual"
	UnitTeam       UnitType = "team"
)

// Assignment is one gradable unit of a course exercise.
type Assignment struct {
	ID       int64    `db:"id" json:"id"`
	Title    string   `db:"title" json:"title"`
	UnitType UnitType `db:"unit_type" json:"unitType"`
}

// Member is one gradable individual with their current grading state.
type Member struct {
	UserID    int64  `db:"user_id" json:"userId"`
	Login     string `db:"login" json:"login"`
	Lastname  string `db:"lastname" json:"lastname"`
	Firstname string `db:"firstname" json:"firstname"`

	Status            Status         `db:"status" json:"status"`
	Mark              string         `db:"mark" json:"mark"`
	Notice            string         `db:"notice" json:"notice"`
	Comment           string         `db:"comment" json:"comment"`
	PlagiarismFlag    PlagiarismFlag `db:"plagiarism_flag" json:"plagiarismFlag"`
	PlagiarismComment string         `db:"plagiarism_comment" json:"plagiarismComment"`
}

// Team groups member user IDs under a team ID. Member order is the stable
// iteration order from the grading store; the first member sources the
// team's displayed status.
type Team struct {
	ID        int64   `json:"id"`
	MemberIDs []int64 `json:"memberIds"`
}

// Submission is one file a student handed in for the assignment.
type Submission struct {
	Filename     string `db:"filename" json:"filename"`
	AbsolutePath string `db:"absolute_path" json:"-"`
}

// AssignmentContext is a read-only snapshot of the gradable subjects of one
// assignment. It is loaded once per request and never mutated by the core.
type AssignmentContext struct {
	Assignment Assignment `json:"assignment"`
	Members    []Member   `json:"members"`
	Teams      []Team     `json:"teams,omitempty"`
}

// IsTeam reports whether the assignment grades teams.
func (c *AssignmentContext) IsTeam() bool {
	return c.Assignment.UnitType == UnitTeam
}

// HasUser reports whether the user is a gradable subject of the assignment.
func (c *AssignmentContext) HasUser(userID int64) bool {
	return c.MemberByID(userID) != nil
}

// MemberByID returns the member with the given user ID, or nil.
func (c *AssignmentContext) MemberByID(userID int64) *Member {
	for i := range c.Members {
		if c.Members[i].UserID == userID {
			return &c.Members[i]
		}
	}
	return nil
}

// TeamByID returns the team with the given ID, or nil.
func (c *AssignmentContext) TeamByID(teamID int64) *Team {
	for i := range c.Teams {
		if c.Teams[i].ID == teamID {
			return &c.Teams[i]
		}
	}
	return nil
}

// TeamMembers resolves a team ID to its member list in stable order.
func (c *AssignmentContext) TeamMembers(teamID int64) []Member {
	team := c.TeamByID(teamID)
	if team == nil {
		return nil
	}
	members := make([]Member, 0, len(team.MemberIDs))
	for _, userID := range team.MemberIDs {
		if m := c.MemberByID(userID); m != nil {
			members = append(members, *m)
		}
	}
	return members
}
