package models

// Status is the grading outcome for a subject.
type Status string

const (
	StatusNotGraded Status = "notgraded"
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
)

// ValidStatuses returns every accepted grading status, in display order.
func ValidStatuses() []Status {
	return []Status{StatusNotGraded, StatusPassed, StatusFailed}
}

// Valid reports whether the status is one of the accepted values.
func (s Status) Valid() bool {
	switch s {
	case StatusNotGraded, StatusPassed, StatusFailed:
		return true
	}
	return false
}

// PlagiarismFlag marks a plagiarism assessment for a subject. The empty
// value is allowed and means "not assessed".
type PlagiarismFlag string

const (
	PlagiarismNone      PlagiarismFlag = "none"
	PlagiarismSuspicion PlagiarismFlag = "suspicion"
	PlagiarismDetected  PlagiarismFlag = "detected"
)

// ValidPlagiarismFlags returns every accepted plagiarism flag.
func ValidPlagiarismFlags() []PlagiarismFlag {
	return []PlagiarismFlag{PlagiarismNone, PlagiarismSuspicion, PlagiarismDetected}
}

// Valid reports whether the flag is accepted; empty counts as valid.
func (f PlagiarismFlag) Valid() bool {
	switch f {
	case "", PlagiarismNone, PlagiarismSuspicion, PlagiarismDetected:
		return true
	}
	return false
}

// StatusUpdate is the normalized result of one status-file row whose update
// flag was set and whose subject exists in the assignment context. Team
// updates fan out to every member at apply time.
type StatusUpdate struct {
	UserID int64 `json:"userId,omitempty"`
	TeamID int64 `json:"teamId,omitempty"`

	Status  Status `json:"status"`
	Mark    string `json:"mark"`
	Notice  string `json:"notice"`
	Comment string `json:"comment"`
}

// IsTeam reports whether the update targets a team rather than a single user.
func (u StatusUpdate) IsTeam() bool {
	return u.TeamID != 0
}
