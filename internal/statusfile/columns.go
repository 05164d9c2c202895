package statusfile

// Column names of the status-file contract. The column sets below are both
// the write contract and the read contract: a loaded file whose header does
// not contain exactly the expected set, in any order, is rejected.
const (
	ColUpdate            = "update"
	ColUserID            = "user_id"
	ColLogin             = "login"
	ColLastname          = "lastname"
	ColFirstname         = "firstname"
	ColTeamID            = "team_id"
	ColLogins            = "logins"
	ColStatus            = "status"
	ColMark              = "mark"
	ColNotice            = "notice"
	ColComment           = "comment"
	ColPlagiarismFlag    = "plagiarism_flag"
	ColPlagiarismComment = "plagiarism_comment"
)

// MemberColumns returns the fixed ordered column list for individual mode.
func MemberColumns() []string {
	return []string{
		ColUpdate,
		ColUserID,
		ColLogin,
		ColLastname,
		ColFirstname,
		ColStatus,
		ColMark,
		ColNotice,
		ColComment,
		ColPlagiarismFlag,
		ColPlagiarismComment,
	}
}

// TeamColumns returns the fixed ordered column list for team mode.
func TeamColumns() []string {
	return []string{
		ColUpdate,
		ColTeamID,
		ColLogins,
		ColStatus,
		ColMark,
		ColNotice,
		ColComment,
		ColPlagiarismFlag,
		ColPlagiarismComment,
	}
}
