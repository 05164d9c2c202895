package statusfile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/comusielak/exercise-status-api/internal/models"
	appErrors "github.com/comusielak/exercise-status-api/pkg/errors"
	"github.com/comusielak/exercise-status-api/pkg/tabular"
)

// Codec maps an assignment's grading state to and from status spreadsheets.
// It depends only on the tabular codec contract, never on a concrete
// spreadsheet library.
type Codec struct {
	logger *zap.Logger
}

// NewCodec constructs a status-file codec.
func NewCodec(logger *zap.Logger) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Codec{logger: logger}
}

// Write serializes the current grading state of every subject into a
// spreadsheet of the requested format. The update column is always written
// as "0" so an untouched re-upload changes nothing. Zero subjects produce a
// header-only file.
func (c *Codec) Write(actx *models.AssignmentContext, format tabular.Format) ([]byte, error) {
	codec, err := tabular.ForFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStatusFileWrite.Code, appErrors.ErrStatusFileWrite.Status, "unsupported status file format")
	}

	var sheet tabular.Sheet
	if actx.IsTeam() {
		sheet = teamSheet(actx)
	} else {
		sheet = memberSheet(actx)
	}

	data, err := codec.Encode(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStatusFileWrite.Code, appErrors.ErrStatusFileWrite.Status, "encode status file")
	}
	return data, nil
}

func memberSheet(actx *models.AssignmentContext) tabular.Sheet {
	rows := make([][]string, 0, len(actx.Members))
	for _, m := range actx.Members {
		rows = append(rows, []string{
			"0",
			strconv.FormatInt(m.UserID, 10),
			m.Login,
			m.Lastname,
			m.Firstname,
			string(m.Status),
			m.Mark,
			m.Notice,
			m.Comment,
			string(m.PlagiarismFlag),
			m.PlagiarismComment,
		})
	}
	return tabular.Sheet{Header: MemberColumns(), Rows: rows}
}

// teamSheet sources a team's displayed status from its FIRST member. This is
// a deliberate lossy simplification carried over from the original grading
// UI; see DESIGN.md before changing it.
func teamSheet(actx *models.AssignmentContext) tabular.Sheet {
	rows := make([][]string, 0, len(actx.Teams))
	for _, team := range actx.Teams {
		members := actx.TeamMembers(team.ID)
		var first models.Member
		if len(members) > 0 {
			first = members[0]
		} else {
			first.Status = models.StatusNotGraded
		}
		logins := make([]string, 0, len(members))
		for _, m := range members {
			logins = append(logins, m.Login)
		}
		rows = append(rows, []string{
			"0",
			strconv.FormatInt(team.ID, 10),
			strings.Join(logins, ","),
			string(first.Status),
			first.Mark,
			first.Notice,
			first.Comment,
			string(first.PlagiarismFlag),
			first.PlagiarismComment,
		})
	}
	return tabular.Sheet{Header: TeamColumns(), Rows: rows}
}

// LoadResult is the outcome of reading one uploaded status file.
type LoadResult struct {
	Updates []models.StatusUpdate

	// Err is set for schema, validation and load failures. Schema and
	// validation errors abort the whole file; a load error just means
	// "zero updates found".
	Err *appErrors.Error

	subjects []string
	applied  bool
}

// HasUpdates reports whether at least one update row survived parsing.
func (r *LoadResult) HasUpdates() bool {
	return len(r.Updates) > 0
}

// HasError reports whether parsing failed.
func (r *LoadResult) HasError() bool {
	return r.Err != nil
}

// MarkApplied records that the updates were handed to the grading store.
func (r *LoadResult) MarkApplied() {
	r.applied = true
}

// Applied reports whether MarkApplied was called.
func (r *LoadResult) Applied() bool {
	return r.applied
}

// Describe returns a human-readable summary naming the affected logins or
// team IDs and whether the updates were already applied.
func (r *LoadResult) Describe() string {
	if r.Err != nil {
		return fmt.Sprintf("status file rejected: %s", r.Err.Message)
	}
	if len(r.Updates) == 0 {
		return "no update rows found"
	}
	state := "pending"
	if r.applied {
		state = "applied"
	}
	return fmt.Sprintf("%d update(s) %s for %s", len(r.Updates), state, strings.Join(r.subjects, ", "))
}

// Read parses an uploaded status file back into update records. The format
// is picked from the filename extension. Rows whose update flag is unset or
// whose subject is not part of the assignment are skipped silently; an
// out-of-range status aborts the whole file.
func (c *Codec) Read(data []byte, filename string, actx *models.AssignmentContext) *LoadResult {
	codec, err := tabular.ForFilename(filename)
	if err != nil {
		return &LoadResult{Err: appErrors.Wrap(err, appErrors.ErrStatusFileLoad.Code, appErrors.ErrStatusFileLoad.Status, appErrors.ErrStatusFileLoad.Message)}
	}

	sheet, err := codec.Decode(data)
	if err != nil {
		c.logger.Warn("status file unreadable", zap.String("file", filename), zap.Error(err))
		return &LoadResult{Err: appErrors.Wrap(err, appErrors.ErrStatusFileLoad.Code, appErrors.ErrStatusFileLoad.Status, appErrors.ErrStatusFileLoad.Message)}
	}

	expected := MemberColumns()
	if actx.IsTeam() {
		expected = TeamColumns()
	}

	index, schemaErr := headerIndex(sheet.Header, expected)
	if schemaErr != nil {
		c.logger.Warn("status file header mismatch",
			zap.String("file", filename),
			zap.Strings("header", sheet.Header))
		return &LoadResult{Err: schemaErr}
	}

	result := &LoadResult{}
	for i := range sheet.Rows {
		row := sheet.PaddedRow(i)
		if !truthy(row[index[ColUpdate]]) {
			continue
		}

		update, subject, rowErr := c.parseRow(row, index, actx, i+2)
		if rowErr != nil {
			return &LoadResult{Err: rowErr}
		}
		if subject == "" {
			// subject not part of this assignment: a row the tutor didn't touch
			continue
		}
		result.Updates = append(result.Updates, update)
		result.subjects = append(result.subjects, subject)
	}

	return result
}

func (c *Codec) parseRow(row []string, index map[string]int, actx *models.AssignmentContext, rowNum int) (models.StatusUpdate, string, *appErrors.Error) {
	status := models.Status(strings.ToLower(strings.TrimSpace(row[index[ColStatus]])))

	var update models.StatusUpdate
	var subject string

	if actx.IsTeam() {
		teamID, err := strconv.ParseInt(strings.TrimSpace(row[index[ColTeamID]]), 10, 64)
		if err != nil || actx.TeamByID(teamID) == nil {
			return update, "", nil
		}
		update.TeamID = teamID
		subject = fmt.Sprintf("team %d", teamID)
	} else {
		userID, err := strconv.ParseInt(strings.TrimSpace(row[index[ColUserID]]), 10, 64)
		if err != nil {
			return update, "", nil
		}
		member := actx.MemberByID(userID)
		if member == nil {
			return update, "", nil
		}
		update.UserID = userID
		subject = member.Login
	}

	// fail-fast: a single malformed row must not let the rest apply silently
	if !status.Valid() {
		c.logger.Warn("invalid status value aborts load",
			zap.Int("row", rowNum),
			zap.String("status", string(status)))
		return update, "", appErrors.Wrap(
			fmt.Errorf("row %d: status %q", rowNum, status),
			appErrors.ErrStatusFileValidation.Code,
			appErrors.ErrStatusFileValidation.Status,
			fmt.Sprintf("invalid status %q in row %d", status, rowNum),
		)
	}

	update.Status = status
	update.Mark = strings.TrimSpace(row[index[ColMark]])
	update.Notice = strings.TrimSpace(row[index[ColNotice]])
	update.Comment = strings.TrimSpace(row[index[ColComment]])
	return update, subject, nil
}

// headerIndex validates order-independent set equality between the actual
// and expected header and returns a name → column index mapping. Physical
// cells are counted separately so a duplicated column name cannot hide
// behind the map dedupe.
func headerIndex(header, expected []string) (map[string]int, *appErrors.Error) {
	index := make(map[string]int, len(header))
	cells := 0
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		cells++
		index[normalized] = i
	}

	mismatch := cells != len(expected) || len(index) != len(expected)
	if !mismatch {
		for _, name := range expected {
			if _, ok := index[name]; !ok {
				mismatch = true
				break
			}
		}
	}
	if mismatch {
		want := append([]string(nil), expected...)
		sort.Strings(want)
		return nil, appErrors.Wrap(
			fmt.Errorf("expected columns %s", strings.Join(want, ",")),
			appErrors.ErrStatusFileSchema.Code,
			appErrors.ErrStatusFileSchema.Status,
			appErrors.ErrStatusFileSchema.Message,
		)
	}
	return index, nil
}

func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "x":
		return true
	}
	return false
}
