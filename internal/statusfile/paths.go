package statusfile

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/comusielak/exercise-status-api/internal/models"
	"github.com/comusielak/exercise-status-api/pkg/archive"
)

// Folder naming is a wire convention: the unpackager infers subject identity
// from it on re-upload, so the scheme must stay collision free and ASCII safe.

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces a name fragment to ASCII-safe characters.
func SanitizeName(raw string) string {
	cleaned := unsafeChars.ReplaceAllString(raw, "_")
	cleaned = strings.Trim(cleaned, "._")
	if cleaned == "" {
		return "na"
	}
	return cleaned
}

// MemberFolder returns `<lastname>_<firstname>_<login>_<userid>`.
func MemberFolder(m models.Member) string {
	return fmt.Sprintf("%s_%s_%s_%d",
		SanitizeName(m.Lastname),
		SanitizeName(m.Firstname),
		SanitizeName(m.Login),
		m.UserID,
	)
}

// TeamFolder returns `Team_<teamid>`.
func TeamFolder(teamID int64) string {
	return fmt.Sprintf("Team_%d", teamID)
}

var (
	teamFolderPattern   = regexp.MustCompile(`^Team_(\d+)$`)
	memberFolderPattern = regexp.MustCompile(`^.+_.+_.+_(\d+)$`)
)

// ParseSubjectFromPath extracts the subject ID encoded in an archive entry
// path. For team mode the first `Team_<id>` segment wins; for individual
// mode the first `<lastname>_<firstname>_<login>_<id>` segment wins.
// Entries that match no convention return ok=false and are ignored by
// callers (forward compatibility, not an error).
func ParseSubjectFromPath(entryPath string, unit models.UnitType) (int64, bool) {
	segments := strings.Split(path.Clean(strings.ReplaceAll(entryPath, "\\", "/")), "/")
	// the last segment is the file itself, never a subject folder
	if len(segments) < 2 {
		return 0, false
	}
	for _, segment := range segments[:len(segments)-1] {
		pattern := memberFolderPattern
		if unit == models.UnitTeam {
			pattern = teamFolderPattern
		}
		if match := pattern.FindStringSubmatch(segment); match != nil {
			id, err := strconv.ParseInt(match[1], 10, 64)
			if err != nil {
				continue
			}
			return id, true
		}
	}
	return 0, false
}

// statusFileNames is the fixed recognized set of status-file base names.
var statusFileNames = map[string]struct{}{
	"status.xlsx":       {},
	"status.csv":        {},
	"status.xls":        {},
	"status_batch.xlsx": {},
	"status_batch.csv":  {},
}

// IsStatusFileName reports whether the base filename is a recognized status file.
func IsStatusFileName(name string) bool {
	_, ok := statusFileNames[strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))]
	return ok
}

// FindStatusFile locates the embedded status file among extracted entries.
// First match wins.
func FindStatusFile(entries []archive.Entry) (archive.Entry, bool) {
	for _, entry := range entries {
		if IsStatusFileName(entry.OriginalPath) {
			return entry, true
		}
	}
	return archive.Entry{}, false
}

// FindFeedbackFiles groups extracted entries by the subject ID encoded in
// their path. The status file itself is excluded; unmatched entries are
// silently ignored.
func FindFeedbackFiles(entries []archive.Entry, unit models.UnitType) map[int64][]archive.Entry {
	grouped := make(map[int64][]archive.Entry)
	for _, entry := range entries {
		if IsStatusFileName(entry.OriginalPath) {
			continue
		}
		subjectID, ok := ParseSubjectFromPath(entry.OriginalPath, unit)
		if !ok {
			continue
		}
		grouped[subjectID] = append(grouped[subjectID], entry)
	}
	return grouped
}
