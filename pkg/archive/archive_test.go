package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestBuilderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "submission.txt")
	require.NoError(t, os.WriteFile(src, []byte("solution"), 0o644))

	target := filepath.Join(dir, "bundle.zip")
	builder, err := NewBuilder(target)
	require.NoError(t, err)
	require.NoError(t, builder.AddFile(src, "Batch/Doe_Jane_jdoe_7/submission.txt"))
	require.NoError(t, builder.AddBytes("Batch/status.csv", []byte("update,login\n")))
	require.NoError(t, builder.AddDir("Batch/Team_9"))
	require.NoError(t, builder.Close())

	data, err := os.ReadFile(target)
	require.NoError(t, err)

	out := t.TempDir()
	entries, violations, err := Extract(data, out)
	require.NoError(t, err)
	assert.Empty(t, violations)
	require.Len(t, entries, 2)

	content, err := os.ReadFile(filepath.Join(out, "Batch", "Doe_Jane_jdoe_7", "submission.txt"))
	require.NoError(t, err)
	assert.Equal(t, "solution", string(content))
}

func TestExtractRejectsTraversal(t *testing.T) {
	data := buildTestArchive(t, map[string]string{
		"../../etc/passwd": "root",
		"ok.txt":           "fine",
	})

	out := t.TempDir()
	entries, violations, err := Extract(data, out)
	require.NoError(t, err)

	require.Len(t, violations, 1)
	assert.Equal(t, "../../etc/passwd", violations[0].Name)

	require.Len(t, entries, 1)
	assert.Equal(t, "ok.txt", entries[0].OriginalPath)

	// nothing may exist outside the destination directory
	assert.NoFileExists(t, filepath.Join(out, "..", "..", "etc", "passwd"))
}

func TestExtractRejectsAbsoluteAndNullByte(t *testing.T) {
	data := buildTestArchive(t, map[string]string{
		"/etc/shadow":       "nope",
		"bad\x00name.txt":   "nope",
		"nested/../ok.txt":  "kept after clean",
		"deep/../../no.txt": "traversal",
	})

	out := t.TempDir()
	entries, violations, err := Extract(data, out)
	require.NoError(t, err)

	reasons := make(map[string]string, len(violations))
	for _, v := range violations {
		reasons[v.Name] = v.Reason
	}
	assert.Contains(t, reasons, "/etc/shadow")
	assert.Contains(t, reasons, "bad\x00name.txt")
	assert.Contains(t, reasons, "deep/../../no.txt")

	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(out, "ok.txt"), entries[0].Path)
}

func TestExtractRejectsCorruptArchive(t *testing.T) {
	_, _, err := Extract([]byte("not a zip"), t.TempDir())
	assert.Error(t, err)
}
