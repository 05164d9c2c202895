package scratch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAcquireRelease(t *testing.T) {
	mgr, err := NewManager(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	dir, err := mgr.Acquire("export")
	require.NoError(t, err)
	require.DirExists(t, dir.Path())

	require.NoError(t, os.WriteFile(dir.Join("status.csv"), []byte("x"), 0o644))

	dir.Release()
	assert.NoDirExists(t, dir.Path())

	// releasing twice must stay silent
	dir.Release()
}

func TestAcquireUniquePaths(t *testing.T) {
	mgr, err := NewManager(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	a, err := mgr.Acquire("export")
	require.NoError(t, err)
	b, err := mgr.Acquire("export")
	require.NoError(t, err)
	assert.NotEqual(t, a.Path(), b.Path())
}

func TestSweepRemovesStragglers(t *testing.T) {
	base := t.TempDir()
	mgr, err := NewManager(base, zap.NewNop())
	require.NoError(t, err)

	dir, err := mgr.Acquire("upload")
	require.NoError(t, err)

	mgr.Sweep()
	assert.NoDirExists(t, dir.Path())

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// sweeping again after everything is gone is a no-op
	mgr.Sweep()
}

func TestJoin(t *testing.T) {
	mgr, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)
	dir, err := mgr.Acquire("x")
	require.NoError(t, err)
	defer dir.Release()

	assert.Equal(t, filepath.Join(dir.Path(), "a", "b.txt"), dir.Join("a", "b.txt"))
}
