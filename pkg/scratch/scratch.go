package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager hands out per-request scratch directories under a common base and
// tracks them until released. Directories are keyed by a random suffix so
// concurrent requests never collide. Sweep removes everything still
// registered and is meant to run at process shutdown.
type Manager struct {
	baseDir string
	logger  *zap.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewManager prepares the scratch base directory. An empty baseDir falls
// back to the system temp directory.
func NewManager(baseDir string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "exercise-status")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch base: %w", err)
	}
	return &Manager{
		baseDir: baseDir,
		logger:  logger,
		active:  make(map[string]struct{}),
	}, nil
}

// Acquire creates a fresh scratch directory and registers it for cleanup.
func (m *Manager) Acquire(prefix string) (*Dir, error) {
	if prefix == "" {
		prefix = "req"
	}
	path := filepath.Join(m.baseDir, fmt.Sprintf("%s-%s", prefix, uuid.NewString()))
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	m.mu.Lock()
	m.active[path] = struct{}{}
	m.mu.Unlock()

	return &Dir{path: path, manager: m}, nil
}

// Sweep removes every scratch directory still registered. Removing an
// already-removed directory is not an error.
func (m *Manager) Sweep() {
	m.mu.Lock()
	paths := make([]string, 0, len(m.active))
	for path := range m.active {
		paths = append(paths, path)
	}
	m.mu.Unlock()

	for _, path := range paths {
		m.remove(path)
	}
}

func (m *Manager) remove(path string) {
	if err := os.RemoveAll(path); err != nil {
		m.logger.Warn("scratch cleanup failed", zap.String("path", path), zap.Error(err))
	}
	m.mu.Lock()
	delete(m.active, path)
	m.mu.Unlock()
}

// Dir is one acquired scratch directory.
type Dir struct {
	path    string
	manager *Manager
	once    sync.Once
}

// Path returns the absolute scratch directory path.
func (d *Dir) Path() string {
	return d.path
}

// Join resolves a path inside the scratch directory.
func (d *Dir) Join(parts ...string) string {
	return filepath.Join(append([]string{d.path}, parts...)...)
}

// Release removes the directory and deregisters it. Safe to call more than
// once and safe to call after Sweep already removed the directory.
func (d *Dir) Release() {
	d.once.Do(func() {
		d.manager.remove(d.path)
	})
}
