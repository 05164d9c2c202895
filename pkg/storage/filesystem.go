package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BundleStore keeps generated export archives on disk under a base directory
// until their download link expires.
type BundleStore struct {
	baseDir string
}

// NewBundleStore ensures the base directory exists and returns a handle.
func NewBundleStore(baseDir string) (*BundleStore, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create bundle directory: %w", err)
	}
	return &BundleStore{baseDir: baseDir}, nil
}

// SaveFile moves or copies a finished file from sourcePath into the store
// under the given name and returns the stored relative name.
func (s *BundleStore) SaveFile(name, sourcePath string) (string, error) {
	target := s.resolve(name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare bundle directory: %w", err)
	}
	if err := os.Rename(sourcePath, target); err == nil {
		return name, nil
	}
	// rename fails across filesystems; fall back to a copy
	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open bundle source: %w", err)
	}
	defer src.Close()
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create bundle file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("store bundle: %w", err)
	}
	return name, nil
}

// Open returns a read-only handle for a stored bundle.
func (s *BundleStore) Open(name string) (*os.File, error) {
	file, err := os.Open(s.resolve(name))
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	return file, nil
}

// Delete removes a stored bundle if present.
func (s *BundleStore) Delete(name string) error {
	if err := os.Remove(s.resolve(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete bundle: %w", err)
	}
	return nil
}

// CleanupOlderThan removes bundles older than the TTL and returns their names.
func (s *BundleStore) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup bundles: %w", err)
	}
	return deleted, nil
}

// Path exposes the underlying absolute path.
func (s *BundleStore) Path(name string) string {
	return s.resolve(name)
}

func (s *BundleStore) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.baseDir, name)
}
