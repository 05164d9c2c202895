package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Entry describes one file extracted to disk.
type Entry struct {
	// OriginalPath is the entry name as recorded inside the archive.
	OriginalPath string
	// Path is the absolute location of the extracted file on disk.
	Path string
	Size int64
}

// Violation records an archive entry rejected for safety reasons. Rejected
// entries are never written to disk; extraction continues for the rest.
type Violation struct {
	Name   string
	Reason string
}

// Extract unpacks the archive into destDir. Every entry name is sanitized
// and the resolved target must stay inside destDir; traversal attempts,
// absolute paths, null bytes and symlinks are reported as violations.
func Extract(data []byte, destDir string) ([]Entry, []Violation, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("open archive: %w", err)
	}

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve destination: %w", err)
	}

	var entries []Entry
	var violations []Violation

	for _, file := range reader.File {
		if reason := vetEntry(file); reason != "" {
			violations = append(violations, Violation{Name: file.Name, Reason: reason})
			continue
		}
		if file.FileInfo().IsDir() {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(sanitizeName(file.Name)))
		if !contained(root, target) {
			violations = append(violations, Violation{Name: file.Name, Reason: "escapes extraction directory"})
			continue
		}

		size, err := writeEntry(file, target)
		if err != nil {
			return entries, violations, fmt.Errorf("extract %s: %w", file.Name, err)
		}
		entries = append(entries, Entry{OriginalPath: file.Name, Path: target, Size: size})
	}

	return entries, violations, nil
}

func vetEntry(file *zip.File) string {
	if strings.ContainsRune(file.Name, 0) {
		return "null byte in entry name"
	}
	cleaned := sanitizeName(file.Name)
	if strings.HasPrefix(cleaned, "/") || filepath.IsAbs(cleaned) {
		return "absolute entry path"
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") {
		return "path traversal in entry name"
	}
	if file.Mode()&os.ModeSymlink != 0 {
		return "symlink entry"
	}
	return ""
}

func sanitizeName(name string) string {
	return normalize(name)
}

func contained(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func writeEntry(file *zip.File, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	src, err := file.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return 0, err
	}
	return size, nil
}
