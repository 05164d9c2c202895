package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// Builder writes a ZIP archive to a file on disk. Archive paths always use
// forward slashes regardless of the host OS.
type Builder struct {
	file   *os.File
	writer *zip.Writer
}

// NewBuilder creates the target file and an empty archive.
func NewBuilder(targetPath string) (*Builder, error) {
	file, err := os.Create(targetPath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	return &Builder{file: file, writer: zip.NewWriter(file)}, nil
}

// AddFile copies a file from disk into the archive under archivePath.
func (b *Builder) AddFile(sourcePath, archivePath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", sourcePath, err)
	}
	defer source.Close()

	w, err := b.writer.Create(normalize(archivePath))
	if err != nil {
		return fmt.Errorf("add %s: %w", archivePath, err)
	}
	if _, err := io.Copy(w, source); err != nil {
		return fmt.Errorf("copy %s: %w", archivePath, err)
	}
	return nil
}

// AddBytes stores raw bytes under archivePath.
func (b *Builder) AddBytes(archivePath string, data []byte) error {
	w, err := b.writer.Create(normalize(archivePath))
	if err != nil {
		return fmt.Errorf("add %s: %w", archivePath, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", archivePath, err)
	}
	return nil
}

// AddDir records an explicit (possibly empty) directory entry.
func (b *Builder) AddDir(archivePath string) error {
	name := normalize(archivePath)
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	if _, err := b.writer.Create(name); err != nil {
		return fmt.Errorf("add dir %s: %w", archivePath, err)
	}
	return nil
}

// Close finalizes the archive and the underlying file.
func (b *Builder) Close() error {
	if err := b.writer.Close(); err != nil {
		_ = b.file.Close()
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err := b.file.Close(); err != nil {
		return fmt.Errorf("close archive file: %w", err)
	}
	return nil
}

func normalize(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}
