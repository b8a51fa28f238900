package service

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[/\\:*?"<>|.\s]+`)
	edgeUnderscores     = regexp.MustCompile(`^_+|_+$`)
	nonFilenameChars    = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// sanitizeFilename removes or replaces characters that are unsafe for filenames
func sanitizeFilename(name string) string {
	// Path separators, dots and whitespace become underscores
	safe := unsafeFilenameChars.ReplaceAllString(name, "_")
	safe = edgeUnderscores.ReplaceAllString(safe, "")
	return nonFilenameChars.ReplaceAllString(safe, "")
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old file or the complete new one.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
