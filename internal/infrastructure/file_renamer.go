package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[\\/*?"<>|]`)

// SanitizeFilename replaces characters that are not allowed in file names.
// A colon followed by a space becomes a full-width colon so titles such as
// "Part 1: Intro" stay readable.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, ": ", "：")
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	return strings.TrimSpace(name)
}

// FileRenamer renames files inside a folder
type FileRenamer struct{}

// NewFileRenamer creates a new file renamer
func NewFileRenamer() *FileRenamer {
	return &FileRenamer{}
}

// Rename renames oldPath to the sanitized newName inside dir and returns the
// resulting path. Renaming to the current name is a no-op.
func (r *FileRenamer) Rename(oldPath, newName, dir string) (string, error) {
	clean := SanitizeFilename(newName)
	if clean == "" || clean == "." || clean == ".." {
		return "", fmt.Errorf("invalid file name: %q", newName)
	}

	newPath := filepath.Join(dir, clean)
	if newPath == filepath.Clean(oldPath) {
		return newPath, nil
	}

	if existing, err := os.Stat(newPath); err == nil && !sameFileNewCase(oldPath, newPath, existing) {
		return "", fmt.Errorf("file already exists: %s", clean)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return "", err
	}
	return newPath, nil
}

// sameFileNewCase reports whether newPath only changes the letter case of
// oldPath and resolves to the same file, as on case-insensitive filesystems
func sameFileNewCase(oldPath, newPath string, existing os.FileInfo) bool {
	if !strings.EqualFold(filepath.Clean(oldPath), newPath) {
		return false
	}
	old, err := os.Stat(oldPath)
	return err == nil && os.SameFile(old, existing)
}
