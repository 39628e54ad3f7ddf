package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Song - Artist.mp3", "Song - Artist.mp3"},
		{"colon space", "Part 1: Intro.mp3", "Part 1：Intro.mp3"},
		{"bare colon kept", "12:30.mp3", "12:30.mp3"},
		{"separators", `AC/DC\Live.mp3`, "AC_DC_Live.mp3"},
		{"wildcards", `What?*<>|".mp4`, "What______.mp4"},
		{"trimmed", "  spaced.mp3 ", "spaced.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestFileRenamer_Rename(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "track01.mp3")
	require.NoError(t, os.WriteFile(oldPath, []byte("audio"), 0644))

	newPath, err := NewFileRenamer().Rename(oldPath, "Intro: Live.mp3", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Intro：Live.mp3"), newPath)
	assert.FileExists(t, newPath)
	assert.NoFileExists(t, oldPath)
}

func TestFileRenamer_SameName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "same.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0644))

	newPath, err := NewFileRenamer().Rename(path, "same.mp3", dir)
	require.NoError(t, err)
	assert.Equal(t, path, newPath)
	assert.FileExists(t, path)
}

func TestFileRenamer_TargetExists(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "a.mp3")
	require.NoError(t, os.WriteFile(oldPath, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp3"), []byte("b"), 0644))

	_, err := NewFileRenamer().Rename(oldPath, "b.mp3", dir)
	assert.Error(t, err)
	assert.FileExists(t, oldPath)
}

func TestFileRenamer_CaseOnlyChange(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "song.mp3")
	require.NoError(t, os.WriteFile(oldPath, []byte("audio"), 0644))

	newPath, err := NewFileRenamer().Rename(oldPath, "Song.mp3", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Song.mp3"), newPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Song.mp3", entries[0].Name())
}

func TestFileRenamer_EmptyName(t *testing.T) {
	_, err := NewFileRenamer().Rename("/tmp/x.mp3", "  ", "/tmp")
	assert.Error(t, err)
}
