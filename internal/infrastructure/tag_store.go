package infrastructure

import (
	"context"
	"os"
	"time"

	"github.com/dhowden/tag"
	"go.uber.org/zap"
)

const tagWriteTimeout = 2 * time.Minute

// Tags are the fields the metadata editor reads and writes
type Tags struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// TagStore reads tags with dhowden/tag and writes them by remuxing the file
// through ffmpeg without re-encoding
type TagStore struct {
	runner CommandRunner
	ffmpeg string
	logger *zap.Logger
}

// NewTagStore creates a new tag store
func NewTagStore(runner CommandRunner, ffmpegBinary string, logger *zap.Logger) *TagStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagStore{runner: runner, ffmpeg: ffmpegBinary, logger: logger}
}

// ReadTags returns the tags of an MP3 or MP4 file
func (s *TagStore) ReadTags(path string) (Tags, error) {
	file, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return Tags{}, err
	}
	return Tags{Title: meta.Title(), Artist: meta.Artist(), Album: meta.Album()}, nil
}

// GetTitle implements domain.MetadataStore. Unreadable files have no title.
func (s *TagStore) GetTitle(path string) string {
	tags, err := s.ReadTags(path)
	if err != nil {
		s.logger.Debug("Could not read tags", zap.String("path", path), zap.Error(err))
		return ""
	}
	return tags.Title
}

// SetAudioTags implements domain.MetadataStore
func (s *TagStore) SetAudioTags(path, title, artist, album string) bool {
	return s.write(path, Tags{Title: title, Artist: artist, Album: album}, true)
}

// SetVideoTags implements domain.MetadataStore
func (s *TagStore) SetVideoTags(path, title, artist, album string) bool {
	return s.write(path, Tags{Title: title, Artist: artist, Album: album}, false)
}

// TagWriteArgs returns the ffmpeg arguments that copy src to dst with new
// tags. ID3v2.3 is requested for MP3 because v2.4 is poorly supported by players.
func TagWriteArgs(src, dst string, tags Tags, id3 bool) []string {
	args := []string{
		"-y",
		"-i", src,
		"-map", "0",
		"-c", "copy",
		"-metadata", "title=" + tags.Title,
		"-metadata", "artist=" + tags.Artist,
		"-metadata", "album=" + tags.Album,
	}
	if id3 {
		args = append(args, "-id3v2_version", "3")
	}
	return append(args, dst)
}

func (s *TagStore) write(path string, tags Tags, id3 bool) bool {
	if _, err := os.Stat(path); err != nil {
		s.logger.Warn("Could not set metadata", zap.String("path", path), zap.Error(err))
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), tagWriteTimeout)
	defer cancel()

	temp := siblingTempPath(path)
	result, err := s.runner.Run(ctx, s.ffmpeg, TagWriteArgs(path, temp, tags, id3)...)
	if err != nil || !result.Success() {
		_ = removeIfExists(temp)
		s.logger.Warn("Could not set metadata",
			zap.String("path", path),
			zap.Int("exit_code", result.ExitCode),
			zap.String("stderr", lastLines(string(result.Stderr), 3)),
			zap.Error(err))
		return false
	}

	if err := removeIfExists(path); err != nil {
		_ = removeIfExists(temp)
		s.logger.Warn("Could not replace file", zap.String("path", path), zap.Error(err))
		return false
	}
	if err := moveFile(temp, path); err != nil {
		s.logger.Warn("Could not replace file", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}
