package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		ok       bool
	}{
		{"audio", ModeAudio, true},
		{"mp3", ModeAudio, true},
		{"VIDEO", ModeVideo, true},
		{" mp4 ", ModeVideo, true},
		{"flac", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, ok := ParseMode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestMode_Extension(t *testing.T) {
	assert.Equal(t, "mp3", ModeAudio.Extension())
	assert.Equal(t, "mp4", ModeVideo.Extension())
}

func TestVideoHeight(t *testing.T) {
	tests := []struct {
		quality  string
		expected int
	}{
		{"360p", 360},
		{"480p", 480},
		{"720p", 720},
		{"1080p", 1080},
		{"2K", 1440},
		{"4K", 2160},
		{"2160p", 2160},
		{"8K", 720},
		{"", 720},
	}

	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			assert.Equal(t, tt.expected, VideoHeight(tt.quality))
		})
	}
}

func TestAudioBitrate(t *testing.T) {
	assert.Equal(t, 192, AudioBitrate("192"))
	assert.Equal(t, 320, AudioBitrate("320k"))
	assert.Equal(t, 128, AudioBitrate("128kbps"))
	assert.Equal(t, 192, AudioBitrate("best"))
	assert.Equal(t, 192, AudioBitrate("9000"))
}

func TestComputePercent(t *testing.T) {
	p, ok := ComputePercent(50, 200, 0)
	assert.True(t, ok)
	assert.Equal(t, 25, p)

	// estimate used when exact total is missing
	p, ok = ComputePercent(50, 0, 100)
	assert.True(t, ok)
	assert.Equal(t, 50, p)

	// floor, not round
	p, _ = ComputePercent(999, 1000, 0)
	assert.Equal(t, 99, p)

	// estimates can undershoot; never exceed 100
	p, _ = ComputePercent(150, 0, 100)
	assert.Equal(t, 100, p)

	_, ok = ComputePercent(50, 0, 0)
	assert.False(t, ok)
}

func TestComputePercent_Monotonic(t *testing.T) {
	const total = 10_000
	last := -1
	for downloaded := int64(0); downloaded <= total; downloaded += 373 {
		p, ok := ComputePercent(downloaded, total, 0)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, p, last)
		assert.True(t, p >= 0 && p <= 100)
		last = p
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Message: "Error: URL missing"}
	assert.Equal(t, "Error: URL missing", err.Error())
}
