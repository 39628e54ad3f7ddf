package infrastructure

import (
	"context"
	"fmt"
)

// FFmpegEncoderTester checks an encoder by encoding one frame of a
// synthetic source and discarding it
type FFmpegEncoderTester struct {
	runner CommandRunner
	ffmpeg string
}

// NewFFmpegEncoderTester creates a new tester
func NewFFmpegEncoderTester(runner CommandRunner, ffmpegBinary string) *FFmpegEncoderTester {
	return &FFmpegEncoderTester{runner: runner, ffmpeg: ffmpegBinary}
}

// EncoderTestArgs returns the ffmpeg arguments for a one-frame test encode
func EncoderTestArgs(encoder string) []string {
	return []string{
		"-hide_banner",
		"-f", "lavfi",
		"-i", "nullsrc",
		"-c:v", encoder,
		"-frames:v", "1",
		"-f", "null",
		"-",
	}
}

// TestEncoder returns nil when the encoder works. The caller bounds it with
// a context deadline.
func (t *FFmpegEncoderTester) TestEncoder(ctx context.Context, encoder string) error {
	result, err := t.runner.Run(ctx, t.ffmpeg, EncoderTestArgs(encoder)...)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("%s test encode exited with status %d: %s", encoder, result.ExitCode, lastLines(string(result.Stderr), 2))
	}
	return nil
}
