package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mediagrab-go/internal/domain"
)

type runnerCall struct {
	name string
	args []string
}

// fakeRunner implements CommandRunner for testing
type fakeRunner struct {
	calls   []runnerCall
	handler func(name string, args []string) (CommandResult, error)
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	r.calls = append(r.calls, runnerCall{name: name, args: args})
	return r.handler(name, args)
}

func probeJSON(codec string) []byte {
	return []byte(`{"streams":[{"codec_name":"` + codec + `","width":1920,"height":1080,"avg_frame_rate":"30/1"}]}`)
}

func testTools() domain.ToolsConfig {
	return domain.ToolsConfig{YTDLPBinary: "yt-dlp", FFmpegBinary: "ffmpeg", FFprobeBinary: "ffprobe"}
}

func testTranscode() domain.TranscodeConfig {
	return domain.TranscodeConfig{TargetCodec: "h264", AudioBitrate: "192k"}
}

func writeVideo(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestEnsureCompatible_SkipsH264(t *testing.T) {
	path := writeVideo(t, "original")
	runner := &fakeRunner{handler: func(name string, args []string) (CommandResult, error) {
		return CommandResult{Stdout: probeJSON("h264")}, nil
	}}
	p := NewFFmpegProcessor(runner, testTools(), testTranscode(), nil)

	require.NoError(t, p.EnsureCompatible(context.Background(), path, domain.CPUEncoder))

	require.Len(t, runner.calls, 1, "only the probe runs")
	assert.Equal(t, "ffprobe", runner.calls[0].name)
	assert.Equal(t, ProbeArgs(path), runner.calls[0].args)
	assert.NoFileExists(t, siblingTempPath(path))
	data, _ := os.ReadFile(path)
	assert.Equal(t, "original", string(data))
}

func TestEnsureCompatible_TranscodeReplacesOriginal(t *testing.T) {
	path := writeVideo(t, "vp9 data")
	temp := siblingTempPath(path)
	nvenc := domain.EncoderCandidates()[1]

	runner := &fakeRunner{handler: func(name string, args []string) (CommandResult, error) {
		if name == "ffprobe" {
			return CommandResult{Stdout: probeJSON("vp9")}, nil
		}
		require.NoError(t, os.WriteFile(args[len(args)-1], []byte("h264 data"), 0644))
		return CommandResult{}, nil
	}}
	p := NewFFmpegProcessor(runner, testTools(), testTranscode(), nil)

	require.NoError(t, p.EnsureCompatible(context.Background(), path, nvenc))

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "ffmpeg", runner.calls[1].name)
	assert.Equal(t, TranscodeArgs(path, temp, nvenc, "192k"), runner.calls[1].args)
	assert.NoFileExists(t, temp)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "h264 data", string(data))
}

func TestEnsureCompatible_TranscodeFailureKeepsOriginal(t *testing.T) {
	path := writeVideo(t, "vp9 data")
	temp := siblingTempPath(path)

	runner := &fakeRunner{handler: func(name string, args []string) (CommandResult, error) {
		if name == "ffprobe" {
			return CommandResult{Stdout: probeJSON("vp9")}, nil
		}
		require.NoError(t, os.WriteFile(temp, []byte("partial"), 0644))
		return CommandResult{ExitCode: 1, Stderr: []byte("frame=1\nUnknown encoder 'h264_qsv'\n")}, nil
	}}
	p := NewFFmpegProcessor(runner, testTools(), testTranscode(), nil)

	err := p.EnsureCompatible(context.Background(), path, domain.EncoderCandidates()[0])

	var terr *TranscodeError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 1, terr.ExitCode)
	assert.Contains(t, err.Error(), "Unknown encoder 'h264_qsv'")
	assert.NoFileExists(t, temp)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "vp9 data", string(data))
}

func TestEnsureCompatible_ProbeFailureTranscodes(t *testing.T) {
	path := writeVideo(t, "unknown")

	runner := &fakeRunner{handler: func(name string, args []string) (CommandResult, error) {
		if name == "ffprobe" {
			return CommandResult{ExitCode: 1, Stderr: []byte("Invalid data found when processing input")}, nil
		}
		require.NoError(t, os.WriteFile(args[len(args)-1], []byte("fixed"), 0644))
		return CommandResult{}, nil
	}}
	p := NewFFmpegProcessor(runner, testTools(), testTranscode(), nil)

	require.NoError(t, p.EnsureCompatible(context.Background(), path, domain.CPUEncoder))
	assert.Len(t, runner.calls, 2)
}

func TestEnsureCompatible_UnparsableProbeTranscodes(t *testing.T) {
	path := writeVideo(t, "unknown")

	runner := &fakeRunner{handler: func(name string, args []string) (CommandResult, error) {
		if name == "ffprobe" {
			return CommandResult{Stdout: []byte("not json")}, nil
		}
		require.NoError(t, os.WriteFile(args[len(args)-1], []byte("fixed"), 0644))
		return CommandResult{}, nil
	}}
	p := NewFFmpegProcessor(runner, testTools(), testTranscode(), nil)

	require.NoError(t, p.EnsureCompatible(context.Background(), path, domain.CPUEncoder))
	assert.Len(t, runner.calls, 2)
}

func TestTranscodeArgs(t *testing.T) {
	args := TranscodeArgs("/v/in.webm", "/v/in_temp.webm", domain.CPUEncoder, "192k")
	assert.Equal(t, []string{
		"-y", "-i", "/v/in.webm",
		"-map", "0:v:0", "-map", "0:a:0?",
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "23",
		"-c:a", "aac", "-b:a", "192k",
		"-movflags", "+faststart",
		"/v/in_temp.webm",
	}, args)
}

func TestSiblingTempPath(t *testing.T) {
	assert.Equal(t, "/out/My Clip_temp.mp4", siblingTempPath("/out/My Clip.mp4"))
	assert.Equal(t, "/out/noext_temp", siblingTempPath("/out/noext"))
}
