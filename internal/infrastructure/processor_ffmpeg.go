package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourusername/mediagrab-go/internal/domain"
	"go.uber.org/zap"
)

const stderrTailLines = 8

// TranscodeError is returned when ffmpeg exits with a non-zero status
type TranscodeError struct {
	Path     string
	ExitCode int
	Stderr   string
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("ffmpeg exited with status %d: %s", e.ExitCode, lastLines(e.Stderr, stderrTailLines))
}

// VideoStreamInfo is the probed description of a file's first video stream
type VideoStreamInfo struct {
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BitRate      string `json:"bit_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

type probeOutput struct {
	Streams []VideoStreamInfo `json:"streams"`
}

// FFmpegProcessor probes downloaded videos with ffprobe and re-encodes them
// with ffmpeg when their codec is not the target codec
type FFmpegProcessor struct {
	runner    CommandRunner
	tools     domain.ToolsConfig
	transcode domain.TranscodeConfig
	logger    *zap.Logger
}

// NewFFmpegProcessor creates a new processor
func NewFFmpegProcessor(runner CommandRunner, tools domain.ToolsConfig, transcode domain.TranscodeConfig, logger *zap.Logger) *FFmpegProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegProcessor{
		runner:    runner,
		tools:     tools,
		transcode: transcode,
		logger:    logger,
	}
}

// ProbeArgs returns the ffprobe arguments for a file
func ProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height,bit_rate,avg_frame_rate",
		"-of", "json",
		path,
	}
}

// TranscodeArgs returns the ffmpeg arguments to re-encode src into dst.
// Only the first video and the first audio stream are kept; audio is optional.
func TranscodeArgs(src, dst string, encoder domain.EncoderChoice, audioBitrate string) []string {
	args := []string{
		"-y",
		"-i", src,
		"-map", "0:v:0",
		"-map", "0:a:0?",
	}
	args = append(args, encoder.CodecArgs...)
	return append(args,
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-movflags", "+faststart",
		dst,
	)
}

// Probe returns the first video stream of a file
func (p *FFmpegProcessor) Probe(ctx context.Context, path string) (VideoStreamInfo, error) {
	result, err := p.runner.Run(ctx, p.tools.FFprobeBinary, ProbeArgs(path)...)
	if err != nil {
		return VideoStreamInfo{}, err
	}
	if !result.Success() {
		return VideoStreamInfo{}, fmt.Errorf("ffprobe exited with status %d: %s", result.ExitCode, lastLines(string(result.Stderr), stderrTailLines))
	}

	var out probeOutput
	if err := json.Unmarshal(result.Stdout, &out); err != nil {
		return VideoStreamInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return VideoStreamInfo{}, fmt.Errorf("no video stream in %s", path)
	}
	return out.Streams[0], nil
}

// EnsureCompatible implements domain.VideoProcessor. A file whose probe fails
// is transcoded. The original is only replaced after ffmpeg succeeds.
func (p *FFmpegProcessor) EnsureCompatible(ctx context.Context, path string, encoder domain.EncoderChoice) error {
	info, err := p.Probe(ctx, path)
	if err != nil {
		p.logger.Warn("Probe failed, transcoding anyway", zap.String("path", path), zap.Error(err))
	} else if strings.EqualFold(info.CodecName, p.transcode.TargetCodec) {
		p.logger.Info("Video already compatible",
			zap.String("path", path),
			zap.String("codec", info.CodecName))
		return nil
	}

	temp := siblingTempPath(path)
	args := TranscodeArgs(path, temp, encoder, p.transcode.AudioBitrate)

	p.logger.Info("Transcoding video",
		zap.String("path", path),
		zap.String("from", info.CodecName),
		zap.String("encoder", encoder.Encoder),
		zap.String("command", FormatCommand(p.tools.FFmpegBinary, args...)))

	result, err := p.runner.Run(ctx, p.tools.FFmpegBinary, args...)
	if err != nil {
		_ = removeIfExists(temp)
		return fmt.Errorf("ffmpeg transcode of %s: %w", path, err)
	}
	if !result.Success() {
		_ = removeIfExists(temp)
		return &TranscodeError{Path: path, ExitCode: result.ExitCode, Stderr: string(result.Stderr)}
	}

	if err := removeIfExists(path); err != nil {
		_ = removeIfExists(temp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	if err := moveFile(temp, path); err != nil {
		return err
	}

	p.logger.Info("Transcode finished", zap.String("path", path), zap.String("encoder", encoder.Encoder))
	return nil
}

// lastLines returns the last n non-empty lines of s joined by newlines
func lastLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
