package infrastructure

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/mediagrab-go/internal/domain"
	"github.com/yourusername/mediagrab-go/pkg/logger"
	"go.uber.org/zap"
)

// Line prefixes yt-dlp is told to print so progress and results can be told
// apart from its ordinary output
const (
	progressMarker   = "[mediagrab:progress]"
	processingMarker = "[mediagrab:processing]"
	filepathMarker   = "[mediagrab:filepath]"
)

// progressTemplate prints status|downloaded|total|estimate|filename.
// The filename goes last because it may contain the separator.
const progressTemplate = progressMarker +
	"%(progress.status)s|%(progress.downloaded_bytes)s|%(progress.total_bytes)s|" +
	"%(progress.total_bytes_estimate)s|%(progress.filename)s"

const maxDiagnosticLines = 5

// pipeCloseDelay is how long output may keep flowing after yt-dlp was
// killed before its pipes are closed from our side
const pipeCloseDelay = 3 * time.Second

// YTDLPFetcher downloads media by running yt-dlp
type YTDLPFetcher struct {
	tools       domain.ToolsConfig
	logsDir     string
	eventLogger *logger.MultiLogger // For structured events only; raw output goes to the ytdlp log
	logger      *zap.Logger
}

// NewYTDLPFetcher creates a new fetcher. eventLogger may be nil.
func NewYTDLPFetcher(tools domain.ToolsConfig, logsDir string, eventLogger *logger.MultiLogger, log *zap.Logger) *YTDLPFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &YTDLPFetcher{
		tools:       tools,
		logsDir:     logsDir,
		eventLogger: eventLogger,
		logger:      log,
	}
}

// BuildFormatSelector returns the video format chain for a maximum height.
// H.264 in MP4 with M4A audio needs no remux or transcode, so it comes first;
// plain "best" is the last resort.
func BuildFormatSelector(height int) string {
	h := strconv.Itoa(height)
	return strings.Join([]string{
		"bestvideo[height<=" + h + "][vcodec^=avc1][ext=mp4]+bestaudio[ext=m4a]",
		"bestvideo[height<=" + h + "][ext=mp4]+bestaudio[ext=m4a]",
		"bestvideo[height<=" + h + "]+bestaudio",
		"best[height<=" + h + "]",
		"best",
	}, "/")
}

// BuildArgs returns the yt-dlp arguments for a request
func (f *YTDLPFetcher) BuildArgs(req domain.DownloadRequest) []string {
	args := []string{
		"--newline",
		"--progress",
		"--no-playlist",
		"--progress-template", "download:" + progressTemplate,
		"--print", "post_process:" + processingMarker + "%(id)s",
		"--print", "after_move:" + filepathMarker + "%(filepath)s",
		"-o", filepath.Join(req.Destination, "%(title)s.%(ext)s"),
	}

	if f.tools.FFmpegBinary != "" && f.tools.FFmpegBinary != "ffmpeg" {
		args = append(args, "--ffmpeg-location", f.tools.FFmpegBinary)
	}

	if req.Mode == domain.ModeAudio {
		args = append(args,
			"-f", "bestaudio/best",
			"-x",
			"--audio-format", "mp3",
			"--audio-quality", fmt.Sprintf("%dK", domain.AudioBitrate(req.Quality)),
			"--embed-metadata",
		)
	} else {
		args = append(args,
			"-f", BuildFormatSelector(domain.VideoHeight(req.Quality)),
			"--merge-output-format", "mp4",
		)
	}

	return append(args, req.URL)
}

// ParseProgressLine parses a progress marker line. Fields yt-dlp does not
// know are printed as NA and parse as zero.
func ParseProgressLine(line string) (domain.FetchProgress, bool) {
	idx := strings.Index(line, progressMarker)
	if idx < 0 {
		return domain.FetchProgress{}, false
	}
	parts := strings.SplitN(line[idx+len(progressMarker):], "|", 5)
	if len(parts) != 5 {
		return domain.FetchProgress{}, false
	}

	filename := strings.TrimSpace(parts[4])
	if filename == "NA" {
		filename = ""
	}
	return domain.FetchProgress{
		Status:             domain.FetchStatus(strings.TrimSpace(parts[0])),
		DownloadedBytes:    parseByteCount(parts[1]),
		TotalBytes:         parseByteCount(parts[2]),
		TotalBytesEstimate: parseByteCount(parts[3]),
		Filename:           filename,
	}, true
}

func parseByteCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" || s == "None" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
		return int64(v)
	}
	return 0
}

type outputLine struct {
	text   string
	stderr bool
}

// Fetch implements domain.Fetcher. Progress lines are handed to hook on the
// calling goroutine in the order they are read.
func (f *YTDLPFetcher) Fetch(ctx context.Context, req domain.DownloadRequest, hook domain.ProgressHook) (string, error) {
	if err := os.MkdirAll(req.Destination, 0755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	fetchID := uuid.New().String()
	args := f.BuildArgs(req)

	rawLog, err := f.openLogFile()
	if err != nil {
		f.logger.Warn("Failed to open yt-dlp log", zap.Error(err))
	} else {
		defer rawLog.Close()
		writeLogHeader(rawLog, fetchID, FormatCommand(f.tools.YTDLPBinary, args...))
	}

	runCtx, kill := context.WithCancel(ctx)
	defer kill()

	cmd := exec.CommandContext(runCtx, f.tools.YTDLPBinary, args...)
	killProcessGroup(cmd)
	cmd.WaitDelay = pipeCloseDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to attach stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to attach stderr: %w", err)
	}

	f.logger.Info("Starting yt-dlp",
		zap.String("fetch_id", fetchID),
		zap.String("url", req.URL),
		zap.String("mode", string(req.Mode)))

	if err := cmd.Start(); err != nil {
		if rawLog != nil {
			writeLogFooter(rawLog, false, err.Error())
		}
		return "", fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	lines := make(chan outputLine, 64)
	var readers sync.WaitGroup
	readers.Add(2)
	go scanLines(stdout, false, lines, &readers)
	go scanLines(stderr, true, lines, &readers)
	go func() {
		readers.Wait()
		close(lines)
	}()

	// A helper that inherited yt-dlp's stdout can hold the pipes open after
	// yt-dlp is gone; close them so the readers return
	readersDone := make(chan struct{})
	go func() {
		select {
		case <-runCtx.Done():
		case <-readersDone:
			return
		}
		timer := time.NewTimer(pipeCloseDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
			_ = stdout.Close()
			_ = stderr.Close()
		case <-readersDone:
		}
	}()

	var (
		outputPath   string
		lastFilename string
		finishedSent bool
		abortErr     error
		diagnostics  []string
		stderrTail   []string
	)

	emit := func(p domain.FetchProgress) {
		if abortErr != nil {
			return
		}
		if err := hook(p); err != nil {
			abortErr = err
			kill()
		}
	}

	for line := range lines {
		if rawLog != nil {
			rawLog.WriteString(line.text + "\n")
		}

		switch {
		case strings.Contains(line.text, progressMarker):
			p, ok := ParseProgressLine(line.text)
			if !ok {
				continue
			}
			if p.Filename != "" {
				lastFilename = p.Filename
			}
			// Per-format "finished" events are folded into the single
			// processing notification below. Progress read after that
			// notification is stale: stdout and stderr are read concurrently.
			if p.Status == domain.FetchDownloading && !finishedSent {
				emit(p)
			}
		case strings.HasPrefix(line.text, processingMarker):
			if !finishedSent {
				finishedSent = true
				emit(domain.FetchProgress{Status: domain.FetchFinished, Filename: lastFilename})
			}
		case strings.HasPrefix(line.text, filepathMarker):
			outputPath = strings.TrimSpace(strings.TrimPrefix(line.text, filepathMarker))
		case strings.Contains(line.text, "ERROR:"):
			diagnostics = appendBounded(diagnostics, strings.TrimSpace(line.text))
		case line.stderr && strings.TrimSpace(line.text) != "":
			stderrTail = appendBounded(stderrTail, strings.TrimSpace(line.text))
		}
	}

	close(readersDone)
	waitErr := cmd.Wait()

	if abortErr != nil {
		if rawLog != nil {
			writeLogFooter(rawLog, false, "aborted: "+abortErr.Error())
		}
		f.logEvent("yt-dlp aborted", fetchID, req, zap.Error(abortErr))
		return "", fmt.Errorf("yt-dlp aborted: %w", abortErr)
	}

	if ctx.Err() != nil {
		if rawLog != nil {
			writeLogFooter(rawLog, false, ctx.Err().Error())
		}
		return "", fmt.Errorf("yt-dlp interrupted: %w", ctx.Err())
	}

	if waitErr != nil {
		detail := strings.Join(diagnostics, "; ")
		if detail == "" {
			detail = strings.Join(stderrTail, "; ")
		}
		if detail == "" {
			detail = waitErr.Error()
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if rawLog != nil {
			writeLogFooter(rawLog, false, detail)
		}
		f.logEvent("yt-dlp failed", fetchID, req, zap.Int("exit_code", exitCode), zap.String("detail", detail))
		return "", fmt.Errorf("yt-dlp exited with status %d: %s", exitCode, detail)
	}

	if !finishedSent {
		emit(domain.FetchProgress{Status: domain.FetchFinished, Filename: lastFilename})
		if abortErr != nil {
			return "", fmt.Errorf("yt-dlp aborted: %w", abortErr)
		}
	}

	if rawLog != nil {
		writeLogFooter(rawLog, true, "Downloaded: "+outputPath)
	}
	f.logEvent("yt-dlp finished", fetchID, req, zap.String("path", outputPath))
	return outputPath, nil
}

func (f *YTDLPFetcher) logEvent(msg, fetchID string, req domain.DownloadRequest, fields ...zap.Field) {
	if f.eventLogger == nil {
		return
	}
	fields = append([]zap.Field{
		zap.String("fetch_id", fetchID),
		zap.String("url", req.URL),
	}, fields...)
	f.eventLogger.LogDownloadEvent(msg, fields...)
}

func scanLines(r io.Reader, stderr bool, out chan<- outputLine, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- outputLine{text: scanner.Text(), stderr: stderr}
	}
	// Drain anything left so the process never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
}

func appendBounded(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxDiagnosticLines {
		lines = lines[len(lines)-maxDiagnosticLines:]
	}
	return lines
}

// openLogFile opens today's raw yt-dlp log
func (f *YTDLPFetcher) openLogFile() (*os.File, error) {
	if f.logsDir == "" {
		return nil, fmt.Errorf("logs directory not configured")
	}
	if err := os.MkdirAll(f.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	path := filepath.Join(f.logsDir, "ytdlp-"+time.Now().Format("20060102")+".log")
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func writeLogHeader(w io.Writer, id, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] Fetch: %s ===\n", timestamp, id)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}
