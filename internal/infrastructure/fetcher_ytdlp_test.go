package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mediagrab-go/internal/domain"
)

func TestBuildFormatSelector(t *testing.T) {
	assert.Equal(t,
		"bestvideo[height<=1080][vcodec^=avc1][ext=mp4]+bestaudio[ext=m4a]/"+
			"bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/"+
			"bestvideo[height<=1080]+bestaudio/"+
			"best[height<=1080]/"+
			"best",
		BuildFormatSelector(1080))
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestBuildArgs_Video(t *testing.T) {
	f := NewYTDLPFetcher(domain.ToolsConfig{YTDLPBinary: "yt-dlp", FFmpegBinary: "ffmpeg"}, "", nil, nil)

	args := f.BuildArgs(domain.DownloadRequest{URL: "https://youtu.be/abc", Mode: domain.ModeVideo, Quality: "4K", Destination: "/out"})

	assert.Equal(t, BuildFormatSelector(2160), argValue(args, "-f"))
	assert.Equal(t, "mp4", argValue(args, "--merge-output-format"))
	assert.Equal(t, filepath.Join("/out", "%(title)s.%(ext)s"), argValue(args, "-o"))
	assert.Equal(t, "https://youtu.be/abc", args[len(args)-1])
	assert.NotContains(t, args, "--ffmpeg-location")
	assert.NotContains(t, args, "-x")
	assert.Contains(t, args, "--newline")
}

func TestBuildArgs_UnknownQualityDefaultsTo720(t *testing.T) {
	f := NewYTDLPFetcher(domain.ToolsConfig{YTDLPBinary: "yt-dlp"}, "", nil, nil)

	args := f.BuildArgs(domain.DownloadRequest{URL: "u", Mode: domain.ModeVideo, Quality: "potato", Destination: "/out"})

	assert.Equal(t, BuildFormatSelector(720), argValue(args, "-f"))
}

func TestBuildArgs_Audio(t *testing.T) {
	f := NewYTDLPFetcher(domain.ToolsConfig{YTDLPBinary: "yt-dlp", FFmpegBinary: "/opt/ffmpeg/bin/ffmpeg"}, "", nil, nil)

	args := f.BuildArgs(domain.DownloadRequest{URL: "https://youtu.be/abc", Mode: domain.ModeAudio, Quality: "320kbps", Destination: "/music"})

	assert.Equal(t, "bestaudio/best", argValue(args, "-f"))
	assert.Contains(t, args, "-x")
	assert.Equal(t, "mp3", argValue(args, "--audio-format"))
	assert.Equal(t, "320K", argValue(args, "--audio-quality"))
	assert.Contains(t, args, "--embed-metadata")
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", argValue(args, "--ffmpeg-location"))
}

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want domain.FetchProgress
		ok   bool
	}{
		{
			name: "exact total",
			line: "[mediagrab:progress]downloading|1024|4096|NA|/out/clip.f137.mp4",
			want: domain.FetchProgress{Status: domain.FetchDownloading, DownloadedBytes: 1024, TotalBytes: 4096, Filename: "/out/clip.f137.mp4"},
			ok:   true,
		},
		{
			name: "estimate as float",
			line: "[mediagrab:progress]downloading|500|NA|12345.6|/out/a|b.webm",
			want: domain.FetchProgress{Status: domain.FetchDownloading, DownloadedBytes: 500, TotalBytesEstimate: 12345, Filename: "/out/a|b.webm"},
			ok:   true,
		},
		{
			name: "finished",
			line: "[mediagrab:progress]finished|4096|4096|NA|NA",
			want: domain.FetchProgress{Status: domain.FetchFinished, DownloadedBytes: 4096, TotalBytes: 4096},
			ok:   true,
		},
		{name: "ordinary output", line: "[youtube] abc: Downloading webpage", ok: false},
		{name: "truncated", line: "[mediagrab:progress]downloading|1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProgressLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// fakeYTDLP writes a shell script standing in for yt-dlp
func fakeYTDLP(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestFetch_StreamsProgressAndReturnsPath(t *testing.T) {
	script := `echo "[youtube] abc: Downloading webpage"
echo "[mediagrab:progress]downloading|0|200|NA|$OUT/clip.f137.mp4" >&2
echo "[mediagrab:progress]downloading|100|200|NA|$OUT/clip.f137.mp4" >&2
echo "[mediagrab:progress]finished|200|200|NA|$OUT/clip.f137.mp4" >&2
echo "[mediagrab:progress]downloading|50|50|NA|$OUT/clip.f140.m4a" >&2
echo "[mediagrab:processing]abc" >&2
echo "[mediagrab:filepath]$OUT/clip.mp4" >&2
exit 0
`
	out := t.TempDir()
	t.Setenv("OUT", out)
	logsDir := t.TempDir()
	f := NewYTDLPFetcher(domain.ToolsConfig{YTDLPBinary: fakeYTDLP(t, script)}, logsDir, nil, nil)

	var events []domain.FetchProgress
	path, err := f.Fetch(context.Background(), domain.DownloadRequest{URL: "https://youtu.be/abc", Mode: domain.ModeVideo, Destination: out},
		func(p domain.FetchProgress) error {
			events = append(events, p)
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "clip.mp4"), path)
	require.Len(t, events, 4)
	assert.Equal(t, int64(100), events[1].DownloadedBytes)
	assert.Equal(t, domain.FetchDownloading, events[2].Status)
	assert.Equal(t, domain.FetchFinished, events[3].Status)
	assert.Equal(t, filepath.Join(out, "clip.f140.m4a"), events[3].Filename)

	logData, err := os.ReadFile(filepath.Join(logsDir, "ytdlp-"+time.Now().Format("20060102")+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "SUCCESS: Downloaded: "+filepath.Join(out, "clip.mp4"))
	assert.Contains(t, string(logData), "=== END ===")
}

func TestFetch_SynthesizesFinished(t *testing.T) {
	script := `echo "[mediagrab:progress]downloading|10|10|NA|/tmp/song.webm" >&2
echo "[mediagrab:filepath]/tmp/song.mp3"
`
	f := NewYTDLPFetcher(domain.ToolsConfig{YTDLPBinary: fakeYTDLP(t, script)}, "", nil, nil)

	var statuses []domain.FetchStatus
	path, err := f.Fetch(context.Background(), domain.DownloadRequest{URL: "u", Mode: domain.ModeAudio, Destination: t.TempDir()},
		func(p domain.FetchProgress) error {
			statuses = append(statuses, p.Status)
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, "/tmp/song.mp3", path)
	assert.Equal(t, []domain.FetchStatus{domain.FetchDownloading, domain.FetchFinished}, statuses)
}

func TestFetch_FailureCarriesDiagnostics(t *testing.T) {
	script := `echo "[youtube] abc: Downloading webpage"
echo "ERROR: [youtube] abc: Video unavailable. This video has been removed" >&2
exit 1
`
	f := NewYTDLPFetcher(domain.ToolsConfig{YTDLPBinary: fakeYTDLP(t, script)}, t.TempDir(), nil, nil)

	_, err := f.Fetch(context.Background(), domain.DownloadRequest{URL: "u", Mode: domain.ModeVideo, Destination: t.TempDir()},
		func(domain.FetchProgress) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 1")
	assert.Contains(t, err.Error(), "Video unavailable")
}

func TestFetch_HookAbortKillsProcess(t *testing.T) {
	script := `echo "[mediagrab:progress]downloading|1|100|NA|/tmp/clip.mp4" >&2
exec sleep 30
`
	f := NewYTDLPFetcher(domain.ToolsConfig{YTDLPBinary: fakeYTDLP(t, script)}, "", nil, nil)

	start := time.Now()
	calls := 0
	_, err := f.Fetch(context.Background(), domain.DownloadRequest{URL: "u", Mode: domain.ModeVideo, Destination: t.TempDir()},
		func(domain.FetchProgress) error {
			calls++
			return domain.ErrCancelled
		})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCancelled))
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestFetch_AbortDoesNotWaitForChildHoldingPipes(t *testing.T) {
	// The background sleep inherits stdout and stderr like yt-dlp's
	// external ffmpeg downloader does
	script := `sleep 30 &
echo "[mediagrab:progress]downloading|1|100|NA|/tmp/clip.mp4" >&2
wait
`
	f := NewYTDLPFetcher(domain.ToolsConfig{YTDLPBinary: fakeYTDLP(t, script)}, "", nil, nil)

	start := time.Now()
	_, err := f.Fetch(context.Background(), domain.DownloadRequest{URL: "u", Mode: domain.ModeVideo, Destination: t.TempDir()},
		func(domain.FetchProgress) error { return domain.ErrCancelled })

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestFetch_MissingBinary(t *testing.T) {
	f := NewYTDLPFetcher(domain.ToolsConfig{YTDLPBinary: filepath.Join(t.TempDir(), "absent")}, "", nil, nil)

	_, err := f.Fetch(context.Background(), domain.DownloadRequest{URL: "u", Mode: domain.ModeVideo, Destination: t.TempDir()},
		func(domain.FetchProgress) error { return nil })

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to start yt-dlp"))
}
