//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediagrab-go/internal/domain"
)

// ffmpegScript copies the -i input to the last argument, so encoder probes
// against lavfi sources fail and only CPU is available
const ffmpegScript = `in=""
last=""
while [ $# -gt 0 ]; do
  case "$1" in
    -i) shift; in="$1" ;;
  esac
  last="$1"
  shift
done
[ -f "$in" ] || exit 1
cp "$in" "$last"
`

const ffprobeScript = `echo '{"streams":[{"codec_name":"vp9","width":1280,"height":720,"avg_frame_rate":"30/1"}]}'
`

// ytdlpScript writes a small file into the directory of the -o template and
// reports progress the way the real engine does with our templates
const ytdlpScript = `out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) shift; out=$(dirname "$1") ;;
  esac
  shift
done
echo "[mediagrab:progress]downloading|0|100|NA|$out/clip.webm" >&2
echo "[mediagrab:progress]downloading|50|100|NA|$out/clip.webm" >&2
[ -n "$SLOW" ] && sleep 1 && echo "[mediagrab:progress]downloading|60|100|NA|$out/clip.webm" >&2 && sleep 30
echo "[mediagrab:progress]finished|100|100|NA|$out/clip.webm" >&2
printf 'media' > "$out/clip.mp4"
echo "[mediagrab:processing]abc" >&2
echo "[mediagrab:filepath]$out/clip.mp4" >&2
`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

// fakeTools installs stand-ins for yt-dlp, ffmpeg and ffprobe
func fakeTools(t *testing.T) domain.ToolsConfig {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-ins require a POSIX shell")
	}
	dir := t.TempDir()
	return domain.ToolsConfig{
		YTDLPBinary:   writeScript(t, dir, "yt-dlp", ytdlpScript),
		FFmpegBinary:  writeScript(t, dir, "ffmpeg", ffmpegScript),
		FFprobeBinary: writeScript(t, dir, "ffprobe", ffprobeScript),
	}
}
