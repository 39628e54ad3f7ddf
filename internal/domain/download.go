package domain

import (
	"errors"
	"strconv"
	"strings"
)

// Mode selects what a download produces
type Mode string

const (
	ModeAudio Mode = "audio"
	ModeVideo Mode = "video"
)

// SupportedModes lists the canonical modes in display order
var SupportedModes = []Mode{ModeAudio, ModeVideo}

// ParseMode normalizes a user-supplied mode. The container names mp3 and mp4
// are accepted as aliases for audio and video.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "audio", "mp3":
		return ModeAudio, true
	case "video", "mp4":
		return ModeVideo, true
	default:
		return "", false
	}
}

// Extension returns the file extension produced by the mode
func (m Mode) Extension() string {
	if m == ModeAudio {
		return "mp3"
	}
	return "mp4"
}

// DownloadRequest is one user submission. It is not modified after Submit.
type DownloadRequest struct {
	URL         string `json:"url"`
	Mode        Mode   `json:"mode"`
	Quality     string `json:"quality"`
	Destination string `json:"destination"`
}

// Phase identifies the stage a ProgressEvent belongs to
type Phase string

const (
	PhaseDownloading Phase = "downloading"
	PhaseProcessing  Phase = "processing"
	PhaseTranscoding Phase = "transcoding"
	PhaseDone        Phase = "done"
)

// ProgressEvent is forwarded to the observer as a request advances.
// Percent is only meaningful in PhaseDownloading.
type ProgressEvent struct {
	Phase         Phase  `json:"phase"`
	Percent       int    `json:"percent"`
	Indeterminate bool   `json:"indeterminate,omitempty"`
	Message       string `json:"message"`
}

// FetchStatus mirrors the engine's progress states
type FetchStatus string

const (
	FetchDownloading FetchStatus = "downloading"
	FetchFinished    FetchStatus = "finished"
	FetchError       FetchStatus = "error"
)

// FetchProgress is one snapshot reported by the fetch engine. Byte counts are
// zero when the engine did not report them.
type FetchProgress struct {
	Status             FetchStatus
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	Filename           string
}

// ProgressHook receives fetch snapshots. Returning an error aborts the fetch.
type ProgressHook func(FetchProgress) error

// ErrCancelled is returned when the user cancelled the request
var ErrCancelled = errors.New("download cancelled by user")

// ValidationError carries a user-facing validation message
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ComputePercent returns floor(downloaded/total*100) clamped to [0,100]. The
// exact total is preferred over the estimate; ok is false when neither is known.
func ComputePercent(downloaded, total, estimate int64) (percent int, ok bool) {
	if total <= 0 {
		total = estimate
	}
	if total <= 0 {
		return 0, false
	}
	if downloaded <= 0 {
		return 0, true
	}
	if downloaded >= total {
		return 100, true
	}
	return int(downloaded * 100 / total), true
}

// DefaultVideoHeight is used for unrecognized video quality labels
const DefaultVideoHeight = 720

var videoHeights = map[string]int{
	"360p":  360,
	"480p":  480,
	"720p":  720,
	"1080p": 1080,
	"1440p": 1440,
	"2k":    1440,
	"2160p": 2160,
	"4k":    2160,
}

// VideoHeight maps a resolution label such as "1080p" or "4K" to a pixel height
func VideoHeight(quality string) int {
	if h, ok := videoHeights[strings.ToLower(strings.TrimSpace(quality))]; ok {
		return h
	}
	return DefaultVideoHeight
}

// DefaultAudioBitrate is used for unrecognized audio quality labels (kbps)
const DefaultAudioBitrate = 192

// AudioBitrate parses labels like "192", "320k" or "128kbps" into kbps
func AudioBitrate(quality string) int {
	q := strings.ToLower(strings.TrimSpace(quality))
	q = strings.TrimSuffix(q, "kbps")
	q = strings.TrimSuffix(q, "k")
	n, err := strconv.Atoi(q)
	if err != nil || n < 32 || n > 512 {
		return DefaultAudioBitrate
	}
	return n
}
