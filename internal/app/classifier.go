package app

import (
	"errors"
	"os"
	"strings"
	"syscall"

	"github.com/yourusername/mediagrab-go/internal/domain"
)

// Display texts without a pattern entry
const (
	MsgUnknownError = "Error: Unknown"
	MsgCancelled    = "Download cancelled"
)

const cancelMarker = "cancelled by user"

type errorPattern struct {
	patterns  []string
	category  domain.ErrorCategory
	label     string
	appendRaw bool
}

// errorPatterns is matched in order against the lowercased error text; the
// first entry with a matching substring wins. Error texts carry file paths,
// so patterns are phrases rather than bare words or numbers, and the local
// filesystem entries come before the broad transcoder entry.
var errorPatterns = []errorPattern{
	{[]string{"is not a valid url", "unsupported url"}, domain.ErrorInvalidURL, "Not a valid URL", false},
	{[]string{"video unavailable", "this video is unavailable"}, domain.ErrorUnavailable, "Video is unavailable", false},
	{[]string{"private video", "video is private"}, domain.ErrorPrivate, "Video is private", false},
	{[]string{"age-restricted", "age restricted", "confirm your age", "inappropriate for some users"}, domain.ErrorAgeRestricted, "Video is age-restricted", false},
	{[]string{"geo-restricted", "geo restricted", "geo restriction", "available in your country", "not available in your region"}, domain.ErrorGeoBlocked, "Video is not available in your region", false},
	{[]string{"http error 403", "403: forbidden", "403 forbidden"}, domain.ErrorAccessDenied, "Access denied (403)", false},
	{[]string{"http error 404", "404: not found", "404 not found"}, domain.ErrorNotFound, "Video not found (404)", false},
	{[]string{"no formats", "requested format is not available", "no video formats"}, domain.ErrorNoFormats, "No video formats found", false},
	permissionPattern,
	diskFullPattern,
	fileMovedPattern,
	{[]string{"ffmpeg", "ffprobe", "codec", "transcode"}, domain.ErrorTranscoder, "Transcoding failed", true},
}

var (
	permissionPattern = errorPattern{[]string{"permission denied", "access is denied", "operation not permitted"}, domain.ErrorPermissionDenied, "Permission denied - check folder access", false}
	diskFullPattern   = errorPattern{[]string{"no space", "disk full", "not enough space"}, domain.ErrorDiskFull, "Not enough disk space", false}
	fileMovedPattern  = errorPattern{[]string{"no such file", "file not found", "cannot find the file"}, domain.ErrorFileMoved, "File not found - it may have been moved or deleted", false}
)

func (p errorPattern) classified() domain.ClassifiedError {
	return domain.ClassifiedError{Category: p.category, DisplayText: "Error: " + p.label}
}

// Classify reduces an error to a category and a display text. It never
// panics and never returns an empty display text.
func Classify(err error) domain.ClassifiedError {
	if err == nil {
		return domain.ClassifiedError{Category: domain.ErrorUnknown, DisplayText: MsgUnknownError}
	}
	if errors.Is(err, domain.ErrCancelled) {
		return domain.ClassifiedError{Category: domain.ErrorCancelled, DisplayText: MsgCancelled}
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return domain.ClassifiedError{Category: domain.ErrorUnknown, DisplayText: verr.Message}
	}

	// Filesystem failures are decided by the error chain, not by the paths
	// in their text
	switch {
	case errors.Is(err, os.ErrPermission):
		return permissionPattern.classified()
	case errors.Is(err, syscall.ENOSPC):
		return diskFullPattern.classified()
	case errors.Is(err, os.ErrNotExist):
		return fileMovedPattern.classified()
	}
	return ClassifyText(err.Error())
}

// ClassifyText classifies raw error text, such as engine output
func ClassifyText(text string) domain.ClassifiedError {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return domain.ClassifiedError{Category: domain.ErrorUnknown, DisplayText: MsgUnknownError}
	}

	lower := strings.ToLower(raw)
	if strings.Contains(lower, cancelMarker) {
		return domain.ClassifiedError{Category: domain.ErrorCancelled, DisplayText: MsgCancelled}
	}

	for _, p := range errorPatterns {
		for _, pattern := range p.patterns {
			if !strings.Contains(lower, pattern) {
				continue
			}
			display := "Error: " + p.label
			if p.appendRaw {
				display += ": " + raw
			}
			return domain.ClassifiedError{Category: p.category, DisplayText: display}
		}
	}

	return domain.ClassifiedError{Category: domain.ErrorUnknown, DisplayText: raw}
}
