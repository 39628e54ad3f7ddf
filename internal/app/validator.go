package app

import (
	"strings"

	"github.com/yourusername/mediagrab-go/internal/domain"
)

// Validation messages shown to the user
const (
	MsgURLMissing    = "Error: URL missing"
	MsgFolderMissing = "Error: Folder missing"
)

func unsupportedModeMessage() string {
	names := make([]string, len(domain.SupportedModes))
	for i, m := range domain.SupportedModes {
		names[i] = string(m)
	}
	return "Error: Unsupported mode. Supported: " + strings.Join(names, ", ")
}

// Validate checks a url and mode before any work begins
func Validate(url, mode string) error {
	if strings.TrimSpace(url) == "" {
		return &domain.ValidationError{Message: MsgURLMissing}
	}
	if _, ok := domain.ParseMode(mode); !ok {
		return &domain.ValidationError{Message: unsupportedModeMessage()}
	}
	return nil
}

// ValidateRequest validates a full request and returns it with the url
// trimmed and the mode normalized
func ValidateRequest(req domain.DownloadRequest) (domain.DownloadRequest, error) {
	if err := Validate(req.URL, string(req.Mode)); err != nil {
		return req, err
	}
	if strings.TrimSpace(req.Destination) == "" {
		return req, &domain.ValidationError{Message: MsgFolderMissing}
	}

	mode, _ := domain.ParseMode(string(req.Mode))
	req.URL = strings.TrimSpace(req.URL)
	req.Mode = mode
	return req, nil
}

// ValidateMode normalizes a mode on its own, for operations that take no url
func ValidateMode(mode string) (domain.Mode, error) {
	m, ok := domain.ParseMode(mode)
	if !ok {
		return "", &domain.ValidationError{Message: unsupportedModeMessage()}
	}
	return m, nil
}
