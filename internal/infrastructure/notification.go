package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/mediagrab-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends desktop notifications for request outcomes
type NotificationService struct {
	config  *domain.NotificationConfig
	logger  *zap.Logger
	execute func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
		execute: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(message), escapeAppleScript(title))
		err = n.execute("osascript", "-e", script)
	case "notify-send":
		err = n.execute("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyDownloadCompleted sends notification when a download completes
func (n *NotificationService) NotifyDownloadCompleted(url string, mode domain.Mode) {
	message := fmt.Sprintf("Saved %s: %s", mode.Extension(), truncateString(url, 30))
	n.Send("Download Completed", message)
}

// NotifyDownloadFailed sends notification when a download fails
func (n *NotificationService) NotifyDownloadFailed(url string, mode domain.Mode, reason string) {
	message := fmt.Sprintf("%s (%s)", truncateString(reason, 60), truncateString(url, 30))
	n.Send("Download Failed", message)
}

// NotifyDownloadCancelled sends notification when a download is cancelled
func (n *NotificationService) NotifyDownloadCancelled(url string, mode domain.Mode) {
	message := fmt.Sprintf("Cancelled: %s", truncateString(url, 30))
	n.Send("Download Cancelled", message)
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
