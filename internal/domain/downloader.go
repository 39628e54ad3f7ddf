package domain

import "context"

// Fetcher retrieves remote media into the request's destination
type Fetcher interface {
	// Fetch runs on the calling goroutine and returns the final file path
	// when the engine reports one. A hook error aborts the transfer and is
	// returned wrapped.
	Fetch(ctx context.Context, req DownloadRequest, hook ProgressHook) (string, error)
}

// VideoProcessor makes a downloaded video playable with the target codec
type VideoProcessor interface {
	EnsureCompatible(ctx context.Context, path string, encoder EncoderChoice) error
}

// EncoderSource provides the encoder to use for the next transcode
type EncoderSource interface {
	Current() EncoderChoice
}

// Notifier reports request outcomes outside the application
type Notifier interface {
	NotifyDownloadCompleted(url string, mode Mode)
	NotifyDownloadFailed(url string, mode Mode, reason string)
	NotifyDownloadCancelled(url string, mode Mode)
}

// MetadataStore reads and writes audio/video tags. Failures are reported as
// empty strings or false.
type MetadataStore interface {
	GetTitle(path string) string
	SetAudioTags(path, title, artist, album string) bool
	SetVideoTags(path, title, artist, album string) bool
}

// Renamer renames a file inside a directory after sanitizing the new name
type Renamer interface {
	Rename(oldPath, newName, dir string) (string, error)
}
