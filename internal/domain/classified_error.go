package domain

// ErrorCategory is the stable, user-facing class of a failure
type ErrorCategory string

const (
	ErrorInvalidURL       ErrorCategory = "invalid_url"
	ErrorUnavailable      ErrorCategory = "unavailable"
	ErrorPrivate          ErrorCategory = "private"
	ErrorAgeRestricted    ErrorCategory = "age_restricted"
	ErrorGeoBlocked       ErrorCategory = "geo_blocked"
	ErrorAccessDenied     ErrorCategory = "access_denied"
	ErrorNotFound         ErrorCategory = "not_found"
	ErrorNoFormats        ErrorCategory = "no_formats"
	ErrorTranscoder       ErrorCategory = "transcoder_error"
	ErrorPermissionDenied ErrorCategory = "permission_denied"
	ErrorDiskFull         ErrorCategory = "disk_full"
	ErrorFileMoved        ErrorCategory = "file_moved"
	ErrorCancelled        ErrorCategory = "cancelled"
	ErrorUnknown          ErrorCategory = "unknown"
)

// ClassifiedError is a failure reduced to a category and display text
type ClassifiedError struct {
	Category    ErrorCategory `json:"category"`
	DisplayText string        `json:"display_text"`
}
