package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus is the outcome of a download attempt
type RecordStatus string

const (
	RecordRunning   RecordStatus = "running"
	RecordCompleted RecordStatus = "completed"
	RecordFailed    RecordStatus = "failed"
	RecordCancelled RecordStatus = "cancelled"
)

// DownloadRecord is the persisted history of one download attempt
type DownloadRecord struct {
	ID            string        `json:"id" gorm:"primaryKey"`
	URL           string        `json:"url" gorm:"not null"`
	Mode          Mode          `json:"mode" gorm:"not null"`
	Quality       string        `json:"quality"`
	Destination   string        `json:"destination"`
	Status        RecordStatus  `json:"status" gorm:"not null;index"`
	ErrorCategory ErrorCategory `json:"error_category,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	FilePath      string        `json:"file_path,omitempty"`
	Encoder       string        `json:"encoder,omitempty"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (DownloadRecord) TableName() string {
	return "download_history"
}

// NewDownloadRecord creates a running record for a request
func NewDownloadRecord(req DownloadRequest) *DownloadRecord {
	now := time.Now()
	return &DownloadRecord{
		ID:          uuid.New().String(),
		URL:         req.URL,
		Mode:        req.Mode,
		Quality:     req.Quality,
		Destination: req.Destination,
		Status:      RecordRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkCompleted marks the attempt as completed
func (r *DownloadRecord) MarkCompleted(filePath string) {
	r.Status = RecordCompleted
	if filePath != "" {
		r.FilePath = filePath
	}
	r.finish()
}

// MarkFailed marks the attempt as failed with its classification
func (r *DownloadRecord) MarkFailed(classified ClassifiedError) {
	r.Status = RecordFailed
	r.ErrorCategory = classified.Category
	r.ErrorMessage = classified.DisplayText
	r.finish()
}

// MarkCancelled marks the attempt as cancelled by the user
func (r *DownloadRecord) MarkCancelled() {
	r.Status = RecordCancelled
	r.ErrorCategory = ErrorCancelled
	r.finish()
}

func (r *DownloadRecord) finish() {
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// IsTerminal checks if the attempt has finished
func (r *DownloadRecord) IsTerminal() bool {
	return r.Status != RecordRunning
}

// HistoryRepository defines the interface for download history persistence
type HistoryRepository interface {
	// Create stores a new record
	Create(record *DownloadRecord) error

	// Update saves an existing record
	Update(record *DownloadRecord) error

	// FindByID finds a record by ID
	FindByID(id string) (*DownloadRecord, error)

	// FindRecent returns up to limit records, newest first
	FindRecent(limit int) ([]*DownloadRecord, error)

	// GetStats returns counts by status
	GetStats() (*HistoryStats, error)
}

// HistoryStats represents download history statistics
type HistoryStats struct {
	Total     int64 `json:"total"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}
