package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportJobStatus captures lifecycle state for a bulk lead import.
type ImportJobStatus string

const (
	ImportJobStatusQueued     ImportJobStatus = "queued"
	ImportJobStatusProcessing ImportJobStatus = "processing"
	ImportJobStatusCompleted  ImportJobStatus = "completed"
	ImportJobStatusFailed     ImportJobStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s ImportJobStatus) Terminal() bool {
	return s == ImportJobStatusCompleted || s == ImportJobStatusFailed
}

// ImportJobStats aggregates row-level outcomes for one job. The invariant
// TotalSuccess + TotalErrors <= TotalProcessed holds at every snapshot.
type ImportJobStats struct {
	TotalProcessed  int      `json:"total_processed"`
	TotalSuccess    int      `json:"total_success"`
	TotalErrors     int      `json:"total_errors"`
	SheetsProcessed []string `json:"sheets_processed"`
	DurationMs      int64    `json:"duration_ms"`
}

// ImportJob mirrors one persisted import execution against one staged file.
// Rows are never deleted by the pipeline; they are retained for audit.
type ImportJob struct {
	ID             uuid.UUID       `json:"id"`
	UploadID       uuid.UUID       `json:"upload_id"`
	BatchID        uuid.UUID       `json:"batch_id"`
	OriginalName   string          `json:"original_name"`
	FilePath       string          `json:"file_path"`
	FileSizeBytes  int64           `json:"file_size_bytes"`
	Extension      string          `json:"extension"`
	SelectedSheets []string        `json:"selected_sheets"`
	SourceLabel    string          `json:"source_label,omitempty"`
	Status         ImportJobStatus `json:"status"`
	CreatedBy      string          `json:"created_by,omitempty"`
	Message        string          `json:"message,omitempty"`
	Stats          ImportJobStats  `json:"stats"`
	CreatedAt      time.Time       `json:"created_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ImportJobError is one captured row or sheet level failure. At most 200 are
// recorded per job; failures beyond the cap are counted but not detailed.
type ImportJobError struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	Sheet     string    `json:"sheet,omitempty"`
	RowNumber *int      `json:"row_number,omitempty"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxErrorDetails bounds how many error details are persisted per job.
const MaxErrorDetails = 200
