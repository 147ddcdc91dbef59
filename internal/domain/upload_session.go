package domain

import "time"

// UploadSession binds an opaque token to a staged file between the inspect
// and commit steps. Sessions are in-memory only, single-use, and reaped after
// a fixed TTL if never consumed.
type UploadSession struct {
	Token          string    `json:"token"`
	StagedFilePath string    `json:"-"`
	OriginalName   string    `json:"original_name"`
	FileSizeBytes  int64     `json:"file_size_bytes"`
	Extension      string    `json:"extension"`
	SheetNames     []string  `json:"sheet_names"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
