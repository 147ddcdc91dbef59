package repository

import (
	"context"

	"github.com/admitra/leadflow/internal/domain"

	"github.com/google/uuid"
)

// LeadRepository defines the persistence operations the import pipeline
// needs for leads. The duplicate-phone check is a point-in-time read; callers
// own the read-then-write race documented in the import design.
type LeadRepository interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	// MaxEnquirySequence returns the highest numeric suffix among enquiry
	// numbers starting with prefix, or 0 when none exist.
	MaxEnquirySequence(ctx context.Context, prefix string) (int64, error)
}

// ImportJobRepository defines the interface for import job lifecycle storage.
type ImportJobRepository interface {
	Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error)
	List(ctx context.Context, limit int, offset int) ([]domain.ImportJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	UpdateProgress(ctx context.Context, id uuid.UUID, stats domain.ImportJobStats) error
	MarkCompleted(ctx context.Context, id uuid.UUID, stats domain.ImportJobStats, message string) error
	MarkFailed(ctx context.Context, id uuid.UUID, stats domain.ImportJobStats, message string) error
	RecordError(ctx context.Context, entry domain.ImportJobError) error
	ListErrors(ctx context.Context, jobID uuid.UUID, limit int, offset int) ([]domain.ImportJobError, error)
}

// MasterDataRepository exposes the gazetteer read-only. Every listing returns
// active rows in primary-key order so fuzzy matching sees a stable candidate
// sequence.
type MasterDataRepository interface {
	ListStates(ctx context.Context) ([]domain.State, error)
	ListDistricts(ctx context.Context) ([]domain.District, error)
	ListMandals(ctx context.Context) ([]domain.Mandal, error)
	ListSchools(ctx context.Context) ([]domain.School, error)
	ListColleges(ctx context.Context) ([]domain.College, error)
}
