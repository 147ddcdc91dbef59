package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/admitra/leadflow/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrJobNotFound indicates the requested import job does not exist.
var ErrJobNotFound = errors.New("import job not found")

// ErrJobStatusConflict indicates a job cannot transition to the requested
// state; status transitions are monotonic.
var ErrJobStatusConflict = errors.New("import job status conflict")

type importJobRepository struct {
	pool *pgxpool.Pool
}

// NewImportJobRepository wires an import job repository backed by pgxpool.
func NewImportJobRepository(pool *pgxpool.Pool) ImportJobRepository {
	return &importJobRepository{pool: pool}
}

const importJobColumns = `id, upload_id, batch_id, original_name, file_path,
	file_size_bytes, extension, selected_sheets, source_label, status,
	created_by, message, total_processed, total_success, total_errors,
	sheets_processed, duration_ms, created_at, started_at, completed_at,
	updated_at`

func (r *importJobRepository) Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	if r.pool == nil {
		return domain.ImportJob{}, fmt.Errorf("import job repository not initialized")
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = domain.ImportJobStatusQueued
	}

	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO import_jobs (
			id, upload_id, batch_id, original_name, file_path,
			file_size_bytes, extension, selected_sheets, source_label,
			status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		job.ID,
		job.UploadID,
		job.BatchID,
		job.OriginalName,
		job.FilePath,
		job.FileSizeBytes,
		job.Extension,
		job.SelectedSheets,
		job.SourceLabel,
		job.Status,
		job.CreatedBy,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return domain.ImportJob{}, fmt.Errorf("failed to create import job: %w", err)
	}

	return job, nil
}

func (r *importJobRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error) {
	if r.pool == nil {
		return domain.ImportJob{}, fmt.Errorf("import job repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT `+importJobColumns+` FROM import_jobs WHERE id = $1`,
		id,
	)
	job, err := scanImportJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ImportJob{}, ErrJobNotFound
	}
	if err != nil {
		return domain.ImportJob{}, fmt.Errorf("failed to get import job: %w", err)
	}
	return job, nil
}

func (r *importJobRepository) List(ctx context.Context, limit int, offset int) ([]domain.ImportJob, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("import job repository not initialized")
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+importJobColumns+`
		 FROM import_jobs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.ImportJob{}
	for rows.Next() {
		job, scanErr := scanImportJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan import job: %w", scanErr)
		}
		jobs = append(jobs, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import jobs: %w", rowsErr)
	}

	return jobs, nil
}

func (r *importJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	if r.pool == nil {
		return fmt.Errorf("import job repository not initialized")
	}

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs
		 SET status = $2, started_at = now(), updated_at = now()
		 WHERE id = $1 AND status = $3`,
		id,
		domain.ImportJobStatusProcessing,
		domain.ImportJobStatusQueued,
	)
	if err != nil {
		return fmt.Errorf("failed to mark import job processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobStatusConflict
	}
	return nil
}

func (r *importJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, stats domain.ImportJobStats) error {
	if r.pool == nil {
		return fmt.Errorf("import job repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs
		 SET total_processed = $2, total_success = $3, total_errors = $4,
		     sheets_processed = $5, duration_ms = $6, updated_at = now()
		 WHERE id = $1`,
		id,
		stats.TotalProcessed,
		stats.TotalSuccess,
		stats.TotalErrors,
		sheetsOrEmpty(stats.SheetsProcessed),
		stats.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to update import job progress: %w", err)
	}
	return nil
}

func (r *importJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, stats domain.ImportJobStats, message string) error {
	return r.markTerminal(ctx, id, domain.ImportJobStatusCompleted, stats, message)
}

func (r *importJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, stats domain.ImportJobStats, message string) error {
	return r.markTerminal(ctx, id, domain.ImportJobStatusFailed, stats, message)
}

func (r *importJobRepository) markTerminal(ctx context.Context, id uuid.UUID, status domain.ImportJobStatus, stats domain.ImportJobStats, message string) error {
	if r.pool == nil {
		return fmt.Errorf("import job repository not initialized")
	}

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs
		 SET status = $2, message = $3,
		     total_processed = $4, total_success = $5, total_errors = $6,
		     sheets_processed = $7, duration_ms = $8,
		     completed_at = now(), updated_at = now()
		 WHERE id = $1 AND status IN ($9, $10)`,
		id,
		status,
		message,
		stats.TotalProcessed,
		stats.TotalSuccess,
		stats.TotalErrors,
		sheetsOrEmpty(stats.SheetsProcessed),
		stats.DurationMs,
		domain.ImportJobStatusQueued,
		domain.ImportJobStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to mark import job %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobStatusConflict
	}
	return nil
}

func (r *importJobRepository) RecordError(ctx context.Context, entry domain.ImportJobError) error {
	if r.pool == nil {
		return fmt.Errorf("import job repository not initialized")
	}

	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO import_job_errors (job_id, sheet, row_number, error_message)
		 VALUES ($1, $2, $3, $4)`,
		entry.JobID,
		entry.Sheet,
		rowNumber,
		entry.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record import job error: %w", err)
	}
	return nil
}

func (r *importJobRepository) ListErrors(ctx context.Context, jobID uuid.UUID, limit int, offset int) ([]domain.ImportJobError, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("import job repository not initialized")
	}

	if limit <= 0 {
		limit = domain.MaxErrorDetails
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, job_id, sheet, row_number, error_message, created_at
		 FROM import_job_errors
		 WHERE job_id = $1
		 ORDER BY created_at ASC, id ASC
		 LIMIT $2 OFFSET $3`,
		jobID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import job errors: %w", err)
	}
	defer rows.Close()

	entries := []domain.ImportJobError{}
	for rows.Next() {
		var (
			entry     domain.ImportJobError
			rowNumber pgtype.Int4
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.JobID,
			&entry.Sheet,
			&rowNumber,
			&entry.Error,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan import job error: %w", scanErr)
		}
		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}
		entries = append(entries, entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import job errors: %w", rowsErr)
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImportJob(row rowScanner) (domain.ImportJob, error) {
	var (
		job         domain.ImportJob
		startedAt   pgtype.Timestamptz
		completedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&job.ID,
		&job.UploadID,
		&job.BatchID,
		&job.OriginalName,
		&job.FilePath,
		&job.FileSizeBytes,
		&job.Extension,
		&job.SelectedSheets,
		&job.SourceLabel,
		&job.Status,
		&job.CreatedBy,
		&job.Message,
		&job.Stats.TotalProcessed,
		&job.Stats.TotalSuccess,
		&job.Stats.TotalErrors,
		&job.Stats.SheetsProcessed,
		&job.Stats.DurationMs,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return domain.ImportJob{}, err
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return job, nil
}

func sheetsOrEmpty(sheets []string) []string {
	if sheets == nil {
		return []string{}
	}
	return sheets
}
