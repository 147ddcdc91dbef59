package leadimport

import (
	"context"
	"fmt"
	"log"

	"github.com/admitra/leadflow/internal/domain"
	"github.com/admitra/leadflow/internal/repository"

	"github.com/google/uuid"
)

// defaultChunkSize bounds how many normalized rows are buffered before a
// flush.
const defaultChunkSize = 2000

// errorCollector persists per-row failure details incrementally, bounded at
// domain.MaxErrorDetails per job. Failures past the cap are still counted by
// the caller but no longer recorded in detail.
type errorCollector struct {
	jobs     repository.ImportJobRepository
	jobID    uuid.UUID
	recorded int
	dropped  int
}

func newErrorCollector(jobs repository.ImportJobRepository, jobID uuid.UUID) *errorCollector {
	return &errorCollector{jobs: jobs, jobID: jobID}
}

func (c *errorCollector) Record(ctx context.Context, sheet string, rowNumber *int, message string) {
	if c.recorded >= domain.MaxErrorDetails {
		c.dropped++
		return
	}
	entry := domain.ImportJobError{
		JobID:     c.jobID,
		Sheet:     sheet,
		RowNumber: rowNumber,
		Error:     message,
	}
	if err := c.jobs.RecordError(ctx, entry); err != nil {
		log.Printf("[import] failed to record error detail for job %s: %v", c.jobID, err)
		return
	}
	c.recorded++
}

type pendingLead struct {
	lead  domain.Lead
	sheet string
	row   int
}

// BatchWriter accumulates normalized leads into bounded chunks and writes
// each chunk with per-record failure isolation: a conflicting or malformed
// record never aborts its siblings. Chunks flush strictly in arrival order;
// chunk N+1 does not begin before chunk N has fully settled.
type BatchWriter struct {
	leads     repository.LeadRepository
	chunkSize int
	pending   []pendingLead
	seen      map[string]struct{}
	flushes   int
	success   int
	failures  int
	onError   func(ctx context.Context, sheet string, row int, message string)
}

// NewBatchWriter creates a writer flushing every chunkSize rows. onError is
// invoked once per rejected record.
func NewBatchWriter(leads repository.LeadRepository, chunkSize int, onError func(ctx context.Context, sheet string, row int, message string)) *BatchWriter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &BatchWriter{
		leads:     leads,
		chunkSize: chunkSize,
		pending:   make([]pendingLead, 0, chunkSize),
		seen:      make(map[string]struct{}),
		onError:   onError,
	}
}

// Add buffers one lead, flushing when the chunk is full.
func (w *BatchWriter) Add(ctx context.Context, lead domain.Lead, sheet string, row int) {
	w.pending = append(w.pending, pendingLead{lead: lead, sheet: sheet, row: row})
	if len(w.pending) >= w.chunkSize {
		w.flushChunk(ctx)
	}
}

// Flush writes any buffered remainder.
func (w *BatchWriter) Flush(ctx context.Context) {
	if len(w.pending) > 0 {
		w.flushChunk(ctx)
	}
}

// Successes reports how many records were written.
func (w *BatchWriter) Successes() int { return w.success }

// Failures reports how many records were rejected.
func (w *BatchWriter) Failures() int { return w.failures }

// Flushes reports how many chunk flushes were issued.
func (w *BatchWriter) Flushes() int { return w.flushes }

func (w *BatchWriter) flushChunk(ctx context.Context) {
	chunk := w.pending
	w.pending = w.pending[:0]
	w.flushes++

	for _, item := range chunk {
		if err := w.writeOne(ctx, item.lead); err != nil {
			w.failures++
			if w.onError != nil {
				w.onError(ctx, item.sheet, item.row, err.Error())
			}
			continue
		}
		w.success++
	}
}

func (w *BatchWriter) writeOne(ctx context.Context, lead domain.Lead) error {
	phone := lead.Phone
	if phone != "" {
		if _, dup := w.seen[phone]; dup {
			return fmt.Errorf("%w: %s", repository.ErrDuplicatePhone, phone)
		}
		exists, err := w.leads.ExistsByPhone(ctx, phone)
		if err != nil {
			return fmt.Errorf("failed to check duplicate phone: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %s", repository.ErrDuplicatePhone, phone)
		}
	}

	if _, err := w.leads.Create(ctx, lead); err != nil {
		return err
	}
	if phone != "" {
		w.seen[phone] = struct{}{}
	}
	return nil
}
