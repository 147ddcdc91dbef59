package leadimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/admitra/leadflow/internal/domain"
	"github.com/admitra/leadflow/internal/repository"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when a commit references an unknown or
	// already consumed upload token.
	ErrSessionNotFound = errors.New("upload session not found or expired")

	// ErrNoUploadProvided is returned when a request carries neither file
	// data nor an upload token.
	ErrNoUploadProvided = errors.New("either a file or an uploadToken is required")

	// ErrUnreadableFile is returned when a staged upload cannot be parsed as
	// a spreadsheet or CSV.
	ErrUnreadableFile = errors.New("uploaded file could not be parsed")
)

// Service owns the bulk lead-import pipeline: staging uploads, previewing
// them, and running import jobs through a bounded worker queue.
type Service struct {
	leads      repository.LeadRepository
	jobs       repository.ImportJobRepository
	masterData repository.MasterDataRepository
	sessions   *SessionStore
	queue      *WorkerQueue

	uploadDir        string
	chunkSize        int
	concurrency      int
	queueCapacity    int
	previewRows      int
	previewMaxBytes  int64
	progressInterval time.Duration
	now              func() time.Time
}

// Option customizes the service.
type Option func(*Service)

// WithUploadDirectory sets where staged files live.
func WithUploadDirectory(dir string) Option {
	return func(s *Service) {
		if strings.TrimSpace(dir) != "" {
			s.uploadDir = filepath.Clean(dir)
		}
	}
}

// WithChunkSize sets the batch writer chunk size.
func WithChunkSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithWorkerConcurrency sets how many import jobs may run at once.
func WithWorkerConcurrency(concurrency int) Option {
	return func(s *Service) {
		if concurrency > 0 {
			s.concurrency = concurrency
		}
	}
}

// WithQueueCapacity bounds how many jobs may wait for a worker.
func WithQueueCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.queueCapacity = capacity
		}
	}
}

// WithPreviewRows sets how many rows per sheet inspect returns.
func WithPreviewRows(rows int) Option {
	return func(s *Service) {
		if rows > 0 {
			s.previewRows = rows
		}
	}
}

// WithPreviewSizeLimit sets the file size above which preview generation is
// skipped.
func WithPreviewSizeLimit(bytes int64) Option {
	return func(s *Service) {
		if bytes > 0 {
			s.previewMaxBytes = bytes
		}
	}
}

// WithProgressInterval throttles how often job progress is persisted.
func WithProgressInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.progressInterval = interval
		}
	}
}

// NewService wires the import pipeline. The session store is injected so
// inspect and commit share one registry; the worker queue is owned by the
// service and started with Start.
func NewService(
	leads repository.LeadRepository,
	jobs repository.ImportJobRepository,
	masterData repository.MasterDataRepository,
	sessions *SessionStore,
	opts ...Option,
) *Service {
	service := &Service{
		leads:            leads,
		jobs:             jobs,
		masterData:       masterData,
		sessions:         sessions,
		uploadDir:        filepath.Join(os.TempDir(), "leadflow-uploads"),
		chunkSize:        defaultChunkSize,
		concurrency:      1,
		queueCapacity:    100,
		previewRows:      5,
		previewMaxBytes:  55 * 1024 * 1024,
		progressInterval: 5 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.now == nil {
		service.now = time.Now
	}
	service.queue = NewWorkerQueue(service.concurrency, service.queueCapacity, service.runJob)
	return service
}

// Start launches the worker queue.
func (s *Service) Start(ctx context.Context) {
	if s.concurrency > 1 {
		// Enquiry sequence allocation is only collision-free with a single
		// active import; see EnquiryNumberGenerator.
		log.Printf("[import] worker concurrency is %d; enquiry sequencing assumes 1", s.concurrency)
	}
	s.queue.Start(ctx)
}

// Stop drains in-flight work.
func (s *Service) Stop() {
	s.queue.Stop()
}

// InspectRequest carries a freshly uploaded file to stage and preview.
type InspectRequest struct {
	OriginalName string
	Data         io.Reader
}

// InspectResult is the two-step upload handshake returned to clients.
type InspectResult struct {
	UploadToken           string                         `json:"uploadToken"`
	OriginalName          string                         `json:"originalName"`
	Size                  int64                          `json:"size"`
	FileType              string                         `json:"fileType"`
	SheetNames            []string                       `json:"sheetNames"`
	Previews              map[string][]map[string]string `json:"previews,omitempty"`
	PreviewAvailable      bool                           `json:"previewAvailable"`
	PreviewDisabledReason string                         `json:"previewDisabledReason,omitempty"`
	ExpiresInMs           int64                          `json:"expiresInMs"`
}

// Inspect stages the uploaded file, inventories its sheets, and returns a
// bounded preview plus a single-use session token for the commit step.
func (s *Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	if req.Data == nil {
		return InspectResult{}, ErrNoUploadProvided
	}

	staged, err := s.stageFile(req.OriginalName, req.Data)
	if err != nil {
		return InspectResult{}, err
	}

	sheets, err := ListSheets(staged.path, staged.ext)
	if err != nil {
		s.removeStagedFile(staged.path)
		return InspectResult{}, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	result := InspectResult{
		UploadToken:  staged.token,
		OriginalName: req.OriginalName,
		Size:         staged.size,
		FileType:     strings.TrimPrefix(staged.ext, "."),
		SheetNames:   sheets,
		ExpiresInMs:  s.sessions.TTL().Milliseconds(),
	}

	if staged.size > s.previewMaxBytes {
		result.PreviewAvailable = false
		result.PreviewDisabledReason = fmt.Sprintf(
			"file size %d exceeds preview limit of %d bytes", staged.size, s.previewMaxBytes)
	} else {
		previews, err := s.buildPreviews(staged.path, staged.ext, sheets)
		if err != nil {
			s.removeStagedFile(staged.path)
			return InspectResult{}, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		result.Previews = previews
		result.PreviewAvailable = true
	}

	s.sessions.Create(domain.UploadSession{
		Token:          staged.token,
		StagedFilePath: staged.path,
		OriginalName:   req.OriginalName,
		FileSizeBytes:  staged.size,
		Extension:      staged.ext,
		SheetNames:     sheets,
	})

	return result, nil
}

// CommitRequest starts an import from a prior inspect session or a fresh
// upload. Data is nil when UploadToken references a session.
type CommitRequest struct {
	UploadToken    string
	OriginalName   string
	Data           io.Reader
	SelectedSheets []string
	Source         string
	CreatedBy      string
}

// Commit creates a durable job record and enqueues execution, returning
// immediately; callers poll job status for the outcome.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (domain.ImportJob, error) {
	var session domain.UploadSession

	switch {
	case req.Data != nil:
		staged, err := s.stageFile(req.OriginalName, req.Data)
		if err != nil {
			return domain.ImportJob{}, err
		}
		sheets, err := ListSheets(staged.path, staged.ext)
		if err != nil {
			s.removeStagedFile(staged.path)
			return domain.ImportJob{}, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		session = domain.UploadSession{
			Token:          staged.token,
			StagedFilePath: staged.path,
			OriginalName:   req.OriginalName,
			FileSizeBytes:  staged.size,
			Extension:      staged.ext,
			SheetNames:     sheets,
		}
	case strings.TrimSpace(req.UploadToken) != "":
		consumed, ok := s.sessions.Consume(req.UploadToken)
		if !ok {
			return domain.ImportJob{}, ErrSessionNotFound
		}
		session = consumed
	default:
		return domain.ImportJob{}, ErrNoUploadProvided
	}

	selected := req.SelectedSheets
	if len(selected) == 0 {
		selected = session.SheetNames
	}

	uploadID, err := uuid.Parse(session.Token)
	if err != nil {
		uploadID = uuid.New()
	}

	job := domain.ImportJob{
		UploadID:       uploadID,
		BatchID:        uuid.New(),
		OriginalName:   session.OriginalName,
		FilePath:       session.StagedFilePath,
		FileSizeBytes:  session.FileSizeBytes,
		Extension:      session.Extension,
		SelectedSheets: selected,
		SourceLabel:    strings.TrimSpace(req.Source),
		Status:         domain.ImportJobStatusQueued,
		CreatedBy:      req.CreatedBy,
	}

	created, err := s.jobs.Create(ctx, job)
	if err != nil {
		s.removeStagedFile(session.StagedFilePath)
		return domain.ImportJob{}, fmt.Errorf("failed to create import job: %w", err)
	}

	if err := s.queue.Enqueue(created.ID); err != nil {
		s.failJob(ctx, created, domain.ImportJobStats{}, err)
		s.removeStagedFile(session.StagedFilePath)
		return domain.ImportJob{}, err
	}

	log.Printf("[import] job %s queued (%s, %d sheets)", created.ID, created.OriginalName, len(selected))
	return created, nil
}

// JobStatus returns a job with its captured error details.
func (s *Service) JobStatus(ctx context.Context, id uuid.UUID) (domain.ImportJob, []domain.ImportJobError, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return domain.ImportJob{}, nil, err
	}
	details, err := s.jobs.ListErrors(ctx, id, domain.MaxErrorDetails, 0)
	if err != nil {
		return domain.ImportJob{}, nil, err
	}
	return job, details, nil
}

// ListJobs returns recent jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, limit, offset int) ([]domain.ImportJob, error) {
	return s.jobs.List(ctx, limit, offset)
}

type stagedFile struct {
	token string
	path  string
	ext   string
	size  int64
}

// stageFile streams the upload to the staging directory without holding it
// in memory.
func (s *Service) stageFile(originalName string, data io.Reader) (stagedFile, error) {
	ext := normalizeExt(filepath.Ext(originalName))
	if ext != ".csv" && ext != ".xlsx" {
		return stagedFile{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return stagedFile{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	token := uuid.NewString()
	path := filepath.Join(s.uploadDir, token+ext)
	out, err := os.Create(path)
	if err != nil {
		return stagedFile{}, fmt.Errorf("failed to stage upload: %w", err)
	}

	size, err := io.Copy(out, data)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.removeStagedFile(path)
		return stagedFile{}, fmt.Errorf("failed to write staged upload: %w", err)
	}

	return stagedFile{token: token, path: path, ext: ext, size: size}, nil
}

func (s *Service) buildPreviews(path, ext string, sheets []string) (map[string][]map[string]string, error) {
	source, err := OpenRowSource(path, ext, sheets)
	if err != nil {
		return nil, err
	}
	defer func() { _ = source.Close() }()

	previews := make(map[string][]map[string]string, len(sheets))
	for _, sheet := range source.Sheets() {
		reader, err := source.SheetRows(sheet)
		if err != nil {
			return nil, err
		}

		rows := []map[string]string{}
		for len(rows) < s.previewRows {
			row, ok, err := reader.Next()
			if err != nil {
				reader.Close()
				return nil, err
			}
			if !ok {
				break
			}
			rows = append(rows, row.Values)
		}
		reader.Close()
		previews[sheet] = rows
	}
	return previews, nil
}

// runJob executes one queued job. The worker context only gates idle
// workers: once started, a job runs to completion or failure, so all
// persistence below uses a background context.
func (s *Service) runJob(_ context.Context, jobID uuid.UUID) {
	ctx := context.Background()

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		log.Printf("[import] failed to load job %s: %v", jobID, err)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[import] panic while processing job %s: %v", job.ID, rec)
			s.failJob(ctx, job, domain.ImportJobStats{}, fmt.Errorf("panic: %v", rec))
			s.removeStagedFile(job.FilePath)
		}
	}()

	if err := s.jobs.MarkProcessing(ctx, jobID); err != nil {
		if errors.Is(err, repository.ErrJobStatusConflict) {
			// Another worker claimed it; leave the staged file to them.
			log.Printf("[import] job %s not runnable, skipping", jobID)
		} else {
			log.Printf("[import] failed to mark job %s processing: %v", jobID, err)
		}
		return
	}
	defer s.removeStagedFile(job.FilePath)

	s.execute(ctx, job)
}

func (s *Service) execute(ctx context.Context, job domain.ImportJob) {
	start := s.now()
	stats := domain.ImportJobStats{SheetsProcessed: []string{}}
	collector := newErrorCollector(s.jobs, job.ID)

	// Master-data failure is never fatal; every row is conservatively
	// flagged for manual review instead.
	lookup, lookupErr := BuildGeoLookup(ctx, s.masterData)
	flagAll := lookupErr != nil
	if flagAll {
		log.Printf("[import] job %s: master data unavailable, flagging all rows: %v", job.ID, lookupErr)
	}

	generator, err := NewEnquiryNumberGenerator(ctx, s.leads, s.now())
	if err != nil {
		s.failJob(ctx, job, stats, err)
		return
	}

	source, err := OpenRowSource(job.FilePath, job.Extension, job.SelectedSheets)
	if err != nil {
		s.failJob(ctx, job, stats, err)
		return
	}
	defer func() { _ = source.Close() }()

	writer := NewBatchWriter(s.leads, s.chunkSize, func(ctx context.Context, sheet string, row int, message string) {
		stats.TotalErrors++
		rowNumber := row
		collector.Record(ctx, sheet, &rowNumber, message)
	})

	lastPersist := start
	persistProgress := func() {
		now := s.now()
		if now.Sub(lastPersist) < s.progressInterval {
			return
		}
		lastPersist = now
		stats.TotalSuccess = writer.Successes()
		stats.DurationMs = now.Sub(start).Milliseconds()
		if err := s.jobs.UpdateProgress(ctx, job.ID, stats); err != nil {
			log.Printf("[import] failed to persist progress for job %s: %v", job.ID, err)
		}
	}

	for _, sheet := range source.Sheets() {
		reader, err := source.SheetRows(sheet)
		if err != nil {
			collector.Record(ctx, sheet, nil, err.Error())
			continue
		}

		aborted := false
		for {
			row, ok, err := reader.Next()
			if err != nil {
				// Abandon this sheet; other selected sheets still process.
				collector.Record(ctx, sheet, nil, err.Error())
				aborted = true
				break
			}
			if !ok {
				break
			}

			lead, normErr := NormalizeRow(row.Values)
			if errors.Is(normErr, ErrRowSkipped) {
				continue
			}
			stats.TotalProcessed++
			if normErr != nil {
				stats.TotalErrors++
				rowNumber := row.Number
				collector.Record(ctx, sheet, &rowNumber, normErr.Error())
				continue
			}

			lead.EnquiryNumber = generator.Next()
			lead.UploadBatchID = job.BatchID
			lead.UploadedBy = job.CreatedBy
			if lead.Source == "" {
				lead.Source = job.SourceLabel
			}
			if flagAll {
				lead.NeedsManualUpdate = true
			} else {
				lead.NeedsManualUpdate = lookup.NeedsManualUpdate(&lead)
				lookup.AnnotateInstitution(&lead)
			}

			writer.Add(ctx, lead, sheet, row.Number)
			persistProgress()
		}

		reader.Close()
		if !aborted {
			stats.SheetsProcessed = append(stats.SheetsProcessed, sheet)
		}
	}

	writer.Flush(ctx)

	stats.TotalSuccess = writer.Successes()
	stats.DurationMs = s.now().Sub(start).Milliseconds()

	message := fmt.Sprintf("Imported %d of %d rows (%d errors)",
		stats.TotalSuccess, stats.TotalProcessed, stats.TotalErrors)
	if err := s.jobs.MarkCompleted(ctx, job.ID, stats, message); err != nil {
		log.Printf("[import] failed to mark job %s completed: %v", job.ID, err)
		return
	}
	log.Printf("[import] job %s completed: %s", job.ID, message)
}

func (s *Service) failJob(ctx context.Context, job domain.ImportJob, stats domain.ImportJobStats, err error) {
	if err == nil {
		return
	}
	message := truncateError(err)
	if recordErr := s.jobs.RecordError(ctx, domain.ImportJobError{JobID: job.ID, Error: message}); recordErr != nil {
		log.Printf("[import] failed to record failure detail for job %s: %v", job.ID, recordErr)
	}
	if markErr := s.jobs.MarkFailed(ctx, job.ID, stats, message); markErr != nil {
		log.Printf("[import] failed to mark job %s as failed: %v (original error: %v)", job.ID, markErr, err)
		return
	}
	log.Printf("[import] job %s failed: %v", job.ID, err)
}

func (s *Service) removeStagedFile(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[import] failed to remove staged file %s: %v", path, err)
	}
}

func truncateError(err error) string {
	message := err.Error()
	const limit = 500
	if len(message) > limit {
		return message[:limit]
	}
	return message
}
