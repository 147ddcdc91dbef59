package leadimport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/admitra/leadflow/internal/domain"
	"github.com/admitra/leadflow/internal/repository"

	"github.com/google/uuid"
)

// stubLeadRepository is an in-memory repository.LeadRepository keyed by
// phone, mirroring the database unique constraint.
type stubLeadRepository struct {
	mu        sync.Mutex
	created   []domain.Lead
	byPhone   map[string]struct{}
	maxSeq    int64
	maxSeqErr error
	createErr error
	existsErr error
}

func newStubLeadRepository() *stubLeadRepository {
	return &stubLeadRepository{byPhone: make(map[string]struct{})}
}

func (s *stubLeadRepository) Create(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return domain.Lead{}, s.createErr
	}
	if _, dup := s.byPhone[lead.Phone]; dup {
		return domain.Lead{}, repository.ErrDuplicatePhone
	}
	lead.ID = uuid.New()
	lead.CreatedAt = time.Now()
	s.created = append(s.created, lead)
	s.byPhone[lead.Phone] = struct{}{}
	return lead, nil
}

func (s *stubLeadRepository) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.byPhone[phone]
	return ok, nil
}

func (s *stubLeadRepository) MaxEnquirySequence(_ context.Context, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxSeqErr != nil {
		return 0, s.maxSeqErr
	}
	return s.maxSeq, nil
}

func (s *stubLeadRepository) leads() []domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Lead(nil), s.created...)
}

// stubJobRepository keeps jobs in memory and enforces the same status
// transitions as the SQL implementation.
type stubJobRepository struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]domain.ImportJob
	details []domain.ImportJobError

	createErr error
	recordErr error
}

func newStubJobRepository() *stubJobRepository {
	return &stubJobRepository{jobs: make(map[uuid.UUID]domain.ImportJob)}
}

func (s *stubJobRepository) Create(_ context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return domain.ImportJob{}, s.createErr
	}
	job.ID = uuid.New()
	job.Status = domain.ImportJobStatusQueued
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	s.jobs[job.ID] = job
	return job, nil
}

func (s *stubJobRepository) GetByID(_ context.Context, id uuid.UUID) (domain.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ImportJob{}, repository.ErrJobNotFound
	}
	return job, nil
}

func (s *stubJobRepository) List(_ context.Context, limit, offset int) ([]domain.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]domain.ImportJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	if offset >= len(jobs) {
		return nil, nil
	}
	jobs = jobs[offset:]
	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (s *stubJobRepository) MarkProcessing(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return repository.ErrJobNotFound
	}
	if job.Status != domain.ImportJobStatusQueued {
		return repository.ErrJobStatusConflict
	}
	now := time.Now()
	job.Status = domain.ImportJobStatusProcessing
	job.StartedAt = &now
	job.UpdatedAt = now
	s.jobs[id] = job
	return nil
}

func (s *stubJobRepository) UpdateProgress(_ context.Context, id uuid.UUID, stats domain.ImportJobStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return repository.ErrJobNotFound
	}
	job.Stats = stats
	job.UpdatedAt = time.Now()
	s.jobs[id] = job
	return nil
}

func (s *stubJobRepository) MarkCompleted(_ context.Context, id uuid.UUID, stats domain.ImportJobStats, message string) error {
	return s.markTerminal(id, domain.ImportJobStatusCompleted, stats, message)
}

func (s *stubJobRepository) MarkFailed(_ context.Context, id uuid.UUID, stats domain.ImportJobStats, message string) error {
	return s.markTerminal(id, domain.ImportJobStatusFailed, stats, message)
}

func (s *stubJobRepository) markTerminal(id uuid.UUID, status domain.ImportJobStatus, stats domain.ImportJobStats, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return repository.ErrJobNotFound
	}
	if job.Status.Terminal() {
		return repository.ErrJobStatusConflict
	}
	now := time.Now()
	job.Status = status
	job.Stats = stats
	job.Message = message
	job.CompletedAt = &now
	job.UpdatedAt = now
	s.jobs[id] = job
	return nil
}

func (s *stubJobRepository) RecordError(_ context.Context, entry domain.ImportJobError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	s.details = append(s.details, entry)
	return nil
}

func (s *stubJobRepository) ListErrors(_ context.Context, jobID uuid.UUID, limit, offset int) ([]domain.ImportJobError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]domain.ImportJobError, 0, len(s.details))
	for _, detail := range s.details {
		if detail.JobID == jobID {
			matched = append(matched, detail)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *stubJobRepository) job(id uuid.UUID) (domain.ImportJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok
}

func (s *stubJobRepository) errorsFor(id uuid.UUID) []domain.ImportJobError {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]domain.ImportJobError, 0)
	for _, detail := range s.details {
		if detail.JobID == id {
			matched = append(matched, detail)
		}
	}
	return matched
}

// stubMasterDataRepository serves fixed gazetteer slices, or a forced error.
type stubMasterDataRepository struct {
	states    []domain.State
	districts []domain.District
	mandals   []domain.Mandal
	schools   []domain.School
	colleges  []domain.College
	err       error
}

func (s *stubMasterDataRepository) ListStates(context.Context) ([]domain.State, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.states, nil
}

func (s *stubMasterDataRepository) ListDistricts(context.Context) ([]domain.District, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.districts, nil
}

func (s *stubMasterDataRepository) ListMandals(context.Context) ([]domain.Mandal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.mandals, nil
}

func (s *stubMasterDataRepository) ListSchools(context.Context) ([]domain.School, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.schools, nil
}

func (s *stubMasterDataRepository) ListColleges(context.Context) ([]domain.College, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.colleges, nil
}

// andhraMasterData builds a small but realistic gazetteer used across tests.
func andhraMasterData() *stubMasterDataRepository {
	ap := domain.State{ID: uuid.New(), Name: "Andhra Pradesh", IsActive: true}
	ts := domain.State{ID: uuid.New(), Name: "Telangana", IsActive: true}

	kakinada := domain.District{ID: uuid.New(), StateID: ap.ID, Name: "Kakinada", IsActive: true}
	vizag := domain.District{ID: uuid.New(), StateID: ap.ID, Name: "Visakhapatnam", IsActive: true}

	pithapuram := domain.Mandal{ID: uuid.New(), DistrictID: kakinada.ID, Name: "Pithapuram", IsActive: true}
	anakapalle := domain.Mandal{ID: uuid.New(), DistrictID: vizag.ID, Name: "Anakapalle", IsActive: true}

	return &stubMasterDataRepository{
		states:    []domain.State{ap, ts},
		districts: []domain.District{kakinada, vizag},
		mandals:   []domain.Mandal{pithapuram, anakapalle},
		schools:   []domain.School{{ID: uuid.New(), Name: "ZPHS Pithapuram", IsActive: true}},
		colleges:  []domain.College{{ID: uuid.New(), Name: "Aditya Junior College", IsActive: true}},
	}
}

var errStubFailure = errors.New("stub failure")
