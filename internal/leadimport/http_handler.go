package leadimport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/admitra/leadflow/internal/auth"
	"github.com/admitra/leadflow/internal/domain"
	"github.com/admitra/leadflow/internal/repository"
)

// maxUploadMemory bounds how much of a multipart body is held in memory;
// larger uploads spill to temp files.
const maxUploadMemory = 32 << 20

// Handler exposes the import pipeline over HTTP.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with the inspect, commit, and status
// endpoints.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/inspect"):
		h.handleInspect(w, r)
	case r.Method == http.MethodPost:
		h.handleCommit(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/jobs"):
		h.handleListJobs(w, r)
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/jobs/"):
		h.handleJobStatus(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) handleInspect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form data: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file required: %v", err))
		return
	}
	defer file.Close()

	result, err := h.service.Inspect(r.Context(), InspectRequest{
		OriginalName: header.Filename,
		Data:         file,
	})
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// commitPayload is the JSON body for committing a previously inspected
// upload.
type commitPayload struct {
	UploadToken    string   `json:"uploadToken"`
	SelectedSheets []string `json:"selectedSheets"`
	Source         string   `json:"source"`
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	req := CommitRequest{}
	if createdBy, ok := auth.UserIDFromContext(r.Context()); ok {
		req.CreatedBy = createdBy
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form data: %v", err))
			return
		}
		req.Source = r.FormValue("source")
		req.SelectedSheets = splitSheets(r.Form["sheets"])

		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			req.OriginalName = header.Filename
			req.Data = file
		} else {
			req.UploadToken = strings.TrimSpace(r.FormValue("uploadToken"))
		}
	} else {
		defer r.Body.Close()
		var payload commitPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
			return
		}
		req.UploadToken = strings.TrimSpace(payload.UploadToken)
		req.SelectedSheets = splitSheets(payload.SelectedSheets)
		req.Source = payload.Source
	}

	job, err := h.service.Commit(r.Context(), req)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// jobStatusResponse pairs a job with its captured error details.
type jobStatusResponse struct {
	domain.ImportJob
	ErrorDetails []domain.ImportJobError `json:"error_details"`
}

func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx == -1 || idx == len(path)-1 {
		writeError(w, http.StatusBadRequest, "missing job identifier")
		return
	}
	jobID, err := uuid.Parse(path[idx+1:])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid job identifier: %v", err))
		return
	}

	job, details, err := h.service.JobStatus(r.Context(), jobID)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, jobStatusResponse{ImportJob: job, ErrorDetails: details})
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 20
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "offset must be zero or positive")
			return
		}
		offset = parsed
	}

	jobs, err := h.service.ListJobs(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list jobs: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

// splitSheets accepts both repeated values and comma-separated lists.
func splitSheets(values []string) []string {
	sheets := make([]string, 0, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				sheets = append(sheets, trimmed)
			}
		}
	}
	return sheets
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, repository.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrNoMatchingSheets),
		errors.Is(err, ErrNoUploadProvided),
		errors.Is(err, ErrUnreadableFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
