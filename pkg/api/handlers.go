package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/polarized-clustering-service/pkg/experiment"
	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
)

// maxRequestBytes bounds inline edge lists
const maxRequestBytes = 64 << 20

// Handlers contains HTTP request handlers
type Handlers struct {
	jobService *JobService
	startedAt  time.Time
}

// NewHandlers creates new API handlers
func NewHandlers(jobService *JobService) *Handlers {
	return &Handlers{jobService: jobService, startedAt: time.Now()}
}

// SubmitJob handles POST /jobs
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.jobService.Submit(req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidRequest) || errors.Is(err, scg.ErrConfiguration) {
			status = http.StatusBadRequest
		} else if errors.Is(err, ErrServiceClosed) {
			status = http.StatusServiceUnavailable
		}
		log.Warn().Err(err).Msg("Job submission rejected")
		WriteErrorResponse(w, status, "Job submission failed", err)
		return
	}

	WriteAcceptedResponse(w, "Job queued", job)
}

// ListJobs handles GET /jobs
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Jobs retrieved", h.jobService.List())
}

// GetJob handles GET /jobs/{jobId}
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Get(jobID)
	if err != nil {
		writeJobError(w, err)
		return
	}

	WriteSuccessResponse(w, "Job retrieved", job)
}

// CancelJob handles DELETE /jobs/{jobId}
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Cancel(jobID)
	if err != nil {
		writeJobError(w, err)
		return
	}

	WriteSuccessResponse(w, "Job cancelled", job)
}

// ListRoundingStrategies handles GET /rounding-strategies
func (h *Handlers) ListRoundingStrategies(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Rounding strategies retrieved", scg.RoundingStrategies())
}

// ListDatasets handles GET /datasets
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Datasets retrieved", experiment.Datasets())
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Service is healthy", map[string]interface{}{
		"status":    "healthy",
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}

func writeJobError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrJobNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, "Job not found", err)
		return
	}
	WriteErrorResponse(w, http.StatusInternalServerError, "Job lookup failed", err)
}
