package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/polarized-clustering-service/pkg/evaluation"
	"github.com/gilchrisn/polarized-clustering-service/pkg/experiment"
	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrInvalidRequest = errors.New("invalid job request")
	ErrServiceClosed  = errors.New("job service closed")
)

// JobService runs clustering jobs in the background on a bounded pool of
// workers and keeps finished jobs for the configured result TTL
type JobService struct {
	config          *scg.Config
	metrics         *Metrics
	jobs            map[string]*Job
	cancels         map[string]context.CancelFunc
	workers         chan struct{}
	mutex           sync.RWMutex
	jobTTL          time.Duration
	jobTimeout      time.Duration
	cleanupInterval time.Duration

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewJobService creates a new job service. Close releases its goroutines.
func NewJobService(config *scg.Config, metrics *Metrics) *JobService {
	workers := config.JobWorkers()
	if workers < 1 {
		workers = 1
	}
	ctx, stop := context.WithCancel(context.Background())
	s := &JobService{
		config:          config,
		metrics:         metrics,
		jobs:            make(map[string]*Job),
		cancels:         make(map[string]context.CancelFunc),
		workers:         make(chan struct{}, workers),
		jobTTL:          config.ResultTTL(),
		jobTimeout:      10 * time.Minute,
		cleanupInterval: 5 * time.Minute,
		ctx:             ctx,
		stop:            stop,
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Submit validates req and queues a new job. Inline edge lists are parsed
// here so malformed input is rejected before a job exists.
func (s *JobService) Submit(req JobRequest) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	config, err := s.jobConfig(req)
	if err != nil {
		return nil, err
	}

	var graph *signed.Graph
	if req.EdgeList != "" {
		graph, err = signed.NewGraphParser().ParseReader(strings.NewReader(req.EdgeList))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	jobID := uuid.New().String()
	now := time.Now()
	job := &Job{
		ID:      jobID,
		Request: req,
		Status:  JobStatusQueued,
		Progress: JobProgress{
			TotalRounds: config.K() - 1,
			Message:     "Queued",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The timeout covers queueing as well as the run itself.
	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)

	s.mutex.Lock()
	if s.ctx.Err() != nil {
		s.mutex.Unlock()
		cancel()
		return nil, ErrServiceClosed
	}
	s.jobs[jobID] = job
	s.cancels[jobID] = cancel
	snapshot := *job
	s.wg.Add(1)
	s.mutex.Unlock()

	log.Info().
		Str("job_id", jobID).
		Str("dataset", req.Dataset).
		Int("k", config.K()).
		Str("rounding", config.Rounding()).
		Msg("Job submitted")

	go s.processJob(ctx, jobID, graph, config)

	return &snapshot, nil
}

// Get retrieves a copy of the job
func (s *JobService) Get(jobID string) (*Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	snapshot := *job
	return &snapshot, nil
}

// List returns copies of all retained jobs, oldest first
func (s *JobService) List() []Job {
	s.mutex.RLock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	s.mutex.RUnlock()

	sort.Slice(jobs, func(a, b int) bool {
		if jobs[a].CreatedAt.Equal(jobs[b].CreatedAt) {
			return jobs[a].ID < jobs[b].ID
		}
		return jobs[a].CreatedAt.Before(jobs[b].CreatedAt)
	})
	return jobs
}

// Cancel stops a queued or running job. The engine notices between rounds.
// Cancelling a finished job is a no-op.
func (s *JobService) Cancel(jobID string) (*Job, error) {
	s.mutex.Lock()
	job, exists := s.jobs[jobID]
	if !exists {
		s.mutex.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	cancelled := s.finishLocked(job, JobStatusCancelled, "Cancelled")
	if cancelled {
		s.metrics.jobFinished(JobStatusCancelled, "", 0)
		if cancel, ok := s.cancels[jobID]; ok {
			cancel()
		}
	}
	snapshot := *job
	s.mutex.Unlock()

	if cancelled {
		log.Info().Str("job_id", jobID).Msg("Job cancelled")
	}
	return &snapshot, nil
}

// Close cancels all outstanding jobs and waits for their goroutines.
// Submit fails with ErrServiceClosed afterwards.
func (s *JobService) Close() {
	s.mutex.Lock()
	s.stop()
	s.mutex.Unlock()
	s.wg.Wait()
}

func (s *JobService) jobConfig(req JobRequest) (*scg.Config, error) {
	config := s.config.Clone()
	config.Set("algorithm.k", req.K)
	if req.Rounding != "" {
		config.Set("algorithm.rounding", req.Rounding)
	}
	if req.Seed != nil {
		config.Set("algorithm.random_seed", *req.Seed)
	}
	config.Set("analysis.track_rounds", false)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// processJob processes a job in the background
func (s *JobService) processJob(ctx context.Context, jobID string, graph *signed.Graph, config *scg.Config) {
	defer s.wg.Done()
	defer s.release(jobID)

	// Acquire worker slot
	select {
	case s.workers <- struct{}{}:
	case <-ctx.Done():
		s.abortJob(jobID, ctx.Err())
		return
	}
	defer func() { <-s.workers }()
	s.metrics.jobStarted()
	defer s.metrics.jobStopped()

	startTime := time.Now()
	job, ok := s.markRunning(jobID, startTime)
	if !ok {
		return
	}

	logger := log.With().Str("job_id", jobID).Logger()
	logger.Info().Msg("Job processing started")

	if graph == nil {
		path := experiment.DatasetPath(config.DatasetDir(), job.Request.Dataset)
		loaded, _, err := signed.LoadGraph(path)
		if err != nil {
			s.failJob(jobID, fmt.Errorf("failed to load dataset: %w", err))
			return
		}
		graph = loaded
	}

	rounding := config.Rounding()
	engine, err := scg.NewEngine(config,
		scg.WithLogger(logger),
		scg.WithRoundHook(s.metrics.RoundHook(rounding)),
		scg.WithRoundHook(s.progressHook(jobID)),
	)
	if err != nil {
		s.failJob(jobID, err)
		return
	}

	result, err := engine.Run(ctx, graph)
	if err != nil {
		if ctx.Err() != nil {
			s.abortJob(jobID, ctx.Err())
			return
		}
		s.failJob(jobID, fmt.Errorf("algorithm execution failed: %w", err))
		return
	}

	s.completeJob(jobID, result, time.Since(startTime))
}

// abortJob settles a job whose context ended: an explicit Cancel already
// marked it, so only timeouts and shutdown are left to record
func (s *JobService) abortJob(jobID string, cause error) {
	if errors.Is(cause, context.DeadlineExceeded) {
		s.failJob(jobID, fmt.Errorf("job timed out after %s", s.jobTimeout))
		return
	}
	s.mutex.Lock()
	job, exists := s.jobs[jobID]
	if exists && s.finishLocked(job, JobStatusCancelled, "Cancelled") {
		s.metrics.jobFinished(JobStatusCancelled, "", 0)
	}
	s.mutex.Unlock()
}

func (s *JobService) release(jobID string) {
	s.mutex.Lock()
	cancel, ok := s.cancels[jobID]
	delete(s.cancels, jobID)
	s.mutex.Unlock()
	if ok {
		cancel()
	}
}

func (s *JobService) markRunning(jobID string, startTime time.Time) (Job, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status.Finished() {
		return Job{}, false
	}
	job.Status = JobStatusRunning
	job.Progress.Message = "Starting..."
	job.StartedAt = &startTime
	job.UpdatedAt = startTime
	return *job, true
}

func (s *JobService) progressHook(jobID string) scg.RoundHook {
	return func(info scg.RoundInfo, _ scg.RoundState) {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		job, exists := s.jobs[jobID]
		if !exists || job.Status != JobStatusRunning {
			return
		}
		job.Progress.Round = info.Round
		job.Progress.Message = fmt.Sprintf("Round %d committed %d nodes", info.Round, info.Committed)
		job.UpdatedAt = time.Now()

		log.Debug().
			Str("job_id", jobID).
			Int("round", info.Round).
			Int("active", info.ActiveAfter).
			Msg("Job progress updated")
	}
}

// completeJob marks a job as completed with results
func (s *JobService) completeJob(jobID string, result *scg.Result, elapsed time.Duration) {
	assignment := make(map[string]int, len(result.Assignment))
	for i, c := range result.Assignment {
		assignment[result.Graph.NodeID(i)] = c
	}
	jobResult := &JobResult{
		Assignment: assignment,
		Summary:    evaluation.Summarize(result, elapsed),
		Rounds:     result.Rounds,
	}

	s.mutex.Lock()
	job, exists := s.jobs[jobID]
	completed := exists && s.finishLocked(job, JobStatusCompleted, "Complete")
	if completed {
		job.Result = jobResult
		s.metrics.jobFinished(JobStatusCompleted, result.Rounding, elapsed)
	}
	s.mutex.Unlock()
	if !completed {
		return
	}

	log.Info().
		Str("job_id", jobID).
		Float64("objective", result.Objective).
		Int("neutral", jobResult.Summary.Neutral).
		Int64("processing_time_ms", elapsed.Milliseconds()).
		Msg("Job completed successfully")
}

// failJob marks a job as failed
func (s *JobService) failJob(jobID string, err error) {
	s.mutex.Lock()
	job, exists := s.jobs[jobID]
	failed := exists && s.finishLocked(job, JobStatusFailed, "Failed")
	if failed {
		job.Error = err.Error()
		s.metrics.jobFinished(JobStatusFailed, "", 0)
	}
	s.mutex.Unlock()
	if !failed {
		return
	}

	log.Error().
		Str("job_id", jobID).
		Err(err).
		Msg("Job failed")
}

// finishLocked moves job to a terminal status unless it already has one
func (s *JobService) finishLocked(job *Job, status JobStatus, message string) bool {
	if job.Status.Finished() {
		return false
	}
	now := time.Now()
	job.Status = status
	job.Progress.Message = message
	job.CompletedAt = &now
	job.UpdatedAt = now
	return true
}

func (s *JobService) cleanupLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.ctx.Done():
			return
		}
	}
}

// cleanup drops finished jobs that have not changed within the TTL
func (s *JobService) cleanup(now time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := now.Add(-s.jobTTL)
	removed := 0
	for jobID, job := range s.jobs {
		if job.Status.Finished() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, jobID)
			removed++
		}
	}

	if removed > 0 {
		log.Info().
			Int("removed", removed).
			Int("remaining", len(s.jobs)).
			Msg("Cleaned up expired jobs")
	}
	return removed
}
