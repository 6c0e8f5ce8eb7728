package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-analytics-service/backend/config"
	"github.com/gilchrisn/graph-analytics-service/backend/metrics"
	"github.com/gilchrisn/graph-analytics-service/backend/models"
	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
)

// JobService handles background analysis runs
type JobService struct {
	jobs            map[string]*models.Job
	cancels         map[string]context.CancelFunc
	workers         chan struct{}
	analysis        *AnalysisService
	metrics         *metrics.Collector
	mutex           sync.RWMutex
	jobTimeout      time.Duration
	jobTTL          time.Duration
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// NewJobService creates a job service and starts its cleanup loop
func NewJobService(analysis *AnalysisService, cfg config.JobConfig, collector *metrics.Collector) *JobService {
	workers := cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	service := &JobService{
		jobs:            make(map[string]*models.Job),
		cancels:         make(map[string]context.CancelFunc),
		workers:         make(chan struct{}, workers),
		analysis:        analysis,
		metrics:         collector,
		jobTimeout:      cfg.JobTimeout,
		jobTTL:          cfg.ResultTTL,
		cleanupInterval: cfg.CleanupInterval,
		stop:            make(chan struct{}),
	}

	if service.cleanupInterval > 0 {
		go service.cleanupLoop()
	}

	return service
}

// Stop cancels every unfinished job and ends the cleanup loop
func (s *JobService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)

		s.mutex.Lock()
		for _, cancel := range s.cancels {
			cancel()
		}
		s.mutex.Unlock()
	})
}

// Submit validates req and queues it for background execution
func (s *JobService) Submit(datasetID string, req models.AnalysisRequest) (*models.Job, error) {
	request, err := s.analysis.Prepare(datasetID, req)
	if err != nil {
		return nil, err
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.jobTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.jobTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	now := time.Now()
	job := &models.Job{
		ID:         uuid.New().String(),
		DatasetID:  datasetID,
		Algorithm:  request.Params.Algorithm(),
		Parameters: append(json.RawMessage(nil), req.Parameters...),
		Status:     models.JobStatusQueued,
		Progress: models.JobProgress{
			Percentage: 0,
			Message:    "Queued",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mutex.Lock()
	s.jobs[job.ID] = job
	s.cancels[job.ID] = cancel
	snapshot := *job
	s.mutex.Unlock()

	s.metrics.ActiveJobs.Inc()

	log.Info().
		Str("job_id", job.ID).
		Str("dataset_id", datasetID).
		Str("algorithm", string(job.Algorithm)).
		Msg("Job submitted")

	go s.processJob(ctx, job.ID, request)

	return &snapshot, nil
}

// Get returns a snapshot of a job
func (s *JobService) Get(jobID string) (*models.Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, errors.Wrapf(ErrJobNotFound, "%s", jobID)
	}

	snapshot := *job
	return &snapshot, nil
}

// List returns snapshots of all jobs for a dataset, oldest first
func (s *JobService) List(datasetID string) []models.Job {
	s.mutex.RLock()
	jobs := make([]models.Job, 0)
	for _, job := range s.jobs {
		if job.DatasetID == datasetID {
			jobs = append(jobs, *job)
		}
	}
	s.mutex.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
	return jobs
}

// Cancel stops a queued or running job. Finished jobs are left untouched.
func (s *JobService) Cancel(jobID string) (*models.Job, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, errors.Wrapf(ErrJobNotFound, "%s", jobID)
	}

	if !job.Status.Terminal() {
		if cancel, ok := s.cancels[jobID]; ok {
			cancel()
		}
		s.finishLocked(job, models.JobStatusCancelled, "Cancelled")

		log.Info().
			Str("job_id", jobID).
			Msg("Job cancelled")
	}

	snapshot := *job
	return &snapshot, nil
}

// processJob waits for a worker slot and runs the prepared request
func (s *JobService) processJob(ctx context.Context, jobID string, request engine.Request) {
	select {
	case s.workers <- struct{}{}:
		defer func() { <-s.workers }()
	case <-ctx.Done():
		s.failJob(jobID, ctx.Err())
		return
	}

	if !s.markRunning(jobID) {
		return
	}

	log.Info().
		Str("job_id", jobID).
		Str("algorithm", string(request.Params.Algorithm())).
		Msg("Job processing started")

	response, err := s.analysis.Execute(ctx, request)
	if err != nil {
		s.failJob(jobID, err)
		return
	}

	s.completeJob(jobID, response)
}

// markRunning moves a queued job to running; false when it was cancelled meanwhile
func (s *JobService) markRunning(jobID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status != models.JobStatusQueued {
		return false
	}

	now := time.Now()
	job.Status = models.JobStatusRunning
	job.Progress.Percentage = 10
	job.Progress.Message = "Running"
	job.StartedAt = &now
	job.UpdatedAt = now
	return true
}

// completeJob marks a job as completed with results
func (s *JobService) completeJob(jobID string, response *models.AnalysisResponse) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status.Terminal() {
		return
	}

	job.Result = &models.JobResult{
		ProcessingTimeMS: response.ProcessingTimeMS,
		Output:           response.Result,
	}
	s.finishLocked(job, models.JobStatusCompleted, "Complete")

	log.Info().
		Str("job_id", jobID).
		Int64("processing_time_ms", response.ProcessingTimeMS).
		Msg("Job completed successfully")
}

// failJob marks a job as failed
func (s *JobService) failJob(jobID string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status.Terminal() {
		return
	}

	job.Error = err.Error()
	s.finishLocked(job, models.JobStatusFailed, "Failed")

	log.Error().
		Str("job_id", jobID).
		Err(err).
		Msg("Job failed")
}

// finishLocked moves a job into a terminal state; the caller holds the mutex
func (s *JobService) finishLocked(job *models.Job, status models.JobStatus, message string) {
	now := time.Now()
	job.Status = status
	job.Progress.Message = message
	if status == models.JobStatusCompleted {
		job.Progress.Percentage = 100
	}
	job.CompletedAt = &now
	job.UpdatedAt = now

	if cancel, ok := s.cancels[job.ID]; ok {
		cancel()
		delete(s.cancels, job.ID)
	}
	s.metrics.ActiveJobs.Dec()
}

// cleanupLoop periodically cleans up old jobs
func (s *JobService) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.stop:
			return
		}
	}
}

// cleanup removes finished jobs whose last update is older than the TTL
func (s *JobService) cleanup(now time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := now.Add(-s.jobTTL)
	cleaned := 0

	for jobID, job := range s.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Info().
			Int("cleaned_jobs", cleaned).
			Msg("Job cleanup completed")
	}

	return cleaned
}
