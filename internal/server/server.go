// Package server exposes the placement engine over a thin REST surface:
// submit an optimization problem, poll its job, cancel it. Results live in
// an in-memory store for a retention window; durable persistence belongs
// to the callers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/config"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/logging"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/constraint"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/orchestrator"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/stability"
)

// JobStatus is the lifecycle state of one optimization job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Job tracks one optimization request through its lifetime. All fields
// are guarded by the server's job mutex.
type Job struct {
	ID          string
	Status      JobStatus
	SubmittedAt time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	Result      *optimization.Result
	Err         string

	cancel context.CancelFunc
}

// jobView is the JSON shape of a job returned to clients.
type jobView struct {
	ID          string               `json:"job_id"`
	Status      JobStatus            `json:"status"`
	SubmittedAt time.Time            `json:"submitted_at"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	FinishedAt  *time.Time           `json:"finished_at,omitempty"`
	Result      *optimization.Result `json:"result,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// Server owns the job store and the orchestrator. Handlers are safe for
// concurrent use; the jobs map is the only shared mutable state and every
// access goes through mu.
type Server struct {
	cfg    *config.Config
	logger *logging.Logger
	orch   *orchestrator.Orchestrator

	mu   sync.RWMutex
	jobs map[string]*Job

	// sem bounds how many optimizations run at once; submissions beyond
	// the bound wait in the pending state.
	sem  chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a server and starts its retention janitor.
func New(cfg *config.Config, logger *logging.Logger) *Server {
	orch := orchestrator.New(orchestrator.Config{
		Constraint: constraint.Config{
			MinSupportRatio:  cfg.Optimization.MinSupportRatio,
			SupportTolerance: constraint.DefaultConfig().SupportTolerance,
		},
		Stability:   stability.Config{HighCOGPenalty: cfg.Optimization.HighCOGPenalty},
		HybridNodes: cfg.Optimization.HybridNodes,
		Logger:      logging.NewZapLogger(logger.WithField("component", "engine")),
	})

	s := &Server{
		cfg:    cfg,
		logger: logger,
		orch:   orch,
		jobs:   make(map[string]*Job),
		sem:    make(chan struct{}, cfg.Optimization.MaxConcurrentRuns),
		stop:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.janitor()
	return s
}

// RegisterRoutes mounts the API under /api/v1.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleSubmit)
		r.Get("/optimize/{id}", s.handleStatus)
		r.Delete("/optimize/{id}", s.handleCancel)
	})
}

// Close cancels every live job and stops the janitor.
func (s *Server) Close() error {
	s.mu.Lock()
	for _, job := range s.jobs {
		if job.cancel != nil {
			job.cancel()
		}
	}
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
	return nil
}

// handleSubmit accepts an optimization problem, validates it, and queues
// it as an asynchronous job. The response is 202 with the job id; the
// caller polls the job for the result.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var problem optimization.Problem
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&problem); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	if err := problem.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if problem.Params.Workers == 0 {
		problem.Params.Workers = s.cfg.Optimization.Workers
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:          uuid.NewString(),
		Status:      JobPending,
		SubmittedAt: time.Now(),
		cancel:      cancel,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	view := snapshot(job)
	s.mu.Unlock()
	metricJobsSubmitted.Inc()

	s.logger.Info("Optimization job accepted", logging.Fields{
		"job_id":    job.ID,
		"mode":      string(problem.Mode()),
		"items":     len(problem.Items),
		"algorithm": string(problem.Params.Algorithm),
	})

	s.wg.Add(1)
	go s.runJob(ctx, job, &problem)

	writeJSON(w, http.StatusAccepted, view)
}

// handleStatus returns the job, including the result once it finished.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	job, ok := s.jobs[id]
	var view jobView
	if ok {
		view = snapshot(job)
	}
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleCancel cancels a pending or running job. Terminal jobs cannot be
// cancelled.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	if job.Status.Terminal() {
		status := job.Status
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "job already "+string(status))
		return
	}
	job.cancel()
	job.Status = JobCancelled
	now := time.Now()
	job.FinishedAt = &now
	view := snapshot(job)
	s.mu.Unlock()

	s.logger.Info("Optimization job cancelled", logging.Fields{"job_id": id})
	writeJSON(w, http.StatusOK, view)
}

// runJob executes one optimization under the concurrency bound and
// records its outcome on the job.
func (s *Server) runJob(ctx context.Context, job *Job, problem *optimization.Problem) {
	defer s.wg.Done()
	defer job.cancel()

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		// Cancelled while queued; handleCancel already finalized the job.
		return
	}
	if !s.markRunning(job) {
		return
	}

	metricActiveRuns.Inc()
	defer metricActiveRuns.Dec()

	result, err := s.orch.Run(ctx, problem)
	s.finish(job, problem, result, err)
}

// markRunning flips a pending job to running. It reports false when the
// job reached a terminal state first.
func (s *Server) markRunning(job *Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.Status != JobPending {
		return false
	}
	job.Status = JobRunning
	now := time.Now()
	job.StartedAt = &now
	return true
}

func (s *Server) finish(job *Job, problem *optimization.Problem, result *optimization.Result, err error) {
	s.mu.Lock()
	now := time.Now()
	switch {
	case job.Status == JobCancelled:
		// The cancel handler won; keep the best-effort result for the
		// curious.
		job.Result = result
	case err != nil:
		job.Status = JobFailed
		job.Err = err.Error()
		job.FinishedAt = &now
	default:
		job.Status = JobCompleted
		job.Result = result
		job.FinishedAt = &now
	}
	view := snapshot(job)
	s.mu.Unlock()

	observeRun(string(problem.Params.Algorithm), view, result, err)

	fields := logging.Fields{"job_id": job.ID, "status": string(view.Status)}
	switch {
	case err != nil && errors.Is(err, optimization.ErrInvalidInput):
		s.logger.Warn("Optimization job rejected", logging.Fields{
			"job_id": job.ID, "error": err.Error(),
		})
	case err != nil:
		s.logger.WithError(err).Error("Optimization job failed", fields)
	default:
		fields["result_status"] = string(result.Status)
		fields["fitness"] = result.FitnessScore
		fields["items_packed"] = result.ItemsPacked
		fields["items_unpacked"] = result.ItemsUnpacked
		s.logger.Info("Optimization job finished", fields)
	}
}

// snapshot copies the mutable job fields into a client view. Callers must
// hold at least a read lock.
func snapshot(job *Job) jobView {
	return jobView{
		ID:          job.ID,
		Status:      job.Status,
		SubmittedAt: job.SubmittedAt,
		StartedAt:   job.StartedAt,
		FinishedAt:  job.FinishedAt,
		Result:      job.Result,
		Error:       job.Err,
	}
}

// janitor drops terminal jobs once they outlive the retention window.
func (s *Server) janitor() {
	defer s.wg.Done()

	interval := s.cfg.Optimization.JobRetention / 10
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(time.Now().Add(-s.cfg.Optimization.JobRetention))
		}
	}
}

func (s *Server) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
