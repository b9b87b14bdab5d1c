// Package jobs tracks the lifecycle of asynchronously dispatched
// processing requests: registration, status transitions, and
// retention-window eviction.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/andinanews/pipeline/domain"
)

// DefaultRetention is how long a completed or failed job stays queryable
// before the sweeper evicts it.
const DefaultRetention = 1 * time.Hour

// Tracker is an in-memory job registry. All methods are safe for
// concurrent use.
type Tracker struct {
	mu        sync.Mutex
	jobs      map[string]*domain.Job
	retention time.Duration
	stop      chan struct{}
	stopped   bool
}

// NewTracker creates a Tracker. The background sweeper is not started
// here; RunSweeper starts it.
func NewTracker(retention time.Duration) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	t := &Tracker{
		jobs:      map[string]*domain.Job{},
		retention: retention,
		stop:      make(chan struct{}),
	}
	return t
}

// Register creates a new PENDING job.
func (t *Tracker) Register(jobID, requestID string) *domain.Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := nowFunc()
	job := &domain.Job{
		JobID:     jobID,
		RequestID: requestID,
		Status:    domain.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.jobs[jobID] = job
	return job
}

// Start transitions a job from PENDING to RUNNING.
func (t *Tracker) Start(jobID string) error {
	return t.transition(jobID, domain.JobPending, domain.JobRunning, nil, nil)
}

// Complete transitions a job from RUNNING to COMPLETED, attaching the result.
func (t *Tracker) Complete(jobID string, result *domain.Result) error {
	return t.transition(jobID, domain.JobRunning, domain.JobCompleted, result, nil)
}

// Fail transitions a job from RUNNING to FAILED, recording the error.
func (t *Tracker) Fail(jobID string, cause error) error {
	return t.transition(jobID, domain.JobRunning, domain.JobFailed, nil, cause)
}

// transition enforces the monotonic PENDING -> RUNNING -> {COMPLETED,
// FAILED} state machine: attempting a transition from any state other
// than the expected "from" is rejected rather than silently applied.
func (t *Tracker) transition(jobID string, from, to domain.JobStatus, result *domain.Result, cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return fmt.Errorf("jobs: unknown job %q", jobID)
	}
	if job.Status != from {
		return fmt.Errorf("jobs: cannot transition job %q from %s to %s (expected from %s)", jobID, job.Status, to, from)
	}

	job.Status = to
	job.UpdatedAt = nowFunc()
	if result != nil {
		job.Result = result
	}
	if cause != nil {
		job.Error = cause.Error()
	}
	return nil
}

// Get returns a copy of the job's current state.
func (t *Tracker) Get(jobID string) (domain.Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// Sweep evicts terminal jobs (COMPLETED/FAILED) whose UpdatedAt is
// older than the retention window. Returns the number evicted.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := nowFunc().Add(-t.retention)
	evicted := 0
	for id, job := range t.jobs {
		if (job.Status == domain.JobCompleted || job.Status == domain.JobFailed) && job.UpdatedAt.Before(cutoff) {
			delete(t.jobs, id)
			evicted++
		}
	}
	return evicted
}

// RunSweeper starts a ticker that calls Sweep on the given interval
// until Stop is called.
func (t *Tracker) RunSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.Sweep()
			case <-t.stop:
				return
			}
		}
	}()
}

// Stop halts the background sweeper. Safe to call multiple times.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	close(t.stop)
}

// Count returns the number of jobs currently tracked, for the
// dashboard's active-jobs gauge.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// nowFunc is overridden in tests to make retention-window assertions
// deterministic without sleeping.
var nowFunc = time.Now
