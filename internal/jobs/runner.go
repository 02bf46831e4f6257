// Package jobs runs submitted scheduling requests asynchronously on top of
// pkg/jobs.Queue, the way the teacher's background workers drain report and
// archive jobs: the HTTP layer enqueues a Job{Type: "schedule.run"} and
// returns immediately; a worker pool drains it through the pipeline and
// stashes the Run for polling by ID. This is how MaxTime and TimedOut
// diagnostics become observable to an HTTP caller without blocking its
// request goroutine.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/pipeline"
	"github.com/Ciriera/examboard-scheduler/pkg/jobs"
)

// TypeScheduleRun is the job type enqueued for every submitted run.
const TypeScheduleRun = "schedule.run"

// Status is the lifecycle of one submitted run.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// RunRecord is what a caller polls for by run ID.
type RunRecord struct {
	ID        string
	Status    Status
	Submitted time.Time
	Completed time.Time
	Result    pipeline.Run
	Err       error
}

// runPayload is what TypeScheduleRun jobs carry.
type runPayload struct {
	ID     string
	Inputs domain.Inputs
	Config pipeline.Config
}

// Runner submits scheduling requests to a worker pool and keeps their
// results addressable by run ID until polled.
type Runner struct {
	pl    *pipeline.Pipeline
	queue *jobs.Queue

	mu      sync.RWMutex
	records map[string]*RunRecord
}

// NewRunner builds a Runner with the given worker count, matching the
// teacher's pattern of sizing a queue's pool at construction time.
func NewRunner(pl *pipeline.Pipeline, workers int, logger *zap.Logger) *Runner {
	r := &Runner{
		pl:      pl,
		records: make(map[string]*RunRecord),
	}
	r.queue = jobs.NewQueue("schedule-runs", r.handle, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return r
}

// Start begins worker consumption; Stop drains and waits for in-flight jobs.
func (r *Runner) Start(ctx context.Context) { r.queue.Start(ctx) }
func (r *Runner) Stop()                     { r.queue.Stop() }

// Submit enqueues a run and returns its ID immediately. The caller polls
// Lookup for the result.
func (r *Runner) Submit(id string, in domain.Inputs, cfg pipeline.Config) error {
	r.mu.Lock()
	r.records[id] = &RunRecord{ID: id, Status: StatusQueued, Submitted: time.Now().UTC()}
	r.mu.Unlock()

	return r.queue.Enqueue(jobs.Job{
		ID:      id,
		Type:    TypeScheduleRun,
		Payload: runPayload{ID: id, Inputs: in, Config: cfg},
	})
}

// Lookup returns the current record for a run ID, or false if unknown.
func (r *Runner) Lookup(id string) (RunRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return RunRecord{}, false
	}
	return *rec, true
}

func (r *Runner) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(runPayload)
	if !ok {
		return fmt.Errorf("jobs: unexpected payload type for job %s", job.ID)
	}

	r.setStatus(payload.ID, StatusRunning)

	result, err := r.pl.Execute(ctx, payload.Inputs, payload.Config)

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[payload.ID]
	if !ok {
		rec = &RunRecord{ID: payload.ID}
		r.records[payload.ID] = rec
	}
	rec.Completed = time.Now().UTC()
	if err != nil {
		rec.Status = StatusFailed
		rec.Err = err
		return err
	}
	rec.Status = StatusSucceeded
	rec.Result = result
	return nil
}

func (r *Runner) setStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		rec.Status = status
	}
}
