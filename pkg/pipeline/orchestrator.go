package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// Persister is the subset of the job store contract the orchestrator needs:
// persist the job as the run progresses. Kept minimal here to avoid importing
// the jobstore package (which would create an import cycle with callers
// that wire both together).
type Persister interface {
	Save(ctx context.Context, j *job.Job) error
}

// Config declares the three phases of the pipeline: pre-parallel
// (sequential), parallel (fan-out — all stages run concurrently on the same
// *job.Job and must write to disjoint metadata keys), post-parallel
// (sequential).
type Config struct {
	PreParallel  []Stage
	Parallel     []Stage
	PostParallel []Stage
}

// Orchestrator runs a Config against a job, persisting after every
// sequential stage and once after the parallel phase.
type Orchestrator struct {
	cfg   Config
	store Persister
	log   *slog.Logger
}

// New builds an Orchestrator with an explicit store dependency — no lazy
// singleton, per the "explicit construction over lazy singletons" design
// rule.
func New(cfg Config, store Persister, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg, store: store, log: logger}
}

// Run executes all three phases against j, persisting the job after every
// sequential stage and once after the parallel phase. A pre- or post-parallel stage failure aborts the
// pipeline: the job is marked failed, persisted, and Run returns that error.
// A parallel-phase stage failure is logged and tolerated; downstream stages
// must handle missing metadata.
func (o *Orchestrator) Run(ctx context.Context, j *job.Job) (*job.Job, error) {
	for _, st := range o.cfg.PreParallel {
		if err := o.runSequential(ctx, st, j); err != nil {
			return j, err
		}
	}

	o.runParallel(ctx, j)
	j.UpdatedAt = time.Now()
	if err := o.store.Save(ctx, j); err != nil {
		o.log.Warn("failed to persist job after parallel phase", "job_id", j.ID, "error", err)
	}

	for _, st := range o.cfg.PostParallel {
		if err := o.runSequential(ctx, st, j); err != nil {
			return j, err
		}
	}

	if j.Status != job.StatusFailed {
		j.Status = job.StatusCompleted
		j.UpdatedAt = time.Now()
		if err := o.store.Save(ctx, j); err != nil {
			o.log.Warn("failed to persist completed job", "job_id", j.ID, "error", err)
		}
	}

	return j, nil
}

func (o *Orchestrator) runSequential(ctx context.Context, st Stage, j *job.Job) error {
	updated, err := o.executeRecovered(ctx, st, j)
	if err != nil {
		wrapped := fmt.Errorf("stage %s: %w", st.Name(), err)
		j.Fail(wrapped)
		if saveErr := o.store.Save(ctx, j); saveErr != nil {
			o.log.Warn("failed to persist failed job", "job_id", j.ID, "error", saveErr)
		}
		return wrapped
	}
	*j = *updated
	j.UpdatedAt = time.Now()
	if err := o.store.Save(ctx, j); err != nil {
		o.log.Warn("failed to persist job after stage", "stage", st.Name(), "job_id", j.ID, "error", err)
	}
	return nil
}

// runParallel fans out the parallel-phase stages concurrently over the same
// *job.Job; each stage is expected to write to a disjoint metadata field.
// A per-stage failure is logged and does not abort the pipeline.
func (o *Orchestrator) runParallel(ctx context.Context, j *job.Job) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, st := range o.cfg.Parallel {
		wg.Add(1)
		go func(st Stage) {
			defer wg.Done()
			mu.Lock()
			snapshot := j
			mu.Unlock()

			updated, err := o.executeRecovered(ctx, st, snapshot)
			if err != nil {
				o.log.Warn("parallel stage failed; continuing", "stage", st.Name(), "job_id", j.ID, "error", err)
				return
			}
			mu.Lock()
			*j = *updated
			mu.Unlock()
		}(st)
	}
	wg.Wait()
}

// executeRecovered runs a stage, converting a panic into an error so a
// single misbehaving stage can never crash the orchestrator.
func (o *Orchestrator) executeRecovered(ctx context.Context, st Stage, j *job.Job) (updated *job.Job, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", st.Name(), r)
		}
	}()
	return st.Execute(ctx, j)
}
