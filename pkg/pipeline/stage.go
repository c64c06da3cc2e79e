// Package pipeline runs the staged enrichment orchestrator: a pre-parallel
// phase, a parallel fan-out phase, and a post-parallel phase of Stages
// operating on a job.Job, persisting after every sequential stage and once
// after the parallel phase.
package pipeline

import (
	"context"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// Stage is a pipeline unit that reads and mutates a job; identifiable by
// name. Modeled on the single-method-plus-name capability interface shape
// (see reasoning.ReasoningStrategy in the wider ecosystem this module draws
// from): one execute method, nothing inherited.
type Stage interface {
	// Name identifies the stage for logging, lineage, and metrics.
	Name() string
	// Execute mutates the supplied job in place and returns it. Returning
	// an error in the parallel phase does not abort the pipeline; the
	// orchestrator logs it and leaves that stage's metadata slot empty.
	Execute(ctx context.Context, j *job.Job) (*job.Job, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, j *job.Job) (*job.Job, error)
}

func (f StageFunc) Name() string { return f.StageName }

func (f StageFunc) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	return f.Fn(ctx, j)
}
