package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolegal/enrichcore/pkg/job"
)

type memStore struct {
	saves []job.Job
}

func (m *memStore) Save(_ context.Context, j *job.Job) error {
	m.saves = append(m.saves, *j)
	return nil
}

func stageThatSets(name, field string) Stage {
	return StageFunc{StageName: name, Fn: func(_ context.Context, j *job.Job) (*job.Job, error) {
		j.Result.Metadata.DocumentType = field
		return j, nil
	}}
}

func TestOrchestrator_SequentialPersistsEveryStage(t *testing.T) {
	store := &memStore{}
	o := New(Config{
		PreParallel: []Stage{stageThatSets("a", "one"), stageThatSets("b", "two")},
	}, store, nil)

	j := job.New("job-1", job.Input{Content: "hi", Format: job.FormatText})
	result, err := o.Run(context.Background(), j)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, result.Status)
	assert.GreaterOrEqual(t, len(store.saves), 2)
}

func TestOrchestrator_PreParallelFailureAbortsAndMarksFailed(t *testing.T) {
	store := &memStore{}
	boom := StageFunc{StageName: "boom", Fn: func(_ context.Context, j *job.Job) (*job.Job, error) {
		return j, errors.New("kaboom")
	}}
	o := New(Config{PreParallel: []Stage{boom}}, store, nil)

	j := job.New("job-2", job.Input{Content: "hi", Format: job.FormatText})
	_, err := o.Run(context.Background(), j)
	require.Error(t, err)
	assert.Equal(t, job.StatusFailed, j.Status)
	assert.Contains(t, j.ErrorMessage, "kaboom")
}

func TestOrchestrator_ParallelFailureDoesNotAbort(t *testing.T) {
	store := &memStore{}
	boom := StageFunc{StageName: "boom", Fn: func(_ context.Context, j *job.Job) (*job.Job, error) {
		return j, errors.New("kaboom")
	}}
	ok := stageThatSets("ok", "set")
	o := New(Config{Parallel: []Stage{boom, ok}}, store, nil)

	j := job.New("job-3", job.Input{Content: "hi", Format: job.FormatText})
	result, err := o.Run(context.Background(), j)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, result.Status)
	assert.Equal(t, "set", result.Result.Metadata.DocumentType)
}
