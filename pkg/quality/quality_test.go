package quality

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	signals []any
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return "", nil
}
func (f *fakeProvider) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	return "", nil
}
func (f *fakeProvider) Structured(ctx context.Context, prompt string, schema llm.JSONSchema, opts llm.Options) (map[string]any, error) {
	return map[string]any{"signals": f.signals}, nil
}
func (f *fakeProvider) TestConnection(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeProvider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return nil, nil
}
func (f *fakeProvider) Name() string { return "fake" }

func TestCheck_LogsSignalsWithNormalizedSeverity(t *testing.T) {
	j := &job.Job{}
	j.Result.Metadata.SelfIdentifiedType = "complaint"

	provider := &fakeProvider{signals: []any{
		map[string]any{"signal": "missing branch", "severity": "bogus", "details": "no tort concepts found"},
	}}
	checker := New(provider)
	checker.Check(context.Background(), j)

	require.NotEmpty(t, j.Result.Metadata.ActivityLog)
	last := j.Result.Metadata.ActivityLog[len(j.Result.Metadata.ActivityLog)-1]
	assert.Contains(t, last.Message, "[info]")
	assert.Contains(t, last.Message, "missing branch")
}

func TestCheck_NoSelfIdentifiedTypeIsNoop(t *testing.T) {
	j := &job.Job{}
	checker := New(&fakeProvider{})
	checker.Check(context.Background(), j)
	assert.Empty(t, j.Result.Metadata.ActivityLog)
}

func TestCheck_EmptySignalsLogsAllClear(t *testing.T) {
	j := &job.Job{}
	j.Result.Metadata.SelfIdentifiedType = "contract"
	checker := New(&fakeProvider{signals: nil})
	checker.Check(context.Background(), j)
	require.NotEmpty(t, j.Result.Metadata.ActivityLog)
	assert.Contains(t, j.Result.Metadata.ActivityLog[0].Message, "no quality concerns")
}
