package concept

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct{}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return "", nil
}
func (f *fakeProvider) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	return "", nil
}
func (f *fakeProvider) Structured(ctx context.Context, prompt string, schema llm.JSONSchema, opts llm.Options) (map[string]any, error) {
	return map[string]any{"concepts": []any{
		map[string]any{"concept_text": "breach of contract", "branch_hint": "Contract Law", "confidence": 0.9},
	}}, nil
}
func (f *fakeProvider) TestConnection(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeProvider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return nil, nil
}
func (f *fakeProvider) Name() string { return "fake" }

func TestExecute_MaterializesPreliminaryAnnotationForMatchedConcept(t *testing.T) {
	text := "The plaintiff alleges a breach of contract occurred last year."
	j := &job.Job{}
	j.Result.CanonicalText.FullText = text
	j.Result.CanonicalText.Chunks = []job.Chunk{{Text: text, Start: 0, End: len(text), Index: 0}}

	stage := New(&fakeProvider{}, nil)
	_, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)

	require.Len(t, j.Result.Annotations, 1)
	ann := j.Result.Annotations[0]
	assert.Equal(t, job.StatePreliminary, ann.State)
	primary := ann.Primary()
	require.NotNil(t, primary)
	assert.Equal(t, "breach of contract", primary.ConceptText)
	assert.Equal(t, job.SourceLLM, primary.Source)
	assert.Equal(t, []string{"Contract Law"}, primary.Branches)
	assert.NotEmpty(t, ann.Span.SentenceText)

	require.Contains(t, j.Result.Metadata.LLMConcepts, 0)
}

func TestExecute_NoProviderIsNoop(t *testing.T) {
	j := &job.Job{}
	j.Result.CanonicalText.FullText = "text"
	stage := New(nil, nil)
	_, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	assert.Empty(t, j.Result.Annotations)
}
