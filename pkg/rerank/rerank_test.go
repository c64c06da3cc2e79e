package rerank

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	score float64
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return "", nil
}
func (f *fakeProvider) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	return "", nil
}
func (f *fakeProvider) Structured(ctx context.Context, prompt string, schema llm.JSONSchema, opts llm.Options) (map[string]any, error) {
	return map[string]any{
		"scores": []map[string]any{
			{"concept_text": "contract", "folio_iri": "iri:contract", "contextual_score": 0.4},
		},
	}, nil
}
func (f *fakeProvider) TestConnection(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeProvider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return nil, nil
}
func (f *fakeProvider) Name() string { return "fake" }

func TestExecute_BlendsPipelineAndContextualScore(t *testing.T) {
	j := &job.Job{}
	j.Result.CanonicalText.FullText = "This contract governs the relationship."
	j.Result.Annotations = []job.Annotation{
		{
			ID:    "a1",
			State: job.StateConfirmed,
			Concepts: []job.ConceptMatch{
				{ConceptText: "contract", FolioIRI: "iri:contract", Confidence: 0.8},
			},
		},
	}

	stage := New(&fakeProvider{})
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)

	primary := out.Result.Annotations[0].Primary()
	assert.InDelta(t, 0.5*0.8+0.5*0.4, primary.Confidence, 0.001)
	require.NotEmpty(t, out.Result.Annotations[0].Lineage)
}

func TestExecute_NoProviderIsNoop(t *testing.T) {
	j := &job.Job{}
	j.Result.Annotations = []job.Annotation{
		{Concepts: []job.ConceptMatch{{ConceptText: "x", Confidence: 0.5}}},
	}
	stage := New(nil)
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out.Result.Annotations[0].Primary().Confidence, 0.001)
}

func TestKey_IsCaseInsensitiveOnConceptText(t *testing.T) {
	assert.Equal(t, key("Contract", "iri:c"), key("contract", "iri:c"))
}
