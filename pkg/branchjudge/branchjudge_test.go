package branchjudge

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/foliolegal/enrichcore/pkg/ontology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	branch     string
	confidence float64
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return "", nil
}
func (f *fakeProvider) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	return "", nil
}
func (f *fakeProvider) Structured(ctx context.Context, prompt string, schema llm.JSONSchema, opts llm.Options) (map[string]any, error) {
	return map[string]any{"branch": f.branch, "confidence": f.confidence, "reasoning": "matches context"}, nil
}
func (f *fakeProvider) TestConnection(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeProvider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return nil, nil
}
func (f *fakeProvider) Name() string { return "fake" }

func testStore() ontology.Store {
	return ontology.NewMemoryStore([]ontology.Concept{
		{IRI: "iri:contract", PreferredLabel: "Contract", Branches: []string{"Commercial Law"}},
	})
}

func TestExecute_AssignsBranchAndBlendsConfidence(t *testing.T) {
	j := &job.Job{}
	j.Result.CanonicalText.FullText = "The parties signed a contract yesterday. It was binding."
	j.Result.Annotations = []job.Annotation{
		{
			ID:    "a1",
			Span:  job.Span{Start: 21, End: 29, Text: "contract"},
			State: job.StateConfirmed,
			Concepts: []job.ConceptMatch{
				{ConceptText: "contract", FolioIRI: "iri:contract", Confidence: 0.9},
			},
		},
	}

	stage := New(&fakeProvider{branch: "Commercial Law", confidence: 0.6}, testStore())
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)

	primary := out.Result.Annotations[0].Primary()
	require.NotNil(t, primary)
	assert.Equal(t, []string{"Commercial Law"}, primary.Branches)
	assert.InDelta(t, 0.7*0.9+0.3*0.6, primary.Confidence, 0.001)
	require.NotEmpty(t, out.Result.Annotations[0].Lineage)
}

func TestExecute_SkipsAnnotationsWithExistingBranch(t *testing.T) {
	j := &job.Job{}
	j.Result.CanonicalText.FullText = "Some sentence about contract law."
	j.Result.Annotations = []job.Annotation{
		{
			ID:    "a1",
			Span:  job.Span{Start: 0, End: 4, Text: "Some"},
			State: job.StateConfirmed,
			Concepts: []job.ConceptMatch{
				{ConceptText: "Some", Branches: []string{"Already Set"}, Confidence: 0.5},
			},
		},
	}

	stage := New(&fakeProvider{branch: "Other", confidence: 0.9}, testStore())
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	assert.Equal(t, []string{"Already Set"}, out.Result.Annotations[0].Primary().Branches)
}

func TestSurroundingSentence_ExtractsContainingSentence(t *testing.T) {
	text := "First sentence here. Second sentence has contract in it. Third one."
	s := surroundingSentence(text, 41, 49)
	assert.Contains(t, s, "Second sentence has contract in it")
}
