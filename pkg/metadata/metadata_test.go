package metadata

import (
	"context"
	"strings"
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
	if _, ok := schema.Properties["document_type"]; ok {
		return map[string]any{"document_type": "complaint", "confidence": 0.9}, nil
	}
	return map[string]any{"court": "Superior Court", "parties": []string{"Acme Inc."}}, nil
}
func (f *fakeProvider) TestConnection(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeProvider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return nil, nil
}
func (f *fakeProvider) Name() string { return "fake" }

func TestExecute_ClassifiesAndExtractsFields(t *testing.T) {
	j := &job.Job{Input: job.Input{Format: job.FormatPDF}}
	j.Result.CanonicalText.FullText = "This is a complaint filed in Superior Court."

	stage := New(&fakeProvider{})
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)

	assert.Equal(t, "complaint", out.Result.Metadata.DocumentType)
	assert.InDelta(t, 0.9, out.Result.Metadata.DocumentTypeConfidence, 0.001)
	assert.Equal(t, "Superior Court", out.Result.Metadata.ExtractedFields.Court)
	assert.Equal(t, "pdf", out.Result.Metadata.SourceFormat)
	assert.Equal(t, 1, out.Result.Metadata.PageCount)
}

func TestExecute_ReusesExistingSelfIdentifiedType(t *testing.T) {
	j := &job.Job{}
	j.Result.Metadata.SelfIdentifiedType = "contract"
	j.Result.CanonicalText.FullText = "short"

	stage := New(&fakeProvider{})
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	assert.Equal(t, "contract", out.Result.Metadata.DocumentType)
}

func TestPromoteRoleHints_PromotesJudgeFromPrecedingPhrase(t *testing.T) {
	j := &job.Job{}
	text := "Before the Honorable Jane Doe presided."
	j.Result.CanonicalText.FullText = text
	start := strings.Index(text, "Jane Doe")
	end := start + len("Jane Doe")
	j.Result.Annotations = []job.Annotation{
		{
			Span:     job.Span{Start: start, End: end, Text: "Jane Doe"},
			Concepts: []job.ConceptMatch{{ConceptText: "Jane Doe"}},
		},
	}

	promoteRoleHints(j)
	assert.Equal(t, "Jane Doe", j.Result.Metadata.ExtractedFields.Judge)
}

func TestPopulateDeterministicFields_DerivesPageCountFromLength(t *testing.T) {
	j := &job.Job{Input: job.Input{Format: job.FormatText}}
	j.Result.CanonicalText.FullText = string(make([]byte, 7000))

	populateDeterministicFields(j)
	assert.Equal(t, 3, j.Result.Metadata.PageCount)
	assert.Equal(t, "text", j.Result.Metadata.SourceFormat)
}
