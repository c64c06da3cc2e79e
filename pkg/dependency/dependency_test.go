package dependency

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FindsSubjectVerbObject(t *testing.T) {
	p := NewRuleBasedParser()
	triples, err := p.Parse("The landlord indemnifies the tenant.")
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.Equal(t, "landlord", triples[0].Subject.Text)
	assert.Equal(t, "indemnifies", triples[0].Verb.Text)
	assert.Contains(t, triples[0].Object.Text, "tenant")
}

func TestParse_NoVerbYieldsNoTriples(t *testing.T) {
	p := NewRuleBasedParser()
	triples, err := p.Parse("A quiet courtroom hallway.")
	require.NoError(t, err)
	assert.Empty(t, triples)
}

func TestExecute_RequiresAtLeastTwoAnnotationsPerSentence(t *testing.T) {
	j := &job.Job{}
	j.Result.CanonicalText.FullText = "The landlord indemnifies the tenant."
	j.Result.Annotations = []job.Annotation{
		{Span: job.Span{Start: 4, End: 12, Text: "landlord"}},
	}

	stage := New(nil)
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	assert.Empty(t, out.Result.Metadata.SPOTriples)
}

func TestExecute_CrossLinksIndividualAndProperty(t *testing.T) {
	text := "The landlord indemnifies the tenant."
	j := &job.Job{}
	j.Result.CanonicalText.FullText = text
	j.Result.Annotations = []job.Annotation{
		{Span: job.Span{Start: 4, End: 12, Text: "landlord"}},
		{Span: job.Span{Start: 29, End: 35, Text: "tenant"}},
	}
	j.Result.Individuals = []job.Individual{
		{ID: "ind-1", MentionText: "landlord", Span: job.Span{Start: 4, End: 12}},
	}
	j.Result.Properties = []job.PropertyAnnotation{
		{ID: "prop-1", PropertyText: "indemnifies", Span: job.Span{Start: 13, End: 24}},
	}

	stage := New(nil)
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	require.NotEmpty(t, out.Result.Metadata.SPOTriples)
	assert.Equal(t, "ind-1", out.Result.Metadata.SPOTriples[0].IndividualID)
	assert.Equal(t, "prop-1", out.Result.Metadata.SPOTriples[0].PropertyID)
}
