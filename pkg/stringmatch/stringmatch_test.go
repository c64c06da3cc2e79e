package stringmatch

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_CreatesConfirmedAnnotationFromResolvedConcept(t *testing.T) {
	j := job.New("j1", job.Input{})
	j.Result.CanonicalText.FullText = "This is a breach of contract claim."
	j.Result.Metadata.ResolvedConcepts = []job.ConceptMatch{
		{ConceptText: "breach of contract", FolioIRI: "iri:1", Confidence: 0.9},
	}

	stage := New()
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	require.Len(t, out.Result.Annotations, 1)
	ann := out.Result.Annotations[0]
	assert.Equal(t, job.StateConfirmed, ann.State)
	assert.Equal(t, "iri:1", ann.Primary().FolioIRI)
	assert.Equal(t, "breach of contract", ann.Span.Text)
}

func TestExecute_UpgradesExistingPreliminaryAnnotationPreservingID(t *testing.T) {
	j := job.New("j2", job.Input{})
	j.Result.CanonicalText.FullText = "A breach of contract occurred here."
	j.Result.Metadata.ResolvedConcepts = []job.ConceptMatch{
		{ConceptText: "breach of contract", FolioIRI: "iri:1", Confidence: 0.9},
	}
	j.Result.Annotations = []job.Annotation{
		{
			ID:       "preexisting-id",
			Span:     job.Span{Start: 2, End: 20, Text: "breach of contract"},
			Concepts: []job.ConceptMatch{{ConceptText: "breach of contract", FolioIRI: "iri:1"}},
			State:    job.StatePreliminary,
		},
	}

	stage := New()
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	require.Len(t, out.Result.Annotations, 1)
	assert.Equal(t, "preexisting-id", out.Result.Annotations[0].ID)
	assert.Equal(t, job.StateConfirmed, out.Result.Annotations[0].State)
}

func TestExecute_UnmatchedExistingAnnotationBecomesRejected(t *testing.T) {
	j := job.New("j3", job.Input{})
	j.Result.CanonicalText.FullText = "No concepts mentioned here at all."
	j.Result.Annotations = []job.Annotation{
		{
			ID:       "stale-id",
			Span:     job.Span{Start: 0, End: 4, Text: "No c"},
			Concepts: []job.ConceptMatch{{ConceptText: "something", FolioIRI: "iri:9"}},
			State:    job.StatePreliminary,
		},
	}

	stage := New()
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	require.Len(t, out.Result.Annotations, 1)
	assert.Equal(t, job.StateRejected, out.Result.Annotations[0].State)
}

func TestMerge_SortsBySpanStart(t *testing.T) {
	j := job.New("j4", job.Input{})
	j.Result.CanonicalText.FullText = "contract law governs breach of contract disputes."
	j.Result.Metadata.ResolvedConcepts = []job.ConceptMatch{
		{ConceptText: "breach of contract", FolioIRI: "iri:1"},
		{ConceptText: "contract law", FolioIRI: "iri:2"},
	}

	stage := New()
	out, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	require.Len(t, out.Result.Annotations, 2)
	assert.Less(t, out.Result.Annotations[0].Span.Start, out.Result.Annotations[1].Span.Start)
}
