package reconcile

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_FlattensMapsAndSyncsAnnotationState(t *testing.T) {
	stage := NewStage(nil, nil)

	j := &job.Job{}
	j.Result.Metadata.RulerConcepts = map[int][]job.ConceptMatch{
		0: {{ConceptText: "breach of contract", FolioIRI: "iri:1", Confidence: 0.80}},
	}
	j.Result.Metadata.LLMConcepts = map[int][]job.ConceptMatch{
		0: {{ConceptText: "Breach of Contract", FolioIRI: "iri:1", Confidence: 0.70}},
	}
	ann := job.Annotation{
		ID:    "ann-1",
		State: job.StatePreliminary,
		Concepts: []job.ConceptMatch{
			{ConceptText: "breach of contract", FolioIRI: "iri:1"},
		},
	}
	j.Result.Annotations = []job.Annotation{ann}

	_, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)

	assert.Equal(t, job.StatusIdentifying, j.Status)
	require.Len(t, j.Result.Metadata.ReconciledConcepts, 1)
	assert.Equal(t, job.SourceReconciled, j.Result.Metadata.ReconciledConcepts[0].Source)
	assert.Equal(t, job.StateConfirmed, j.Result.Annotations[0].State)
}
