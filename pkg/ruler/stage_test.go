package ruler

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_PopulatesRulerConceptsAndStatus(t *testing.T) {
	stage := NewStage(New(testStore(), nil))
	j := &job.Job{}
	j.Result.CanonicalText.FullText = "The plaintiff alleges a breach of contract occurred."

	_, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)

	assert.Equal(t, job.StatusEnriching, j.Status)
	require.Contains(t, j.Result.Metadata.RulerConcepts, 0)
	assert.NotEmpty(t, j.Result.Metadata.RulerConcepts[0])
}
