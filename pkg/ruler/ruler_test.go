package ruler

import (
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/ontology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() ontology.Store {
	return ontology.NewMemoryStore([]ontology.Concept{
		{
			IRI:               "iri:breach-of-contract",
			PreferredLabel:    "Breach of Contract",
			AlternativeLabels: []string{"contract breach"},
		},
		{
			IRI:            "iri:this-label",
			PreferredLabel: "this",
		},
	})
}

func TestMatch_MultiWordPreferredConfidence(t *testing.T) {
	r := New(testStore(), nil)
	matches := r.Match("The plaintiff alleges a breach of contract occurred.")
	require.Len(t, matches, 1)
	assert.Equal(t, "iri:breach-of-contract", matches[0].FolioIRI)
	assert.InDelta(t, 0.95, matches[0].Confidence, 0.001)
	assert.Equal(t, job.SourceEntityRuler, matches[0].Source)
}

func TestMatch_StopWordSuppressesSingleWordLabel(t *testing.T) {
	r := New(testStore(), nil)
	matches := r.Match("This was argued at length.")
	assert.Empty(t, matches)
}

func TestMatch_WordBoundaryAvoidsSubstring(t *testing.T) {
	r := New(testStore(), nil)
	matches := r.Match("Overcontract breach happened inside one word.")
	assert.Empty(t, matches)
}

func TestMatch_IsIdempotentAcrossCalls(t *testing.T) {
	r := New(testStore(), nil)
	first := r.Match("a breach of contract happened")
	second := r.Match("a breach of contract happened")
	assert.Equal(t, first, second)
}
