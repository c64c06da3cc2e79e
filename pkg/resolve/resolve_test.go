package resolve

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/ontology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() ontology.Store {
	return ontology.NewMemoryStore([]ontology.Concept{
		{
			IRI:            "iri:breach-of-contract",
			Label:          "Breach_of_Contract",
			PreferredLabel: "Breach of Contract",
			AlternativeLabels: []string{
				"Contract Breach",
			},
			Definition: "The failure to perform any duty or obligation specified in a contract.",
			Branches:   []string{"litigation"},
		},
		{
			IRI:            "iri:contract-law",
			Label:          "Contract_Law",
			PreferredLabel: "Contract Law",
			Definition:     "The branch of law governing agreements between parties.",
			Branches:       []string{"litigation"},
			ParentClassOf:  []string{"iri:breach-of-contract"},
		},
		{
			IRI:            "iri:excluded-branch-concept",
			Label:          "Hidden_Concept",
			PreferredLabel: "Hidden Concept",
			Branches:       []string{"excluded"},
		},
	})
}

func TestResolve_FastPathByIRI(t *testing.T) {
	r := NewResolver(testStore(), Config{})
	match, err := r.Resolve(context.Background(), "breach of contract", "", "iri:breach-of-contract", 0.9)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "iri:breach-of-contract", match.FolioIRI)
	assert.InDelta(t, 0.9, match.Confidence, 0.001)
}

func TestResolve_ExactLabelMatchScoresHigh(t *testing.T) {
	r := NewResolver(testStore(), Config{})
	match, err := r.Resolve(context.Background(), "Breach of Contract", "", "", 0)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "iri:breach-of-contract", match.FolioIRI)
}

func TestResolve_CacheDoesNotGrowOnReQuery(t *testing.T) {
	r := NewResolver(testStore(), Config{})
	_, err := r.Resolve(context.Background(), "breach of contract", "", "iri:breach-of-contract", 0.9)
	require.NoError(t, err)
	sizeAfterFirst := r.CacheSize()

	_, err = r.Resolve(context.Background(), "breach of contract", "", "iri:breach-of-contract", 0.9)
	require.NoError(t, err)
	assert.Equal(t, sizeAfterFirst, r.CacheSize())
}

func TestResolve_BranchExclusionDropsCandidate(t *testing.T) {
	r := NewResolver(testStore(), Config{ExcludedBranches: map[string]bool{"excluded": true}})
	match, _ := r.Resolve(context.Background(), "Hidden Concept", "", "", 0)
	assert.Nil(t, match)
}

func TestResolve_NoMatchBelowThresholdReturnsNil(t *testing.T) {
	r := NewResolver(testStore(), Config{})
	match, err := r.Resolve(context.Background(), "xyzzy plugh unrelated nonsense", "", "", 0)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestWordMatchScore(t *testing.T) {
	assert.Equal(t, 1.0, wordMatchScore("contract", "contract"))
	assert.Equal(t, 0.8, wordMatchScore("contracting", "contract"))
	assert.Equal(t, 0.0, wordMatchScore("apple", "orange"))
}
