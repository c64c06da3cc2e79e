package individual

import (
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEarlyPhase_FindsMonetaryAndDate(t *testing.T) {
	results := ExtractEarlyPhase("The settlement of $50,000 was paid on January 5, 2024.")
	var foundMoney, foundDate bool
	for _, r := range results {
		for _, cl := range r.ClassLinks {
			if cl.Label == "monetary_amount" {
				foundMoney = true
			}
			if cl.Label == "date" {
				foundDate = true
			}
		}
	}
	assert.True(t, foundMoney)
	assert.True(t, foundDate)
}

func TestExtractEarlyPhase_CitationOutranksRegexOnOverlap(t *testing.T) {
	results := ExtractEarlyPhase("Filed under 42 U.S.C. § 1983 in the District Court.")
	for _, r := range results {
		if r.Span.Start == 12 { // citation span start, approximate guard
			assert.Equal(t, job.IndividualSourceEyecite, r.Source)
		}
	}
}

func TestDedupBySourcePriority_MergesOverlappingSpans(t *testing.T) {
	high := job.Individual{ID: "a", MentionText: "ACME Inc.", Span: job.Span{Start: 0, End: 9}, Source: job.IndividualSourceRegex}
	low := job.Individual{ID: "b", MentionText: "ACME Inc.", Span: job.Span{Start: 0, End: 9}, Source: job.IndividualSourceLLM}

	out := DedupBySourcePriority([]job.Individual{low, high})
	require.Len(t, out, 1)
	assert.Equal(t, job.IndividualSourceHybrid, out[0].Source)
}

func TestDedupBySourcePriority_NoOverlapKeepsBoth(t *testing.T) {
	a := job.Individual{ID: "a", MentionText: "Jan 1", Span: job.Span{Start: 0, End: 5}, Source: job.IndividualSourceRegex}
	b := job.Individual{ID: "b", MentionText: "Feb 2", Span: job.Span{Start: 10, End: 15}, Source: job.IndividualSourceRegex}

	out := DedupBySourcePriority([]job.Individual{a, b})
	assert.Len(t, out, 2)
}

func TestMentionEquivalent_SubstringMatches(t *testing.T) {
	assert.True(t, mentionEquivalent("Acme Corporation", "Acme"))
	assert.False(t, mentionEquivalent("Acme", "Globex"))
}
