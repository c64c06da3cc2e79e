package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_FindsStatuteCitation(t *testing.T) {
	matches := Extract("The plaintiff sues under 42 U.S.C. § 1983 for damages.")
	require := assert.New(t)
	require.NotEmpty(matches)
	found := false
	for _, m := range matches {
		if m.ClassHint == "statute" {
			found = true
		}
	}
	require.True(found)
}

func TestExtract_FindsCaseLawCitation(t *testing.T) {
	matches := Extract("This follows the rule in Smith v. Jones, 410 U.S. 113.")
	found := false
	for _, m := range matches {
		if m.ClassHint == "case_law" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestExtract_FindsDocketNumber(t *testing.T) {
	matches := Extract("See Docket No. 21-cv-04567 for the full filing.")
	found := false
	for _, m := range matches {
		if m.ClassHint == "docket" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestExtract_DedupesOverlappingMatches(t *testing.T) {
	matches := Extract("42 U.S.C. § 1983")
	assert.Len(t, matches, 1)
}

func TestToIndividuals_UsesEyeciteSourcePriority(t *testing.T) {
	matches := Extract("42 U.S.C. § 1983")
	individuals := ToIndividuals(matches)
	require := assert.New(t)
	require.Len(individuals, 1)
	require.Equal("eyecite", string(individuals[0].Source))
}
