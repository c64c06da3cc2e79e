package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindAll_WordBoundary(t *testing.T) {
	a := Build([]Pattern{{Text: "contract", ID: "p1"}})

	matches := a.FindAll("this is a contractual matter")
	assert.Empty(t, matches, `"contract" must not match inside "contractual"`)

	matches = a.FindAll("breach of contract here")
	assert.Len(t, matches, 1)
	assert.Equal(t, "contract", matches[0].Text)
}

func TestFindAll_Containment(t *testing.T) {
	a := Build([]Pattern{
		{Text: "breach", ID: "breach"},
		{Text: "breach of contract", ID: "boc"},
	})

	text := "The breach of contract was clear."
	raw := a.FindAll(text)
	resolved := ResolveOverlaps(raw)

	assert.Len(t, resolved, 2, "both the contained and containing spans must be retained")

	ids := map[string]RawMatch{}
	for _, m := range resolved {
		ids[m.PatternID] = m
	}
	require := assert.New(t)
	require.Contains(ids, "breach")
	require.Contains(ids, "boc")
	require.Equal(4, ids["boc"].Start)
	require.Equal(22, ids["boc"].End)
	require.Equal(4, ids["breach"].Start)
	require.Equal(10, ids["breach"].End)
}

func TestResolveOverlaps_IdenticalSpansDedup(t *testing.T) {
	raw := []RawMatch{
		{Start: 0, End: 5, PatternID: "a"},
		{Start: 0, End: 5, PatternID: "b"},
	}
	resolved := ResolveOverlaps(raw)
	assert.Len(t, resolved, 1)
	assert.Equal(t, "a", resolved[0].PatternID)
}

func TestResolveOverlaps_PartialOverlapLongerWins(t *testing.T) {
	raw := []RawMatch{
		{Start: 0, End: 5, PatternID: "short"},
		{Start: 2, End: 10, PatternID: "long"},
	}
	resolved := ResolveOverlaps(raw)
	assert.Len(t, resolved, 1)
	assert.Equal(t, "long", resolved[0].PatternID)
}

func TestResolveOverlaps_PartialOverlapTieFirstWins(t *testing.T) {
	raw := []RawMatch{
		{Start: 0, End: 5, PatternID: "first"},
		{Start: 3, End: 8, PatternID: "second"},
	}
	resolved := ResolveOverlaps(raw)
	assert.Len(t, resolved, 1)
	assert.Equal(t, "first", resolved[0].PatternID)
}
