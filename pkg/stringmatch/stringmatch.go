// Package stringmatch implements the post-resolution string matcher: the
// final Aho-Corasick pass over every resolved concept's labels, merged
// against the preliminary annotations carried forward from the ruler and
// reconciler stages.
package stringmatch

import (
	"context"
	"sort"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/matcher"
)

// Stage wires the resolved concept list into a final Aho-Corasick sweep
// over the document's canonical text, producing the confirmed annotation
// set for the job.
type Stage struct{}

func New() *Stage { return &Stage{} }

func (s *Stage) Name() string { return "string_matcher" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	text := j.Result.CanonicalText.FullText
	resolved := j.Result.Metadata.ResolvedConcepts
	if len(resolved) == 0 && len(j.Result.Annotations) == 0 {
		return j, nil
	}

	automaton, labelIndex := buildAutomaton(resolved)
	raw := automaton.FindAll(text)
	matches := matcher.ResolveOverlaps(raw)

	j.Result.Annotations = Merge(j.Result.Annotations, matches, labelIndex, text)
	return j, nil
}

type labelEntry struct {
	concept job.ConceptMatch
}

// buildAutomaton builds one pattern per resolved concept's preferred label
// plus every safe (non-ambiguous) alternative label, keyed by pattern id so
// matches can be traced back to the originating ConceptMatch.
func buildAutomaton(resolved []job.ConceptMatch) (*matcher.Automaton, map[string]labelEntry) {
	var patterns []matcher.Pattern
	index := map[string]labelEntry{}

	for i, c := range resolved {
		labels := []string{c.ConceptText}
		if c.FolioLabel != "" && !strings.EqualFold(c.FolioLabel, c.ConceptText) {
			labels = append(labels, c.FolioLabel)
		}
		for _, alt := range c.AltLabels {
			if len(strings.Fields(alt)) >= 2 || len(alt) >= 5 {
				labels = append(labels, alt)
			}
		}

		for li, label := range labels {
			clean := strings.TrimSpace(label)
			if clean == "" {
				continue
			}
			id := concatID(i, li)
			index[id] = labelEntry{concept: c}
			patterns = append(patterns, matcher.Pattern{Text: clean, ID: id})
		}
	}

	return matcher.Build(patterns), index
}

func concatID(i, li int) string {
	return itoa(i) + "-" + itoa(li)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// Merge reconciles the automaton's raw span hits against the job's existing
// (preliminary) annotations:
//   - exact (start,end,iri) match against an existing annotation: upgrade
//     that annotation's state to confirmed, keep its id.
//   - same concept_text at the same span but a different/absent iri: upgrade
//     in place, preserving id, replacing the concept list.
//   - no existing annotation at that span: create a new confirmed one.
//
// Annotations with no corresponding match are preserved as rejected. The
// result is deduplicated by (start, end, folio_iri), appends a dedup_merged
// lineage event for drops, and is sorted by span start.
func Merge(existing []job.Annotation, matches []matcher.RawMatch, index map[string]labelEntry, text string) []job.Annotation {
	byID := make(map[string]*job.Annotation, len(existing))
	consumed := make(map[string]bool, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
	}

	var out []job.Annotation

	for _, m := range matches {
		entry, ok := index[m.PatternID]
		if !ok {
			continue
		}
		concept := entry.concept
		concept.Source = job.SourceMatched
		concept.State = job.StateConfirmed

		match := findSpanMatch(existing, m.Start, m.End, concept.FolioIRI, concept.ConceptText)
		if match != nil {
			consumed[match.ID] = true
			match.Span = job.Span{Start: m.Start, End: m.End, Text: m.Text}
			match.Concepts = []job.ConceptMatch{concept}
			match.State = job.StateConfirmed
			match.AppendLineage(job.StageEvent{Stage: "string_matcher", Action: "confirmed"})
			out = append(out, *match)
			continue
		}

		ann := job.Annotation{
			ID:       newAnnotationID(m.Start, m.End, concept.FolioIRI),
			Span:     job.Span{Start: m.Start, End: m.End, Text: m.Text},
			Concepts: []job.ConceptMatch{concept},
			State:    job.StateConfirmed,
		}
		ann.AppendLineage(job.StageEvent{Stage: "string_matcher", Action: "created"})
		out = append(out, ann)
	}

	for i := range existing {
		if consumed[existing[i].ID] {
			continue
		}
		rejected := existing[i]
		if rejected.State != job.StateRejected {
			rejected.State = job.StateRejected
			rejected.AppendLineage(job.StageEvent{Stage: "string_matcher", Action: "rejected"})
		}
		out = append(out, rejected)
	}

	out = dedupByIRISpan(out)

	sort.SliceStable(out, func(i, k int) bool { return out[i].Span.Start < out[k].Span.Start })
	return out
}

func findSpanMatch(existing []job.Annotation, start, end int, iri, text string) *job.Annotation {
	for i := range existing {
		a := &existing[i]
		if a.Span.Start == start && a.Span.End == end {
			primary := a.Primary()
			if primary == nil {
				return a
			}
			if iri != "" && primary.FolioIRI == iri {
				return a
			}
			if strings.EqualFold(primary.ConceptText, text) {
				return a
			}
		}
	}
	return nil
}

func dedupByIRISpan(anns []job.Annotation) []job.Annotation {
	seen := map[string]int{}
	var out []job.Annotation
	for _, a := range anns {
		primary := a.Primary()
		iri := ""
		if primary != nil {
			iri = primary.FolioIRI
		}
		key := itoa(a.Span.Start) + ":" + itoa(a.Span.End) + ":" + iri
		if idx, ok := seen[key]; ok {
			if a.State == job.StateConfirmed && out[idx].State != job.StateConfirmed {
				out[idx] = a
			}
			out[idx].AppendLineage(job.StageEvent{Stage: "string_matcher", Action: "dedup_merged"})
			continue
		}
		seen[key] = len(out)
		out = append(out, a)
	}
	return out
}

func newAnnotationID(start, end int, iri string) string {
	h := strings.NewReplacer(":", "", "/", "", "#", "").Replace(iri)
	return "ann-" + itoa(start) + "-" + itoa(end) + "-" + h
}
