// Package reconcile joins the deterministic label matcher's output against
// the LLM concept identifier's output into one authoritative concept list
// per chunk, and syncs preliminary annotation state against that join.
package reconcile

import (
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// Embedder computes a similarity score in [0,1] between a mention in
// context and a candidate label, used only for the optional conflict_resolved
// triage path. Wiring one in is optional; reconciliation functions without
// it, it simply never produces conflict_resolved categories.
type Embedder interface {
	Similarity(mentionContext, candidateLabel string) (float64, error)
}

const rulerOnlyConfidenceFloor = 0.60

// Reconcile joins rulerConcepts and llmConcepts (both case-insensitive on
// ConceptText) into one list, per the four-category join described by the
// reconciliation contract. propertyLabels suppresses LLM concepts that are
// actually verbs (object-property labels), case-insensitively.
func Reconcile(rulerConcepts, llmConcepts []job.ConceptMatch, propertyLabels map[string]bool, embedder Embedder) []job.ConceptMatch {
	rulerByText := indexByText(rulerConcepts)
	llmByText := indexByText(llmConcepts)

	var out []job.ConceptMatch
	seen := map[string]bool{}

	for text, llm := range llmByText {
		if propertyLabels[text] {
			continue
		}
		seen[text] = true

		ruler, hasRuler := rulerByText[text]
		if !hasRuler {
			c := llm
			c.Source = job.SourceLLM
			out = append(out, c)
			continue
		}

		if embedder != nil && ruler.FolioIRI != "" && llm.FolioIRI != "" && ruler.FolioIRI != llm.FolioIRI {
			resolved := resolveConflict(ruler, llm, embedder)
			resolved.Source = job.SourceConflictResolved
			out = append(out, resolved)
			continue
		}

		c := llm
		c.Confidence = minF(c.Confidence+0.05, 1.0)
		c.Source = job.SourceReconciled
		out = append(out, c)
	}

	for text, ruler := range rulerByText {
		if seen[text] || propertyLabels[text] {
			continue
		}
		if ruler.Confidence < rulerOnlyConfidenceFloor {
			continue
		}
		c := ruler
		c.Source = job.SourceEntityRuler
		out = append(out, c)
	}

	return out
}

func resolveConflict(ruler, llm job.ConceptMatch, embedder Embedder) job.ConceptMatch {
	rulerScore, errR := embedder.Similarity(ruler.ConceptText, ruler.FolioLabel)
	llmScore, errL := embedder.Similarity(llm.ConceptText, llm.FolioLabel)
	if errR != nil || errL != nil || llmScore >= rulerScore {
		return llm
	}
	return ruler
}

func indexByText(concepts []job.ConceptMatch) map[string]job.ConceptMatch {
	out := make(map[string]job.ConceptMatch, len(concepts))
	for _, c := range concepts {
		key := strings.ToLower(strings.TrimSpace(c.ConceptText))
		if key == "" {
			continue
		}
		existing, ok := out[key]
		if !ok || c.Confidence > existing.Confidence {
			out[key] = c
		}
	}
	return out
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// SyncAnnotationStates applies the reconciliation result to the current
// preliminary annotations, following the annotation-state-sync contract:
// both_agree/conflict_resolved -> confirmed; absent -> rejected; ruler_only
// -> stays preliminary (the resolver confirms it later). Every transition
// appends a lineage event.
func SyncAnnotationStates(annotations []*job.Annotation, reconciled []job.ConceptMatch) {
	byKey := make(map[string]job.ConceptMatch, len(reconciled))
	for _, c := range reconciled {
		key := strings.ToLower(strings.TrimSpace(c.ConceptText)) + "|" + c.FolioIRI
		byKey[key] = c
	}

	for _, ann := range annotations {
		if ann.State != job.StatePreliminary {
			continue
		}
		primary := ann.Primary()
		if primary == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(primary.ConceptText)) + "|" + primary.FolioIRI

		match, ok := byKey[key]
		switch {
		case ok && (match.Source == job.SourceReconciled || match.Source == job.SourceConflictResolved):
			ann.State = job.StateConfirmed
			ann.AppendLineage(job.StageEvent{Stage: "reconciler", Action: "confirmed"})
		case !ok:
			ann.State = job.StateRejected
			ann.AppendLineage(job.StageEvent{Stage: "reconciler", Action: "rejected"})
		default:
			// ruler_only: remains preliminary until the resolver runs.
		}
	}
}
