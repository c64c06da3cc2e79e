// Package concept implements the spec.md §4.5 LLM concept identifier: a
// per-chunk structured LLM pass that proposes candidate ontology concepts,
// then materializes preliminary annotations for them via the same
// Aho-Corasick matcher the deterministic ruler uses, so the event stream
// can paint preliminary state before reconciliation completes.
package concept

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/foliolegal/enrichcore/pkg/matcher"
	"github.com/foliolegal/enrichcore/pkg/normalize"
	"github.com/foliolegal/enrichcore/pkg/ontology"
)

var structuredSchema = llm.JSONSchema{
	Type: "object",
	Properties: map[string]llm.JSONSchema{
		"concepts": {
			Type: "array",
			Items: &llm.JSONSchema{
				Type: "object",
				Properties: map[string]llm.JSONSchema{
					"concept_text": {Type: "string"},
					"branch_hint":  {Type: "string"},
					"confidence":   {Type: "number"},
				},
				Required: []string{"concept_text", "confidence"},
			},
		},
	},
	Required: []string{"concepts"},
}

type llmConceptResult struct {
	ConceptText string  `json:"concept_text"`
	BranchHint  string  `json:"branch_hint"`
	Confidence  float64 `json:"confidence"`
}

// Stage is the §4.5 LLM concept identifier. It belongs in the parallel
// phase alongside the deterministic ruler, since both need only the
// canonical text and write to disjoint metadata keys (LLMConcepts vs
// RulerConcepts).
type Stage struct {
	Provider llm.Provider
	Store    ontology.Store
}

func New(provider llm.Provider, store ontology.Store) *Stage {
	return &Stage{Provider: provider, Store: store}
}

func (s *Stage) Name() string { return "llm_concept_identifier" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	if s.Provider == nil {
		return j, nil
	}

	j.Status = job.StatusEnriching

	text := j.Result.CanonicalText.FullText
	chunks := j.Result.CanonicalText.Chunks
	if len(chunks) == 0 {
		return j, nil
	}

	byChunk := map[int][]job.ConceptMatch{}
	best := map[string]job.ConceptMatch{}

	for _, chunk := range chunks {
		prompt := s.buildPrompt(chunk)
		result, err := s.Provider.Structured(ctx, prompt, structuredSchema, llm.Options{Temperature: 0})
		if err != nil {
			continue // LLM failures never abort the pipeline; skip this chunk.
		}

		items := parseConcepts(result)
		matches := make([]job.ConceptMatch, 0, len(items))
		for _, item := range items {
			if item.ConceptText == "" {
				continue
			}
			cm := job.ConceptMatch{
				ConceptText: item.ConceptText,
				Confidence:  item.Confidence,
				Source:      job.SourceLLM,
				Branches:    branchesOf(item.BranchHint),
			}
			matches = append(matches, cm)

			key := strings.ToLower(strings.TrimSpace(item.ConceptText))
			if existing, ok := best[key]; !ok || cm.Confidence > existing.Confidence {
				best[key] = cm
			}
		}
		byChunk[chunk.Index] = matches
	}
	j.Result.Metadata.LLMConcepts = byChunk

	j.Result.Annotations = append(j.Result.Annotations, materializePreliminary(text, best)...)
	return j, nil
}

func branchesOf(hint string) []string {
	if hint == "" {
		return nil
	}
	return []string{hint}
}

func parseConcepts(result map[string]any) []llmConceptResult {
	raw, ok := result["concepts"]
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var items []llmConceptResult
	_ = json.Unmarshal(encoded, &items)
	return items
}

// materializePreliminary runs an Aho-Corasick pass over the full text using
// each unique (highest-confidence) concept_text and emits one preliminary
// annotation per match, with sentence_text pulled from a sentence index.
func materializePreliminary(text string, best map[string]job.ConceptMatch) []job.Annotation {
	if len(best) == 0 {
		return nil
	}

	sentences := normalize.SplitSentences(text)

	var patterns []matcher.Pattern
	byID := map[string]job.ConceptMatch{}
	i := 0
	for _, cm := range best {
		id := fmt.Sprintf("c%d", i)
		i++
		byID[id] = cm
		patterns = append(patterns, matcher.Pattern{Text: cm.ConceptText, ID: id})
	}

	automaton := matcher.Build(patterns)
	raw := automaton.FindAll(text)
	resolved := matcher.ResolveOverlaps(raw)

	var out []job.Annotation
	for _, m := range resolved {
		cm, ok := byID[m.PatternID]
		if !ok {
			continue
		}
		span := job.Span{Start: m.Start, End: m.End, Text: m.Text, SentenceText: sentenceContaining(sentences, m.Start, m.End)}
		ann := job.Annotation{
			ID:       fmt.Sprintf("ann-prelim-%d-%d", m.Start, m.End),
			Span:     span,
			Concepts: []job.ConceptMatch{cm},
			State:    job.StatePreliminary,
		}
		ann.AppendLineage(job.StageEvent{Stage: "llm_concept_identifier", Action: "preliminary"})
		out = append(out, ann)
	}
	return out
}

func sentenceContaining(sentences []normalize.Sentence, start, end int) string {
	for _, s := range sentences {
		if s.Start <= start && end <= s.End {
			return s.Text
		}
	}
	return ""
}

func (s *Stage) buildPrompt(chunk job.Chunk) string {
	var b strings.Builder
	b.WriteString("Identify legal ontology concepts mentioned in this text chunk.\n\n")
	b.WriteString(chunk.Text)
	b.WriteString("\n\n")
	if s.Store != nil {
		b.WriteString("Known concept branches:\n")
		for branch := range s.Store.Branches(1) {
			fmt.Fprintf(&b, "- %s\n", branch)
		}
		b.WriteString("\n")
	}
	b.WriteString("Respond with {\"concepts\":[{\"concept_text\":...,\"branch_hint\":...,\"confidence\":0-1}]}.")
	return b.String()
}
