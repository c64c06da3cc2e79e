// Package rerank implements the §4.12 contextual reranker: one LLM call
// per document, scoring every resolved concept against up to the first
// 3000 characters of normalized text.
package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
)

const maxContextChars = 3000

var responseSchema = llm.JSONSchema{
	Type: "object",
	Properties: map[string]llm.JSONSchema{
		"scores": {
			Type: "array",
			Items: &llm.JSONSchema{
				Type: "object",
				Properties: map[string]llm.JSONSchema{
					"concept_text":     {Type: "string"},
					"folio_iri":        {Type: "string"},
					"contextual_score": {Type: "number"},
				},
				Required: []string{"concept_text", "folio_iri", "contextual_score"},
			},
		},
	},
	Required: []string{"scores"},
}

type scoreEntry struct {
	ConceptText     string  `json:"concept_text"`
	FolioIRI        string  `json:"folio_iri"`
	ContextualScore float64 `json:"contextual_score"`
}

// Stage reweights the confidence of every annotation whose primary concept
// received a contextual score (whatever its state), blending the pipeline
// confidence with that document-level score 50/50.
type Stage struct {
	Provider llm.Provider
}

func New(provider llm.Provider) *Stage { return &Stage{Provider: provider} }

func (s *Stage) Name() string { return "contextual_reranker" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	if s.Provider == nil {
		return j, nil
	}

	text := j.Result.CanonicalText.FullText
	if runes := []rune(text); len(runes) > maxContextChars {
		text = string(runes[:maxContextChars])
	}

	prompt := buildPrompt(text, j.Result.Annotations)
	result, err := s.Provider.Structured(ctx, prompt, responseSchema, llm.Options{Temperature: 0})
	if err != nil {
		return j, nil
	}

	scores, err := parseScores(result)
	if err != nil {
		return j, nil
	}

	index := map[string]float64{}
	for _, sc := range scores {
		index[key(sc.ConceptText, sc.FolioIRI)] = sc.ContextualScore
	}

	for i := range j.Result.Annotations {
		ann := &j.Result.Annotations[i]
		primary := ann.Primary()
		if primary == nil {
			continue
		}
		contextual, ok := index[key(primary.ConceptText, primary.FolioIRI)]
		if !ok {
			continue
		}
		pipelineConfidence := primary.Confidence
		primary.Confidence = 0.5*pipelineConfidence + 0.5*contextual
		ann.AppendLineage(job.StageEvent{
			Stage:  s.Name(),
			Action: "reranked",
			Detail: fmt.Sprintf("contextual_score=%.2f", contextual),
		})
	}

	return j, nil
}

func key(conceptText, folioIRI string) string {
	return strings.ToLower(conceptText) + "|" + folioIRI
}

func parseScores(result map[string]any) ([]scoreEntry, error) {
	raw, ok := result["scores"]
	if !ok {
		return nil, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var scores []scoreEntry
	if err := json.Unmarshal(encoded, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

func buildPrompt(text string, annotations []job.Annotation) string {
	var b strings.Builder
	b.WriteString("Document excerpt:\n")
	b.WriteString(text)
	b.WriteString("\n\nResolved concepts:\n")
	seen := map[string]bool{}
	for _, a := range annotations {
		primary := a.Primary()
		if primary == nil {
			continue
		}
		k := key(primary.ConceptText, primary.FolioIRI)
		if seen[k] {
			continue
		}
		seen[k] = true
		fmt.Fprintf(&b, "- concept_text=%q folio_iri=%q\n", primary.ConceptText, primary.FolioIRI)
	}
	b.WriteString("\nFor each concept, score how well it fits this document's context on a 0-1 scale. Respond with {\"scores\":[{\"concept_text\":...,\"folio_iri\":...,\"contextual_score\":...}]}.")
	return b.String()
}
