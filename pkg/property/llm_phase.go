package property

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
)

var structuredSchema = llm.JSONSchema{
	Type: "object",
	Properties: map[string]llm.JSONSchema{
		"properties": {
			Type: "array",
			Items: &llm.JSONSchema{
				Type: "object",
				Properties: map[string]llm.JSONSchema{
					"property_text": {Type: "string"},
					"start":         {Type: "integer"},
					"end":           {Type: "integer"},
					"domain_iris":   {Type: "array", Items: &llm.JSONSchema{Type: "string"}},
					"range_iris":    {Type: "array", Items: &llm.JSONSchema{Type: "string"}},
					"confidence":    {Type: "number"},
				},
				Required: []string{"property_text", "start", "end"},
			},
		},
	},
	Required: []string{"properties"},
}

type llmPropertyResult struct {
	PropertyText string   `json:"property_text"`
	Start        int      `json:"start"`
	End          int      `json:"end"`
	DomainIRIs   []string `json:"domain_iris"`
	RangeIRIs    []string `json:"range_iris"`
	Confidence   float64  `json:"confidence"`
}

// RunLLMPhase fans out one prompt per chunk, asking the provider to
// identify additional properties and link domain/range class annotations,
// then merges with the early-phase results and re-deduplicates.
func RunLLMPhase(ctx context.Context, provider llm.Provider, chunks []job.Chunk, annotations []job.Annotation, accumulated []job.PropertyAnnotation) []job.PropertyAnnotation {
	if provider == nil {
		return accumulated
	}

	for _, chunk := range chunks {
		prompt := buildPrompt(chunk, annotations)
		result, err := provider.Structured(ctx, prompt, structuredSchema, llm.Options{Temperature: 0})
		if err != nil {
			continue
		}

		raw, ok := result["properties"]
		if !ok {
			continue
		}
		encoded, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		var items []llmPropertyResult
		if err := json.Unmarshal(encoded, &items); err != nil {
			continue
		}

		for _, item := range items {
			docStart := chunk.Start + item.Start
			docEnd := chunk.Start + item.End
			accumulated = append(accumulated, job.PropertyAnnotation{
				ID:           fmt.Sprintf("prop-llm-%d-%d", docStart, docEnd),
				PropertyText: item.PropertyText,
				DomainIRIs:   item.DomainIRIs,
				RangeIRIs:    item.RangeIRIs,
				Span:         job.Span{Start: docStart, End: docEnd, Text: item.PropertyText},
				Confidence:   item.Confidence,
				Source:       job.PropertySourceLLM,
			})
		}
	}

	merged := resolvePropertyOverlaps(accumulated)
	return merged
}

func buildPrompt(chunk job.Chunk, annotations []job.Annotation) string {
	var b strings.Builder
	b.WriteString("Chunk text:\n")
	b.WriteString(chunk.Text)
	b.WriteString("\n\nClass annotations in this chunk:\n")
	for _, a := range annotations {
		if a.Span.Start < chunk.Start || a.Span.End > chunk.End {
			continue
		}
		primary := a.Primary()
		if primary == nil {
			continue
		}
		fmt.Fprintf(&b, "- id=%s text=%q concept=%q iri=%q\n", a.ID, primary.ConceptText, primary.FolioLabel, primary.FolioIRI)
	}
	b.WriteString("\nIdentify relations (verbs/properties) connecting these entities. For each, report its domain and range class annotation ids where applicable. Offsets are relative to the chunk text above.")
	return b.String()
}
