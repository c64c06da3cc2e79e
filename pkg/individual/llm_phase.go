package individual

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
		"individuals": {
			Type: "array",
			Items: &llm.JSONSchema{
				Type: "object",
				Properties: map[string]llm.JSONSchema{
					"action":        {Type: "string", Enum: []string{"create", "link"}},
					"name":          {Type: "string"},
					"mention_text":  {Type: "string"},
					"start":         {Type: "integer"},
					"end":           {Type: "integer"},
					"annotation_id": {Type: "string"},
					"confidence":    {Type: "number"},
				},
				Required: []string{"action", "mention_text", "start", "end"},
			},
		},
	},
	Required: []string{"individuals"},
}

type llmIndividualResult struct {
	Action       string  `json:"action"`
	Name         string  `json:"name"`
	MentionText  string  `json:"mention_text"`
	Start        int     `json:"start"`
	End          int     `json:"end"`
	AnnotationID string  `json:"annotation_id"`
	Confidence   float64 `json:"confidence"`
}

// RunLLMPhase builds one prompt per chunk containing the class annotations
// and individuals overlapping that chunk, asks the provider to create new
// individuals or link existing ones to class annotation ids, translates
// chunk-relative offsets back to document offsets, and merges the result
// into accumulated via the same dedup pass used by the early phase. Only
// "create" results are applied; "link" results are dropped, and no
// existing individual or annotation is changed by them.
func RunLLMPhase(ctx context.Context, provider llm.Provider, chunks []job.Chunk, annotations []job.Annotation, accumulated []job.Individual) []job.Individual {
	if provider == nil {
		return accumulated
	}

	for _, chunk := range chunks {
		prompt := buildPrompt(chunk, annotations, accumulated)
		result, err := provider.Structured(ctx, prompt, structuredSchema, llm.Options{Temperature: 0})
		if err != nil {
			continue // LLM failures never abort the pipeline; skip this chunk.
		}

		raw, ok := result["individuals"]
		if !ok {
			continue
		}
		encoded, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		var items []llmIndividualResult
		if err := json.Unmarshal(encoded, &items); err != nil {
			continue
		}

		for i, item := range items {
			if item.Action != "create" {
				continue // "link" results are not applied.
			}
			docStart := chunk.Start + item.Start
			docEnd := chunk.Start + item.End
			accumulated = append(accumulated, job.Individual{
				ID:             fmt.Sprintf("llm-%d-%d-%d", docStart, docEnd, i),
				Name:           item.Name,
				MentionText:    item.MentionText,
				IndividualType: job.IndividualNamedEntity,
				Span:           job.Span{Start: docStart, End: docEnd, Text: item.MentionText},
				Confidence:     item.Confidence,
				Source:         job.IndividualSourceLLM,
			})
		}
	}

	return DedupBySourcePriority(accumulated)
}

func buildPrompt(chunk job.Chunk, annotations []job.Annotation, individuals []job.Individual) string {
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
		fmt.Fprintf(&b, "- id=%s text=%q concept=%q\n", a.ID, primary.ConceptText, primary.FolioLabel)
	}
	b.WriteString("\nExisting individuals in this chunk:\n")
	for _, ind := range individuals {
		if ind.Span.Start < chunk.Start || ind.Span.End > chunk.End {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s)\n", ind.MentionText, ind.IndividualType)
	}
	b.WriteString("\nIdentify additional named individuals. For each, either create a new one or link it to an existing class annotation id. Offsets are relative to the chunk text above.")
	return b.String()
}
