// Package areaoflaw implements the SPEC_FULL.md §4.15 area-of-law
// assessor: the final post-parallel stage, run after the metadata stage,
// classifying the document's practice areas from its document type, its
// extracted court/jurisdiction/claim-type fields, and a summary of its
// annotated concepts.
package areaoflaw

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
)

const topConceptLimit = 30
const minConfidence = 0.5

var responseSchema = llm.JSONSchema{
	Type: "object",
	Properties: map[string]llm.JSONSchema{
		"areas": {
			Type: "array",
			Items: &llm.JSONSchema{
				Type: "object",
				Properties: map[string]llm.JSONSchema{
					"area":       {Type: "string"},
					"confidence": {Type: "number"},
					"reasoning":  {Type: "string"},
				},
			},
		},
	},
}

type areaResult struct {
	Area       string  `json:"area"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Stage populates Metadata.AreasOfLaw via a single LLM call per document.
type Stage struct {
	Provider llm.Provider
}

func New(provider llm.Provider) *Stage { return &Stage{Provider: provider} }

func (s *Stage) Name() string { return "area_of_law_assessor" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	if s.Provider == nil {
		return j, nil
	}

	prompt := buildPrompt(j)
	result, err := s.Provider.Structured(ctx, prompt, responseSchema, llm.Options{Temperature: 0})
	if err != nil {
		j.Result.Metadata.Log(s.Name(), "area-of-law assessment failed, leaving empty: "+err.Error())
		return j, nil
	}

	areas := parseAreas(result)
	areas = filterAndSort(areas)

	labels := make([]string, 0, len(areas))
	for _, a := range areas {
		labels = append(labels, a.Area)
	}
	j.Result.Metadata.AreasOfLaw = labels
	j.Result.Metadata.Log(s.Name(), fmt.Sprintf("identified %d area(s) of law", len(labels)))
	return j, nil
}

func parseAreas(result map[string]any) []areaResult {
	raw, ok := result["areas"].([]any)
	if !ok {
		return nil
	}
	var areas []areaResult
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var a areaResult
		if area, ok := m["area"].(string); ok {
			a.Area = area
		}
		if conf, ok := m["confidence"].(float64); ok {
			a.Confidence = conf
		}
		if reasoning, ok := m["reasoning"].(string); ok {
			a.Reasoning = reasoning
		}
		areas = append(areas, a)
	}
	return areas
}

func filterAndSort(areas []areaResult) []areaResult {
	var out []areaResult
	for _, a := range areas {
		if a.Confidence >= minConfidence && a.Area != "" {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// buildPrompt assembles the document_type, extracted_fields, and a
// deduplicated, count-annotated concepts summary (top 30 by frequency,
// label+branch keyed, truncated definitions), matching
// original_source's area_of_law_assessor.py shape.
func buildPrompt(j *job.Job) string {
	counts := map[string]int{}
	definitions := map[string]string{}
	order := []string{}

	for _, a := range j.Result.Annotations {
		primary := a.Primary()
		if primary == nil {
			continue
		}
		branch := ""
		if len(primary.Branches) > 0 {
			branch = primary.Branches[0]
		}
		label := primary.FolioLabel
		if label == "" {
			label = primary.ConceptText
		}
		key := fmt.Sprintf("%s [%s]", label, branch)
		if counts[key] == 0 {
			order = append(order, key)
			defn := primary.Definition
			if len(defn) > 60 {
				defn = strings.TrimSpace(defn[:60]) + "..."
			}
			definitions[key] = defn
		}
		counts[key]++
	}

	sort.SliceStable(order, func(i, k int) bool { return counts[order[i]] > counts[order[k]] })
	if len(order) > topConceptLimit {
		order = order[:topConceptLimit]
	}

	parts := make([]string, 0, len(order))
	for _, key := range order {
		entry := key
		if d := definitions[key]; d != "" {
			entry += " - " + d
		}
		if counts[key] > 1 {
			entry += fmt.Sprintf(" (x%d)", counts[key])
		}
		parts = append(parts, entry)
	}
	summary := strings.Join(parts, ", ")
	if summary == "" {
		summary = "No concepts extracted"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Document type: %s\n", j.Result.Metadata.DocumentType)
	fmt.Fprintf(&b, "Extracted fields: court=%q jurisdiction=%q claim_types=%v\n",
		j.Result.Metadata.ExtractedFields.Court,
		j.Result.Metadata.ExtractedFields.Jurisdiction,
		j.Result.Metadata.ExtractedFields.ClaimTypes)
	fmt.Fprintf(&b, "Concepts: %s\n\n", summary)
	b.WriteString("Identify the areas of law this document touches. Respond with {\"areas\":[{\"area\":...,\"confidence\":...,\"reasoning\":...}]}.")
	return b.String()
}
