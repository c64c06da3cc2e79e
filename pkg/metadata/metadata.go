// Package metadata implements the §4.13 metadata stage: document-type
// classification, a structured context summary, LLM field extraction,
// role-hint promotion, and deterministic page_count/source_format.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
)

const (
	classifyChars = 500
	headerChars   = 1000
	footerChars   = 500
	footerMinLen  = 1500
	topConceptMax = 20
	tripleMax     = 30
)

var classifySchema = llm.JSONSchema{
	Type: "object",
	Properties: map[string]llm.JSONSchema{
		"document_type": {Type: "string"},
		"confidence":    {Type: "number"},
	},
	Required: []string{"document_type", "confidence"},
}

var fieldsSchema = llm.JSONSchema{
	Type: "object",
	Properties: map[string]llm.JSONSchema{
		"court":         {Type: "string"},
		"judge":         {Type: "string"},
		"case_number":   {Type: "string"},
		"parties":       {Type: "array", Items: &llm.JSONSchema{Type: "string"}},
		"date_filed":    {Type: "string"},
		"jurisdiction":  {Type: "string"},
		"governing_law": {Type: "string"},
		"claim_types":   {Type: "array", Items: &llm.JSONSchema{Type: "string"}},
		"author":        {Type: "string"},
		"recipient":     {Type: "string"},
		"addresses":     {Type: "array", Items: &llm.JSONSchema{Type: "string"}},
	},
}

// roleHints maps a lowercase phrase found immediately before an
// annotation's span to the ExtractedFields field it should promote into,
// when that field is still unset.
var roleHints = []struct {
	phrase string
	field  string
}{
	{"honorable", "judge"},
	{"judge", "judge"},
	{"in the", "court"},
	{"signed by", "author"},
	{"attention:", "recipient"},
	{"dear", "recipient"},
}

// Stage runs all five metadata phases in sequence.
type Stage struct {
	Provider llm.Provider
}

func New(provider llm.Provider) *Stage { return &Stage{Provider: provider} }

func (s *Stage) Name() string { return "metadata" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	s.classifyDocumentType(ctx, j)
	summary := buildContextSummary(j)
	s.extractFields(ctx, j, summary)
	promoteRoleHints(j)
	populateDeterministicFields(j)
	return j, nil
}

// Phase 1: reuse the existing self-identified type, else classify from
// the first 500 characters.
func (s *Stage) classifyDocumentType(ctx context.Context, j *job.Job) {
	if j.Result.Metadata.SelfIdentifiedType != "" {
		j.Result.Metadata.DocumentType = j.Result.Metadata.SelfIdentifiedType
		return
	}
	if s.Provider == nil {
		return
	}

	text := j.Result.CanonicalText.FullText
	if len(text) > classifyChars {
		text = text[:classifyChars]
	}
	prompt := fmt.Sprintf("Classify the type of legal document from this excerpt:\n\n%s\n\nRespond with {\"document_type\":...,\"confidence\":...}.", text)
	result, err := s.Provider.Structured(ctx, prompt, classifySchema, llm.Options{Temperature: 0})
	if err != nil {
		return
	}
	if dt, ok := result["document_type"].(string); ok {
		j.Result.Metadata.DocumentType = dt
		j.Result.Metadata.SelfIdentifiedType = dt
	}
	if conf, ok := result["confidence"].(float64); ok {
		j.Result.Metadata.DocumentTypeConfidence = conf
	}
}

// contextSummary is phase 2's structured view of accumulated pipeline
// output, serialized into the phase-3 LLM prompt.
type contextSummary struct {
	IndividualsByType map[string][]string `json:"individuals_by_type"`
	LowConfidence     []string            `json:"low_confidence"`
	Triples           []string            `json:"spo_triples"`
	TopConcepts       []string            `json:"top_concepts"`
	AreasOfLaw        []string            `json:"areas_of_law"`
	Header            string              `json:"header"`
	Footer            string              `json:"footer,omitempty"`
}

var typeLabels = map[string]string{
	"spacy_person":   "Persons",
	"spacy_org":       "Organizations",
	"court":          "Courts",
	"date":           "Dates",
	"address":        "Addresses",
	"monetary_amount": "Monetary",
}

func buildContextSummary(j *job.Job) contextSummary {
	summary := contextSummary{IndividualsByType: map[string][]string{}}

	for _, ind := range j.Result.Individuals {
		category := "Named Entities"
		if ind.IndividualType == job.IndividualLegalCitation {
			category = "Citations"
		} else if len(ind.ClassLinks) > 0 {
			if label, ok := typeLabels[ind.ClassLinks[0].Label]; ok {
				category = label
			}
		}
		summary.IndividualsByType[category] = append(summary.IndividualsByType[category], ind.MentionText)

		if ind.Confidence < 0.6 {
			summary.LowConfidence = append(summary.LowConfidence, fmt.Sprintf("%s (%s)", ind.MentionText, ind.Span.SentenceText))
		}
	}

	for i, tr := range j.Result.Metadata.SPOTriples {
		if i >= tripleMax {
			break
		}
		summary.Triples = append(summary.Triples, fmt.Sprintf("%s %s %s", tr.Subject.Text, tr.Verb.Text, tr.Object.Text))
	}

	for _, a := range j.Result.Annotations {
		primary := a.Primary()
		if primary == nil {
			continue
		}
		if primary.Confidence < 0.6 {
			summary.LowConfidence = append(summary.LowConfidence, fmt.Sprintf("%s (%s)", primary.ConceptText, a.Span.SentenceText))
		}
		if primary.Confidence >= 0.80 && len(summary.TopConcepts) < topConceptMax {
			summary.TopConcepts = append(summary.TopConcepts, primary.ConceptText)
		}
	}

	summary.AreasOfLaw = j.Result.Metadata.AreasOfLaw

	text := j.Result.CanonicalText.FullText
	header := text
	if len(header) > headerChars {
		header = header[:headerChars]
	}
	summary.Header = header
	if len(text) > footerMinLen {
		summary.Footer = text[len(text)-footerChars:]
	}

	return summary
}

// Phase 3: LLM extraction of structured fields.
func (s *Stage) extractFields(ctx context.Context, j *job.Job, summary contextSummary) {
	if s.Provider == nil {
		return
	}
	encoded, err := json.Marshal(summary)
	if err != nil {
		return
	}
	prompt := fmt.Sprintf("Document context summary:\n%s\n\nExtract structured case/document fields.", string(encoded))
	result, err := s.Provider.Structured(ctx, prompt, fieldsSchema, llm.Options{Temperature: 0})
	if err != nil {
		return
	}
	encodedResult, err := json.Marshal(result)
	if err != nil {
		return
	}
	var fields job.ExtractedFields
	if err := json.Unmarshal(encodedResult, &fields); err != nil {
		return
	}
	j.Result.Metadata.ExtractedFields = fields
}

// Phase 4: promote concept text into an unset extracted field when the
// 50 characters preceding the annotation's span contain a role hint.
func promoteRoleHints(j *job.Job) {
	text := j.Result.CanonicalText.FullText
	fields := &j.Result.Metadata.ExtractedFields

	for _, a := range j.Result.Annotations {
		primary := a.Primary()
		if primary == nil {
			continue
		}
		start := a.Span.Start - 50
		if start < 0 {
			start = 0
		}
		preceding := strings.ToLower(text[start:a.Span.Start])

		for _, hint := range roleHints {
			if !strings.Contains(preceding, hint.phrase) {
				continue
			}
			switch hint.field {
			case "judge":
				if fields.Judge == "" {
					fields.Judge = primary.ConceptText
				}
			case "court":
				if fields.Court == "" {
					fields.Court = primary.ConceptText
				}
			case "author":
				if fields.Author == "" {
					fields.Author = primary.ConceptText
				}
			case "recipient":
				if fields.Recipient == "" {
					fields.Recipient = primary.ConceptText
				}
			}
		}
	}
}

// Phase 5: deterministic page_count/source_format.
func populateDeterministicFields(j *job.Job) {
	j.Result.Metadata.SourceFormat = string(j.Input.Format)

	maxPage := 0
	for _, el := range j.Result.CanonicalText.Elements {
		if el.Page != nil && *el.Page > maxPage {
			maxPage = *el.Page
		}
	}
	if maxPage == 0 {
		const charsPerPage = 3000
		maxPage = (len(j.Result.CanonicalText.FullText) / charsPerPage) + 1
	}
	j.Result.Metadata.PageCount = maxPage
}
