package ingest

import (
	"context"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// Stage is the spec.md §4.2 ingestion stage: it delegates to a
// format-indexed Registry and stores the raw text plus optional structural
// elements for the normalization stage to pick up.
type Stage struct {
	Registry *Registry
}

func NewStage(registry *Registry) *Stage { return &Stage{Registry: registry} }

func (s *Stage) Name() string { return "ingestion" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Status = job.StatusIngesting

	text, elements, err := s.Registry.Ingest(ctx, j.Input)
	if err != nil {
		return j, err
	}

	if j.Result.Metadata.Scratch == nil {
		j.Result.Metadata.Scratch = &job.Scratch{}
	}
	j.Result.Metadata.Scratch.RawText = text

	textElements := make([]job.TextElement, len(elements))
	for i, el := range elements {
		te := job.TextElement{Text: el.Text, ElementType: el.ElementType, SectionPath: el.SectionPath}
		if el.Page > 0 {
			page := el.Page
			te.Page = &page
		}
		if el.Level > 0 {
			level := el.Level
			te.Level = &level
		}
		textElements[i] = te
	}
	j.Result.Metadata.Scratch.Elements = textElements

	return j, nil
}
