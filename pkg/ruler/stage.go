package ruler

import (
	"context"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// Stage is the spec.md §4.4 deterministic label matcher. It belongs in the
// parallel phase alongside the LLM concept identifier: both need only the
// canonical text and write to disjoint metadata keys.
type Stage struct {
	Ruler *Ruler
}

func NewStage(r *Ruler) *Stage { return &Stage{Ruler: r} }

func (s *Stage) Name() string { return "entity_ruler" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Status = job.StatusEnriching
	matches := s.Ruler.Match(j.Result.CanonicalText.FullText)
	if j.Result.Metadata.RulerConcepts == nil {
		j.Result.Metadata.RulerConcepts = map[int][]job.ConceptMatch{}
	}
	j.Result.Metadata.RulerConcepts[0] = matches
	return j, nil
}
