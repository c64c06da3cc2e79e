package resolve

import (
	"context"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// Stage is the spec.md §4.7 resolver: it turns every reconciled concept
// mention into a ResolvedConcept. A concept that carries a FolioIRI takes
// the resolver's fast path and keeps its own confidence (it is dropped only
// when the IRI is not in the store); the rest are scored and dropped when
// they can't clear the configured threshold.
type Stage struct {
	Resolver *Resolver
}

func NewStage(r *Resolver) *Stage { return &Stage{Resolver: r} }

func (s *Stage) Name() string { return "resolver" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Status = job.StatusResolving

	var resolved []job.ConceptMatch
	for _, c := range j.Result.Metadata.ReconciledConcepts {
		branch := ""
		if len(c.Branches) > 0 {
			branch = c.Branches[0]
		}
		match, err := s.Resolver.Resolve(ctx, c.ConceptText, branch, c.FolioIRI, c.Confidence)
		if err != nil || match == nil {
			continue
		}
		resolved = append(resolved, *match)
	}
	j.Result.Metadata.ResolvedConcepts = resolved

	return j, nil
}
