package reconcile

import (
	"context"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/ontology"
)

// Stage is the spec.md §4.6 reconciler: it joins the ruler and LLM concept
// maps (flattened from per-chunk), suppresses LLM concepts that are
// actually property labels, and syncs preliminary annotation state against
// the join result.
type Stage struct {
	Store    ontology.Store
	Embedder Embedder
}

func NewStage(store ontology.Store, embedder Embedder) *Stage {
	return &Stage{Store: store, Embedder: embedder}
}

func (s *Stage) Name() string { return "reconciler" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Status = job.StatusIdentifying

	var rulerConcepts, llmConcepts []job.ConceptMatch
	for _, v := range j.Result.Metadata.RulerConcepts {
		rulerConcepts = append(rulerConcepts, v...)
	}
	for _, v := range j.Result.Metadata.LLMConcepts {
		llmConcepts = append(llmConcepts, v...)
	}

	propertyLabels := map[string]bool{}
	if s.Store != nil {
		for label := range s.Store.AllPropertyLabels() {
			propertyLabels[label] = true
		}
	}

	reconciled := Reconcile(rulerConcepts, llmConcepts, propertyLabels, s.Embedder)
	j.Result.Metadata.ReconciledConcepts = reconciled

	annotations := make([]*job.Annotation, len(j.Result.Annotations))
	for i := range j.Result.Annotations {
		annotations[i] = &j.Result.Annotations[i]
	}
	SyncAnnotationStates(annotations, reconciled)

	return j, nil
}
