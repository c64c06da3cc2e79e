package property

import (
	"context"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/foliolegal/enrichcore/pkg/ontology"
)

// EarlyStage runs the Aho-Corasick property matcher over the canonical
// text. It belongs in the parallel phase alongside the deterministic
// label matcher, since it needs only the canonical text.
type EarlyStage struct {
	matcher *Matcher
}

func NewEarlyStage(store ontology.Store) *EarlyStage {
	return &EarlyStage{matcher: New(store)}
}

func (s *EarlyStage) Name() string { return "property_extraction_early" }

func (s *EarlyStage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Status = job.StatusExtractingProperties
	j.Result.Properties = s.matcher.Match(j.Result.CanonicalText.FullText)
	return j, nil
}

// LLMStage runs the per-chunk LLM phase, linking domain/range class
// annotations; it belongs in the post-parallel phase, after the string
// matcher has produced confirmed annotations.
type LLMStage struct {
	Provider llm.Provider
}

func NewLLMStage(provider llm.Provider) *LLMStage { return &LLMStage{Provider: provider} }

func (s *LLMStage) Name() string { return "property_extraction_llm" }

func (s *LLMStage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Status = job.StatusExtractingProperties
	j.Result.Properties = RunLLMPhase(ctx, s.Provider, j.Result.CanonicalText.Chunks, j.Result.Annotations, j.Result.Properties)
	return j, nil
}
