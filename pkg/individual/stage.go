package individual

import (
	"context"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
)

// EarlyStage runs the no-LLM citation + regex/NER extraction pass. It
// belongs in the parallel phase, alongside the deterministic label
// matcher, since it needs only the canonical text.
type EarlyStage struct{}

func NewEarlyStage() *EarlyStage { return &EarlyStage{} }

func (s *EarlyStage) Name() string { return "individual_extraction_early" }

func (s *EarlyStage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Result.Individuals = ExtractEarlyPhase(j.Result.CanonicalText.FullText)
	return j, nil
}

// LLMStage runs the per-chunk LLM phase; it belongs in the post-parallel
// phase, after the string matcher has produced confirmed annotations.
type LLMStage struct {
	Provider llm.Provider
}

func NewLLMStage(provider llm.Provider) *LLMStage { return &LLMStage{Provider: provider} }

func (s *LLMStage) Name() string { return "individual_extraction_llm" }

func (s *LLMStage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Result.Individuals = RunLLMPhase(ctx, s.Provider, j.Result.CanonicalText.Chunks, j.Result.Annotations, j.Result.Individuals)
	return j, nil
}
