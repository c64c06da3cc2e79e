// Package branchjudge implements the §4.11 branch judge: for every
// resolved concept that still lacks a FOLIO branch, an LLM call is asked
// to pick one from the surrounding sentence context.
package branchjudge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/foliolegal/enrichcore/pkg/ontology"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// maxFanout bounds concurrent judge calls per job, per spec.md §5's
// Config.Concurrency.MaxLLMFanout rule.
const maxFanout = 8

var responseSchema = llm.JSONSchema{
	Type: "object",
	Properties: map[string]llm.JSONSchema{
		"branch":     {Type: "string"},
		"confidence": {Type: "number"},
		"reasoning":  {Type: "string"},
	},
	Required: []string{"branch", "confidence"},
}

type verdict struct {
	Branch     string  `json:"branch"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Stage dispatches one LLM call per branchless resolved concept,
// concurrently, and blends the judge's confidence with the pipeline's.
type Stage struct {
	Provider llm.Provider
	Store    ontology.Store
}

func New(provider llm.Provider, store ontology.Store) *Stage {
	return &Stage{Provider: provider, Store: store}
}

func (s *Stage) Name() string { return "branch_judge" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Status = job.StatusJudging
	if s.Provider == nil {
		return j, nil
	}

	fullText := j.Result.CanonicalText.FullText
	var mu sync.Mutex
	sem := semaphore.NewWeighted(maxFanout)
	g, gctx := errgroup.WithContext(ctx)

	for i := range j.Result.Annotations {
		ann := &j.Result.Annotations[i]
		if ann.State != job.StateConfirmed {
			continue
		}
		primary := ann.Primary()
		if primary == nil || len(primary.Branches) > 0 {
			continue
		}

		idx := i
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)
			s.judgeOne(gctx, fullText, j, idx, &mu)
			return nil
		})
	}

	_ = g.Wait() // per-item LLM failures are tolerated inside judgeOne; never aborts the stage
	return j, nil
}

func (s *Stage) judgeOne(ctx context.Context, fullText string, j *job.Job, idx int, mu *sync.Mutex) {
	mu.Lock()
	ann := &j.Result.Annotations[idx]
	primary := ann.Primary()
	if primary == nil {
		mu.Unlock()
		return
	}
	conceptText := primary.ConceptText
	pipelineConfidence := primary.Confidence
	mu.Unlock()

	sentence := surroundingSentence(fullText, ann.Span.Start, ann.Span.End)
	candidates := s.candidateConcepts(conceptText)

	prompt := buildPrompt(conceptText, sentence, candidates)
	result, err := s.Provider.Structured(ctx, prompt, responseSchema, llm.Options{Temperature: 0})
	if err != nil {
		return
	}

	v := parseVerdict(result)

	mu.Lock()
	defer mu.Unlock()
	ann = &j.Result.Annotations[idx]
	primary = ann.Primary()
	if primary == nil {
		return
	}
	if v.Branch == "" {
		ann.AppendLineage(job.StageEvent{Stage: "branch_judge", Action: "rejected", Detail: "no branch assigned"})
		return
	}
	primary.Branches = []string{v.Branch}
	primary.Confidence = 0.7*pipelineConfidence + 0.3*v.Confidence
	ann.AppendLineage(job.StageEvent{
		Stage:     "branch_judge",
		Action:    "branch_assigned",
		Detail:    v.Branch,
		Reasoning: v.Reasoning,
	})
}

func (s *Stage) candidateConcepts(text string) []ontology.Concept {
	if s.Store == nil {
		return nil
	}
	return s.Store.SearchByLabel(text, 5)
}

func parseVerdict(result map[string]any) verdict {
	v := verdict{}
	if branch, ok := result["branch"].(string); ok {
		v.Branch = strings.TrimSpace(branch)
	}
	if conf, ok := result["confidence"].(float64); ok {
		v.Confidence = conf
	}
	if reasoning, ok := result["reasoning"].(string); ok {
		v.Reasoning = reasoning
	}
	return v
}

// surroundingSentence locates the sentence containing [start,end) by
// scanning outward from the span to the nearest sentence-ending
// punctuation on each side.
func surroundingSentence(text string, start, end int) string {
	if start < 0 || end > len(text) || start >= end {
		return ""
	}
	lo := start
	for lo > 0 && !isSentenceBoundary(text[lo-1]) {
		lo--
	}
	hi := end
	for hi < len(text) && !isSentenceBoundary(text[hi]) {
		hi++
	}
	if hi < len(text) {
		hi++
	}
	return strings.TrimSpace(text[lo:hi])
}

func isSentenceBoundary(b byte) bool {
	return b == '.' || b == '\n' || b == '!' || b == '?'
}

func buildPrompt(conceptText, sentence string, candidates []ontology.Concept) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Concept: %q\n", conceptText)
	fmt.Fprintf(&b, "Surrounding sentence: %q\n\n", sentence)
	b.WriteString("Candidate ontology concepts:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- iri=%q label=%q branches=%v\n", c.IRI, c.CleanLabel(), c.Branches)
	}
	b.WriteString("\nPick the single FOLIO branch that best classifies this concept in context. Return an empty branch if none fit.")
	return b.String()
}
