package main

import (
	"context"
	"fmt"

	"github.com/foliolegal/enrichcore/pkg/areaoflaw"
	"github.com/foliolegal/enrichcore/pkg/branchjudge"
	"github.com/foliolegal/enrichcore/pkg/concept"
	"github.com/foliolegal/enrichcore/pkg/config"
	"github.com/foliolegal/enrichcore/pkg/dependency"
	"github.com/foliolegal/enrichcore/pkg/ingest"
	"github.com/foliolegal/enrichcore/pkg/individual"
	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/jobstore"
	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/foliolegal/enrichcore/pkg/metadata"
	"github.com/foliolegal/enrichcore/pkg/normalize"
	"github.com/foliolegal/enrichcore/pkg/ontology"
	"github.com/foliolegal/enrichcore/pkg/pipeline"
	"github.com/foliolegal/enrichcore/pkg/property"
	"github.com/foliolegal/enrichcore/pkg/quality"
	"github.com/foliolegal/enrichcore/pkg/reconcile"
	"github.com/foliolegal/enrichcore/pkg/resolve"
	"github.com/foliolegal/enrichcore/pkg/rerank"
	"github.com/foliolegal/enrichcore/pkg/ruler"
	"github.com/foliolegal/enrichcore/pkg/stringmatch"
)

// app is the set of long-lived collaborators every command needs, built
// once from a loaded Config.
type app struct {
	cfg      *config.Config
	provider llm.Provider
	store    ontology.Store
	jobs     *jobstore.FileStore
	checker  *quality.Checker
	orch     *pipeline.Orchestrator
}

func newApp(cfg *config.Config) (*app, error) {
	var store ontology.Store = ontology.NewMemoryStore(nil)
	if cfg.Ontology.Path != "" {
		loaded, err := ontology.LoadFile(cfg.Ontology.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load ontology: %w", err)
		}
		store = loaded
	}

	var provider llm.Provider
	if llmCfg, ok := cfg.LLMs[cfg.DefaultLLM]; ok {
		p, err := llm.NewProviderFromConfig(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build llm provider %q: %w", cfg.DefaultLLM, err)
		}
		provider = p
	}

	jobs, err := jobstore.NewFileStore(cfg.JobStore.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}

	a := &app{
		cfg:      cfg,
		provider: provider,
		store:    store,
		jobs:     jobs,
		checker:  quality.New(provider),
	}
	a.orch = pipeline.New(buildPipelineConfig(cfg, provider, store), jobs, nil)
	return a, nil
}

// buildPipelineConfig wires every stage package into the three-phase
// orchestrator contract, in spec order: ingest/normalize run sequentially
// since each depends on the previous stage's canonical text; the ruler,
// LLM concept identifier, and early individual/property passes fan out in
// parallel since each only reads the canonical text and writes to disjoint
// metadata keys; everything from reconciliation onward runs sequentially
// since each stage consumes the prior stage's output.
func buildPipelineConfig(cfg *config.Config, provider llm.Provider, store ontology.Store) pipeline.Config {
	rulerEngine := ruler.New(store, nil)

	return pipeline.Config{
		PreParallel: []pipeline.Stage{
			ingest.NewStage(ingest.NewRegistry()),
			normalize.NewStage(cfg.Pipeline.Chunking),
		},
		Parallel: []pipeline.Stage{
			ruler.NewStage(rulerEngine),
			concept.New(provider, store),
			individual.NewEarlyStage(),
			property.NewEarlyStage(store),
		},
		PostParallel: []pipeline.Stage{
			reconcile.NewStage(store, nil),
			resolve.NewStage(resolve.NewResolver(store, cfg.Pipeline.Resolution)),
			stringmatch.New(),
			branchjudge.New(provider, store),
			individual.NewLLMStage(provider),
			property.NewLLMStage(provider),
			rerank.New(provider),
			metadata.New(provider),
			dependency.New(dependency.NewRuleBasedParser()),
			areaoflaw.New(provider),
		},
	}
}

// Run executes the pipeline end to end for one job, then runs the
// post-completion quality check, which is deliberately not a Stage: it is
// advisory only and must never participate in the parallel-phase
// tolerant-failure contract or influence job.Status.
func (a *app) Run(ctx context.Context, j *job.Job) error {
	_, err := a.orch.Run(ctx, j)
	if err != nil {
		return err
	}
	if a.cfg.Pipeline.QualityCheck {
		a.checker.Check(ctx, j)
		_ = a.jobs.Save(ctx, j)
	}
	return nil
}
