// Package quality implements the SPEC_FULL.md §4.16 quality checker: a
// post-completion, advisory cross-check between a document's
// self-identified type and what the pipeline actually found. It never
// mutates job status and never blocks completion.
package quality

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/llm"
)

const (
	branchSummaryLimit  = 10
	conceptSummaryLimit = 15
)

var responseSchema = llm.JSONSchema{
	Type: "object",
	Properties: map[string]llm.JSONSchema{
		"signals": {
			Type: "array",
			Items: &llm.JSONSchema{
				Type: "object",
				Properties: map[string]llm.JSONSchema{
					"signal":   {Type: "string"},
					"severity": {Type: "string"},
					"details":  {Type: "string"},
				},
			},
		},
	},
}

// Signal is one advisory quality concern surfaced for the activity log.
type Signal struct {
	Signal   string `json:"signal"`
	Severity string `json:"severity"`
	Details  string `json:"details"`
}

// Checker runs once a job reaches job.StatusCompleted.
type Checker struct {
	Provider llm.Provider
}

func New(provider llm.Provider) *Checker { return &Checker{Provider: provider} }

func (c *Checker) Name() string { return "quality_checker" }

// Check cross-checks metadata.self_identified_type against the pipeline's
// findings and appends an activity_log entry summarizing any signals.
// It never returns an error that should abort anything — callers run it
// after the job has already reached its terminal status.
func (c *Checker) Check(ctx context.Context, j *job.Job) {
	selfType := j.Result.Metadata.SelfIdentifiedType
	if selfType == "" || c.Provider == nil {
		return
	}

	prompt := c.buildPrompt(j, selfType)
	result, err := c.Provider.Structured(ctx, prompt, responseSchema, llm.Options{Temperature: 0})
	if err != nil {
		j.Result.Metadata.Log(c.Name(), "quality check failed: "+err.Error())
		return
	}

	signals := parseSignals(result)
	if len(signals) == 0 {
		j.Result.Metadata.Log(c.Name(), "no quality concerns found")
		return
	}
	for _, sig := range signals {
		j.Result.Metadata.Log(c.Name(), fmt.Sprintf("[%s] %s: %s", sig.Severity, sig.Signal, sig.Details))
	}
}

func parseSignals(result map[string]any) []Signal {
	raw, ok := result["signals"].([]any)
	if !ok {
		return nil
	}
	var signals []Signal
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		sig := Signal{Severity: "info"}
		if s, ok := m["signal"].(string); ok {
			sig.Signal = s
		}
		if sev, ok := m["severity"].(string); ok && (sev == "warning" || sev == "info") {
			sig.Severity = sev
		}
		if details, ok := m["details"].(string); ok {
			sig.Details = details
		}
		signals = append(signals, sig)
	}
	return signals
}

func (c *Checker) buildPrompt(j *job.Job, selfType string) string {
	branchCounts := map[string]int{}
	conceptCounts := map[string]int{}

	for _, a := range j.Result.Annotations {
		primary := a.Primary()
		if primary == nil {
			continue
		}
		if len(primary.Branches) > 0 {
			branchCounts[primary.Branches[0]]++
		}
		label := primary.FolioLabel
		if label == "" {
			label = primary.ConceptText
		}
		if label != "" {
			conceptCounts[label]++
		}
	}

	branchSummary := topCounts(branchCounts, branchSummaryLimit)
	conceptSummary := topCounts(conceptCounts, conceptSummaryLimit)

	var b strings.Builder
	b.WriteString("You are a quality assurance reviewer for a legal document enrichment pipeline.\n\n")
	fmt.Fprintf(&b, "The document identifies itself as: %s\n\n", selfType)
	b.WriteString("The pipeline found the following enrichment results:\n")
	fmt.Fprintf(&b, "- Annotation count: %d\n", len(j.Result.Annotations))
	fmt.Fprintf(&b, "- Property count: %d\n", len(j.Result.Properties))
	fmt.Fprintf(&b, "- Top concept branches: %s\n", branchSummary)
	fmt.Fprintf(&b, "- Top concept labels: %s\n\n", conceptSummary)
	b.WriteString("Identify any quality concerns:\n")
	b.WriteString("1. Are there expected concept branches for this document type that are MISSING?\n")
	b.WriteString("2. Are there unexpected branches that dominate the results?\n")
	b.WriteString("3. Does the annotation count seem reasonable for this document type?\n")
	b.WriteString("4. Any other mismatches between the document type and the pipeline findings?\n\n")
	b.WriteString("Respond with {\"signals\":[{\"signal\":...,\"severity\":\"warning or info\",\"details\":...}]}. If everything looks consistent, return an empty signals array.")
	return b.String()
}

func topCounts(counts map[string]int, limit int) string {
	type entry struct {
		key   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for k, v := range counts {
		entries = append(entries, entry{k, v})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].count > entries[j].count })
	if len(entries) > limit {
		entries = entries[:limit]
	}

	if len(entries) == 0 {
		return "none"
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s (x%d)", e.key, e.count)
	}
	return strings.Join(parts, ", ")
}
