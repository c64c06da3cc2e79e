package normalize

import (
	"context"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// Stage is the spec.md §4.3 normalization stage: whitespace collapsing,
// legal-domain-aware sentence splitting, and overlap-bounded chunking. It
// turns the ingestion stage's scratch raw text into the job's canonical
// text.
type Stage struct {
	Config Config
}

func NewStage(cfg Config) *Stage {
	cfg.SetDefaults()
	return &Stage{Config: cfg}
}

func (s *Stage) Name() string { return "normalization" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	j.Status = job.StatusNormalizing

	raw := j.Input.Content
	if j.Result.Metadata.Scratch != nil && j.Result.Metadata.Scratch.RawText != "" {
		raw = j.Result.Metadata.Scratch.RawText
	}

	text := CollapseWhitespace(raw)
	sentences := SplitSentences(text)
	chunks := ChunkText(text, sentences, s.Config)

	j.Result.CanonicalText.FullText = text
	j.Result.CanonicalText.Chunks = toJobChunks(chunks, sentences)
	if j.Result.Metadata.Scratch != nil {
		j.Result.CanonicalText.Elements = j.Result.Metadata.Scratch.Elements
	}

	return j, nil
}

// toJobChunks converts normalize.Chunk (whose SentenceStarts are
// chunk-relative offsets, redundant once Start/End are known) into the
// job-model job.Chunk, recovering each chunk's covered sentences by
// absolute-offset containment against the full sentence list.
func toJobChunks(chunks []Chunk, sentences []Sentence) []job.Chunk {
	out := make([]job.Chunk, len(chunks))
	for i, c := range chunks {
		jc := job.Chunk{Text: c.Text, Start: c.Start, End: c.End, Index: c.Index}
		for _, s := range sentences {
			if s.Start >= c.Start && s.End <= c.End {
				jc.Sentences = append(jc.Sentences, job.Sentence{Start: s.Start, End: s.End, Text: s.Text})
			}
		}
		out[i] = jc
	}
	return out
}
