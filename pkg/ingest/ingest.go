// Package ingest delegates document intake to a format-indexed registry,
// per the ingestion contract: ingest(input) -> (text, elements). The PDF,
// HTML, Word, email and table entries are thin wrappers over a single
// parsing library; text passes through, and markdown and RTF are handled
// by small hand-written parsers.
package ingest

import (
	"context"
	"fmt"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/registry"
)

// Element is one structural unit of a parsed document.
type Element struct {
	Text        string `json:"text"`
	ElementType string `json:"element_type"`
	SectionPath string `json:"section_path,omitempty"`
	Page        int    `json:"page,omitempty"`
	Level       int    `json:"level,omitempty"`
}

// Ingester turns one document input into raw text plus optional structural
// elements.
type Ingester interface {
	Ingest(ctx context.Context, input job.Input) (text string, elements []Element, err error)
}

// Registry is a format-keyed Ingester registry, built on the module's
// shared generic registry primitive.
type Registry struct {
	base *registry.BaseRegistry[Ingester]
}

// NewRegistry builds a Registry pre-populated with every ingester this
// module ships.
func NewRegistry() *Registry {
	r := &Registry{base: registry.NewBaseRegistry[Ingester]()}
	r.base.Register(string(job.FormatText), &textIngester{})
	r.base.Register(string(job.FormatHTML), &htmlIngester{})
	r.base.Register(string(job.FormatMarkdown), &markdownIngester{})
	r.base.Register(string(job.FormatPDF), &pdfIngester{})
	r.base.Register(string(job.FormatWord), &wordIngester{})
	r.base.Register(string(job.FormatRTF), &rtfIngester{})
	r.base.Register(string(job.FormatEmail), &emailIngester{})
	r.base.Register(string(job.FormatTable), &tableIngester{})
	return r
}

// Ingest dispatches input to the ingester registered for its format.
func (r *Registry) Ingest(ctx context.Context, input job.Input) (string, []Element, error) {
	ing, ok := r.base.Get(string(input.Format))
	if !ok {
		return "", nil, fmt.Errorf("ingest: unsupported format %q", input.Format)
	}
	return ing.Ingest(ctx, input)
}
