package ingest

import (
	"context"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// textIngester passes plain-text input through unchanged, with no
// structural elements.
type textIngester struct{}

func (textIngester) Ingest(_ context.Context, input job.Input) (string, []Element, error) {
	return input.Content, nil, nil
}
