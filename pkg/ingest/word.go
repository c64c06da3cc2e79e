package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/nguyenthenguyen/docx"
)

// wordIngester adapts the teacher's parseWordDocument. The library only
// reads from a file path, so the decoded bytes are staged to a temp file
// for the duration of the parse.
type wordIngester struct{}

func (wordIngester) Ingest(_ context.Context, input job.Input) (string, []Element, error) {
	raw, err := base64.StdEncoding.DecodeString(input.Content)
	if err != nil {
		return "", nil, fmt.Errorf("word ingest: decode base64: %w", err)
	}

	tmp, err := os.CreateTemp("", "enrichcore-word-*.docx")
	if err != nil {
		return "", nil, fmt.Errorf("word ingest: stage temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(raw); err != nil {
		return "", nil, fmt.Errorf("word ingest: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", nil, fmt.Errorf("word ingest: close temp file: %w", err)
	}

	doc, err := docx.ReadDocxFile(tmp.Name())
	if err != nil {
		return "", nil, fmt.Errorf("word ingest: parse docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()

	var elements []Element
	for i, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		elements = append(elements, Element{
			Text:        para,
			ElementType: "paragraph",
			SectionPath: fmt.Sprintf("paragraph_%d", i),
		})
	}

	return content, elements, nil
}
