package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/ledongthuc/pdf"
)

// pdfIngester extracts plain text page by page, adapting the teacher's
// page-by-page pdfParser.
type pdfIngester struct{}

func (pdfIngester) Ingest(ctx context.Context, input job.Input) (string, []Element, error) {
	raw, err := base64.StdEncoding.DecodeString(input.Content)
	if err != nil {
		return "", nil, fmt.Errorf("pdf ingest: decode base64: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", nil, fmt.Errorf("pdf ingest: %w", err)
	}

	var elements []Element
	var texts []string
	totalPages := reader.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		select {
		case <-ctx.Done():
			return strings.Join(texts, "\n\n"), elements, ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		elements = append(elements, Element{
			Text:        text,
			ElementType: "page",
			Page:        pageNum,
		})
		texts = append(texts, text)
	}

	return strings.Join(texts, "\n\n"), elements, nil
}
