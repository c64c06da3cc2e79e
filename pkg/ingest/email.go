package ingest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// emailIngester parses RFC 5322 messages via the standard library's
// net/mail, walking multipart bodies for the plain-text part.
type emailIngester struct{}

func (emailIngester) Ingest(_ context.Context, input job.Input) (string, []Element, error) {
	msg, err := mail.ReadMessage(strings.NewReader(input.Content))
	if err != nil {
		return "", nil, fmt.Errorf("email ingest: %w", err)
	}

	var elements []Element
	for _, field := range []string{"From", "To", "Cc", "Subject", "Date"} {
		if v := msg.Header.Get(field); v != "" {
			elements = append(elements, Element{
				Text:        v,
				ElementType: "header",
				SectionPath: field,
			})
		}
	}

	contentType := msg.Header.Get("Content-Type")
	body, err := extractEmailBody(msg.Body, contentType)
	if err != nil {
		return "", elements, err
	}
	body = strings.TrimSpace(body)
	if body != "" {
		elements = append(elements, Element{Text: body, ElementType: "body"})
	}

	headerText := msg.Header.Get("Subject")
	var parts []string
	if headerText != "" {
		parts = append(parts, "Subject: "+headerText)
	}
	parts = append(parts, body)
	return strings.Join(parts, "\n\n"), elements, nil
}

func extractEmailBody(r io.Reader, contentType string) (string, error) {
	if contentType == "" {
		raw, err := io.ReadAll(r)
		return string(raw), err
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		raw, readErr := io.ReadAll(r)
		return string(raw), readErr
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		raw, err := io.ReadAll(r)
		return string(raw), err
	}

	boundary := params["boundary"]
	if boundary == "" {
		raw, err := io.ReadAll(r)
		return string(raw), err
	}

	reader := multipart.NewReader(r, boundary)
	var plain string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partType := part.Header.Get("Content-Type")
		partMedia, _, _ := mime.ParseMediaType(partType)
		raw, _ := io.ReadAll(part)

		if partMedia == "" || partMedia == "text/plain" {
			plain = string(raw)
			break
		}
		if plain == "" && partMedia == "text/html" {
			plain = string(raw)
		}
	}

	return plain, nil
}
