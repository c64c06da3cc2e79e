package ingest

import (
	"context"
	"regexp"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// markdownIngester strips ATX heading markers and basic inline emphasis,
// tracking a heading-derived section path the same way htmlIngester does,
// since no markdown-parsing library appears anywhere in the retrieved
// corpus.
type markdownIngester struct{}

var (
	mdHeading = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	mdEmphasis = regexp.MustCompile("[*_`]{1,3}")
)

func (markdownIngester) Ingest(_ context.Context, input job.Input) (string, []Element, error) {
	lines := strings.Split(input.Content, "\n")

	var elements []Element
	var sectionPath []string
	var texts []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := mdHeading.FindStringSubmatch(trimmed); m != nil {
			level := len(m[1])
			text := strings.TrimSpace(m[2])
			for len(sectionPath) >= level {
				sectionPath = sectionPath[:len(sectionPath)-1]
			}
			sectionPath = append(sectionPath, text)
			elements = append(elements, Element{
				Text:        text,
				ElementType: "heading",
				SectionPath: strings.Join(sectionPath, " > "),
				Level:       level,
			})
			texts = append(texts, text)
			continue
		}

		elemType := "paragraph"
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			elemType = "list_item"
			trimmed = strings.TrimSpace(trimmed[2:])
		}

		clean := mdEmphasis.ReplaceAllString(trimmed, "")
		elements = append(elements, Element{
			Text:        clean,
			ElementType: elemType,
			SectionPath: strings.Join(sectionPath, " > "),
		})
		texts = append(texts, clean)
	}

	return strings.Join(texts, "\n\n"), elements, nil
}
