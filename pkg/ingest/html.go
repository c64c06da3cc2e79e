package ingest

import (
	"context"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"golang.org/x/net/html"
)

// htmlIngester walks an HTML document tree parsed with golang.org/x/net/html,
// tracking a heading-derived section path and emitting one Element per
// block-level node.
type htmlIngester struct{}

var headingTags = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

var blockTags = map[string]string{
	"p": "paragraph", "li": "list_item", "td": "table_cell",
	"blockquote": "quote", "pre": "code",
}

func (htmlIngester) Ingest(_ context.Context, input job.Input) (string, []Element, error) {
	doc, err := html.Parse(strings.NewReader(input.Content))
	if err != nil {
		return "", nil, err
	}

	var elements []Element
	var sectionPath []string
	var texts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if level, ok := headingTags[tag]; ok {
				text := collectText(n)
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
				return
			}
			if elemType, ok := blockTags[tag]; ok {
				text := strings.TrimSpace(collectText(n))
				if text != "" {
					elements = append(elements, Element{
						Text:        text,
						ElementType: elemType,
						SectionPath: strings.Join(sectionPath, " > "),
					})
					texts = append(texts, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(texts, "\n\n"), elements, nil
}

func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
