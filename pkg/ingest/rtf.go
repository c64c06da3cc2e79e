package ingest

import (
	"context"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// rtfIngester strips RTF control words, groups, and escape sequences down
// to plain text. No RTF library exists anywhere in the retrieved corpus,
// so this is a minimal hand-rolled stripper rather than a full parser.
type rtfIngester struct{}

func (rtfIngester) Ingest(_ context.Context, input job.Input) (string, []Element, error) {
	text := stripRTF(input.Content)
	return text, nil, nil
}

// destinationGroups are control words that introduce a group holding
// non-body content (fonts, colors, styles, metadata, pictures) rather than
// document text; everything until the group's closing brace is dropped.
var destinationGroups = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "generator": true, "header": true, "footer": true,
	"footnote": true, "themedata": true, "xmlnstbl": true, "listtable": true,
	"revtbl": true, "rsidtbl": true, "nonshppict": true,
}

func stripRTF(in string) string {
	var out strings.Builder
	runes := []rune(in)
	i := 0
	// skipStack[d] is true when group depth d (or an ancestor) is a
	// non-text destination whose content must be dropped.
	var skipStack []bool
	skipStack = append(skipStack, false) // depth 0: outside any group

	skipping := func() bool { return skipStack[len(skipStack)-1] }

	for i < len(runes) {
		c := runes[i]
		switch c {
		case '{':
			skipStack = append(skipStack, skipping())
			i++
		case '}':
			if len(skipStack) > 1 {
				skipStack = skipStack[:len(skipStack)-1]
			}
			i++
		case '\\':
			i++
			if i >= len(runes) {
				break
			}
			switch runes[i] {
			case '\\', '{', '}':
				if !skipping() {
					out.WriteRune(runes[i])
				}
				i++
			case '\'':
				// \'hh hex-escaped byte; skip the two hex digits.
				i += 3
			case '*':
				// Ignorable-destination marker; the following control
				// word (if recognized or not) marks this group skipped.
				skipStack[len(skipStack)-1] = true
				i++
			default:
				j := i
				for j < len(runes) && isLetter(runes[j]) {
					j++
				}
				word := string(runes[i:j])
				for j < len(runes) && (runes[j] == '-' || isDigit(runes[j])) {
					j++
				}
				if j < len(runes) && runes[j] == ' ' {
					j++
				}
				if j == i {
					j = i + 1
				}
				if destinationGroups[word] {
					skipStack[len(skipStack)-1] = true
				}
				if word == "par" || word == "line" {
					if !skipping() {
						out.WriteRune('\n')
					}
				} else if word == "tab" {
					if !skipping() {
						out.WriteRune('\t')
					}
				}
				i = j
			}
		case '\n', '\r':
			i++
		default:
			if !skipping() {
				out.WriteRune(c)
			}
			i++
		}
	}

	return strings.TrimSpace(out.String())
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
