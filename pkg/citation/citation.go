// Package citation extracts legal citations (statutes, case law, dockets)
// from normalized text via a regex pattern table, in the absence of any
// citation-parsing library in the dependency corpus.
package citation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// Match is one citation hit before it is lifted into a job.Individual.
type Match struct {
	Text     string
	Start    int
	End      int
	ClassHint string // e.g. "statute", "case_law", "docket"
}

type pattern struct {
	re        *regexp.Regexp
	classHint string
}

var patterns = []pattern{
	// 42 U.S.C. § 1983
	{regexp.MustCompile(`\b\d+\s+U\.S\.C\.\s*§{1,2}\s*\d+[a-zA-Z0-9\-]*(?:\(\w+\))*`), "statute"},
	// Cal. Civ. Code § 1542, N.Y. Gen. Oblig. Law § 5-1105
	{regexp.MustCompile(`\b[A-Z][a-zA-Z.]*\.?\s+(?:Civ\.|Penal|Gen\.|Bus\.)[a-zA-Z.\s]*Code\s*§{1,2}\s*[\d.\-]+`), "statute"},
	// 347 F.3d 1216, 410 U.S. 113
	{regexp.MustCompile(`\b\d+\s+(?:U\.S\.|F\.\s?(?:2d|3d|4th)|F\.\s?Supp\.\s?(?:2d|3d)?)\s+\d+`), "case_law"},
	// Smith v. Jones
	{regexp.MustCompile(`\b[A-Z][a-zA-Z.'\-]+(?:\s+[A-Z][a-zA-Z.'\-]+)*\s+v\.\s+[A-Z][a-zA-Z.'\-]+(?:\s+[A-Z][a-zA-Z.'\-]+)*`), "case_law"},
	// No. 12-345-CV, Docket No. 21-cv-04567
	{regexp.MustCompile(`\b(?:No\.|Nos\.|Docket No\.)\s*[\dA-Za-z\-]+`), "docket"},
}

// Extract runs the citation pattern table over text and returns the hits
// left after overlap removal: of two overlapping hits the longer is kept,
// and on equal length the one found first wins (the pattern listed
// earlier in the table, statute > case_law > docket).
func Extract(text string) []Match {
	var all []Match
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			all = append(all, Match{Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1], ClassHint: p.classHint})
		}
	}
	return dedupeOverlapping(all)
}

func dedupeOverlapping(matches []Match) []Match {
	if len(matches) <= 1 {
		return matches
	}
	keep := make([]bool, len(matches))
	for i := range keep {
		keep[i] = true
	}
	for i := 0; i < len(matches); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(matches); j++ {
			if !keep[j] {
				continue
			}
			if overlaps(matches[i], matches[j]) {
				li := matches[i].End - matches[i].Start
				lj := matches[j].End - matches[j].Start
				if lj > li {
					keep[i] = false
				} else {
					keep[j] = false
				}
			}
		}
	}
	var out []Match
	for i, k := range keep {
		if k {
			out = append(out, matches[i])
		}
	}
	return out
}

func overlaps(a, b Match) bool {
	return a.Start < b.End && b.Start < a.End
}

// CanonicalURL builds a best-effort courtlistener-style lookup URL for a
// citation, normalizing internal whitespace first. Citations that don't
// resemble a reporter cite (case_law) get no URL.
func CanonicalURL(m Match) string {
	if m.ClassHint != "case_law" {
		return ""
	}
	normalized := strings.Join(strings.Fields(m.Text), " ")
	return fmt.Sprintf("https://www.courtlistener.com/?q=%s", strings.ReplaceAll(normalized, " ", "+"))
}

// ToIndividuals lifts citation matches into job.Individual records sourced
// from eyecite-equivalent extraction, the highest-priority source in the
// dedup ladder (job.SourcePriority).
func ToIndividuals(matches []Match) []job.Individual {
	out := make([]job.Individual, 0, len(matches))
	for i, m := range matches {
		out = append(out, job.Individual{
			ID:             fmt.Sprintf("citation-%d-%d", m.Start, i),
			Name:           m.Text,
			MentionText:    m.Text,
			IndividualType: job.IndividualLegalCitation,
			Span:           job.Span{Start: m.Start, End: m.End, Text: m.Text},
			Confidence:     0.95,
			Source:         job.IndividualSourceEyecite,
			NormalizedForm: strings.Join(strings.Fields(m.Text), " "),
			URL:            CanonicalURL(m),
			ClassLinks: []job.ClassLink{{
				Label:        m.ClassHint,
				Relationship: "instance_of",
				Confidence:   0.95,
			}},
		})
	}
	return out
}
