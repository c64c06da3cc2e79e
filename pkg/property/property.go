// Package property implements the two-phase object-property extraction
// stage (spec.md §4.10): an Aho-Corasick early phase over ontology
// property labels, and an LLM phase that links domain/range class
// annotations.
package property

import (
	"sort"
	"strings"
	"sync"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/matcher"
	"github.com/foliolegal/enrichcore/pkg/ontology"
)

// Matcher is a lazy singleton over every ontology object-property label,
// mirroring pkg/ruler's one-shot automaton build.
type Matcher struct {
	store ontology.Store

	once      sync.Once
	automaton *matcher.Automaton
	labelByID map[string]propertyLabel
}

type propertyLabel struct {
	IRI       string
	Label     string
	MatchType job.MatchType
	Tokens    int
}

func New(store ontology.Store) *Matcher {
	return &Matcher{store: store}
}

func (m *Matcher) ensureBuilt() {
	m.once.Do(func() {
		m.labelByID = map[string]propertyLabel{}
		var patterns []matcher.Pattern

		add := func(iri, label string, matchType job.MatchType) {
			clean := strings.TrimSpace(label)
			if len(clean) < 3 {
				return
			}
			tokens := len(strings.Fields(clean))
			id := iri + "|" + string(matchType) + "|" + clean
			m.labelByID[id] = propertyLabel{IRI: iri, Label: clean, MatchType: matchType, Tokens: tokens}
			patterns = append(patterns, matcher.Pattern{Text: clean, ID: id})
		}

		for _, entry := range m.store.AllPropertyLabels() {
			matchType := job.MatchAlternative
			if entry.LabelType == "preferred" {
				matchType = job.MatchPreferred
			}
			add(entry.IRI, entry.MatchedText, matchType)
		}
		for _, lemma := range m.lemmaVariants() {
			add(lemma.IRI, lemma.Label, job.MatchLemma)
		}

		m.automaton = matcher.Build(patterns)
	})
}

// lemmaVariants derives simple lemma forms (drop trailing "s"/"ed"/"ing")
// of every property label, preferred and alternative, a lemmatizer stand-in:
// no lemmatization library exists anywhere in the retrieved corpus, so a
// conservative suffix-stripping heuristic is used instead.
func (m *Matcher) lemmaVariants() []propertyLabel {
	var out []propertyLabel
	for _, entry := range m.store.AllPropertyLabels() {
		base := entry.MatchedText
		lemma := stripSuffix(base)
		if lemma != "" && lemma != base {
			out = append(out, propertyLabel{IRI: entry.IRI, Label: lemma})
		}
	}
	return out
}

func stripSuffix(s string) string {
	switch {
	case strings.HasSuffix(s, "ing") && len(s) > 6:
		return s[:len(s)-3]
	case strings.HasSuffix(s, "ed") && len(s) > 5:
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s") && len(s) > 4 && !strings.HasSuffix(s, "ss"):
		return s[:len(s)-1]
	default:
		return ""
	}
}

// Confidence implements the base-confidence table named by spec.md §4.10:
// 0.85 preferred, 0.75 alternative, 0.72 lemma, +0.05 for multi-word labels.
func Confidence(matchType job.MatchType, tokens int) float64 {
	base := 0.72
	switch matchType {
	case job.MatchPreferred:
		base = 0.85
	case job.MatchAlternative:
		base = 0.75
	case job.MatchLemma:
		base = 0.72
	}
	if tokens > 1 {
		base += 0.05
	}
	return base
}

// Match runs the automaton over text, returning one PropertyAnnotation per
// resolved span under the §4.10 overlap policy: longer span wins over any
// overlap (including containment); on tie, higher confidence wins; equal
// → first.
func (m *Matcher) Match(text string) []job.PropertyAnnotation {
	m.ensureBuilt()
	raw := m.automaton.FindAll(text)

	var candidates []job.PropertyAnnotation
	for _, r := range raw {
		info, ok := m.labelByID[r.PatternID]
		if !ok {
			continue
		}
		candidates = append(candidates, job.PropertyAnnotation{
			ID:           "prop-" + itoa(r.Start) + "-" + itoa(r.End),
			PropertyText: r.Text,
			IRI:          info.IRI,
			Label:        info.Label,
			Span:         job.Span{Start: r.Start, End: r.End, Text: r.Text},
			Confidence:   Confidence(info.MatchType, info.Tokens),
			Source:       job.PropertySourceAhoCorasick,
			MatchType:    info.MatchType,
		})
	}

	out := resolvePropertyOverlaps(candidates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Span.Start < out[j].Span.Start })
	return out
}

func resolvePropertyOverlaps(candidates []job.PropertyAnnotation) []job.PropertyAnnotation {
	keep := make([]bool, len(candidates))
	for i := range keep {
		keep[i] = true
	}
	for i := 0; i < len(candidates); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			if !keep[j] {
				continue
			}
			a, b := candidates[i], candidates[j]
			if a.Span.Start >= b.Span.End || b.Span.Start >= a.Span.End {
				continue // no overlap
			}
			lenA := a.Span.End - a.Span.Start
			lenB := b.Span.End - b.Span.Start
			switch {
			case lenA > lenB:
				keep[j] = false
			case lenB > lenA:
				keep[i] = false
			case a.Confidence >= b.Confidence:
				keep[j] = false
			default:
				keep[i] = false
			}
			if !keep[i] {
				break
			}
		}
	}
	var out []job.PropertyAnnotation
	for i, k := range keep {
		if k {
			out = append(out, candidates[i])
		}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
