// Package ruler implements the deterministic label matcher ("EntityRuler"):
// a lazily-built Aho-Corasick automaton over every ontology label, matched
// case-insensitively against normalized text without any LLM call.
package ruler

import (
	"strings"
	"sync"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/matcher"
	"github.com/foliolegal/enrichcore/pkg/ontology"
)

// Ruler is a lazy singleton: the automaton is built once, on first Match
// call, guarded by a one-shot initialization marker, then reused for the
// lifetime of the process per the concurrency model's shared-resource
// rules.
type Ruler struct {
	store     ontology.Store
	stopWords map[string]bool

	once      sync.Once
	automaton *matcher.Automaton
	labelByID map[string]labelInfo
}

type labelInfo struct {
	IRI       string
	Label     string
	LabelType job.MatchType
	Tokens    int
}

// DefaultStopWords curates common English words that would otherwise
// generate high-volume false-positive single-word matches.
var DefaultStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "from": true, "have": true, "not": true, "are": true,
}

// New builds a Ruler over the given ontology store. The automaton is not
// built until the first call to Match.
func New(store ontology.Store, stopWords map[string]bool) *Ruler {
	if stopWords == nil {
		stopWords = DefaultStopWords
	}
	return &Ruler{store: store, stopWords: stopWords}
}

func (r *Ruler) ensureBuilt() {
	r.once.Do(func() {
		r.labelByID = map[string]labelInfo{}
		var patterns []matcher.Pattern

		addLabel := func(iri, label string, labelType job.MatchType) {
			clean := strings.TrimSpace(label)
			if len(clean) < 3 {
				return
			}
			tokens := len(strings.Fields(clean))
			if tokens == 1 && r.stopWords[strings.ToLower(clean)] {
				return
			}

			id := iri + "|" + string(labelType) + "|" + clean
			r.labelByID[id] = labelInfo{IRI: iri, Label: clean, LabelType: labelType, Tokens: tokens}
			patterns = append(patterns, matcher.Pattern{Text: strings.ToLower(clean), ID: id})
		}

		for _, c := range r.store.Classes() {
			if c.PreferredLabel != "" {
				addLabel(c.IRI, c.PreferredLabel, job.MatchPreferred)
			}
			for _, alt := range c.AlternativeLabels {
				addLabel(c.IRI, alt, job.MatchAlternative)
			}
		}

		r.automaton = matcher.Build(patterns)
	})
}

// Confidence implements the (label_type, token_count) -> confidence table
// named by the matcher contract.
func Confidence(labelType job.MatchType, tokens int) float64 {
	multiWord := tokens > 1
	switch labelType {
	case job.MatchPreferred:
		if multiWord {
			return 0.95
		}
		return 0.80
	case job.MatchAlternative:
		if multiWord {
			return 0.65
		}
		return 0.35
	default:
		return 0.50
	}
}

// Match runs the automaton against the full normalized text and returns
// one ConceptMatch per resolved span, tagged by the matched label's type.
func (r *Ruler) Match(text string) []job.ConceptMatch {
	r.ensureBuilt()

	// Patterns are stored lowercased, so the text is lowercased too.
	lower := strings.ToLower(text)
	raw := r.automaton.FindAll(lower)
	resolved := matcher.ResolveOverlaps(raw)

	out := make([]job.ConceptMatch, 0, len(resolved))
	for _, m := range resolved {
		info, ok := r.labelByID[m.PatternID]
		if !ok {
			continue
		}
		conceptText := m.Text
		if len(lower) == len(text) {
			conceptText = text[m.Start:m.End]
		}
		out = append(out, job.ConceptMatch{
			ConceptText: conceptText,
			FolioIRI:    info.IRI,
			Confidence:  Confidence(info.LabelType, info.Tokens),
			Source:      job.SourceEntityRuler,
			MatchType:   info.LabelType,
		})
	}
	return out
}
