// Package dependency implements the §4.14 dependency stage: a shallow,
// rule-based subject-verb-object extractor over sentences containing
// at least two annotations, cross-linked to individuals and properties.
//
// No dependency-parsing library exists anywhere in the retrieved corpus
// (grounded on original_source/backend/app/services/dependency/parser.py,
// which itself only reaches for spaCy's dependency grammar — no Go
// equivalent is available), so the default Parser is a finite-state walk
// over a small built-in verb list rather than a true grammar.
package dependency

import (
	"context"
	"regexp"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/normalize"
)

const maxTriples = 200

// Triple is a sentence-relative subject/verb/object span triple produced
// by Parse, before document-offset translation.
type Triple struct {
	Subject job.Span
	Verb    job.Span
	Object  job.Span
}

// Parser extracts SPO triples from a single sentence.
type Parser interface {
	Parse(sentence string) ([]Triple, error)
}

var wordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z'-]*`)

// commonVerbs is the built-in verb-tagging substitute: a curated list of
// verbs common to legal documents, checked case-insensitively.
var commonVerbs = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "shall": true, "must": true,
	"grants": true, "grant": true, "indemnifies": true, "indemnify": true,
	"agrees": true, "agree": true, "breaches": true, "breach": true,
	"executes": true, "execute": true, "terminates": true, "terminate": true,
	"assigns": true, "assign": true, "waives": true, "waive": true,
	"represents": true, "represent": true, "warrants": true, "warrant": true,
	"acknowledges": true, "acknowledge": true, "certifies": true, "certify": true,
	"authorizes": true, "authorize": true, "requires": true, "require": true,
	"provides": true, "provide": true, "states": true, "state": true,
	"declares": true, "declare": true, "filed": true, "files": true, "file": true,
	"alleges": true, "allege": true, "claims": true, "claim": true,
	"seeks": true, "seek": true, "orders": true, "order": true,
	"rules": true, "rule": true, "holds": true, "hold": true, "finds": true, "find": true,
	"owns": true, "own": true, "signs": true, "sign": true, "pays": true, "pay": true,
	"has": true, "have": true, "had": true,
}

var subjectStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true, "these": true, "those": true,
}

// RuleBasedParser is the default Parser: a finite-state walk over
// regexp-tokenized words, matching subject-verb-object clauses delimited
// by the commonVerbs table.
type RuleBasedParser struct{}

func NewRuleBasedParser() *RuleBasedParser { return &RuleBasedParser{} }

type token struct {
	text       string
	start, end int
}

func tokenize(sentence string) []token {
	locs := wordPattern.FindAllStringIndex(sentence, -1)
	tokens := make([]token, 0, len(locs))
	for _, loc := range locs {
		tokens = append(tokens, token{text: sentence[loc[0]:loc[1]], start: loc[0], end: loc[1]})
	}
	return tokens
}

// Parse walks the token stream: any run of tokens before a recognized
// verb becomes a subject candidate (stopwords trimmed from the front);
// the run of tokens after the verb, up to the next verb or sentence end,
// becomes the object candidate. Both must be non-empty for a triple to
// be emitted. Scanning resumes after the object, so a sentence with
// multiple verb clauses can yield multiple triples.
func (p *RuleBasedParser) Parse(sentence string) ([]Triple, error) {
	tokens := tokenize(sentence)
	var triples []Triple

	subjStart := 0
	i := 0
	for i < len(tokens) {
		if !commonVerbs[strings.ToLower(tokens[i].text)] {
			i++
			continue
		}

		subjTokens := trimLeadingStopWords(tokens[subjStart:i])
		verbTok := tokens[i]

		objEnd := i + 1
		for objEnd < len(tokens) && !commonVerbs[strings.ToLower(tokens[objEnd].text)] {
			objEnd++
		}
		objTokens := tokens[i+1 : objEnd]

		if len(subjTokens) > 0 && len(objTokens) > 0 {
			triples = append(triples, Triple{
				Subject: spanOf(sentence, subjTokens),
				Verb:    job.Span{Start: verbTok.start, End: verbTok.end, Text: verbTok.text},
				Object:  spanOf(sentence, objTokens),
			})
		}

		subjStart = objEnd
		i = objEnd
	}

	return triples, nil
}

func trimLeadingStopWords(tokens []token) []token {
	for len(tokens) > 0 && subjectStopWords[strings.ToLower(tokens[0].text)] {
		tokens = tokens[1:]
	}
	return tokens
}

func spanOf(sentence string, tokens []token) job.Span {
	start := tokens[0].start
	end := tokens[len(tokens)-1].end
	return job.Span{Start: start, End: end, Text: sentence[start:end]}
}

// Stage runs the Parser over every sentence containing at least two
// annotations (of any state), translates sentence-relative spans to document
// offsets, and cross-links individual/property ids by span overlap.
type Stage struct {
	Parser Parser
}

func New(parser Parser) *Stage {
	if parser == nil {
		parser = NewRuleBasedParser()
	}
	return &Stage{Parser: parser}
}

func (s *Stage) Name() string { return "dependency_parsing" }

func (s *Stage) Execute(ctx context.Context, j *job.Job) (*job.Job, error) {
	text := j.Result.CanonicalText.FullText
	if text == "" || len(j.Result.Annotations) == 0 {
		return j, nil
	}

	sentences := normalize.SplitSentences(text)
	var triples []job.Triple

outer:
	for _, sent := range sentences {
		overlapping := annotationsIn(j.Result.Annotations, sent.Start, sent.End)
		if len(overlapping) < 2 {
			continue
		}

		found, err := s.Parser.Parse(sent.Text)
		if err != nil {
			continue
		}
		for _, t := range found {
			if len(triples) >= maxTriples {
				j.Result.Metadata.Log(s.Name(), "SPO triple cap reached; remaining triples dropped")
				break outer
			}
			triples = append(triples, translate(t, sent.Start, j.Result.Individuals, j.Result.Properties))
		}
	}

	j.Result.Metadata.SPOTriples = triples
	j.Result.Metadata.Log(s.Name(), "extracted subject-predicate-object triples")
	return j, nil
}

func annotationsIn(annotations []job.Annotation, start, end int) []job.Annotation {
	var out []job.Annotation
	for _, a := range annotations {
		if a.Span.Start >= start && a.Span.End <= end {
			out = append(out, a)
		}
	}
	return out
}

func translate(t Triple, sentStart int, individuals []job.Individual, properties []job.PropertyAnnotation) job.Triple {
	subj := shift(t.Subject, sentStart)
	verb := shift(t.Verb, sentStart)
	obj := shift(t.Object, sentStart)

	triple := job.Triple{Subject: subj, Verb: verb, Object: obj}

	for _, ind := range individuals {
		if spansOverlap(subj, ind.Span) || spansOverlap(obj, ind.Span) {
			triple.IndividualID = ind.ID
			break
		}
	}
	for _, prop := range properties {
		if spansOverlap(verb, prop.Span) {
			triple.PropertyID = prop.ID
			break
		}
	}

	return triple
}

func shift(s job.Span, offset int) job.Span {
	return job.Span{Start: s.Start + offset, End: s.End + offset, Text: s.Text}
}

func spansOverlap(a, b job.Span) bool {
	return a.Start < b.End && b.Start < a.End
}
