// Package resolve implements the 7-strategy ontology search and scoring
// that turns a bare concept mention into a ResolvedConcept, with an
// ancestor-surfacing pass and a branch filter/preference rerank.
package resolve

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/foliolegal/enrichcore/pkg/ontology"
)

// Config tunes the resolver's search and scoring behaviour.
type Config struct {
	Threshold        float64
	ExcludedBranches map[string]bool
	DomainExpansions map[string][]string
	StopWords        map[string]bool
}

// SetDefaults fills the zero-value Config with the module's defaults: a
// threshold of 50 (matching the ancestor-surfacing floor named by the
// resolution contract) and a small curated stop-word/expansion table.
func (c *Config) SetDefaults() {
	if c.Threshold == 0 {
		c.Threshold = 50
	}
	if c.ExcludedBranches == nil {
		c.ExcludedBranches = map[string]bool{}
	}
	if c.DomainExpansions == nil {
		c.DomainExpansions = map[string][]string{
			"litigation":    {"practice", "service"},
			"contract":      {"agreement", "obligation"},
			"employment":    {"labor", "workplace"},
			"property":      {"real estate", "ownership"},
			"tax":           {"taxation", "revenue"},
			"criminal":      {"penal", "offense"},
			"family":        {"domestic relations"},
			"intellectual":  {"ip", "patent", "trademark", "copyright"},
		}
	}
	if c.StopWords == nil {
		c.StopWords = defaultStopWords
	}
}

var defaultStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "was": true, "were": true, "has": true,
	"have": true, "had": true, "not": true, "are": true, "which": true,
}

type cacheKey struct {
	text   string
	branch string
}

// Resolver caches concept_text+branch -> ResolvedConcept|nil lookups. It is
// unsynchronized-by-default per-process usage assumptions named by the
// concurrency model, but guards its cache with a mutex since pipeline
// stages may call it from multiple goroutines in the parallel phase.
type Resolver struct {
	store ontology.Store
	cfg   Config

	mu    sync.Mutex
	cache map[cacheKey]*job.ConceptMatch
}

// NewResolver builds a Resolver over a read-only ontology Store.
func NewResolver(store ontology.Store, cfg Config) *Resolver {
	cfg.SetDefaults()
	return &Resolver{
		store: store,
		cfg:   cfg,
		cache: make(map[cacheKey]*job.ConceptMatch),
	}
}

// CacheSize reports the number of cached entries, exercised by the
// round-trip law that re-querying a cached (text, branch, iri) must not
// grow the cache.
func (r *Resolver) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Resolve returns the best ResolvedConcept for a mention, or nil if
// nothing clears the threshold. When iri is non-empty the fast path looks
// it up directly and trusts the caller's confidence instead of scoring.
func (r *Resolver) Resolve(_ context.Context, conceptText, branch, iri string, callerConfidence float64) (*job.ConceptMatch, error) {
	key := cacheKey{text: strings.ToLower(strings.TrimSpace(conceptText)), branch: branch}

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	if iri != "" {
		concept, ok := r.store.GetConcept(iri)
		if !ok {
			r.setCache(key, nil)
			return nil, nil
		}
		match := toConceptMatch(concept, callerConfidence*100)
		r.setCache(key, &match)
		return &match, nil
	}

	candidates := r.search(conceptText)
	candidates = r.surfaceAncestors(candidates)
	candidates = r.applyBranchFilter(candidates, branch)

	best := pickBest(candidates, r.cfg.Threshold)
	if best == nil {
		r.setCache(key, nil)
		return nil, nil
	}
	match := toConceptMatch(best.Concept, best.Score)
	r.setCache(key, &match)
	return &match, nil
}

func (r *Resolver) setCache(key cacheKey, match *job.ConceptMatch) {
	r.mu.Lock()
	r.cache[key] = match
	r.mu.Unlock()
}

func toConceptMatch(c ontology.Concept, score float64) job.ConceptMatch {
	return job.ConceptMatch{
		ConceptText: c.CleanLabel(),
		FolioIRI:    c.IRI,
		FolioLabel:  c.PreferredLabel,
		Definition:  c.Definition,
		Branches:    c.Branches,
		Confidence:  score / 100,
		Examples:    c.Examples,
		SeeAlso:     c.SeeAlso,
		AltLabels:   c.CleanAltLabels(),
	}
}

// candidate pairs a concept with its computed resolution score.
type candidate struct {
	Concept ontology.Concept
	Score   float64
}

var wordSplit = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func tokenize(s string) []string {
	var out []string
	for _, w := range wordSplit.Split(strings.ToLower(s), -1) {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (r *Resolver) contentWords(s string) []string {
	var out []string
	for _, w := range tokenize(s) {
		if len(w) < 3 || r.cfg.StopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// search runs the 7-strategy term generation + label/prefix/definition
// search and returns deduplicated candidates keyed by IRI (best score
// wins).
func (r *Resolver) search(text string) []candidate {
	terms := r.searchTerms(text)

	byIRI := map[string]candidate{}
	consider := func(c ontology.Concept, queryWords []string) {
		score := r.score(queryWords, c)
		if score <= 0 {
			return
		}
		existing, ok := byIRI[c.IRI]
		if !ok || score > existing.Score {
			byIRI[c.IRI] = candidate{Concept: c, Score: score}
		}
	}

	for _, term := range terms {
		queryWords := r.contentWords(term)
		if len(queryWords) == 0 {
			queryWords = tokenize(term)
		}

		for _, c := range r.store.SearchByLabel(term, 25) {
			consider(c, queryWords)
		}
		for _, c := range r.store.SearchByPrefix(term) {
			consider(c, queryWords)
		}
		for _, w := range queryWords {
			if len(w) >= 6 {
				stem := w[:len(w)-2]
				for _, c := range r.store.SearchByPrefix(stem) {
					consider(c, queryWords)
				}
			}
		}
	}

	fullWords := r.contentWords(text)
	reconstruction := strings.Join(fullWords, " ")
	for _, c := range r.store.SearchByDefinition(text, 25) {
		consider(c, fullWords)
	}
	if reconstruction != "" {
		for _, c := range r.store.SearchByDefinition(reconstruction, 25) {
			consider(c, fullWords)
		}
	}

	out := make([]candidate, 0, len(byIRI))
	for _, c := range byIRI {
		out = append(out, c)
	}
	return out
}

// searchTerms generates: the full phrase, windowed 2..n-1 sub-phrases,
// individual content words, and domain-aware expansions.
func (r *Resolver) searchTerms(text string) []string {
	words := tokenize(text)
	var terms []string
	terms = append(terms, strings.TrimSpace(text))

	for size := 2; size < len(words); size++ {
		for start := 0; start+size <= len(words); start++ {
			terms = append(terms, strings.Join(words[start:start+size], " "))
		}
	}

	for _, w := range r.contentWords(text) {
		terms = append(terms, w)
		if expansions, ok := r.cfg.DomainExpansions[w]; ok {
			terms = append(terms, expansions...)
		}
	}

	return dedupStrings(terms)
}

func dedupStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// score implements the 0-100 scoring formula: exact label match -> 99;
// otherwise a word-overlap-derived label score, a synonym score over
// alternative labels, and a definition-search bonus, capped.
func (r *Resolver) score(queryWords []string, c ontology.Concept) float64 {
	query := strings.ToLower(strings.Join(queryWords, " "))
	label := strings.ToLower(c.CleanLabel())
	labelWords := r.contentWords(c.CleanLabel())

	// queryWords are content words, so the label is also compared in its
	// content-word form ("breach contract" for "Breach of Contract").
	if query != "" && (query == label || query == strings.Join(labelWords, " ")) {
		return 99
	}

	labelScore := labelMatchScore(query, label, queryWords, labelWords)

	synonymScore := 0.0
	for _, alt := range c.CleanAltLabels() {
		altWords := r.contentWords(alt)
		s := labelMatchScore(query, strings.ToLower(alt), queryWords, altWords)
		if s > synonymScore {
			synonymScore = s
		}
	}
	synonymScore *= 0.82

	definitionScore := 0.0
	if c.Definition != "" {
		defWords := r.contentWords(c.Definition)
		overlap := combinedOverlap(queryWords, defWords)
		definitionScore = 0.55 * overlap * 100
		if query != "" && strings.Contains(strings.ToLower(c.Definition), query) && definitionScore < 60 {
			definitionScore = 60
		}
	}

	best := labelScore
	if synonymScore > best {
		best = synonymScore
	}

	definitionBonus := 0.12 * definitionScore
	if definitionBonus > 8 {
		definitionBonus = 8
	}

	return best + definitionBonus
}

func labelMatchScore(query, label string, queryWords, labelWords []string) float64 {
	if query == "" || label == "" {
		return 0
	}
	if strings.Contains(label, query) {
		return 92
	}
	if strings.Contains(query, label) {
		return 88
	}
	overlap := combinedOverlap(queryWords, labelWords)
	return 0.88 * overlap * 100
}

// combinedOverlap blends forward (query->target) and reverse
// (target->query) word-overlap scores, weighting reverse at 0.75 per the
// bidirectional scoring contract, normalized back into [0,1].
func combinedOverlap(query, target []string) float64 {
	if len(query) == 0 || len(target) == 0 {
		return 0
	}
	forward := directionalOverlap(query, target)
	reverse := directionalOverlap(target, query)
	return (forward + 0.75*reverse) / 1.75
}

func directionalOverlap(from, to []string) float64 {
	if len(from) == 0 {
		return 0
	}
	var sum float64
	for _, f := range from {
		best := 0.0
		for _, t := range to {
			if s := wordMatchScore(f, t); s > best {
				best = s
			}
		}
		sum += best
	}
	return sum / float64(len(from))
}

// wordMatchScore scores one query/target word pair: exact match = 1.0,
// a prefix relation of at least 3 shared characters = 0.8, a shared stem
// of 4+ characters with overlap ratio >= 0.7 = 0.7, else 0.
func wordMatchScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) >= 3 && len(b) >= 3 && (strings.HasPrefix(a, b) || strings.HasPrefix(b, a)) {
		shorter := len(a)
		if len(b) < shorter {
			shorter = len(b)
		}
		if shorter >= 3 {
			return 0.8
		}
	}

	common := commonPrefixLen(a, b)
	if common >= 4 {
		longer := len(a)
		if len(b) > longer {
			longer = len(b)
		}
		if float64(common)/float64(longer) >= 0.7 {
			return 0.7
		}
	}
	return 0
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// surfaceAncestors walks up to 3 parent hops for every hit scoring >= 50,
// proposing each ancestor at original*0.6^depth when not already present
// and the propagated score clears the threshold.
func (r *Resolver) surfaceAncestors(candidates []candidate) []candidate {
	present := map[string]bool{}
	for _, c := range candidates {
		present[c.Concept.IRI] = true
	}

	out := append([]candidate(nil), candidates...)
	frontier := candidates

	for depth := 1; depth <= 3; depth++ {
		var next []candidate
		for _, c := range frontier {
			if c.Score < 50 {
				continue
			}
			for _, parentIRI := range c.Concept.SubClassOf {
				if present[parentIRI] {
					continue
				}
				parent, ok := r.store.GetConcept(parentIRI)
				if !ok {
					continue
				}
				// c.Score already carries 0.6^(depth-1), so one more
				// factor gives original*0.6^depth.
				propagated := c.Score * 0.6
				if propagated < r.cfg.Threshold {
					continue
				}
				present[parentIRI] = true
				entry := candidate{Concept: parent, Score: propagated}
				out = append(out, entry)
				next = append(next, entry)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	return out
}

// applyBranchFilter drops candidates in excluded branches and, when a
// branch hint is supplied, reranks hint-matching candidates first.
func (r *Resolver) applyBranchFilter(candidates []candidate, branchHint string) []candidate {
	var kept []candidate
	for _, c := range candidates {
		excluded := false
		for _, b := range c.Concept.Branches {
			if r.cfg.ExcludedBranches[b] {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, c)
		}
	}

	if branchHint == "" {
		return kept
	}

	var matched, rest []candidate
	for _, c := range kept {
		inHint := false
		for _, b := range c.Concept.Branches {
			if b == branchHint {
				inHint = true
				break
			}
		}
		if inHint {
			matched = append(matched, c)
		} else {
			rest = append(rest, c)
		}
	}
	return append(matched, rest...)
}

func pickBest(candidates []candidate, threshold float64) *candidate {
	var best *candidate
	for i := range candidates {
		c := candidates[i]
		if c.Score < threshold {
			continue
		}
		if best == nil || c.Score > best.Score {
			best = &c
		}
	}
	return best
}
