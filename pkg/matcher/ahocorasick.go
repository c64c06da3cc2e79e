// Package matcher implements an Aho-Corasick string automaton with
// word-boundary checks and containment-aware overlap resolution. No
// Aho-Corasick library exists anywhere in the retrieved corpus, so this is
// hand-built — matching spec.md's framing of the string matcher as part of
// the hard core the specification itself is responsible for, not an
// external collaborator.
package matcher

import "sort"

// Pattern is one entry added to the automaton: the literal text to match
// and an opaque ID the caller uses to recover what matched.
type Pattern struct {
	Text string
	ID   string
}

type node struct {
	children map[byte]*node
	fail     *node
	// outputs holds the pattern ids whose text ends at this node (exact
	// node match); suffix-chained outputs are resolved at build time by
	// walking fail links.
	outputs []int
}

func newNode() *node {
	return &node{children: make(map[byte]*node)}
}

// Automaton is a built Aho-Corasick matcher over a fixed pattern set.
type Automaton struct {
	root     *node
	patterns []Pattern
}

// Build constructs an Automaton from patterns. Patterns are matched
// case-sensitively; callers wanting case-insensitive matching should
// lowercase both patterns and input text consistently.
func Build(patterns []Pattern) *Automaton {
	root := newNode()
	a := &Automaton{root: root, patterns: patterns}

	for i, p := range patterns {
		cur := root
		for j := 0; j < len(p.Text); j++ {
			c := p.Text[j]
			child, ok := cur.children[c]
			if !ok {
				child = newNode()
				cur.children[c] = child
			}
			cur = child
		}
		cur.outputs = append(cur.outputs, i)
	}

	a.buildFailLinks()
	return a
}

func (a *Automaton) buildFailLinks() {
	var queue []*node
	for _, child := range a.root.children {
		child.fail = a.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for c, child := range cur.children {
			queue = append(queue, child)

			failNode := cur.fail
			for failNode != nil {
				if next, ok := failNode.children[c]; ok {
					child.fail = next
					break
				}
				failNode = failNode.fail
			}
			if failNode == nil {
				child.fail = a.root
			}
			child.outputs = append(child.outputs, child.fail.outputs...)
		}
	}
}

// RawMatch is a single automaton hit before word-boundary filtering or
// overlap resolution.
type RawMatch struct {
	Start, End int
	PatternID  string
	Text       string
}

// isWordByte reports whether b counts toward a word for boundary checks
// (alphanumeric or underscore).
func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

// FindAll scans text and returns every pattern occurrence that passes the
// word-boundary check: the character immediately before start and at end
// must not be a word character (so "contract" does not match inside
// "contractual").
func (a *Automaton) FindAll(text string) []RawMatch {
	var matches []RawMatch
	cur := a.root

	for i := 0; i < len(text); i++ {
		c := text[i]
		for cur != a.root {
			if _, ok := cur.children[c]; ok {
				break
			}
			cur = cur.fail
		}
		if next, ok := cur.children[c]; ok {
			cur = next
		} else {
			cur = a.root
		}

		for _, pid := range cur.outputs {
			p := a.patterns[pid]
			end := i + 1
			start := end - len(p.Text)
			if start < 0 {
				continue
			}
			if !wordBoundaryOK(text, start, end) {
				continue
			}
			matches = append(matches, RawMatch{Start: start, End: end, PatternID: p.ID, Text: text[start:end]})
		}
	}

	return matches
}

func wordBoundaryOK(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

// ResolveOverlaps applies the overlap policy from spec.md §4.8:
//   - contained (A fully inside B) -> keep both
//   - identical spans -> dedup, keep first
//   - partial (crossing boundaries) -> longer wins; tie -> first wins
//
// Input order is preserved as the tie-break "first" order.
func ResolveOverlaps(matches []RawMatch) []RawMatch {
	if len(matches) <= 1 {
		return matches
	}

	indexed := make([]int, len(matches))
	for i := range indexed {
		indexed[i] = i
	}
	sort.SliceStable(indexed, func(i, k int) bool {
		return matches[indexed[i]].Start < matches[indexed[k]].Start
	})

	keep := make([]bool, len(matches))
	for i := range keep {
		keep[i] = true
	}

	for a := 0; a < len(indexed); a++ {
		ia := indexed[a]
		if !keep[ia] {
			continue
		}
		ma := matches[ia]
		for b := a + 1; b < len(indexed); b++ {
			ib := indexed[b]
			if !keep[ib] {
				continue
			}
			mb := matches[ib]
			if mb.Start >= ma.End {
				break // sorted by start; no further overlap possible
			}

			switch {
			case ma.Start == mb.Start && ma.End == mb.End:
				keep[ib] = false // identical span: dedupe, keep first (ia)
			case contains(ma, mb):
				// A fully contains B: keep both.
			case contains(mb, ma):
				// B fully contains A: keep both.
			default:
				// Partial/crossing overlap: longer wins; tie -> first (ia).
				lenA := ma.End - ma.Start
				lenB := mb.End - mb.Start
				if lenB > lenA {
					keep[ia] = false
				} else {
					keep[ib] = false
				}
			}
		}
	}

	var result []RawMatch
	for i, k := range keep {
		if k {
			result = append(result, matches[i])
		}
	}
	sort.SliceStable(result, func(i, k int) bool { return result[i].Start < result[k].Start })
	return result
}

func contains(outer, inner RawMatch) bool {
	if outer.Start == inner.Start && outer.End == inner.End {
		return false
	}
	return outer.Start <= inner.Start && outer.End >= inner.End
}
