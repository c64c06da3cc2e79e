// Package normalize turns raw ingested text into canonical text, a sentence
// index, and overlap-bounded chunks, per the normalization contract.
package normalize

import (
	"regexp"
	"strings"
)

var (
	runWhitespace = regexp.MustCompile(`[^\S\n]+`)
	runNewlines   = regexp.MustCompile(`\n{3,}`)
	spaceAroundNL = regexp.MustCompile(`[^\S\n]*\n[^\S\n]*`)
)

// CollapseWhitespace collapses runs of non-newline whitespace to a single
// space, collapses 3+ consecutive newlines to 2, strips spaces around
// newlines, and trims the result.
func CollapseWhitespace(text string) string {
	text = runWhitespace.ReplaceAllString(text, " ")
	text = spaceAroundNL.ReplaceAllString(text, "\n")
	text = runNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// citationAbbrevGuards are substrings that, if found immediately around a
// candidate sentence-ending period, mean the period is part of a legal
// citation abbreviation rather than a sentence terminator (e.g. "42 U.S.C.
// § 1983", "No. 12-345").
var citationAbbrevGuards = []string{
	"U.S.C", "U.S", "F.2d", "F.3d", "F. Supp", "Cal.App", "N.Y.", "Fed.R",
	"No.", "Nos.", "§", "Inc.", "Corp.", "Co.", "Ltd.", "v.", "vs.",
}

// Sentence is one sentence located within the canonical text; Start and End
// are byte offsets.
type Sentence struct {
	Text  string
	Start int
	End   int
}

// SplitSentences splits text into sentences using a legal-domain-aware
// splitter that avoids breaking on abbreviation periods inside citations
// like "42 U.S.C. § 1983" or "No. 12-345"; otherwise it breaks wherever a
// terminator is followed by whitespace and a capital letter, or ends the text.
func SplitSentences(text string) []Sentence {
	if text == "" {
		return nil
	}

	var sentences []Sentence
	start := 0
	runes := []rune(text)

	// byteAt maps a rune index to its byte offset in text.
	byteAt := make([]int, 0, len(runes)+1)
	for off := range text {
		byteAt = append(byteAt, off)
	}
	byteAt = append(byteAt, len(text))

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		// Need whitespace then an uppercase letter (or end of string) to
		// consider this a sentence boundary at all.
		j := i + 1
		for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t') {
			j++
		}
		if j == i+1 && j < len(runes) {
			continue // no whitespace followed the terminator
		}
		atEnd := j >= len(runes)
		nextIsCapital := !atEnd && isUpperLetter(runes[j])
		if !atEnd && !nextIsCapital {
			continue
		}

		candidate := string(runes[start : i+1])
		if isAbbreviationBoundary(candidate) {
			continue
		}

		trimmedStart, trimmedEnd := trimRange(runes, start, i+1)
		if trimmedEnd > trimmedStart {
			sentences = append(sentences, Sentence{
				Text:  string(runes[trimmedStart:trimmedEnd]),
				Start: byteAt[trimmedStart],
				End:   byteAt[trimmedEnd],
			})
		}
		start = j
	}

	if start < len(runes) {
		trimmedStart, trimmedEnd := trimRange(runes, start, len(runes))
		if trimmedEnd > trimmedStart {
			sentences = append(sentences, Sentence{
				Text:  string(runes[trimmedStart:trimmedEnd]),
				Start: byteAt[trimmedStart],
				End:   byteAt[trimmedEnd],
			})
		}
	}

	return sentences
}

func isUpperLetter(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isAbbreviationBoundary(candidate string) bool {
	for _, guard := range citationAbbrevGuards {
		if strings.HasSuffix(candidate, guard+".") {
			return true
		}
	}
	return false
}

func trimRange(runes []rune, start, end int) (int, int) {
	for start < end && isSpace(runes[start]) {
		start++
	}
	for end > start && isSpace(runes[end-1]) {
		end--
	}
	return start, end
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

// Chunk is one sentence-bounded slice of canonical text.
type Chunk struct {
	Index           int
	Text            string
	Start           int
	End             int
	SentenceStarts  []int
}

// Config controls chunking thresholds.
type Config struct {
	MaxChars     int
	OverlapChars int
}

// SetDefaults fills unset fields with the module's defaults.
func (c *Config) SetDefaults() {
	if c.MaxChars <= 0 {
		c.MaxChars = 4000
	}
	if c.OverlapChars <= 0 {
		c.OverlapChars = 400
	}
}

// ChunkText assembles sentences into overlap-bounded chunks per the
// normalization contract: inputs at or under MaxChars become a single
// chunk; otherwise sentences accumulate until the next would overflow
// MaxChars, the chunk is emitted, and the next chunk is seeded with
// trailing sentences whose combined length fits within OverlapChars.
func ChunkText(text string, sentences []Sentence, cfg Config) []Chunk {
	cfg.SetDefaults()

	if len(text) <= cfg.MaxChars || len(sentences) == 0 {
		if text == "" {
			return nil
		}
		return []Chunk{{Index: 0, Text: text, Start: 0, End: len(text)}}
	}

	var chunks []Chunk
	var current []Sentence
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		start := current[0].Start
		end := current[len(current)-1].End
		starts := make([]int, len(current))
		for i, s := range current {
			starts[i] = s.Start - start
		}
		chunks = append(chunks, Chunk{
			Index:          len(chunks),
			Text:           text[start:end],
			Start:          start,
			End:            end,
			SentenceStarts: starts,
		})
	}

	for _, s := range sentences {
		sentLen := len(s.Text)
		if currentLen > 0 && currentLen+1+sentLen > cfg.MaxChars {
			flush()

			// Seed the next chunk with trailing sentences whose combined
			// length fits within OverlapChars.
			var seed []Sentence
			seedLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				candidateLen := len(current[i].Text)
				if seedLen+candidateLen > cfg.OverlapChars && len(seed) > 0 {
					break
				}
				seed = append([]Sentence{current[i]}, seed...)
				seedLen += candidateLen
			}
			current = seed
			currentLen = seedLen
		}
		current = append(current, s)
		currentLen += sentLen + 1
	}
	flush()

	// The last chunk runs to the end of the text, so no trailing text is
	// left uncovered.
	last := &chunks[len(chunks)-1]
	last.End = len(text)
	last.Text = text[last.Start:]

	return chunks
}
