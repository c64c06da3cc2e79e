package individual

import (
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// DedupBySourcePriority collapses overlapping individuals per spec.md
// §4.9: two individuals overlap if their spans intersect or their names
// are exact/substring/mention-equivalent. The higher-priority source
// survives, absorbing the other's class links (deduped by
// annotation_id+label+relationship), url, and normalized_form; if the
// sources differ, the surviving record's source becomes hybrid.
func DedupBySourcePriority(individuals []job.Individual) []job.Individual {
	n := len(individuals)
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}

	for i := 0; i < n; i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < n; j++ {
			if !keep[j] {
				continue
			}
			if !overlaps(individuals[i], individuals[j]) {
				continue
			}

			winnerIdx, loserIdx := i, j
			if job.SourcePriority(individuals[j].Source) > job.SourcePriority(individuals[i].Source) {
				winnerIdx, loserIdx = j, i
			}
			absorb(&individuals[winnerIdx], individuals[loserIdx])
			keep[loserIdx] = false
			if loserIdx == i {
				break
			}
		}
	}

	out := make([]job.Individual, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, individuals[i])
		}
	}
	return out
}

func overlaps(a, b job.Individual) bool {
	if a.Span.Start < b.Span.End && b.Span.Start < a.Span.End {
		return true
	}
	return mentionEquivalent(a.MentionText, b.MentionText)
}

func mentionEquivalent(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return la == lb || strings.Contains(la, lb) || strings.Contains(lb, la)
}

func absorb(winner *job.Individual, loser job.Individual) {
	if winner.Source != loser.Source {
		winner.Source = job.IndividualSourceHybrid
	}
	if winner.URL == "" {
		winner.URL = loser.URL
	}
	if winner.NormalizedForm == "" {
		winner.NormalizedForm = loser.NormalizedForm
	}
	winner.ClassLinks = mergeClassLinks(winner.ClassLinks, loser.ClassLinks)
	winner.Lineage = append(winner.Lineage, job.StageEvent{
		Stage:  "individual_extraction",
		Action: "merged",
		Detail: "absorbed " + string(loser.Source) + " individual " + loser.ID,
	})
}

func mergeClassLinks(a, b []job.ClassLink) []job.ClassLink {
	seen := map[string]bool{}
	out := make([]job.ClassLink, 0, len(a)+len(b))
	for _, link := range append(append([]job.ClassLink{}, a...), b...) {
		key := link.AnnotationID + "|" + link.Label + "|" + link.Relationship
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, link)
	}
	return out
}
