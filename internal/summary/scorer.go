package summary

import (
	"sort"
	"unicode/utf8"

	"github.com/dima1799/jobradar-ai/internal/embedding"
)

// Stricter than the segmenter's floor: a sentence that barely passed
// length filtering is still a poor pick for a card section.
const defaultMinPickLen = 30

// Pick selects up to limit sentences most similar to the probe vector.
//
// Sentences and vectors are parallel slices; both sides of the dot product
// must be unit-normalized. Indices present in used are skipped, and every
// accepted index is added to used — sharing one set across sequential
// anchor calls is what keeps a sentence from appearing in two sections.
// Ties keep the original sentence order. Returning fewer than limit
// sentences, or none, is a normal outcome for thin documents.
func Pick(sentences []string, vectors [][]float32, probe []float32, used map[int]struct{}, limit, minLen int) []string {
	if len(sentences) == 0 || len(probe) == 0 || limit <= 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}

	order := make([]scored, len(sentences))
	for i := range sentences {
		order[i] = scored{idx: i, score: embedding.Dot(vectors[i], probe)}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].score > order[j].score })

	var picked []string
	for _, candidate := range order {
		if len(picked) >= limit {
			break
		}
		if _, taken := used[candidate.idx]; taken {
			continue
		}
		if utf8.RuneCountInString(sentences[candidate.idx]) < minLen {
			continue
		}

		used[candidate.idx] = struct{}{}
		picked = append(picked, sentences[candidate.idx])
	}

	return picked
}
