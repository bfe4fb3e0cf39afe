package topicengine

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// SimilarityFunc scores how similar two topic strings are, in [0, 1].
// Implementations must be symmetric and must return 1 for identical
// strings. The engine treats this as pluggable: a hash-based placeholder
// and an embedding-based implementation are equally valid as long as they
// honor the contract; only match quality, not correctness, depends on the
// choice.
type SimilarityFunc func(a, b string) float64

// JaroWinklerSimilarity is the default [SimilarityFunc]. It lower-cases and
// trims both inputs and scores them with Jaro-Winkler string similarity,
// which rewards shared prefixes — a good fit for short topic phrases like
// "Solar Energy" vs "solar power generation".
//
// Grounded on the teacher's phonetic entity matcher, which ranks candidates
// with the same matchr.JaroWinkler call.
func JaroWinklerSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	return matchr.JaroWinkler(a, b, false)
}
