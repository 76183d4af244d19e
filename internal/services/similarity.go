package services

import "strings"

// NameSimilarity scores how alike two names look, in [0,1]. Exact match
// (after lowering and trimming) is 1.0, containment is 0.9, otherwise the
// score is the shared-word count over the larger word set. This is a cheap
// pre-filter that bounds how many pairs reach the verifier; it is never the
// final judgment.
func NameSimilarity(a, b string) float64 {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.9
	}

	wordsA := wordSet(na)
	wordsB := wordSet(nb)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	shared := 0
	for w := range wordsA {
		if wordsB[w] {
			shared++
		}
	}
	larger := len(wordsA)
	if len(wordsB) > larger {
		larger = len(wordsB)
	}
	return float64(shared) / float64(larger)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
