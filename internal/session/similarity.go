package session

// BigramJaccard measures similarity between two strings as the Jaccard
// index of their rune-bigram sets. Identical strings score 1; strings
// shorter than one bigram score 0 against everything else.
func BigramJaccard(a, b string) float64 {
	if a == b {
		return 1
	}
	sa := bigrams(a)
	sb := bigrams(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	intersection := 0
	for bg := range sa {
		if sb[bg] {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func bigrams(s string) map[[2]rune]bool {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	set := make(map[[2]rune]bool, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		set[[2]rune{runes[i], runes[i+1]}] = true
	}
	return set
}
