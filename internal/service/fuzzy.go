package service

import (
	"strings"
	"unicode"
)

// partialRatio returns the best normalized similarity between the
// shorter string and any same-length window of the longer one, in
// [0, 1]. A substring hit scores 1.0 exactly.
func partialRatio(a, b string) float64 {
	longer, shorter := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	if len(shorter) == 0 {
		return 0
	}
	if strings.Contains(string(longer), string(shorter)) {
		return 1.0
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		window := longer[start : start+len(shorter)]
		dist := levenshtein(window, shorter)
		score := 1.0 - float64(dist)/float64(len(shorter))
		if score > best {
			best = score
		}
	}
	return best
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// normalizeText lowercases and collapses whitespace/punctuation so
// fuzzy scores are not dominated by transcription artifacts.
func normalizeText(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
