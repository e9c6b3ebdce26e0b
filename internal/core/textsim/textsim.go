// Package textsim provides the normalized string-distance scorer used for
// duplicate detection across the pipeline.
package textsim

import "strings"

// Similarity returns a score in [0,1] for how alike two strings are,
// computed as 1 - editDistance(lower(a), lower(b)) / max(len(a), len(b)).
// It is symmetric, returns 1 for identical inputs and 0 when either input
// is empty. This is the sole duplicate-detection primitive in the pipeline.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}

	dist := editDistance(ra, rb)

	return 1 - float64(dist)/float64(longest)
}

// editDistance computes the Levenshtein distance between two rune slices
// using a two-row dynamic programming table.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}

	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i

		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
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
