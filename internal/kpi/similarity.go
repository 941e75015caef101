package kpi

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// foldCaser is shared; cases.Caser is safe to reuse for sequential calls
// but not concurrently, and reconciliation is single-threaded.
var foldCaser = cases.Fold()

// TokenSortRatio scores the similarity of a and b from 0 to 100, ignoring
// case, punctuation and token order. Both strings are folded, stripped of
// non-alphanumeric runes, split into tokens, sorted and re-joined. The score
// is the normalized indel similarity 100 * (1 - indel / (len(a) + len(b)))
// over runes, where indel counts insertions and deletions only.
func TokenSortRatio(a, b string) float64 {
	x, y := sortTokens(a), sortTokens(b)
	if x == "" && y == "" {
		return 100
	}
	if x == "" || y == "" {
		return 0
	}

	rx, ry := []rune(x), []rune(y)
	total := len(rx) + len(ry)
	indel := total - 2*lcsLength(rx, ry)
	return 100 * float64(total-indel) / float64(total)
}

// lcsLength returns the length of the longest common subsequence of a and b.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func sortTokens(s string) string {
	tokens := strings.Fields(preprocess(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func preprocess(s string) string {
	folded := foldCaser.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
}
