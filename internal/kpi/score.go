// Package kpi computes ranked engagement KPIs per topic and per guest.
package kpi

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Weights are the coefficients of the weighted engagement score.
type Weights struct {
	Comments float64 `yaml:"comments" mapstructure:"comments"`
	Likes    float64 `yaml:"likes" mapstructure:"likes"`
	Views    float64 `yaml:"views" mapstructure:"views"`
}

// DefaultWeights favors conversation over passive reach.
func DefaultWeights() Weights {
	return Weights{Comments: 0.5, Likes: 0.3, Views: 0.2}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 { return w.Comments + w.Likes + w.Views }

// Validate requires non-negative weights summing to 1 so that scores over
// normalized inputs stay within [0, 1].
func (w Weights) Validate() error {
	if w.Comments < 0 || w.Likes < 0 || w.Views < 0 {
		return eris.Errorf("kpi: weights must be >= 0 (got comments=%.2f likes=%.2f views=%.2f)", w.Comments, w.Likes, w.Views)
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		return eris.Errorf("kpi: weights must sum to 1 (got %.4f)", w.Sum())
	}
	return nil
}

// Score combines normalized comment, like and view values, rounded to two
// decimals.
func (w Weights) Score(commentsNorm, likesNorm, viewsNorm float64) float64 {
	return round2(w.Comments*commentsNorm + w.Likes*likesNorm + w.Views*viewsNorm)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// competitionRanks ranks scores descending. Equal scores share the lowest
// rank of their group and the following rank is skipped (1, 2, 2, 4).
func competitionRanks(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	ranks := make([]int, len(scores))
	for pos, i := range idx {
		if pos > 0 && scores[i] == scores[idx[pos-1]] {
			ranks[i] = ranks[idx[pos-1]]
			continue
		}
		ranks[i] = pos + 1
	}
	return ranks
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
