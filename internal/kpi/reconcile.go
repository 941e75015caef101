package kpi

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DefaultNameMatchThreshold is the minimum TokenSortRatio for two guest
// names to be treated as the same person.
const DefaultNameMatchThreshold = 90.0

// NameMap maps raw guest names to their canonical spelling.
type NameMap map[string]string

// Canonical returns the canonical form of name, or name itself when it was
// not part of the reconciled set.
func (m NameMap) Canonical(name string) string {
	if c, ok := m[name]; ok {
		return c
	}
	return name
}

// Apply rewrites a guest list through the map. Blank entries are dropped,
// as Reconcile never maps them.
func (m NameMap) Apply(guests []string) []string {
	if guests == nil {
		return nil
	}
	out := make([]string, 0, len(guests))
	for _, g := range guests {
		if strings.TrimSpace(g) == "" {
			continue
		}
		out = append(out, m.Canonical(g))
	}
	return out
}

// Reconciler collapses near-duplicate guest names with greedy nearest-match
// clustering over the sorted name set.
type Reconciler struct {
	threshold float64
	score     func(a, b string) float64
}

// NewReconciler returns a Reconciler using TokenSortRatio. A threshold of
// zero or less selects DefaultNameMatchThreshold.
func NewReconciler(threshold float64) *Reconciler {
	if threshold <= 0 {
		threshold = DefaultNameMatchThreshold
	}
	return &Reconciler{threshold: threshold, score: TokenSortRatio}
}

// Threshold returns the match threshold in use.
func (r *Reconciler) Threshold() float64 { return r.threshold }

// Reconcile builds the canonical name map for names. Names are visited in
// sorted order; each one joins the best-scoring canonical name when the
// score reaches the threshold, and otherwise becomes canonical itself.
// The result is order-dependent but deterministic for a given input set.
func (r *Reconciler) Reconcile(names []string) NameMap {
	distinct := make(map[string]struct{}, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		distinct[n] = struct{}{}
	}
	sorted := make([]string, 0, len(distinct))
	for n := range distinct {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	out := make(NameMap, len(sorted))
	var canonical []string
	for _, name := range sorted {
		if match, score, ok := r.bestMatch(name, canonical); ok && score >= r.threshold {
			out[name] = match
			zap.L().Debug("kpi: merged guest name",
				zap.String("name", name),
				zap.String("canonical", match),
				zap.Float64("score", score),
			)
			continue
		}
		out[name] = name
		canonical = append(canonical, name)
	}
	return out
}

// bestMatch returns the highest-scoring candidate. Ties keep the earliest.
func (r *Reconciler) bestMatch(name string, candidates []string) (string, float64, bool) {
	if len(candidates) == 0 {
		return "", 0, false
	}
	best, bestScore := candidates[0], r.score(name, candidates[0])
	for _, c := range candidates[1:] {
		if s := r.score(name, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore, true
}

// StandardizeGuestNames reconciles every name found across guest lists.
func StandardizeGuestNames(lists [][]string, threshold float64) NameMap {
	var names []string
	for _, l := range lists {
		names = append(names, l...)
	}
	return NewReconciler(threshold).Reconcile(names)
}
