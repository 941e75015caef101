package kpi

import "slices"

// MinMax rescales values into [0, 1] with (v - min) / (max - min). A
// constant column, including a single value, maps every entry to 0. The
// input slice is not modified.
func MinMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := slices.Min(values), slices.Max(values)
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}
