package dataset

import "golang.org/x/exp/constraints"

type number interface {
	constraints.Integer | constraints.Float
}

// Stats are the summary figures shown next to a dataset.
type Stats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Summarize computes Stats. An empty series yields zero Stats.
func Summarize[T number](values []T) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	lo, hi := Bounds(values)
	return Stats{
		Count: len(values),
		Min:   float64(lo),
		Max:   float64(hi),
		Mean:  Mean(values),
	}
}

// Bounds returns the smallest and largest values. values must be non-empty.
func Bounds[T number](values []T) (lo, hi T) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean[T number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}
