package music

// FlatValue is the normalized value every point of a constant series maps to.
const FlatValue = 0.5

// Normalize rescales values into [0,1] with min-max scaling. A flat series
// maps to FlatValue everywhere. Callers check for empty input; an empty slice
// comes back empty.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	span := hi - lo
	if span == 0 {
		for i := range out {
			out[i] = FlatValue
		}
		return out
	}

	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}
