package music

import "fmt"

// MaxZoom is the highest zoom level. Levels double from 1.
const MaxZoom = 8

// ZoomIn doubles z up to MaxZoom.
func ZoomIn(z int) int {
	if z < MaxZoom {
		return z * 2
	}
	return z
}

// ZoomOut halves z down to 1.
func ZoomOut(z int) int {
	if z > 1 {
		return z / 2
	}
	return 1
}

// RangeDescription describes the pitch span of a zoom level.
func RangeDescription(z int) string {
	octaves := OctaveRange(z)
	if octaves == 1 {
		return "1 octave"
	}
	return fmt.Sprintf("%d octaves", octaves)
}

// Window is the visible slice of a series. Start is the dataset index of
// Values[0].
type Window struct {
	Start  int
	Values []float64
}

// DatasetIndex converts an index relative to the window into a dataset index.
func (w Window) DatasetIndex(rel int) int {
	return w.Start + rel
}

// Relative converts a dataset index into a window-relative index. The result
// may fall outside [0, len(Values)).
func (w Window) Relative(index int) int {
	return index - w.Start
}

// Contains reports whether a window-relative index is visible.
func (w Window) Contains(rel int) bool {
	return rel >= 0 && rel < len(w.Values)
}

// SelectWindow picks the visible window of series for a zoom level. At zoom 1
// the whole series is visible. Above 1 the window holds len/zoom points: the
// newest ones in live mode, otherwise the ones starting at position.
func SelectWindow(series []float64, zoom, position int, live bool) Window {
	start, end := WindowBounds(len(series), zoom, position, live)
	return Window{Start: start, Values: series[start:end]}
}

// WindowBounds returns the [start, end) dataset indices SelectWindow would
// use for a series of length n.
func WindowBounds(n, zoom, position int, live bool) (start, end int) {
	if zoom <= 1 {
		return 0, n
	}
	size := n / zoom
	if live {
		return max(0, n-size), n
	}
	start = min(max(0, position), n)
	return start, min(start+size, n)
}
