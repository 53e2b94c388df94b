package playback

import "github.com/satindergrewal/sonigraph/internal/music"

// Event is one tick of a rendered sequence.
type Event struct {
	Index      int
	Value      float64
	Normalized float64
	Note       music.Note
}

// Sequence maps every point of values to the note the clock would play for
// it, in order. Offline renderers and exporters consume it.
func Sequence(values []float64, m music.Mapping) []Event {
	norm := music.Normalize(values)
	events := make([]Event, len(values))
	for i, v := range values {
		events[i] = Event{
			Index:      i,
			Value:      v,
			Normalized: norm[i],
			Note:       m.Note(norm[i]),
		}
	}
	return events
}
