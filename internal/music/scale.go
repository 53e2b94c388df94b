package music

import "sort"

// Scale is a named set of scale degrees. Notes and Intervals are index-aligned.
type Scale struct {
	Key       string
	Name      string
	Notes     []string
	Intervals []int // semitones above the tonic
}

// Cardinality returns the number of distinct notes in the scale.
func (s Scale) Cardinality() int {
	return len(s.Intervals)
}

// Scales maps scale keys to their definitions.
var Scales = map[string]Scale{
	"chromatic": {
		Key:       "chromatic",
		Name:      "Chromatic",
		Notes:     []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"},
		Intervals: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	},
	"major": {
		Key:       "major",
		Name:      "Major Scale",
		Notes:     []string{"C", "D", "E", "F", "G", "A", "B"},
		Intervals: []int{0, 2, 4, 5, 7, 9, 11},
	},
	"pentatonic": {
		Key:       "pentatonic",
		Name:      "Pentatonic",
		Notes:     []string{"C", "D", "E", "G", "A"},
		Intervals: []int{0, 2, 4, 7, 9},
	},
	"minor": {
		Key:       "minor",
		Name:      "Minor Scale",
		Notes:     []string{"C", "D", "Eb", "F", "G", "Ab", "Bb"},
		Intervals: []int{0, 2, 3, 5, 7, 8, 10},
	},
}

// ScaleNames returns all scale keys, sorted.
func ScaleNames() []string {
	names := make([]string, 0, len(Scales))
	for name := range Scales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidScale checks if a scale key exists.
func IsValidScale(key string) bool {
	_, ok := Scales[key]
	return ok
}

// LookupScale returns the scale for key and whether it exists.
func LookupScale(key string) (Scale, bool) {
	s, ok := Scales[key]
	return s, ok
}
