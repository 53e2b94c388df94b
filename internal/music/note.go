package music

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultBaseOctave is the octave the lowest mapped note sits in.
const DefaultBaseOctave = 4

// Note is a pitch produced by Mapping.Note.
type Note struct {
	Name   string // scale note label, e.g. "C#"
	Degree int    // index into the scale, 0 <= Degree < cardinality
	Octave int
	Index  int // position in the mapped range, 0 <= Index < TotalNotes
	MIDI   int // MIDI key number
}

// String returns the scientific pitch name, e.g. "C#4".
func (n Note) String() string {
	return n.Name + strconv.Itoa(n.Octave)
}

// Frequency returns the equal-tempered frequency of the note in Hz.
func (n Note) Frequency() float64 {
	return MIDIFrequency(n.MIDI)
}

// Mapping turns normalized values into notes for one scale, zoom level and
// base octave.
type Mapping struct {
	Scale      Scale
	Zoom       int
	BaseOctave int
}

// OctaveRange returns how many octaves a zoom level spans: max(1, ceil(z/2)).
func OctaveRange(zoom int) int {
	if zoom < 1 {
		zoom = 1
	}
	return max(1, (zoom+1)/2)
}

// TotalNotes returns the number of distinct notes the mapping can produce.
func (m Mapping) TotalNotes() int {
	return m.Scale.Cardinality() * OctaveRange(m.Zoom)
}

// Note maps v to a note. v is clamped to [0,1]; v == 1 maps to the highest
// note of the range rather than overflowing into the next octave.
func (m Mapping) Note(v float64) Note {
	card := m.Scale.Cardinality()
	if card == 0 {
		return Note{Octave: m.BaseOctave}
	}
	if math.IsNaN(v) || v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}

	total := m.TotalNotes()
	idx := int(math.Floor(v * float64(total)))
	if idx >= total {
		idx = total - 1
	}

	degree := idx % card
	octave := m.BaseOctave + idx/card
	return Note{
		Name:   m.Scale.Notes[degree],
		Degree: degree,
		Octave: octave,
		Index:  idx,
		MIDI:   (octave+1)*12 + m.Scale.Intervals[degree],
	}
}

// Label returns the note name without octave, used for axis ticks.
func (m Mapping) Label(v float64) string {
	return m.Note(v).Name
}

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote converts a note string like "C4", "F#3" or "Bb5" into a MIDI key
// number. The octave defaults to 4 when omitted.
func ParseNote(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty note")
	}
	up := strings.ToUpper(s[:1]) + s[1:]
	base, ok := semitones[up[0]]
	if !ok {
		return 0, fmt.Errorf("unknown note %q", s)
	}
	rest := up[1:]
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			base++
		} else {
			base--
		}
		rest = rest[1:]
	}
	octave := DefaultBaseOctave
	if rest != "" {
		o, err := strconv.Atoi(rest)
		if err != nil {
			return 0, fmt.Errorf("bad octave in %q", s)
		}
		octave = o
	}
	return base + (octave+1)*12, nil
}

// MIDIFrequency returns the frequency of a MIDI key number (A4 = 69 = 440Hz).
func MIDIFrequency(key int) float64 {
	return 440 * math.Pow(2, float64(key-69)/12)
}
