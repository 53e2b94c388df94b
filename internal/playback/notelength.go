package playback

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultNoteLength is an eighth note.
const DefaultNoteLength = "8n"

// NoteLength is a note value in "<division>n" notation, "4n" for a quarter
// note. A trailing "." marks a dotted note.
type NoteLength struct {
	Division int
	Dotted   bool
}

// ParseNoteLength parses "1n", "2n", "4n", "8n", "16n", "32n" and their
// dotted forms.
func ParseNoteLength(s string) (NoteLength, error) {
	var nl NoteLength
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".") {
		nl.Dotted = true
		s = strings.TrimSuffix(s, ".")
	}
	if !strings.HasSuffix(s, "n") {
		return NoteLength{}, fmt.Errorf("note length %q: want <division>n", s)
	}
	div, err := strconv.Atoi(strings.TrimSuffix(s, "n"))
	if err != nil {
		return NoteLength{}, fmt.Errorf("note length %q: %w", s, err)
	}
	switch div {
	case 1, 2, 4, 8, 16, 32:
	default:
		return NoteLength{}, fmt.Errorf("note length %q: unsupported division %d", s, div)
	}
	nl.Division = div
	return nl, nil
}

// String returns the notation form, e.g. "8n" or "4n.".
func (nl NoteLength) String() string {
	s := strconv.Itoa(nl.Division) + "n"
	if nl.Dotted {
		s += "."
	}
	return s
}

// Duration returns how long the note sounds at the given tempo.
func (nl NoteLength) Duration(bpm int) time.Duration {
	if bpm <= 0 || nl.Division <= 0 {
		return 0
	}
	beat := 60.0 / float64(bpm)
	secs := beat * 4 / float64(nl.Division)
	if nl.Dotted {
		secs *= 1.5
	}
	return time.Duration(secs * float64(time.Second))
}
