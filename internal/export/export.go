// Package export renders a dataset's sonification to audio and MIDI files.
package export

import (
	"time"

	"github.com/satindergrewal/sonigraph/internal/audio"
	"github.com/satindergrewal/sonigraph/internal/music"
	"github.com/satindergrewal/sonigraph/internal/playback"
)

// Options control how a dataset is rendered.
type Options struct {
	Name       string
	Tempo      int
	NoteLength playback.NoteLength
	Mapping    music.Mapping
	Instrument *audio.Instrument
	Volume     float64
}

// Result summarizes a render.
type Result struct {
	Notes    int
	Duration time.Duration
	Bytes    int64
}

// Notes places one note per data point, a clock period apart, exactly as live
// playback would sound them.
func Notes(values []float64, opts Options) []audio.Note {
	step := playback.Period(opts.Tempo)
	length := opts.NoteLength.Duration(opts.Tempo)
	events := playback.Sequence(values, opts.Mapping)

	notes := make([]audio.Note, len(events))
	for i, ev := range events {
		notes[i] = audio.Note{
			Frequency: ev.Note.Frequency(),
			Start:     time.Duration(i) * step,
			Length:    length,
		}
	}
	return notes
}
