package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/playback"
)

const (
	// TicksPerQuarter is the MIDI file resolution.
	TicksPerQuarter = 960
	// TicksPerStep is one clock tick: a sixteenth note.
	TicksPerStep = TicksPerQuarter / 4

	velocity = 100
	channel  = 0
)

type midiEvent struct {
	tick uint32
	on   bool
	key  uint8
}

// noteTicks returns how many ticks a note length lasts.
func noteTicks(nl playback.NoteLength) uint32 {
	if nl.Division <= 0 {
		return TicksPerStep
	}
	t := TicksPerQuarter * 4 / nl.Division
	if nl.Dotted {
		t = t * 3 / 2
	}
	return uint32(t)
}

// WriteMIDI writes values as a format 1 MIDI file: a tempo track and one note
// track with a note per data point, a sixteenth note apart.
func WriteMIDI(w io.Writer, values []float64, opts Options) (Result, error) {
	if len(values) == 0 {
		return Result{}, apperr.Input("Please load a dataset first")
	}

	events := playback.Sequence(values, opts.Mapping)
	length := noteTicks(opts.NoteLength)

	var timeline []midiEvent
	for i, ev := range events {
		key := uint8(min(max(ev.Note.MIDI, 0), 127))
		start := uint32(i) * TicksPerStep
		timeline = append(timeline,
			midiEvent{tick: start, on: true, key: key},
			midiEvent{tick: start + length, on: false, key: key},
		)
	}
	// Offs sort before ons on the same tick so a repeated key retriggers.
	sort.SliceStable(timeline, func(i, j int) bool {
		if timeline[i].tick != timeline[j].tick {
			return timeline[i].tick < timeline[j].tick
		}
		return !timeline[i].on && timeline[j].on
	})

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(float64(opts.Tempo)))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return Result{}, fmt.Errorf("add tempo track: %w", err)
	}

	var track smf.Track
	if opts.Name != "" {
		track.Add(0, smf.MetaTrackSequenceName(opts.Name))
	}
	// Overlapping notes on one key would cut each other short; count how
	// many are sounding and only emit the outermost on/off.
	sounding := make(map[uint8]int)
	var last uint32
	for _, ev := range timeline {
		delta := ev.tick - last
		if ev.on {
			sounding[ev.key]++
			if sounding[ev.key] > 1 {
				continue
			}
			track.Add(delta, midi.NoteOn(channel, ev.key, velocity))
		} else {
			sounding[ev.key]--
			if sounding[ev.key] > 0 {
				continue
			}
			track.Add(delta, midi.NoteOff(channel, ev.key))
		}
		last = ev.tick
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return Result{}, fmt.Errorf("add note track: %w", err)
	}

	n, err := sm.WriteTo(w)
	if err != nil {
		return Result{}, fmt.Errorf("write midi: %w", err)
	}

	step := playback.Period(opts.Tempo)
	return Result{
		Notes:    len(events),
		Duration: time.Duration(len(events)-1)*step + opts.NoteLength.Duration(opts.Tempo),
		Bytes:    n,
	}, nil
}
