package audio

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Waveform is an oscillator shape.
type Waveform string

const (
	Sine     Waveform = "sine"
	Sawtooth Waveform = "sawtooth"
	Square   Waveform = "square"
)

// Sample returns the waveform at phase p in [0,1).
func (w Waveform) Sample(p float64) float64 {
	switch w {
	case Sawtooth:
		return 2*p - 1
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

// Envelope is an ADSR envelope. Attack, Decay and Release are in seconds,
// Sustain is a level in [0,1].
type Envelope struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// Gain returns the envelope level t seconds after note-on for a note held
// for hold seconds.
func (e Envelope) Gain(t, hold float64) float64 {
	if t < 0 {
		return 0
	}
	if t < hold {
		return e.held(t)
	}
	if e.Release <= 0 {
		return 0
	}
	return e.held(hold) * (1 - Smoothstep((t-hold)/e.Release))
}

func (e Envelope) held(t float64) float64 {
	switch {
	case t < e.Attack:
		return Smoothstep(t / e.Attack)
	case t < e.Attack+e.Decay:
		return 1 - (1-e.Sustain)*Smoothstep((t-e.Attack)/e.Decay)
	default:
		return e.Sustain
	}
}

// Instrument is an oscillator with an envelope.
type Instrument struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Waveform Waveform `json:"waveform"`
	Envelope Envelope `json:"envelope"`
}

// Instruments are the selectable voices.
var Instruments = map[string]*Instrument{
	"piano": {
		Key:      "piano",
		Name:     "Piano",
		Waveform: Sine,
		Envelope: Envelope{Attack: 0.01, Decay: 0.3, Sustain: 0.3, Release: 1},
	},
	"synth": {
		Key:      "synth",
		Name:     "Synth Lead",
		Waveform: Sawtooth,
		Envelope: Envelope{Attack: 0.1, Decay: 0.2, Sustain: 0.5, Release: 0.8},
	},
	"square": {
		Key:      "square",
		Name:     "Square Wave",
		Waveform: Square,
		Envelope: Envelope{Attack: 0.05, Decay: 0.1, Sustain: 0.7, Release: 0.4},
	},
	"sawtooth": {
		Key:      "sawtooth",
		Name:     "Sawtooth",
		Waveform: Sawtooth,
		Envelope: Envelope{Attack: 0.02, Decay: 0.1, Sustain: 0.8, Release: 0.6},
	},
}

// DefaultInstrument is used when none is configured.
const DefaultInstrument = "piano"

// LookupInstrument returns the instrument for key.
func LookupInstrument(key string) (*Instrument, error) {
	inst, ok := Instruments[key]
	if !ok {
		return nil, fmt.Errorf("unknown instrument %q", key)
	}
	return inst, nil
}

// InstrumentNames returns the instrument keys in sorted order.
func InstrumentNames() []string {
	names := make([]string, 0, len(Instruments))
	for k := range Instruments {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// voice is one sounding note.
type voice struct {
	inst  *Instrument
	freq  float64
	phase float64
	hold  float64 // seconds
	age   int     // samples rendered
	end   int     // sample count after which the voice is silent
}

func newVoice(inst *Instrument, freq float64, d time.Duration) *voice {
	hold := d.Seconds()
	return &voice{
		inst: inst,
		freq: freq,
		hold: hold,
		end:  int(math.Ceil((hold + inst.Envelope.Release) * SampleRate)),
	}
}

// next returns the voice's next mono sample in [-1,1].
func (v *voice) next() float64 {
	t := float64(v.age) / SampleRate
	s := v.inst.Waveform.Sample(v.phase) * v.inst.Envelope.Gain(t, v.hold)
	v.phase += v.freq / SampleRate
	if v.phase >= 1 {
		v.phase -= math.Floor(v.phase)
	}
	v.age++
	return s
}

func (v *voice) done() bool {
	return v.age >= v.end
}
