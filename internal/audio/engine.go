package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/satindergrewal/sonigraph/internal/music"
)

var (
	ErrNotRunning = errors.New("audio engine is not running")
	ErrNotStarted = errors.New("audio engine has not been started")
)

// Engine mixes triggered notes into real-time PCM frames. Run drives the
// frame clock; Start is the precondition playback awaits before its first
// note, and Trigger adds a voice.
type Engine struct {
	frameCh   chan []int16
	ready     chan struct{}
	stopped   chan struct{}
	maxVoices int

	mu         sync.RWMutex
	instrument *Instrument
	volume     float64
	applied    float64 // volume reached at the end of the last frame
	voices     []*voice
	started    bool
	notes      uint64
	frames     uint64
}

// NewEngine creates an engine. volume is the master gain in [0,1].
func NewEngine(instrument string, volume float64, maxVoices int) (*Engine, error) {
	inst, err := LookupInstrument(instrument)
	if err != nil {
		return nil, err
	}
	if maxVoices <= 0 {
		maxVoices = DefaultMaxVoices
	}
	volume = clampVolume(volume)
	return &Engine{
		frameCh:    make(chan []int16, 100),
		ready:      make(chan struct{}),
		stopped:    make(chan struct{}),
		maxVoices:  maxVoices,
		instrument: inst,
		volume:     volume,
		applied:    volume,
	}, nil
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (e *Engine) Frames() <-chan []int16 {
	return e.frameCh
}

// Start waits until the frame clock is running. It fails if the engine has
// shut down or ctx ends first.
func (e *Engine) Start(ctx context.Context) error {
	select {
	case <-e.stopped:
		return ErrNotRunning
	default:
	}
	select {
	case <-e.ready:
	case <-e.stopped:
		return ErrNotRunning
	case <-ctx.Done():
		return fmt.Errorf("waiting for audio engine: %w", ctx.Err())
	}

	e.mu.Lock()
	if !e.started {
		e.started = true
		log.Printf("Audio engine started (%s, volume %.2f)", e.instrument.Name, e.volume)
	}
	e.mu.Unlock()
	return nil
}

// Trigger sounds note for d. When maxVoices notes are already sounding the
// oldest is cut.
func (e *Engine) Trigger(note string, d time.Duration) error {
	key, err := music.ParseNote(note)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return ErrNotStarted
	}
	select {
	case <-e.stopped:
		return ErrNotRunning
	default:
	}

	if len(e.voices) >= e.maxVoices {
		copy(e.voices, e.voices[1:])
		e.voices = e.voices[:len(e.voices)-1]
	}
	e.voices = append(e.voices, newVoice(e.instrument, music.MIDIFrequency(key), d))
	e.notes++
	return nil
}

// SetInstrument changes the instrument used by new notes.
func (e *Engine) SetInstrument(key string) error {
	inst, err := LookupInstrument(key)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.instrument = inst
	e.mu.Unlock()
	return nil
}

// Instrument returns the current instrument.
func (e *Engine) Instrument() *Instrument {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.instrument
}

// SetVolume changes the master gain. The change is ramped over one frame.
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	e.volume = clampVolume(v)
	e.mu.Unlock()
}

// Silence cuts every sounding voice.
func (e *Engine) Silence() {
	e.mu.Lock()
	clear(e.voices)
	e.voices = e.voices[:0]
	e.mu.Unlock()
}

// Status returns current engine info.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	running := false
	select {
	case <-e.ready:
		running = true
	default:
	}
	select {
	case <-e.stopped:
		running = false
	default:
	}
	return Status{
		Running:    running,
		Started:    e.started,
		Instrument: e.instrument.Key,
		Volume:     e.volume,
		Voices:     len(e.voices),
		Notes:      e.notes,
		Frames:     e.frames,
	}
}

// Run produces one frame per 20ms until ctx is cancelled. Silence is sent
// when no voice sounds so listeners hear a continuous stream.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.frameCh)
	defer close(e.stopped)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()
	close(e.ready)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame := e.render()
		select {
		case e.frameCh <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// render mixes the next frame.
func (e *Engine) render() []int16 {
	frame := make([]int16, FrameSamples)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.voices = mixInto(frame, FrameSize, e.voices, e.applied, e.volume)
	e.applied = e.volume
	e.frames++
	return frame
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
