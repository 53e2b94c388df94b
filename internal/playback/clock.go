// Package playback advances a cursor through a dataset on a fixed tempo,
// sounding one note and moving the position marker per tick.
package playback

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/music"
	"github.com/satindergrewal/sonigraph/internal/task"
)

const (
	// LoopBack is how far behind the newest point continuous playback
	// restarts when it runs off the end.
	LoopBack = 10

	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120
)

// Audio sounds notes. Start is awaited once before playback begins; Trigger
// failures never stop the clock.
type Audio interface {
	Start(ctx context.Context) error
	Trigger(note string, d time.Duration) error
}

// Visual moves the position marker.
type Visual interface {
	MoveMarker(m Marker)
}

// Marker is the per-tick position update sent to the visual collaborator.
type Marker struct {
	Position   int     `json:"position"`
	Length     int     `json:"length"`
	Value      float64 `json:"value"`
	Normalized float64 `json:"normalized"`
	Note       string  `json:"note"`
}

// State is the clock's run state.
type State string

const (
	Stopped State = "stopped"
	Running State = "running"
)

// Status is a snapshot of the clock.
type Status struct {
	State        State         `json:"state"`
	Position     int           `json:"position"`
	Length       int           `json:"length"`
	Tempo        int           `json:"tempo"`
	Continuous   bool          `json:"continuous"`
	NoteLength   string        `json:"note_length"`
	NoteDuration time.Duration `json:"note_duration"`
	Period       time.Duration `json:"period"`
	LastNote     string        `json:"last_note"`
	Ticks        uint64        `json:"ticks"`
}

// Period returns the tick interval for a tempo: (60/bpm) * 250ms.
func Period(bpm int) time.Duration {
	if bpm <= 0 {
		bpm = DefaultTempo
	}
	return time.Duration(60.0 / float64(bpm) * 250 * float64(time.Millisecond))
}

// Clock is the playback state machine. All fields are guarded by mu; each tick
// runs with mu held so note, marker and advance happen in that order with no
// other writer in between.
type Clock struct {
	audio  Audio
	visual Visual

	mu         sync.Mutex
	data       []float64
	normalized []float64
	mapping    music.Mapping
	position   int
	tempo      int
	noteLength NoteLength
	continuous bool
	running    bool
	gen        uint64
	tick       *task.Handle
	lastNote   string
	ticks      uint64
}

// NewClock creates a stopped clock.
func NewClock(audio Audio, visual Visual, mapping music.Mapping, tempo int, noteLength NoteLength) *Clock {
	if tempo <= 0 {
		tempo = DefaultTempo
	}
	if noteLength.Division == 0 {
		noteLength, _ = ParseNoteLength(DefaultNoteLength)
	}
	return &Clock{
		audio:      audio,
		visual:     visual,
		mapping:    mapping,
		tempo:      tempo,
		noteLength: noteLength,
	}
}

// Status returns a snapshot of the clock.
func (c *Clock) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := Stopped
	if c.running {
		state = Running
	}
	return Status{
		State:        state,
		Position:     c.position,
		Length:       len(c.data),
		Tempo:        c.tempo,
		Continuous:   c.continuous,
		NoteLength:   c.noteLength.String(),
		NoteDuration: c.noteLength.Duration(c.tempo),
		Period:       Period(c.tempo),
		LastNote:     c.lastNote,
		Ticks:        c.ticks,
	}
}

// Playing reports whether the clock is running.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Position returns the cursor.
func (c *Clock) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// SetData replaces the dataset. The cursor goes back to 0 unless
// keepPosition is set, which live updates use.
func (c *Clock) SetData(values []float64, keepPosition bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = values
	c.normalized = music.Normalize(values)
	if !keepPosition {
		c.position = 0
	}
}

// SetMapping changes the scale, zoom and base octave used for new ticks.
func (c *Clock) SetMapping(m music.Mapping) {
	c.mu.Lock()
	c.mapping = m
	c.mu.Unlock()
}

// SetContinuous switches between static playback, which stops at the end,
// and continuous playback, which loops near the newest data.
func (c *Clock) SetContinuous(on bool) {
	c.mu.Lock()
	c.continuous = on
	c.mu.Unlock()
}

// SetNoteLength changes how long each note sounds.
func (c *Clock) SetNoteLength(nl NoteLength) {
	c.mu.Lock()
	c.noteLength = nl
	c.mu.Unlock()
}

// Start begins playback from the current position. It fails with an input
// error on an empty dataset and with an audio engine error when the engine
// cannot start; the clock stays stopped in both cases.
func (c *Clock) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	if len(c.data) == 0 {
		c.mu.Unlock()
		return apperr.Input("Please load a dataset first")
	}
	c.mu.Unlock()

	if err := c.audio.Start(ctx); err != nil {
		return apperr.AudioEngine(err, "Audio playback failed. The audio engine could not be started.")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	if len(c.data) == 0 {
		return apperr.Input("Please load a dataset first")
	}
	c.running = true
	c.schedule()
	log.Printf("Playback started at %d bpm (position %d of %d)", c.tempo, c.position, len(c.data))
	return nil
}

// Stop halts playback. No tick fires after Stop returns.
func (c *Clock) Stop() {
	c.mu.Lock()
	h := c.tick
	wasRunning := c.running
	c.halt()
	c.mu.Unlock()

	h.Cancel()
	if wasRunning {
		log.Println("Playback stopped")
	}
}

// Reset moves the cursor back to the start.
func (c *Clock) Reset() {
	c.mu.Lock()
	c.position = 0
	c.mu.Unlock()
}

// SetTempo changes the tempo. A running clock has its tick task cancelled and
// rescheduled at the new period.
func (c *Clock) SetTempo(bpm int) error {
	if bpm < MinTempo || bpm > MaxTempo {
		return apperr.Inputf("Tempo must be between %d and %d bpm", MinTempo, MaxTempo)
	}

	c.mu.Lock()
	c.tempo = bpm
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	old := c.tick
	c.tick = nil
	c.gen++
	c.mu.Unlock()

	old.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running && c.tick == nil {
		c.schedule()
		log.Printf("Tempo changed to %d bpm", bpm)
	}
	return nil
}

// FollowTail jumps a running continuous clock forward to lag points behind
// the newest data if it has fallen further behind.
func (c *Clock) FollowTail(lag int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || !c.continuous {
		return
	}
	target := len(c.data) - lag
	if target > 0 && c.position < target {
		c.position = target
	}
}

// schedule installs a new tick task. Must be called with mu held.
func (c *Clock) schedule() {
	c.gen++
	gen := c.gen
	c.tick = task.Every(Period(c.tempo), func() bool {
		return c.step(gen)
	})
}

// halt marks the clock stopped and invalidates pending ticks. Must be called
// with mu held.
func (c *Clock) halt() {
	c.running = false
	c.tick = nil
	c.gen++
}

// step runs one tick. It returns false once the tick stream should end.
func (c *Clock) step(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || !c.running {
		return false
	}

	n := len(c.data)
	if n == 0 {
		c.halt()
		return false
	}
	if c.position >= n && !c.wrap(n) {
		return false
	}

	value := c.data[c.position]
	norm := c.normalized[c.position]
	note := c.mapping.Note(norm).String()

	if err := c.audio.Trigger(note, c.noteLength.Duration(c.tempo)); err != nil {
		log.Printf("Note play failed: %v", err)
	}
	c.visual.MoveMarker(Marker{
		Position:   c.position,
		Length:     n,
		Value:      value,
		Normalized: norm,
		Note:       note,
	})
	c.lastNote = note
	c.ticks++
	c.position++

	if c.position >= n {
		return c.wrap(n)
	}
	return true
}

// wrap handles the cursor running off the end. Continuous playback loops
// back near the newest data; static playback stops and resets. Must be
// called with mu held.
func (c *Clock) wrap(n int) bool {
	if c.continuous {
		c.position = max(0, n-LoopBack)
		return true
	}
	c.halt()
	c.position = 0
	log.Println("Playback reached the end")
	return false
}
