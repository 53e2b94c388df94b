// Package session ties a dataset, the playback clock, the audio engine and
// the live feed together behind the operations a listener performs.
package session

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/audio"
	"github.com/satindergrewal/sonigraph/internal/dataset"
	"github.com/satindergrewal/sonigraph/internal/live"
	"github.com/satindergrewal/sonigraph/internal/music"
	"github.com/satindergrewal/sonigraph/internal/playback"
)

const (
	// FollowLag is how many points behind the newest value live playback
	// trails.
	FollowLag = 5

	// TempoSettle is how long tempo changes are coalesced before the clock
	// is rescheduled.
	TempoSettle = 100 * time.Millisecond

	MinBaseOctave = 1
	MaxBaseOctave = 7
)

// Engine sounds notes. *audio.Engine satisfies it.
type Engine interface {
	playback.Audio
	SetInstrument(key string) error
	Silence()
}

// Publisher delivers events to observers. *stream.EventHub satisfies it.
type Publisher interface {
	Publish(typ string, data any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

// Options are the starting settings of a session.
type Options struct {
	Tempo        int
	Scale        string
	Instrument   string
	BaseOctave   int
	NoteLength   string
	LiveBuffer   int
	LiveInterval time.Duration
	LiveSymbol   string
	Debug        bool
}

// viewState is what the marker adapter needs to place the marker. It is read
// from inside clock ticks, so it lives behind an atomic pointer rather than
// the session mutex.
type viewState struct {
	zoom int
	live bool
}

// Session is one sonification: the loaded dataset and every setting that
// shapes how it sounds and looks.
type Session struct {
	opts     Options
	clock    *playback.Clock
	engine   Engine
	feed     live.Feed
	buffer   *live.Buffer
	poller   *live.Poller
	events   Publisher
	debounce func(func())

	view   atomic.Pointer[viewState]
	marker atomic.Pointer[MarkerEvent]

	mu         sync.Mutex
	dataset    *dataset.Dataset
	scale      music.Scale
	zoom       int
	baseOctave int
	instrument string
	noteLength playback.NoteLength
	tempo      int
	connected  bool
	liveMode   bool
	symbol     string
	apiStatus  APIStatus
	lastUpdate time.Time
}

// New creates a session with nothing loaded. events may be nil.
func New(opts Options, engine Engine, feed live.Feed, events Publisher) (*Session, error) {
	if opts.Tempo == 0 {
		opts.Tempo = playback.DefaultTempo
	}
	if opts.Scale == "" {
		opts.Scale = "major"
	}
	if opts.Instrument == "" {
		opts.Instrument = audio.DefaultInstrument
	}
	if opts.BaseOctave == 0 {
		opts.BaseOctave = music.DefaultBaseOctave
	}
	if opts.NoteLength == "" {
		opts.NoteLength = playback.DefaultNoteLength
	}

	scale, ok := music.LookupScale(opts.Scale)
	if !ok {
		return nil, apperr.Inputf("Unknown scale %q", opts.Scale)
	}
	if err := validTempo(opts.Tempo); err != nil {
		return nil, err
	}
	if err := validOctave(opts.BaseOctave); err != nil {
		return nil, err
	}
	nl, err := playback.ParseNoteLength(opts.NoteLength)
	if err != nil {
		return nil, apperr.WrapInput(err, "Invalid note length "+opts.NoteLength)
	}
	if err := engine.SetInstrument(opts.Instrument); err != nil {
		return nil, apperr.WrapInput(err, "Unknown instrument "+opts.Instrument)
	}
	if events == nil {
		events = nopPublisher{}
	}

	s := &Session{
		opts:       opts,
		engine:     engine,
		feed:       feed,
		buffer:     live.NewBuffer(opts.LiveBuffer),
		events:     events,
		debounce:   debounce.New(TempoSettle),
		scale:      scale,
		zoom:       1,
		baseOctave: opts.BaseOctave,
		instrument: opts.Instrument,
		noteLength: nl,
		tempo:      opts.Tempo,
		symbol:     opts.LiveSymbol,
		apiStatus:  APIDisconnected,
	}
	s.view.Store(&viewState{zoom: 1})
	s.clock = playback.NewClock(engine, markerAdapter{s}, s.mappingLocked(), opts.Tempo, nl)
	s.poller = live.NewPoller(feed, opts.LiveInterval, s.onLiveValue)
	return s, nil
}

// Close stops playback and live updates and cuts any sounding notes.
func (s *Session) Close() {
	s.poller.Stop()
	s.clock.Stop()
	s.engine.Silence()
}

// LoadSample replaces the dataset with a bundled sample. Live data is
// disconnected first.
func (s *Session) LoadSample(key string) error {
	ds, err := dataset.LoadSample(key)
	if err != nil {
		return err
	}
	s.install(ds)
	return nil
}

// LoadUpload parses an uploaded CSV or JSON file and makes it the dataset.
// On error the current dataset stays loaded.
func (s *Session) LoadUpload(filename string, r io.Reader) error {
	ds, err := dataset.Load(filename, r)
	if err != nil {
		return err
	}
	s.install(ds)
	return nil
}

func (s *Session) install(ds *dataset.Dataset) {
	s.Disconnect()

	s.mu.Lock()
	s.dataset = ds
	s.clock.SetData(ds.Values, false)
	s.marker.Store(nil)
	info := s.datasetInfoLocked()
	s.mu.Unlock()

	log.Printf("Loaded %s dataset %q (%d points)", ds.Source, ds.Name, ds.Len())
	s.events.Publish("dataset", info)
}

// Dataset returns the loaded dataset, or nil.
func (s *Session) Dataset() *dataset.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// Play starts playback from the current position.
func (s *Session) Play(ctx context.Context) error {
	if err := s.clock.Start(ctx); err != nil {
		return err
	}
	s.publishStatus()
	return nil
}

// Stop pauses playback, keeping the position.
func (s *Session) Stop() {
	s.clock.Stop()
	s.publishStatus()
}

// Toggle plays when stopped and stops when playing. It reports whether the
// clock is now running.
func (s *Session) Toggle(ctx context.Context) (bool, error) {
	if s.clock.Playing() {
		s.Stop()
		return false, nil
	}
	if err := s.Play(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Reset moves the cursor back to the first point.
func (s *Session) Reset() {
	s.clock.Reset()
	s.marker.Store(nil)
	s.publishStatus()
}

// Playing reports whether playback is running.
func (s *Session) Playing() bool {
	return s.clock.Playing()
}

// Stats summarizes the loaded dataset.
func (s *Session) Stats() dataset.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset.Stats()
}

func (s *Session) mappingLocked() music.Mapping {
	return music.Mapping{Scale: s.scale, Zoom: s.zoom, BaseOctave: s.baseOctave}
}

// refreshLocked pushes the current mapping and view flags to the clock and
// the marker adapter. Must be called with mu held.
func (s *Session) refreshLocked() {
	s.clock.SetMapping(s.mappingLocked())
	s.view.Store(&viewState{zoom: s.zoom, live: s.liveMode})
}

func (s *Session) publishStatus() {
	s.events.Publish("status", s.Status())
}
