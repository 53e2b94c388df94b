package session

import (
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hako/durafmt"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/dataset"
	"github.com/satindergrewal/sonigraph/internal/music"
	"github.com/satindergrewal/sonigraph/internal/playback"
)

// MarkerEvent places the playback marker on the visible window. X is the
// marker's index within the window; Visible is false when the position lies
// outside it.
type MarkerEvent struct {
	playback.Marker
	X       int  `json:"x"`
	Visible bool `json:"visible"`
}

// markerAdapter is the clock's visual collaborator. It runs inside clock
// ticks and must not take the session mutex.
type markerAdapter struct {
	s *Session
}

func (a markerAdapter) MoveMarker(m playback.Marker) {
	vs := a.s.view.Load()
	start, end := music.WindowBounds(m.Length, vs.zoom, m.Position, vs.live)
	ev := &MarkerEvent{
		Marker:  m,
		X:       m.Position - start,
		Visible: m.Position >= start && m.Position < end,
	}
	a.s.marker.Store(ev)
	if a.s.opts.Debug {
		log.Printf("Tick %d/%d: %s (%.3f)", m.Position, m.Length, m.Note, m.Normalized)
	}
	a.s.events.Publish("marker", ev)
}

// DatasetInfo describes the loaded dataset without its values.
type DatasetInfo struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Source      dataset.Source `json:"source"`
	Length      int            `json:"length"`
	LoadedAt    time.Time      `json:"loaded_at"`
	Loaded      string         `json:"loaded"`
	Stats       dataset.Stats  `json:"stats"`
}

func (s *Session) datasetInfoLocked() *DatasetInfo {
	ds := s.dataset
	if ds == nil {
		return nil
	}
	return &DatasetInfo{
		ID:          ds.ID,
		Name:        ds.Name,
		Description: ds.Description,
		Source:      ds.Source,
		Length:      ds.Len(),
		LoadedAt:    ds.LoadedAt,
		Loaded:      humanize.Time(ds.LoadedAt),
		Stats:       ds.Stats(),
	}
}

// Settings are the user-adjustable sound settings.
type Settings struct {
	Tempo      int    `json:"tempo"`
	Scale      string `json:"scale"`
	Instrument string `json:"instrument"`
	BaseOctave int    `json:"base_octave"`
	NoteLength string `json:"note_length"`
}

// ZoomInfo describes the zoom level and the pitch span it maps onto.
type ZoomInfo struct {
	Level      int    `json:"level"`
	Octaves    int    `json:"octaves"`
	Range      string `json:"range"`
	TotalNotes int    `json:"total_notes"`
}

// LiveStatus describes the live data connection.
type LiveStatus struct {
	Connected  bool       `json:"connected"`
	Mode       bool       `json:"mode"`
	Symbol     string     `json:"symbol"`
	API        APIStatus  `json:"api"`
	BufferSize int        `json:"buffer_size"`
	BufferCap  int        `json:"buffer_cap"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	Freshness  string     `json:"freshness"`
	Interval   string     `json:"interval"`
	Fetches    int        `json:"fetches"`
	Failures   int        `json:"failures"`
}

// Status is a snapshot of the whole session.
type Status struct {
	Playback playback.Status `json:"playback"`
	Dataset  *DatasetInfo    `json:"dataset,omitempty"`
	Settings Settings        `json:"settings"`
	Zoom     ZoomInfo        `json:"zoom"`
	Live     LiveStatus      `json:"live"`
	Marker   *MarkerEvent    `json:"marker,omitempty"`
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	pb := s.clock.Status()
	stats := s.poller.Stats()

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.mappingLocked()
	st := Status{
		Playback: pb,
		Dataset:  s.datasetInfoLocked(),
		Settings: Settings{
			Tempo:      s.tempo,
			Scale:      s.scale.Key,
			Instrument: s.instrument,
			BaseOctave: s.baseOctave,
			NoteLength: s.noteLength.String(),
		},
		Zoom: ZoomInfo{
			Level:      s.zoom,
			Octaves:    music.OctaveRange(s.zoom),
			Range:      music.RangeDescription(s.zoom),
			TotalNotes: m.TotalNotes(),
		},
		Live: LiveStatus{
			Connected:  s.connected,
			Mode:       s.liveMode,
			Symbol:     s.symbol,
			API:        s.apiStatus,
			BufferSize: s.buffer.Len(),
			BufferCap:  s.buffer.Cap(),
			Freshness:  "Last update: Never",
			Interval:   durafmt.Parse(s.poller.Interval()).String(),
			Fetches:    stats.Fetches,
			Failures:   stats.Failures,
		},
		Marker: s.marker.Load(),
	}
	if !s.lastUpdate.IsZero() {
		at := s.lastUpdate
		st.Live.LastUpdate = &at
		st.Live.Freshness = "Last update: " + humanize.Time(at)
	}
	return st
}

// View is everything a chart needs to draw the visible window.
type View struct {
	Dataset      *DatasetInfo        `json:"dataset,omitempty"`
	Zoom         ZoomInfo            `json:"zoom"`
	Live         bool                `json:"live"`
	Start        int                 `json:"start"`
	Values       []float64           `json:"values"`
	Normalized   []float64           `json:"normalized"`
	Labels       []string            `json:"labels"`
	RangeLines   []float64           `json:"range_lines"`
	OctaveLabels []music.OctaveLabel `json:"octave_labels,omitempty"`
	Position     int                 `json:"position"`
	Marker       *MarkerEvent        `json:"marker,omitempty"`
}

// View returns the visible window of the dataset with its normalized values,
// note labels and range overlays.
func (s *Session) View() View {
	pos := s.clock.Position()

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.mappingLocked()
	v := View{
		Dataset: s.datasetInfoLocked(),
		Zoom: ZoomInfo{
			Level:      s.zoom,
			Octaves:    music.OctaveRange(s.zoom),
			Range:      music.RangeDescription(s.zoom),
			TotalNotes: m.TotalNotes(),
		},
		Live:         s.liveMode,
		Position:     pos,
		RangeLines:   m.RangeLines(),
		OctaveLabels: m.OctaveLabels(),
		Marker:       s.marker.Load(),
	}
	if s.dataset == nil {
		return v
	}

	norm := music.Normalize(s.dataset.Values)
	win := music.SelectWindow(s.dataset.Values, s.zoom, s.anchorLocked(pos), s.liveMode)
	v.Start = win.Start
	v.Values = win.Values
	v.Normalized = norm[win.Start : win.Start+len(win.Values)]
	v.Labels = make([]string, len(v.Normalized))
	for i, n := range v.Normalized {
		v.Labels[i] = m.Note(n).String()
	}
	return v
}

// HoverInfo describes one point of the visible window.
type HoverInfo struct {
	Index      int     `json:"index"`
	Value      float64 `json:"value"`
	Normalized float64 `json:"normalized"`
	Note       string  `json:"note"`
}

// Hover resolves an index relative to the visible window to its dataset
// point and note.
func (s *Session) Hover(rel int) (HoverInfo, error) {
	pos := s.clock.Position()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil {
		return HoverInfo{}, apperr.Input("Please load a dataset first")
	}

	win := music.SelectWindow(s.dataset.Values, s.zoom, s.anchorLocked(pos), s.liveMode)
	if !win.Contains(rel) {
		return HoverInfo{}, apperr.Inputf("Index %d is outside the visible window", rel)
	}
	idx := win.DatasetIndex(rel)
	norm := music.Normalize(s.dataset.Values)[idx]
	return HoverInfo{
		Index:      idx,
		Value:      s.dataset.Values[idx],
		Normalized: norm,
		Note:       s.mappingLocked().Note(norm).String(),
	}, nil
}

// anchorLocked returns the position the static window is cut from. While a
// marker for the loaded data is showing that is the point last played, the
// same anchor the marker adapter used; otherwise it is the clock's cursor.
// Must be called with mu held.
func (s *Session) anchorLocked(pos int) int {
	if mk := s.marker.Load(); mk != nil && s.dataset != nil && mk.Length == s.dataset.Len() {
		return mk.Position
	}
	return pos
}
