package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/audio"
	"github.com/satindergrewal/sonigraph/internal/dataset"
	"github.com/satindergrewal/sonigraph/internal/live"
	"github.com/satindergrewal/sonigraph/internal/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu         sync.Mutex
	startErr   error
	notes      []string
	instrument string
	silenced   int
}

func (e *fakeEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startErr
}

func (e *fakeEngine) Trigger(note string, d time.Duration) error {
	e.mu.Lock()
	e.notes = append(e.notes, note)
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) SetInstrument(key string) error {
	if _, err := audio.LookupInstrument(key); err != nil {
		return err
	}
	e.mu.Lock()
	e.instrument = key
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) Silence() {
	e.mu.Lock()
	e.silenced++
	e.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events map[string][]any
}

func (r *recorder) Publish(typ string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string][]any)
	}
	r.events[typ] = append(r.events[typ], data)
}

func (r *recorder) last(typ string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := r.events[typ]
	if len(evs) == 0 {
		return nil
	}
	return evs[len(evs)-1]
}

func newTestSession(t *testing.T, feed live.Feed) (*Session, *fakeEngine, *recorder) {
	t.Helper()
	if feed == nil {
		feed = live.NewSeededSimulator(100, 0, 42)
	}
	eng := &fakeEngine{}
	rec := &recorder{}
	s, err := New(Options{
		LiveBuffer:   150,
		LiveInterval: time.Hour,
		LiveSymbol:   "DEMO",
	}, eng, feed, rec)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, eng, rec
}

func TestNewDefaults(t *testing.T) {
	s, eng, _ := newTestSession(t, nil)
	st := s.Status()
	assert.Equal(t, Settings{Tempo: 120, Scale: "major", Instrument: "piano", BaseOctave: 4, NoteLength: "8n"}, st.Settings)
	assert.Equal(t, ZoomInfo{Level: 1, Octaves: 1, Range: "1 octave", TotalNotes: 7}, st.Zoom)
	assert.Equal(t, "piano", eng.instrument)
	assert.Equal(t, "Last update: Never", st.Live.Freshness)
	assert.Equal(t, "1 hour", st.Live.Interval)
	assert.Nil(t, st.Dataset)
}

func TestNewRejectsBadOptions(t *testing.T) {
	feed := live.NewSimulator(0, 0)
	tests := []Options{
		{Scale: "dorian"},
		{Tempo: 1000},
		{BaseOctave: 12},
		{NoteLength: "7n"},
		{Instrument: "kazoo"},
	}
	for _, opts := range tests {
		_, err := New(opts, &fakeEngine{}, feed, nil)
		assert.True(t, apperr.Is(err, apperr.KindInput), "%+v", opts)
	}
}

func TestPlayRequiresDataset(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	err := s.Play(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInput))
	assert.Equal(t, "Please load a dataset first", apperr.Message(err))
	assert.False(t, s.Playing())
}

func TestPlayAudioFailureLeavesStateIntact(t *testing.T) {
	s, eng, _ := newTestSession(t, nil)
	require.NoError(t, s.LoadSample("temperature"))
	eng.startErr = errors.New("no device")

	err := s.Play(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindAudioEngine))
	assert.False(t, s.Playing())
	assert.Equal(t, "Daily Temperature", s.Dataset().Name)
}

func TestToggle(t *testing.T) {
	s, _, rec := newTestSession(t, nil)
	require.NoError(t, s.LoadSample("sineWave"))

	playing, err := s.Toggle(context.Background())
	require.NoError(t, err)
	assert.True(t, playing)
	assert.True(t, s.Playing())

	playing, err = s.Toggle(context.Background())
	require.NoError(t, err)
	assert.False(t, playing)
	assert.NotNil(t, rec.last("status"))
}

func TestPlaybackPublishesMarkers(t *testing.T) {
	s, eng, rec := newTestSession(t, nil)
	require.NoError(t, s.LoadSample("heartbeat"))
	require.NoError(t, s.clock.SetTempo(playback.MaxTempo))
	require.NoError(t, s.Play(context.Background()))

	assert.Eventually(t, func() bool { return rec.last("marker") != nil }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	ev := rec.last("marker").(*MarkerEvent)
	assert.True(t, ev.Visible)
	assert.Equal(t, ev.Position, ev.X)
	assert.Equal(t, 50, ev.Length)
	eng.mu.Lock()
	assert.NotEmpty(t, eng.notes)
	eng.mu.Unlock()
}

func TestMarkerAdapterUsesWindow(t *testing.T) {
	s, _, rec := newTestSession(t, nil)
	s.view.Store(&viewState{zoom: 4, live: true})

	markerAdapter{s}.MoveMarker(playback.Marker{Position: 95, Length: 100, Note: "C4"})
	ev := rec.last("marker").(*MarkerEvent)
	assert.Equal(t, 20, ev.X)
	assert.True(t, ev.Visible)

	markerAdapter{s}.MoveMarker(playback.Marker{Position: 10, Length: 100, Note: "C4"})
	ev = rec.last("marker").(*MarkerEvent)
	assert.Equal(t, -65, ev.X)
	assert.False(t, ev.Visible)
	assert.Equal(t, ev, s.Status().Marker)
}

func TestViewFollowsPlayedMarker(t *testing.T) {
	s, _, rec := newTestSession(t, nil)
	require.NoError(t, s.LoadSample("stockPrices"))
	s.ZoomIn()
	require.NoError(t, s.clock.SetTempo(playback.MaxTempo))
	require.NoError(t, s.Play(context.Background()))

	assert.Eventually(t, func() bool { return rec.last("marker") != nil }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	ev := s.Status().Marker
	require.NotNil(t, ev)
	require.True(t, ev.Visible)
	assert.Equal(t, ev.Position+1, s.clock.Position())

	v := s.View()
	assert.Equal(t, ev.Position-ev.X, v.Start)
	require.Less(t, ev.X, len(v.Values))

	h, err := s.Hover(ev.X)
	require.NoError(t, err)
	assert.Equal(t, ev.Position, h.Index)

	// A new dataset drops the old marker and the window follows the cursor.
	require.NoError(t, s.LoadSample("stockPrices"))
	assert.Nil(t, s.Status().Marker)
	assert.Equal(t, 0, s.View().Start)
}

func TestLoadUpload(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	require.NoError(t, s.LoadUpload("prices.csv", strings.NewReader("a,1\nb,2\nc,3")))
	ds := s.Dataset()
	assert.Equal(t, dataset.SourceUpload, ds.Source)
	assert.Equal(t, []float64{1, 2, 3}, ds.Values)

	err := s.LoadUpload("prices.xml", strings.NewReader("<x/>"))
	assert.True(t, apperr.Is(err, apperr.KindInput))
	assert.Equal(t, ds, s.Dataset(), "failed upload keeps the previous dataset")
}

func TestStats(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	assert.Equal(t, dataset.Stats{}, s.Stats())
	require.NoError(t, s.LoadUpload("v.json", strings.NewReader(`{"values":[2,4,6]}`)))
	assert.Equal(t, dataset.Stats{Count: 3, Min: 2, Max: 6, Mean: 4}, s.Stats())
}

func TestSettings(t *testing.T) {
	s, eng, _ := newTestSession(t, nil)

	require.NoError(t, s.SetScale("minor"))
	require.NoError(t, s.SetInstrument("synth"))
	require.NoError(t, s.SetBaseOctave(3))
	require.NoError(t, s.SetNoteLength("4n."))

	assert.Error(t, s.SetScale("lydian"))
	assert.Error(t, s.SetInstrument("banjo"))
	assert.Error(t, s.SetBaseOctave(0))
	assert.Error(t, s.SetNoteLength("5n"))
	assert.Error(t, s.SetTempo(5))

	st := s.Status()
	assert.Equal(t, Settings{Tempo: 120, Scale: "minor", Instrument: "synth", BaseOctave: 3, NoteLength: "4n."}, st.Settings)
	assert.Equal(t, "synth", eng.instrument)
	assert.Equal(t, "4n.", st.Playback.NoteLength)
}

func TestUpdateSettingsIsAllOrNothing(t *testing.T) {
	s, eng, _ := newTestSession(t, nil)
	before := s.Status().Settings

	minor, octave, bogus := "minor", 3, "bogus"
	err := s.UpdateSettings(SettingsUpdate{Scale: &minor, BaseOctave: &octave, Instrument: &bogus})
	assert.True(t, apperr.Is(err, apperr.KindInput))
	assert.Equal(t, before, s.Status().Settings)
	assert.Equal(t, "piano", eng.instrument)

	tempo, nl := 500, "4n"
	err = s.UpdateSettings(SettingsUpdate{Scale: &minor, NoteLength: &nl, Tempo: &tempo})
	assert.True(t, apperr.Is(err, apperr.KindInput))
	assert.Equal(t, before, s.Status().Settings)

	square := "square"
	require.NoError(t, s.UpdateSettings(SettingsUpdate{Scale: &minor, BaseOctave: &octave, Instrument: &square, NoteLength: &nl}))
	st := s.Status().Settings
	assert.Equal(t, Settings{Tempo: 120, Scale: "minor", Instrument: "square", BaseOctave: 3, NoteLength: "4n"}, st)
	assert.Equal(t, "square", eng.instrument)
}

func TestSetTempoIsDebounced(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	for _, bpm := range []int{100, 140, 180} {
		require.NoError(t, s.SetTempo(bpm))
	}
	assert.Equal(t, 180, s.Status().Settings.Tempo)
	assert.Eventually(t, func() bool {
		return s.Status().Playback.Tempo == 180
	}, 2*time.Second, 10*time.Millisecond)
}

func TestZoom(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	assert.Equal(t, 1, s.ZoomOut())
	assert.Equal(t, 2, s.ZoomIn())
	assert.Equal(t, 4, s.ZoomIn())
	assert.Equal(t, 8, s.ZoomIn())
	assert.Equal(t, 8, s.ZoomIn())
	assert.Equal(t, "4 octaves", s.Status().Zoom.Range)
	assert.Equal(t, 4, s.ZoomOut())
	assert.Equal(t, 1, s.ResetZoom())
}

func TestViewAndHover(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	require.NoError(t, s.LoadSample("temperature"))

	v := s.View()
	assert.Equal(t, 0, v.Start)
	assert.Len(t, v.Values, 27)
	assert.Len(t, v.Labels, 27)
	assert.Len(t, v.RangeLines, 8)
	assert.Empty(t, v.OctaveLabels)
	assert.Equal(t, 0.0, v.Normalized[5]) // 53 is the minimum
	assert.Equal(t, "C4", v.Labels[5])
	assert.Equal(t, "B4", v.Labels[17]) // 85 is the maximum

	s.ZoomIn()
	v = s.View()
	assert.Len(t, v.Values, 13)
	assert.Len(t, v.OctaveLabels, 1)

	h, err := s.Hover(2)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Index)
	assert.Equal(t, 56.0, h.Value)

	_, err = s.Hover(13)
	assert.True(t, apperr.Is(err, apperr.KindInput))
}

func TestLiveModeRequiresConnection(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	err := s.SetLiveMode(true)
	assert.Equal(t, "Please connect to live data first", apperr.Message(err))

	err = s.RefreshLive(context.Background())
	assert.Equal(t, "No live data connection active", apperr.Message(err))
}

func TestConnectLive(t *testing.T) {
	s, _, rec := newTestSession(t, nil)
	require.NoError(t, s.ConnectLive(context.Background(), "ACME"))

	st := s.Status()
	assert.True(t, st.Live.Connected)
	assert.True(t, st.Live.Mode)
	assert.Equal(t, APIConnected, st.Live.API)
	assert.Equal(t, "ACME", st.Live.Symbol)
	assert.Equal(t, live.SeriesLength, st.Live.BufferSize)
	assert.True(t, st.Playback.Continuous)
	assert.Equal(t, dataset.SourceLive, st.Dataset.Source)
	assert.Equal(t, "ACME Live Data (Simulated)", st.Dataset.Name)
	assert.NotNil(t, st.Live.LastUpdate)
	assert.True(t, s.poller.Running())
	assert.NotNil(t, rec.last("dataset"))

	require.NoError(t, s.RefreshLive(context.Background()))
	assert.Equal(t, live.SeriesLength+1, s.Status().Live.BufferSize)
	assert.Equal(t, live.SeriesLength+1, s.Dataset().Len())
	assert.NotNil(t, rec.last("live"))
}

func TestLiveBufferStaysBounded(t *testing.T) {
	feed := live.NewSeededSimulator(100, 0, 5)
	s, err := New(Options{LiveBuffer: 64, LiveInterval: time.Hour}, &fakeEngine{}, feed, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ConnectLive(context.Background(), "X"))
	for i := 0; i < 20; i++ {
		s.onLiveValue(float64(i))
	}
	assert.Equal(t, 64, s.Dataset().Len())
	assert.Equal(t, 19.0, s.Dataset().Values[63])
}

func TestLiveFollowsTail(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	require.NoError(t, s.ConnectLive(context.Background(), "ACME"))
	require.NoError(t, s.Play(context.Background()))

	s.onLiveValue(123)
	assert.GreaterOrEqual(t, s.clock.Position(), s.Dataset().Len()-FollowLag)
}

func TestConnectFailureKeepsDataset(t *testing.T) {
	s, _, _ := newTestSession(t, live.NewSeededSimulator(100, 1, 9))
	require.NoError(t, s.LoadSample("randomWalk"))

	err := s.ConnectLive(context.Background(), "ACME")
	assert.True(t, apperr.Is(err, apperr.KindLiveFetch))
	st := s.Status()
	assert.Equal(t, APIError, st.Live.API)
	assert.False(t, st.Live.Connected)
	assert.Equal(t, "Random Walk", st.Dataset.Name)
}

func TestLiveModeOffRefetchesSeries(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	require.NoError(t, s.ConnectLive(context.Background(), "ACME"))
	require.NoError(t, s.RefreshLive(context.Background()))
	require.NoError(t, s.SetLiveMode(false))
	assert.False(t, s.poller.Running())
	assert.False(t, s.Status().Playback.Continuous)

	require.NoError(t, s.RefreshLive(context.Background()))
	assert.Equal(t, live.SeriesLength, s.Dataset().Len())

	require.NoError(t, s.SetLiveMode(true))
	assert.True(t, s.poller.Running())
}

func TestDisconnect(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	require.NoError(t, s.ConnectLive(context.Background(), "ACME"))
	s.Disconnect()

	st := s.Status()
	assert.False(t, st.Live.Connected)
	assert.False(t, st.Live.Mode)
	assert.Equal(t, 0, st.Live.BufferSize)
	assert.Equal(t, APIDisconnected, st.Live.API)
	assert.False(t, st.Playback.Continuous)
	assert.False(t, s.poller.Running())
	assert.Equal(t, live.SeriesLength, s.Dataset().Len(), "last snapshot stays loaded")
}

func TestLoadSampleDisconnectsLive(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	require.NoError(t, s.ConnectLive(context.Background(), "ACME"))
	require.NoError(t, s.LoadSample("stockPrices"))

	st := s.Status()
	assert.False(t, st.Live.Connected)
	assert.Equal(t, dataset.SourceSample, st.Dataset.Source)
	assert.Equal(t, 100, st.Dataset.Length)
}

func TestExportOptions(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	_, _, err := s.ExportOptions(0.5)
	assert.True(t, apperr.Is(err, apperr.KindInput))

	require.NoError(t, s.LoadUpload("v.csv", strings.NewReader("1\n2\n3\n")))
	require.NoError(t, s.SetInstrument("square"))
	s.ZoomIn()

	values, opts, err := s.ExportOptions(0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, values)
	assert.Equal(t, 120, opts.Tempo)
	assert.Equal(t, 2, opts.Mapping.Zoom)
	assert.Equal(t, audio.Instruments["square"], opts.Instrument)
	assert.Equal(t, 0.5, opts.Volume)
	assert.Equal(t, "8n", opts.NoteLength.String())
}
