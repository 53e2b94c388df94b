package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/audio"
	"github.com/satindergrewal/sonigraph/internal/music"
	"github.com/satindergrewal/sonigraph/internal/playback"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	scale, ok := music.LookupScale("major")
	require.True(t, ok)
	nl, err := playback.ParseNoteLength("8n")
	require.NoError(t, err)
	return Options{
		Name:       "test",
		Tempo:      120,
		NoteLength: nl,
		Mapping:    music.Mapping{Scale: scale, Zoom: 1, BaseOctave: 4},
		Instrument: audio.Instruments["synth"],
		Volume:     0.2,
	}
}

func TestNotesTimeline(t *testing.T) {
	opts := testOptions(t)
	notes := Notes([]float64{0, 50, 100}, opts)
	require.Len(t, notes, 3)

	assert.Equal(t, time.Duration(0), notes[0].Start)
	assert.Equal(t, 125*time.Millisecond, notes[1].Start)
	assert.Equal(t, 250*time.Millisecond, notes[2].Start)
	for _, n := range notes {
		assert.Equal(t, 250*time.Millisecond, n.Length)
	}
	assert.InDelta(t, 261.63, notes[0].Frequency, 0.01)
	assert.Less(t, notes[0].Frequency, notes[2].Frequency)
}

func TestWriteWAV(t *testing.T) {
	opts := testOptions(t)
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	res, err := WriteWAV(f, []float64{1, 3, 2, 5, 4}, opts)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, 5, res.Notes)
	assert.Greater(t, res.Duration, 4*playback.Period(opts.Tempo))

	f, err = os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	assert.Equal(t, uint32(audio.SampleRate), dec.SampleRate)
	assert.Equal(t, uint16(audio.Channels), dec.NumChans)
	assert.Equal(t, uint16(audio.BitDepth), dec.BitDepth)

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.NotEmpty(t, buf.Data)

	peak := 0
	for _, s := range buf.Data {
		peak = max(peak, s, -s)
	}
	assert.Greater(t, peak, 0)
}

func TestWriteWAVEmpty(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "empty.wav"))
	require.NoError(t, err)
	defer f.Close()

	_, err = WriteWAV(f, nil, testOptions(t))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInput))
}

func TestWriteMIDI(t *testing.T) {
	opts := testOptions(t)
	var buf bytes.Buffer
	res, err := WriteMIDI(&buf, []float64{0, 100, 0}, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Notes)
	assert.Equal(t, int64(buf.Len()), res.Bytes)
	assert.Equal(t, 250*time.Millisecond+250*time.Millisecond, res.Duration)

	sm, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, sm.Tracks, 2)

	type hit struct {
		tick uint32
		key  uint8
	}
	var ons, offs []hit
	var abs uint32
	for _, ev := range sm.Tracks[1] {
		abs += ev.Delta
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteStart(&ch, &key, &vel):
			ons = append(ons, hit{abs, key})
		case ev.Message.GetNoteEnd(&ch, &key):
			offs = append(offs, hit{abs, key})
		}
	}

	require.Len(t, ons, 3)
	require.Len(t, offs, 3)
	assert.Equal(t, hit{0, 60}, ons[0])
	assert.Equal(t, hit{TicksPerStep, 71}, ons[1])
	assert.Equal(t, hit{2 * TicksPerStep, 60}, ons[2])
	// An eighth note is two steps long.
	assert.Equal(t, hit{2 * TicksPerStep, 60}, offs[0])
}

func TestWriteMIDIMergesOverlappingKeys(t *testing.T) {
	opts := testOptions(t)
	var buf bytes.Buffer
	// Flat data repeats one key; eighth notes overlap sixteenth steps.
	_, err := WriteMIDI(&buf, []float64{5, 5, 5}, opts)
	require.NoError(t, err)

	sm, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	starts, ends := 0, 0
	for _, ev := range sm.Tracks[1] {
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteStart(&ch, &key, &vel):
			starts++
		case ev.Message.GetNoteEnd(&ch, &key):
			ends++
		}
	}
	assert.Equal(t, starts, ends)
	assert.GreaterOrEqual(t, starts, 1)
}

func TestNoteTicks(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"4n", TicksPerQuarter},
		{"8n", TicksPerQuarter / 2},
		{"16n", TicksPerStep},
		{"4n.", TicksPerQuarter * 3 / 2},
		{"1n", TicksPerQuarter * 4},
	}
	for _, tt := range tests {
		nl, err := playback.ParseNoteLength(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, noteTicks(nl), tt.in)
	}
}
