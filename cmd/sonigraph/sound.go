package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/audio"
	"github.com/satindergrewal/sonigraph/internal/config"
	"github.com/satindergrewal/sonigraph/internal/dataset"
	"github.com/satindergrewal/sonigraph/internal/export"
	"github.com/satindergrewal/sonigraph/internal/music"
	"github.com/satindergrewal/sonigraph/internal/playback"
	"github.com/satindergrewal/sonigraph/internal/session"
)

// soundFlags are the sound settings shared by the offline commands. Defaults
// come from the environment.
type soundFlags struct {
	tempo      int
	scale      string
	instrument string
	octave     int
	noteLength string
	zoom       int
	volume     float64
}

func (f *soundFlags) register(cmd *cobra.Command) {
	cfg := config.Load()
	fl := cmd.Flags()
	fl.IntVar(&f.tempo, "tempo", cfg.Tempo, "tempo in bpm")
	fl.StringVar(&f.scale, "scale", cfg.Scale, "scale: "+fmt.Sprint(music.ScaleNames()))
	fl.StringVar(&f.instrument, "instrument", cfg.Instrument, "instrument: "+fmt.Sprint(audio.InstrumentNames()))
	fl.IntVar(&f.octave, "octave", cfg.BaseOctave, "base octave")
	fl.StringVar(&f.noteLength, "note-length", cfg.NoteLength, "note length, e.g. 8n or 4n.")
	fl.IntVar(&f.zoom, "zoom", 1, "zoom level (1, 2, 4, 8)")
	fl.Float64Var(&f.volume, "volume", cfg.Volume, "output volume 0-1")
}

func (f *soundFlags) mapping() (music.Mapping, error) {
	scale, ok := music.LookupScale(f.scale)
	if !ok {
		return music.Mapping{}, apperr.Inputf("Unknown scale %q", f.scale)
	}
	if f.octave < session.MinBaseOctave || f.octave > session.MaxBaseOctave {
		return music.Mapping{}, apperr.Inputf("Base octave must be between %d and %d", session.MinBaseOctave, session.MaxBaseOctave)
	}
	zoom := 1
	for zoom < f.zoom && zoom < music.MaxZoom {
		zoom = music.ZoomIn(zoom)
	}
	return music.Mapping{Scale: scale, Zoom: zoom, BaseOctave: f.octave}, nil
}

func (f *soundFlags) options(name string) (export.Options, error) {
	m, err := f.mapping()
	if err != nil {
		return export.Options{}, err
	}
	if f.tempo < playback.MinTempo || f.tempo > playback.MaxTempo {
		return export.Options{}, apperr.Inputf("Tempo must be between %d and %d bpm", playback.MinTempo, playback.MaxTempo)
	}
	nl, err := playback.ParseNoteLength(f.noteLength)
	if err != nil {
		return export.Options{}, apperr.WrapInput(err, "Invalid note length "+f.noteLength)
	}
	inst, err := audio.LookupInstrument(f.instrument)
	if err != nil {
		return export.Options{}, apperr.WrapInput(err, "Unknown instrument "+f.instrument)
	}
	return export.Options{
		Name:       name,
		Tempo:      f.tempo,
		NoteLength: nl,
		Mapping:    m,
		Instrument: inst,
		Volume:     f.volume,
	}, nil
}

// loadDataset resolves arg as a sample key, falling back to a CSV or JSON
// file path.
func loadDataset(arg string) (*dataset.Dataset, error) {
	if _, ok := dataset.Samples[arg]; ok {
		return dataset.LoadSample(arg)
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a sample nor a readable file: %w", arg, err)
	}
	defer f.Close()
	return dataset.Load(arg, f)
}
