package session

import (
	"log"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/audio"
	"github.com/satindergrewal/sonigraph/internal/music"
	"github.com/satindergrewal/sonigraph/internal/playback"
)

func validTempo(bpm int) error {
	if bpm < playback.MinTempo || bpm > playback.MaxTempo {
		return apperr.Inputf("Tempo must be between %d and %d bpm", playback.MinTempo, playback.MaxTempo)
	}
	return nil
}

func validOctave(o int) error {
	if o < MinBaseOctave || o > MaxBaseOctave {
		return apperr.Inputf("Base octave must be between %d and %d", MinBaseOctave, MaxBaseOctave)
	}
	return nil
}

// SetTempo changes the tempo. Rapid changes are coalesced and the clock is
// rescheduled once they settle.
func (s *Session) SetTempo(bpm int) error {
	if err := validTempo(bpm); err != nil {
		return err
	}
	s.mu.Lock()
	s.tempo = bpm
	s.mu.Unlock()

	s.debounce(func() {
		if err := s.clock.SetTempo(bpm); err != nil {
			log.Printf("Tempo change to %d failed: %v", bpm, err)
			return
		}
		s.publishStatus()
	})
	return nil
}

// SetScale changes the scale notes are drawn from.
func (s *Session) SetScale(key string) error {
	scale, ok := music.LookupScale(key)
	if !ok {
		return apperr.Inputf("Unknown scale %q", key)
	}
	s.mu.Lock()
	s.scale = scale
	s.refreshLocked()
	s.mu.Unlock()
	s.publishStatus()
	return nil
}

// SetInstrument changes the instrument new notes are played with.
func (s *Session) SetInstrument(key string) error {
	if err := s.engine.SetInstrument(key); err != nil {
		return apperr.WrapInput(err, "Unknown instrument "+key)
	}
	s.mu.Lock()
	s.instrument = key
	s.mu.Unlock()
	s.publishStatus()
	return nil
}

// SetBaseOctave changes the octave the lowest note sits in.
func (s *Session) SetBaseOctave(o int) error {
	if err := validOctave(o); err != nil {
		return err
	}
	s.mu.Lock()
	s.baseOctave = o
	s.refreshLocked()
	s.mu.Unlock()
	s.publishStatus()
	return nil
}

// SetNoteLength changes how long each note sounds, e.g. "8n" or "4n.".
func (s *Session) SetNoteLength(v string) error {
	nl, err := playback.ParseNoteLength(v)
	if err != nil {
		return apperr.WrapInput(err, "Invalid note length "+v)
	}
	s.mu.Lock()
	s.noteLength = nl
	s.mu.Unlock()
	s.clock.SetNoteLength(nl)
	s.publishStatus()
	return nil
}

// ZoomIn doubles the zoom level up to music.MaxZoom and returns it.
func (s *Session) ZoomIn() int {
	return s.setZoom(music.ZoomIn)
}

// ZoomOut halves the zoom level down to 1 and returns it.
func (s *Session) ZoomOut() int {
	return s.setZoom(music.ZoomOut)
}

// ResetZoom returns to zoom level 1.
func (s *Session) ResetZoom() int {
	return s.setZoom(func(int) int { return 1 })
}

func (s *Session) setZoom(next func(int) int) int {
	s.mu.Lock()
	s.zoom = next(s.zoom)
	z := s.zoom
	s.refreshLocked()
	s.mu.Unlock()
	s.publishStatus()
	return z
}

// SettingsUpdate changes any subset of the sound settings. Nil fields are
// left alone.
type SettingsUpdate struct {
	Tempo      *int
	Scale      *string
	Instrument *string
	BaseOctave *int
	NoteLength *string
}

// UpdateSettings checks every field before changing anything, so a rejected
// update leaves all settings as they were.
func (s *Session) UpdateSettings(u SettingsUpdate) error {
	if u.Tempo != nil {
		if err := validTempo(*u.Tempo); err != nil {
			return err
		}
	}
	if u.Scale != nil && !music.IsValidScale(*u.Scale) {
		return apperr.Inputf("Unknown scale %q", *u.Scale)
	}
	if u.Instrument != nil {
		if _, err := audio.LookupInstrument(*u.Instrument); err != nil {
			return apperr.WrapInput(err, "Unknown instrument "+*u.Instrument)
		}
	}
	if u.BaseOctave != nil {
		if err := validOctave(*u.BaseOctave); err != nil {
			return err
		}
	}
	if u.NoteLength != nil {
		if _, err := playback.ParseNoteLength(*u.NoteLength); err != nil {
			return apperr.WrapInput(err, "Invalid note length "+*u.NoteLength)
		}
	}

	// The engine is the only step that can still fail, so it goes first.
	if u.Instrument != nil {
		if err := s.SetInstrument(*u.Instrument); err != nil {
			return err
		}
	}
	if u.Tempo != nil {
		s.SetTempo(*u.Tempo)
	}
	if u.Scale != nil {
		s.SetScale(*u.Scale)
	}
	if u.BaseOctave != nil {
		s.SetBaseOctave(*u.BaseOctave)
	}
	if u.NoteLength != nil {
		s.SetNoteLength(*u.NoteLength)
	}
	return nil
}
