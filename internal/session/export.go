package session

import (
	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/audio"
	"github.com/satindergrewal/sonigraph/internal/export"
)

// ExportOptions returns the loaded values and the current sound settings for
// an offline render. The whole dataset is rendered at the current zoom's
// pitch range.
func (s *Session) ExportOptions(volume float64) ([]float64, export.Options, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil {
		return nil, export.Options{}, apperr.Input("Please load a dataset first")
	}
	inst, err := audio.LookupInstrument(s.instrument)
	if err != nil {
		return nil, export.Options{}, apperr.WrapInput(err, "Unknown instrument "+s.instrument)
	}
	values := make([]float64, len(s.dataset.Values))
	copy(values, s.dataset.Values)
	return values, export.Options{
		Name:       s.dataset.Name,
		Tempo:      s.tempo,
		NoteLength: s.noteLength,
		Mapping:    s.mappingLocked(),
		Instrument: inst,
		Volume:     volume,
	}, nil
}
