// Package dataset holds the series being sonified: bundled samples, parsed
// uploads and live snapshots.
package dataset

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/satindergrewal/sonigraph/internal/apperr"
)

// Source says where a dataset came from.
type Source string

const (
	SourceSample Source = "sample"
	SourceUpload Source = "upload"
	SourceLive   Source = "live"
)

// Dataset is an ordered series of values plus metadata. It is replaced
// wholesale, never edited in place.
type Dataset struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Source      Source    `json:"source"`
	Values      []float64 `json:"values"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// New validates values and wraps them in a Dataset. The slice is copied.
func New(name, description string, source Source, values []float64) (*Dataset, error) {
	if len(values) == 0 {
		return nil, apperr.Input("Dataset is empty")
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperr.Inputf("Value %d is not a finite number", i)
		}
	}
	return &Dataset{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Source:      source,
		Values:      append([]float64(nil), values...),
		LoadedAt:    time.Now(),
	}, nil
}

// WithValues returns a copy of d holding values instead, keeping its
// identity. Live updates use it as points arrive.
func (d *Dataset) WithValues(values []float64) *Dataset {
	next := *d
	next.Values = append([]float64(nil), values...)
	next.LoadedAt = time.Now()
	return &next
}

// Len returns the number of points.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Values)
}

// Stats summarizes the values.
func (d *Dataset) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	return Summarize(d.Values)
}
