package music

// OctaveLabel marks where an octave starts on the normalized value axis.
type OctaveLabel struct {
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// RangeLines returns the normalized boundaries between mapped notes,
// i/total for i in [0, total].
func (m Mapping) RangeLines() []float64 {
	total := m.TotalNotes()
	if total == 0 {
		return nil
	}
	lines := make([]float64, total+1)
	for i := range lines {
		lines[i] = float64(i) / float64(total)
	}
	return lines
}

// OctaveLabels returns one label per octave in the mapped range. Nothing is
// labelled at zoom 1, where the range is a single octave.
func (m Mapping) OctaveLabels() []OctaveLabel {
	if m.Zoom <= 1 || m.Scale.Cardinality() == 0 {
		return nil
	}
	octaves := OctaveRange(m.Zoom)
	labels := make([]OctaveLabel, octaves)
	for o := range labels {
		labels[o] = OctaveLabel{
			Y:    float64(o) / float64(octaves),
			Text: Note{Name: m.Scale.Notes[0], Octave: m.BaseOctave + o}.String(),
		}
	}
	return labels
}
