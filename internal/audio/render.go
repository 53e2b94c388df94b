package audio

import (
	"math"
	"time"
)

// Note is a note placed on an offline timeline.
type Note struct {
	Frequency float64
	Start     time.Duration
	Length    time.Duration
}

// Render mixes notes, sorted by Start, into one interleaved stereo buffer
// long enough to hold the last release tail.
func Render(notes []Note, inst *Instrument, volume float64) []int16 {
	if len(notes) == 0 {
		return nil
	}
	volume = clampVolume(volume)

	var end time.Duration
	for _, n := range notes {
		tail := n.Start + n.Length + time.Duration(inst.Envelope.Release*float64(time.Second))
		end = max(end, tail)
	}
	total := int(math.Ceil(end.Seconds() * SampleRate))
	out := make([]int16, total*Channels)

	// Render block by block so voices start on the sample they are due.
	var voices []*voice
	next := 0
	for pos := 0; pos < total; {
		n := min(FrameSize, total-pos)
		for next < len(notes) && sampleAt(notes[next].Start) < pos+n {
			start := sampleAt(notes[next].Start)
			if start > pos {
				n = start - pos
				break
			}
			voices = append(voices, newVoice(inst, notes[next].Frequency, notes[next].Length))
			next++
		}
		voices = mixInto(out[pos*Channels:], n, voices, volume, volume)
		pos += n
	}
	return out
}

func sampleAt(d time.Duration) int {
	return int(d.Seconds() * SampleRate)
}
