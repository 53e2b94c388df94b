// Package audio synthesizes the notes of a sonification into 48kHz stereo
// PCM, either live as a stream of 20ms frames or offline into one buffer.
package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)

	DefaultVolume    = 0.2
	DefaultMaxVoices = 64
)

// Status describes the engine for status displays.
type Status struct {
	Running    bool    `json:"running"`
	Started    bool    `json:"started"`
	Instrument string  `json:"instrument"`
	Volume     float64 `json:"volume"`
	Voices     int     `json:"voices"`
	Notes      uint64  `json:"notes"`
	Frames     uint64  `json:"frames"`
}
