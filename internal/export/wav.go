package export

import (
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/audio"
)

// WriteWAV renders values to a 16-bit 48kHz stereo WAV file.
func WriteWAV(w io.WriteSeeker, values []float64, opts Options) (Result, error) {
	if len(values) == 0 {
		return Result{}, apperr.Input("Please load a dataset first")
	}
	inst := opts.Instrument
	if inst == nil {
		inst = audio.Instruments[audio.DefaultInstrument]
	}

	notes := Notes(values, opts)
	pcm := audio.Render(notes, inst, opts.Volume)

	enc := wav.NewEncoder(w, audio.SampleRate, audio.BitDepth, audio.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: audio.Channels,
			SampleRate:  audio.SampleRate,
		},
		Data:           make([]int, len(pcm)),
		SourceBitDepth: audio.BitDepth,
	}
	for i, s := range pcm {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return Result{}, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return Result{}, fmt.Errorf("close wav: %w", err)
	}

	frames := len(pcm) / audio.Channels
	return Result{
		Notes:    len(notes),
		Duration: time.Duration(frames) * time.Second / audio.SampleRate,
		Bytes:    int64(44 + len(pcm)*2),
	}, nil
}
