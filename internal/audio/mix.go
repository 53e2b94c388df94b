package audio

// Smoothstep returns the smoothstep interpolation for t in [0,1].
// Formula: 3t^2 - 2t^3.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// clip16 converts a [-1,1] sample to int16, clipping out-of-range values.
func clip16(x float64) int16 {
	v := x * 32767
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// mixInto renders n mono samples of voices into dst as interleaved stereo,
// with gain ramping from `from` to `to` along a smoothstep curve across the
// block. Finished voices are dropped from the returned slice.
func mixInto(dst []int16, n int, voices []*voice, from, to float64) []*voice {
	for i := 0; i < n; i++ {
		var sum float64
		for _, v := range voices {
			sum += v.next()
		}
		gain := from
		if from != to {
			gain = from + (to-from)*Smoothstep(float64(i)/float64(n))
		}
		s := clip16(sum * gain)
		dst[i*Channels] = s
		dst[i*Channels+1] = s
	}

	live := voices[:0]
	for _, v := range voices {
		if !v.done() {
			live = append(live, v)
		}
	}
	for i := len(live); i < len(voices); i++ {
		voices[i] = nil
	}
	return live
}
