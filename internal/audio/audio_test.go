package audio

import (
	"context"
	"math"
	"testing"
	"time"
)

// --- Constants ---

func TestConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples per channel
	if got := SampleRate * int(FrameDuration/time.Millisecond) / 1000; got != FrameSize {
		t.Errorf("FrameSize mismatch: want %d, got %d", got, FrameSize)
	}
	if FrameSamples != FrameSize*Channels {
		t.Errorf("FrameSamples = %d, want %d", FrameSamples, FrameSize*Channels)
	}
	if FrameBytes != FrameSamples*2 {
		t.Errorf("FrameBytes = %d, want %d", FrameBytes, FrameSamples*2)
	}
}

// --- Smoothstep ---

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		got := Smoothstep(tt.input)
		if got != tt.want {
			t.Errorf("Smoothstep(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		val := Smoothstep(x)
		if val < prev {
			t.Errorf("Smoothstep not monotonic: f(%v)=%v < f(%v)=%v", x, val, float64(i-1)/100.0, prev)
		}
		prev = val
	}
}

func TestSmoothstepSymmetry(t *testing.T) {
	// Smoothstep is symmetric around 0.5: f(0.5+d) + f(0.5-d) = 1
	for _, d := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		sum := Smoothstep(0.5+d) + Smoothstep(0.5-d)
		if diff := sum - 1.0; diff > 1e-10 || diff < -1e-10 {
			t.Errorf("Smoothstep symmetry broken at d=%v: sum=%v", d, sum)
		}
	}
}

// --- SamplesToBytes / round-trip ---

func TestSamplesToBytes(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 256}
	buf := SamplesToBytes(samples)
	if len(buf) != len(samples)*2 {
		t.Fatalf("SamplesToBytes length = %d, want %d", len(buf), len(samples)*2)
	}

	// Verify little-endian encoding manually for a few values
	// 256 = 0x0100 -> bytes [0x00, 0x01]
	idx := 5 * 2
	if buf[idx] != 0x00 || buf[idx+1] != 0x01 {
		t.Errorf("Sample 256 encoded as [%02x, %02x], want [00, 01]", buf[idx], buf[idx+1])
	}
}

func TestSamplesBytesRoundTrip(t *testing.T) {
	original := []int16{0, 1, -1, 32767, -32768, 12345, -6789}
	buf := SamplesToBytes(original)

	// Decode back
	recovered := make([]int16, len(buf)/2)
	for i := range recovered {
		recovered[i] = int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8)
	}

	for i, v := range original {
		if recovered[i] != v {
			t.Errorf("Round-trip sample[%d]: got %d, want %d", i, recovered[i], v)
		}
	}
}

// --- Synth ---

func TestWaveforms(t *testing.T) {
	tests := []struct {
		w     Waveform
		phase float64
		want  float64
	}{
		{Sine, 0, 0},
		{Sine, 0.25, 1},
		{Sawtooth, 0, -1},
		{Sawtooth, 0.5, 0},
		{Square, 0.25, 1},
		{Square, 0.75, -1},
	}
	for _, tt := range tests {
		if got := tt.w.Sample(tt.phase); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s.Sample(%v) = %v, want %v", tt.w, tt.phase, got, tt.want)
		}
	}
}

func TestEnvelopeShape(t *testing.T) {
	env := Instruments["piano"].Envelope
	hold := 0.5

	if got := env.Gain(0, hold); got != 0 {
		t.Errorf("Gain at note-on = %v, want 0", got)
	}
	if got := env.Gain(env.Attack, hold); math.Abs(got-1) > 1e-9 {
		t.Errorf("Gain at end of attack = %v, want 1", got)
	}
	if got := env.Gain(0.4, hold); math.Abs(got-env.Sustain) > 1e-9 {
		t.Errorf("Gain while sustaining = %v, want %v", got, env.Sustain)
	}
	if got := env.Gain(hold+env.Release, hold); got != 0 {
		t.Errorf("Gain after release = %v, want 0", got)
	}
	if got := env.Gain(hold+env.Release/2, hold); got <= 0 || got >= env.Sustain {
		t.Errorf("Gain mid-release = %v, want between 0 and %v", got, env.Sustain)
	}
}

func TestInstruments(t *testing.T) {
	want := []string{"piano", "sawtooth", "square", "synth"}
	got := InstrumentNames()
	if len(got) != len(want) {
		t.Fatalf("InstrumentNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("InstrumentNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, err := LookupInstrument("theremin"); err == nil {
		t.Error("LookupInstrument(theremin) should fail")
	}
}

func TestVoiceEnds(t *testing.T) {
	inst := Instruments["square"]
	v := newVoice(inst, 440, 100*time.Millisecond)
	want := int(math.Ceil((0.1 + inst.Envelope.Release) * SampleRate))
	for i := 0; i < want; i++ {
		if v.done() {
			t.Fatalf("voice done early at sample %d", i)
		}
		v.next()
	}
	if !v.done() {
		t.Error("voice should be done after its release tail")
	}
}

// --- Render ---

func TestRenderLength(t *testing.T) {
	inst := Instruments["piano"]
	notes := []Note{
		{Frequency: 261.63, Start: 0, Length: 250 * time.Millisecond},
		{Frequency: 329.63, Start: 125 * time.Millisecond, Length: 250 * time.Millisecond},
	}
	out := Render(notes, inst, DefaultVolume)

	wantSamples := int(math.Ceil((0.125 + 0.25 + inst.Envelope.Release) * SampleRate))
	if len(out) != wantSamples*Channels {
		t.Fatalf("Render length = %d, want %d", len(out), wantSamples*Channels)
	}
	if Peak(out) == 0 {
		t.Error("Render produced silence")
	}
	if limit := int(math.Ceil(DefaultVolume * 2 * 32767)); Peak(out) > limit {
		t.Errorf("Peak = %d exceeds two voices at volume %v", Peak(out), DefaultVolume)
	}
	for i := 0; i < len(out); i += Channels {
		if out[i] != out[i+1] {
			t.Fatalf("channels differ at frame %d", i/Channels)
		}
	}
}

func TestRenderSilentBeforeFirstNote(t *testing.T) {
	out := Render([]Note{{Frequency: 440, Start: 100 * time.Millisecond, Length: 50 * time.Millisecond}}, Instruments["square"], 1)
	lead := sampleAt(100*time.Millisecond) * Channels
	if p := Peak(out[:lead]); p != 0 {
		t.Errorf("Peak before note-on = %d, want 0", p)
	}
	if p := Peak(out[lead:]); p == 0 {
		t.Error("note never sounded")
	}
}

func TestRenderEmpty(t *testing.T) {
	if out := Render(nil, Instruments["piano"], 1); out != nil {
		t.Errorf("Render(nil) = %d samples, want nil", len(out))
	}
}

// --- Engine ---

func TestNewEngineUnknownInstrument(t *testing.T) {
	if _, err := NewEngine("kazoo", 0.2, 4); err == nil {
		t.Error("NewEngine with unknown instrument should fail")
	}
}

func TestEngineTriggerBeforeStart(t *testing.T) {
	e, err := NewEngine("piano", 0.2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Trigger("C4", time.Second); err != ErrNotStarted {
		t.Errorf("Trigger before Start = %v, want %v", err, ErrNotStarted)
	}
}

func TestEngineStartWaitsForRun(t *testing.T) {
	e, _ := NewEngine("piano", 0.2, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := e.Start(ctx); err == nil {
		t.Error("Start without Run should time out")
	}
}

func TestEngineFrames(t *testing.T) {
	e, _ := NewEngine("square", 0.5, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Trigger("A4", 200*time.Millisecond); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if err := e.Trigger("not-a-note", time.Second); err == nil {
		t.Error("Trigger with bad note should fail")
	}

	heard := false
	for i := 0; i < 5; i++ {
		frame := <-e.Frames()
		if len(frame) != FrameSamples {
			t.Fatalf("frame length = %d, want %d", len(frame), FrameSamples)
		}
		if Peak(frame) > 0 {
			heard = true
		}
	}
	if !heard {
		t.Error("triggered note never reached the frame stream")
	}

	st := e.Status()
	if !st.Running || !st.Started || st.Notes != 1 {
		t.Errorf("Status = %+v, want running, started, 1 note", st)
	}

	cancel()
	for range e.Frames() {
	}
	if err := e.Start(context.Background()); err != ErrNotRunning {
		t.Errorf("Start after shutdown = %v, want %v", err, ErrNotRunning)
	}
}

func TestEngineVoiceLimit(t *testing.T) {
	e, _ := NewEngine("piano", 0.2, 3)
	close(e.ready)
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := e.Trigger("C4", time.Second); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.Status().Voices; got != 3 {
		t.Errorf("Voices = %d, want 3", got)
	}
	e.Silence()
	if got := e.Status().Voices; got != 0 {
		t.Errorf("Voices after Silence = %d, want 0", got)
	}
}

func TestEngineSetInstrument(t *testing.T) {
	e, _ := NewEngine("piano", 0.2, 3)
	if err := e.SetInstrument("synth"); err != nil {
		t.Fatal(err)
	}
	if got := e.Instrument().Name; got != "Synth Lead" {
		t.Errorf("Instrument = %q, want Synth Lead", got)
	}
	if err := e.SetInstrument("nope"); err == nil {
		t.Error("SetInstrument(nope) should fail")
	}
	e.SetVolume(3)
	if got := e.Status().Volume; got != 1 {
		t.Errorf("Volume = %v, want clamped to 1", got)
	}
}
