package effects

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

const (
	// MinToneHz and MaxToneHz bound the tone control's sweep.
	MinToneHz = 200
	MaxToneHz = 5000
)

// toneQ matches the 1 dB default resonance of a browser low-pass biquad.
var toneQ = math.Pow(10, 1.0/20)

// Tone is a resonant low-pass. SetCutoff and Reset are safe from any
// goroutine; the sections are rebuilt on the audio thread on the next sample.
type Tone struct {
	sampleRate float64
	target     atomic.Uint64 // float64 bits
	reset      atomic.Bool
	built      float64
	left       *biquad.Section
	right      *biquad.Section
}

func NewTone(sampleRate int, cutoff float64) *Tone {
	t := &Tone{sampleRate: float64(sampleRate)}
	t.SetCutoff(cutoff)
	t.rebuild(t.Cutoff())
	return t
}

// SetCutoff clamps hz to (0, Nyquist) and schedules it.
func (t *Tone) SetCutoff(hz float64) {
	nyquist := t.sampleRate / 2
	if hz <= 0 || math.IsNaN(hz) {
		hz = 1
	}
	if hz >= nyquist {
		hz = nyquist * 0.999
	}
	t.target.Store(math.Float64bits(hz))
}

func (t *Tone) Cutoff() float64 {
	return math.Float64frombits(t.target.Load())
}

func (t *Tone) Process(l, r float32) (float32, float32) {
	if hz := t.Cutoff(); t.reset.Swap(false) || hz != t.built {
		t.rebuild(hz)
	}
	return float32(t.left.ProcessSample(float64(l))), float32(t.right.ProcessSample(float64(r)))
}

// Reset clears filter history before the next sample.
func (t *Tone) Reset() {
	t.reset.Store(true)
}

func (t *Tone) rebuild(hz float64) {
	coeffs := design.Lowpass(hz, toneQ, t.sampleRate)
	t.left = biquad.NewSection(coeffs)
	t.right = biquad.NewSection(coeffs)
	t.built = hz
}

// ToneCutoff maps a tone control value in [0,100] to a cutoff in Hz.
func ToneCutoff(value int) float64 {
	return MinToneHz + float64(value)/100*(MaxToneHz-MinToneHz)
}
