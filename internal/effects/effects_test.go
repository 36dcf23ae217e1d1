package effects

import (
	"math"
	"testing"

	"github.com/cbegin/stompbox-go/internal/curve"
)

func TestGainClampsAndScales(t *testing.T) {
	g := NewGain(2)
	l, r := g.Process(0.25, -0.5)
	if l != 0.5 || r != -1 {
		t.Fatalf("got l=%v r=%v", l, r)
	}
	g.Set(-3)
	if g.Value() != 0 {
		t.Fatalf("negative gain should clamp to 0, got %v", g.Value())
	}
}

func TestControlMaps(t *testing.T) {
	if got := InputGain(50); got != 1 {
		t.Errorf("InputGain(50) = %v, want 1", got)
	}
	if got := InputGain(100); got != 2 {
		t.Errorf("InputGain(100) = %v, want 2", got)
	}
	if got := OutputGain(60); math.Abs(float64(got)-0.6) > 1e-6 {
		t.Errorf("OutputGain(60) = %v, want 0.6", got)
	}
	if got := ToneCutoff(0); got != 200 {
		t.Errorf("ToneCutoff(0) = %v, want 200", got)
	}
	if got := ToneCutoff(100); got != 5000 {
		t.Errorf("ToneCutoff(100) = %v, want 5000", got)
	}
	if got := ToneCutoff(40); math.Abs(got-2120) > 1e-9 {
		t.Errorf("ToneCutoff(40) = %v, want 2120", got)
	}
}

func TestWaveShaperEndpointsAndInterpolation(t *testing.T) {
	w := NewWaveShaper(curve.Curve{-0.5, 0, 1})
	cases := []struct {
		in, want float32
	}{
		{-1, -0.5},
		{-2, -0.5},
		{0, 0},
		{1, 1},
		{3, 1},
		{0.5, 0.5},
		{-0.5, -0.25},
	}
	for _, tc := range cases {
		got, _ := w.Process(tc.in, 0)
		if math.Abs(float64(got-tc.want)) > 1e-6 {
			t.Errorf("shape(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWaveShaperNilCurvePassesThrough(t *testing.T) {
	w := NewWaveShaper(nil)
	l, r := w.Process(0.3, -0.7)
	if l != 0.3 || r != -0.7 {
		t.Fatalf("got l=%v r=%v", l, r)
	}
	if w.Curve() != nil {
		t.Fatal("expected nil curve")
	}
}

func TestWaveShaperSupersedesCurve(t *testing.T) {
	first, _ := curve.Synthesize(curve.Hard, 2)
	second, _ := curve.Synthesize(curve.Fuzz, 0.5)
	w := NewWaveShaper(first)
	w.SetCurve(second)
	if &w.Curve()[0] != &second[0] {
		t.Fatal("active curve was not replaced")
	}
	l, _ := w.Process(1, 1)
	if math.Abs(float64(l-second[len(second)-1])) > 1e-6 {
		t.Fatalf("shape(1) = %v, want last sample %v", l, second[len(second)-1])
	}
}

func TestToneAttenuatesHighFrequencies(t *testing.T) {
	const sr = 48000
	rms := func(cutoff float64, freq float64) float64 {
		tone := NewTone(sr, cutoff)
		var sum float64
		n := 0
		for i := 0; i < sr/2; i++ {
			x := float32(math.Sin(2 * math.Pi * freq * float64(i) / sr))
			l, _ := tone.Process(x, x)
			if i > sr/10 {
				sum += float64(l * l)
				n++
			}
		}
		return math.Sqrt(sum / float64(n))
	}
	low := rms(500, 100)
	high := rms(500, 8000)
	if low < 0.5 {
		t.Errorf("pass band rms = %v, want ~0.7", low)
	}
	if high > 0.05 {
		t.Errorf("stop band rms = %v, want strong attenuation", high)
	}
}

func TestToneCutoffChangeIsPickedUp(t *testing.T) {
	tone := NewTone(48000, 1000)
	tone.SetCutoff(3000)
	tone.Process(0, 0)
	if tone.built != 3000 {
		t.Fatalf("built cutoff = %v, want 3000", tone.built)
	}
	tone.SetCutoff(1e9)
	if c := tone.Cutoff(); c >= 24000 {
		t.Fatalf("cutoff should clamp below nyquist, got %v", c)
	}
}

func TestToneResetAppliesOnNextSample(t *testing.T) {
	held := NewTone(48000, 1000)
	held.Process(1, 1)
	if l, _ := held.Process(0, 0); l == 0 {
		t.Fatal("filter should ring after an impulse")
	}

	tone := NewTone(48000, 1000)
	tone.Process(1, 1)
	tone.Reset()
	if tone.built != 1000 {
		t.Fatalf("built cutoff = %v before the next sample", tone.built)
	}
	if l, r := tone.Process(0, 0); l != 0 || r != 0 {
		t.Fatalf("after reset = %v, %v; want silence", l, r)
	}
}

func TestPedalChainOrder(t *testing.T) {
	p := NewPedal(48000)
	if p.Len() != 4 {
		t.Fatalf("chain length = %d, want 4", p.Len())
	}
	p.Input.Set(0)
	buf := []float32{0.5, 0.5, -0.5, -0.5}
	p.ProcessInterleaved(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("muted input should give silence, buf[%d] = %v", i, v)
		}
	}
}
