package scope

import (
	"math"
	"testing"
)

func TestAnalyzerSnapshotNewest(t *testing.T) {
	a := NewAnalyzer(48000)
	a.Tap([]float32{1, 0, 2, 0, 3, 0, 4, 0})
	got := a.Snapshot(2, -1)
	if got[0] != 1.5 || got[1] != 2 {
		t.Fatalf("snapshot = %v, want [1.5 2]", got)
	}
}

func TestAnalyzerSnapshotAlignsToPlayback(t *testing.T) {
	a := NewAnalyzer(48000)
	for i := 0; i < 10; i++ {
		a.Tap([]float32{float32(i), float32(i)})
	}
	// Listener has heard 6 samples: the newest audible pair is 4,5.
	got := a.Snapshot(2, 6)
	if got[0] != 4 || got[1] != 5 {
		t.Fatalf("snapshot = %v, want [4 5]", got)
	}
}

func TestWaveform(t *testing.T) {
	in := []float32{0, 2, -3, 0.5}
	got := Waveform(in, 2)
	if len(got) != 2 || got[0] != 0 || got[1] != -1 {
		t.Fatalf("waveform = %v", got)
	}
	if Waveform(nil, 4) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestZeroCrossing(t *testing.T) {
	in := []float32{0.2, -0.1, -0.3, 0.4, 0.5, 0.6}
	if got := ZeroCrossing(in, len(in)); got != 3 {
		t.Fatalf("zero crossing = %d, want 3", got)
	}
}

func TestSpectrumPeaksAtTone(t *testing.T) {
	const sr = 48000
	s, err := NewSpectrum(2048, sr)
	if err != nil {
		t.Fatal(err)
	}
	in := make([]float32, 2048)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 1000 * float64(i) / sr))
	}
	bands := s.Bands(in, 32)
	peak := 0
	for i, v := range bands {
		if v < 0 || v > 1 {
			t.Fatalf("band %d = %v out of range", i, v)
		}
		if v > bands[peak] {
			peak = i
		}
	}
	silent := s.Bands(make([]float32, 2048), 32)
	for i, v := range silent {
		if v != 0 {
			t.Fatalf("silent band %d = %v", i, v)
		}
	}
	if bands[peak] < 0.5 {
		t.Fatalf("peak level %v too low", bands[peak])
	}
	if bands[0] >= bands[peak] || bands[31] >= bands[peak] {
		t.Fatalf("peak should be interior, bands = %v", bands)
	}
}
