package stompbox

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cbegin/stompbox-go/internal/curve"
	"github.com/cbegin/stompbox-go/internal/preset"
	"github.com/cbegin/stompbox-go/internal/wavfile"
)

func sine(frames, sampleRate int, hz float64) []float32 {
	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := float32(0.5 * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate)))
		out[2*i], out[2*i+1] = v, v
	}
	return out
}

func TestRenderMatchesProcess(t *testing.T) {
	in := sine(3000, 44100, 220)
	a, _ := NewSession(44100)
	got := a.Render(in)

	b, _ := NewSession(44100)
	want := append([]float32(nil), in...)
	b.Process(want)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
	if in[100] != float32(0.5*math.Sin(2*math.Pi*220*50/44100)) {
		t.Fatal("Render modified its input")
	}
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "dry.wav")
	out := filepath.Join(dir, "wet.wav")
	if err := wavfile.Write(in, sine(4410, 22050, 440), 22050, 2); err != nil {
		t.Fatal(err)
	}
	settings := preset.Settings{Gain: 80, Drive: 90, Tone: 60, Output: 100, DistortionType: curve.Hard}
	if err := RenderFile(in, out, WithSettings(settings)); err != nil {
		t.Fatal(err)
	}
	clip, err := wavfile.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if clip.SampleRate != 22050 || clip.Frames() != 4410 {
		t.Fatalf("clip = %d frames @ %d", clip.Frames(), clip.SampleRate)
	}
	peak := 0.0
	for _, v := range clip.Samples {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak == 0 || peak > 1 {
		t.Fatalf("peak = %v", peak)
	}
}

func TestRenderFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	if err := RenderFile(filepath.Join(dir, "nope.wav"), filepath.Join(dir, "out.wav")); err == nil {
		t.Fatal("expected error")
	}
}
