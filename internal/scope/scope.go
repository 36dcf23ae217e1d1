// Package scope feeds the waveform and spectrum visualizer.
package scope

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/ktye/fft"
)

// RingLen is the analyzer history in mono samples.
const RingLen = 131072

// Analyzer keeps a mono history of tapped stereo audio.
type Analyzer struct {
	mu          sync.Mutex
	sampleRate  int
	ring        []float32
	writePos    int
	totalTapped int64 // mono samples written since the last Reset
}

func NewAnalyzer(sampleRate int) *Analyzer {
	return &Analyzer{
		sampleRate: sampleRate,
		ring:       make([]float32, RingLen),
	}
}

func (a *Analyzer) SampleRate() int { return a.sampleRate }

// Tap is called from the audio thread. Keep it minimal: just copy into ring.
func (a *Analyzer) Tap(samples []float32) {
	a.mu.Lock()
	for i := 0; i+1 < len(samples); i += 2 {
		a.ring[a.writePos] = (samples[i] + samples[i+1]) * 0.5
		a.writePos = (a.writePos + 1) % RingLen
		a.totalTapped++
	}
	a.mu.Unlock()
}

// Reset clears the tapped sample counter (call on new playback).
func (a *Analyzer) Reset() {
	a.mu.Lock()
	a.totalTapped = 0
	a.mu.Unlock()
}

// Snapshot copies n samples aligned to what the listener actually hears.
// playbackPos is the output position in samples; pass a negative value to
// read the newest samples.
func (a *Analyzer) Snapshot(n int, playbackPos int64) []float32 {
	if n > RingLen {
		n = RingLen
	}
	out := make([]float32, n)
	a.mu.Lock()
	delay := 0
	if playbackPos >= 0 {
		delay = int(a.totalTapped - playbackPos)
	}
	if delay < 0 {
		delay = 0
	}
	if delay > RingLen-n {
		delay = RingLen - n
	}
	start := (a.writePos - delay - n + RingLen*2) % RingLen
	for i := 0; i < n; i++ {
		out[i] = a.ring[(start+i)%RingLen]
	}
	a.mu.Unlock()
	return out
}

// Waveform reduces samples to width points by picking evenly spaced
// samples, clamped to [-1,1].
func Waveform(samples []float32, width int) []float32 {
	if width <= 0 || len(samples) == 0 {
		return nil
	}
	out := make([]float32, width)
	for i := range out {
		v := samples[i*len(samples)/width]
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = v
	}
	return out
}

// ZeroCrossing finds a rising zero-crossing within the first searchLen
// samples, to stabilise the displayed waveform.
func ZeroCrossing(samples []float32, searchLen int) int {
	if searchLen > len(samples)-2 {
		searchLen = len(samples) - 2
	}
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}

// Spectrum turns a window of samples into log-frequency band levels. Each
// level is normalised to [0,1] over -80..0 dB. Size must be a power of two.
type Spectrum struct {
	size       int
	sampleRate int
	fft        fft.FFT
	window     []float64
	buf        []complex128
}

func NewSpectrum(size, sampleRate int) (*Spectrum, error) {
	f, err := fft.New(size)
	if err != nil {
		return nil, err
	}
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return &Spectrum{
		size:       size,
		sampleRate: sampleRate,
		fft:        f,
		window:     w,
		buf:        make([]complex128, size),
	}, nil
}

func (s *Spectrum) Size() int { return s.size }

// Bands analyses the last Size samples.
func (s *Spectrum) Bands(samples []float32, bars int) []float64 {
	out := make([]float64, bars)
	if len(samples) < s.size || bars <= 0 {
		return out
	}
	off := len(samples) - s.size
	for i := 0; i < s.size; i++ {
		s.buf[i] = complex(float64(samples[off+i])*s.window[i], 0)
	}
	spec := s.fft.Transform(s.buf)

	half := s.size / 2
	minBin := 1
	maxBin := half * 18000 / (s.sampleRate / 2)
	if maxBin > half {
		maxBin = half
	}
	if maxBin <= minBin {
		maxBin = minBin + 1
	}
	logMin := math.Log(float64(minBin))
	logMax := math.Log(float64(maxBin))
	for i := 0; i < bars; i++ {
		b0 := int(math.Exp(logMin + float64(i)/float64(bars)*(logMax-logMin)))
		b1 := int(math.Exp(logMin + float64(i+1)/float64(bars)*(logMax-logMin)))
		if b1 <= b0 {
			b1 = b0 + 1
		}
		if b1 > half {
			b1 = half
		}
		if b0 >= b1 {
			continue
		}
		sum := 0.0
		for b := b0; b < b1; b++ {
			sum += cmplx.Abs(spec[b])
		}
		avg := sum / float64(b1-b0)
		db := 20 * math.Log10(avg/float64(s.size)+1e-10)
		out[i] = math.Max(0, math.Min(1, (db+80)/80))
	}
	return out
}
