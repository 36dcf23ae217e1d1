package effects

import (
	"sync/atomic"

	"github.com/cbegin/stompbox-go/internal/curve"
)

// WaveShaper maps each sample through a transfer curve.
// The curve is swapped atomically; the audio thread always sees a whole curve.
type WaveShaper struct {
	curve atomic.Pointer[curve.Curve]
}

func NewWaveShaper(c curve.Curve) *WaveShaper {
	w := &WaveShaper{}
	w.SetCurve(c)
	return w
}

// SetCurve replaces the active curve. A nil or single-sample curve passes
// audio through unchanged.
func (w *WaveShaper) SetCurve(c curve.Curve) {
	if len(c) < 2 {
		w.curve.Store(nil)
		return
	}
	w.curve.Store(&c)
}

// Curve returns the active curve, or nil.
func (w *WaveShaper) Curve() curve.Curve {
	p := w.curve.Load()
	if p == nil {
		return nil
	}
	return *p
}

func (w *WaveShaper) Process(l, r float32) (float32, float32) {
	p := w.curve.Load()
	if p == nil {
		return l, r
	}
	return shape(*p, l), shape(*p, r)
}

func (w *WaveShaper) Reset() {}

// shape interpolates linearly between curve points. Inputs outside [-1,1]
// take the end values.
func shape(c curve.Curve, x float32) float32 {
	n := len(c)
	v := float32(n-1) / 2 * (x + 1)
	if !(v > 0) {
		return c[0]
	}
	if v >= float32(n-1) {
		return c[n-1]
	}
	k := int(v)
	f := v - float32(k)
	return (1-f)*c[k] + f*c[k+1]
}
