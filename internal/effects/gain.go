package effects

import (
	"math"
	"sync/atomic"
)

// Gain scales both channels by a runtime-adjustable factor.
// The factor is stored as float32 bits for lock-free reads from the audio thread.
type Gain struct {
	bits atomic.Uint32
}

func NewGain(gain float32) *Gain {
	g := &Gain{}
	g.Set(gain)
	return g
}

// Set changes the gain. Negative values clamp to 0.
func (g *Gain) Set(gain float32) {
	if gain < 0 || math.IsNaN(float64(gain)) {
		gain = 0
	}
	g.bits.Store(math.Float32bits(gain))
}

func (g *Gain) Value() float32 {
	return math.Float32frombits(g.bits.Load())
}

func (g *Gain) Process(l, r float32) (float32, float32) {
	v := g.Value()
	return l * v, r * v
}

func (g *Gain) Reset() {}

// InputGain maps a gain control value in [0,100] to a linear factor in [0,2].
func InputGain(value int) float32 {
	return float32(value) / 100 * 2
}

// OutputGain maps an output control value in [0,100] to a linear factor in [0,1].
func OutputGain(value int) float32 {
	return float32(value) / 100
}
