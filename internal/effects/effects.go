// Package effects holds the pedal's signal-chain stages.
package effects

// Effector processes stereo audio in-place.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessInterleaved runs the chain over an interleaved stereo buffer.
func (c *Chain) ProcessInterleaved(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = c.Process(buf[i], buf[i+1])
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Len() int { return len(c.effects) }
