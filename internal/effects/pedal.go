package effects

// Pedal is the fixed distortion chain: input gain, waveshaper, tone
// low-pass, output gain.
type Pedal struct {
	*Chain
	Input  *Gain
	Shaper *WaveShaper
	Tone   *Tone
	Output *Gain
}

// NewPedal builds the chain with unity input gain, no curve, a 2 kHz tone
// and half output, which is how the chain sits before any settings arrive.
func NewPedal(sampleRate int) *Pedal {
	p := &Pedal{
		Input:  NewGain(1),
		Shaper: NewWaveShaper(nil),
		Tone:   NewTone(sampleRate, 2000),
		Output: NewGain(0.5),
	}
	p.Chain = NewChain(p.Input, p.Shaper, p.Tone, p.Output)
	return p
}
