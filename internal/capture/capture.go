// Package capture reads live input from the default audio input device.
package capture

import (
	"errors"
	"sync"
)

// ErrUnavailable is returned by Open when the binary was built without an
// input backend or the host has no usable input device.
var ErrUnavailable = errors.New("capture: audio input unavailable")

// Input buffers mono device blocks and hands them out as stereo.
type Input struct {
	mu     sync.Mutex
	ring   []float32
	read   int
	write  int
	filled int
	close  func() error
}

func newInput(capacity int) *Input {
	return &Input{ring: make([]float32, capacity)}
}

// push is called from the device callback. When the reader falls behind the
// oldest samples are overwritten.
func (in *Input) push(mono []float32) {
	in.mu.Lock()
	for _, v := range mono {
		in.ring[in.write] = v
		in.write = (in.write + 1) % len(in.ring)
		if in.filled == len(in.ring) {
			in.read = (in.read + 1) % len(in.ring)
		} else {
			in.filled++
		}
	}
	in.mu.Unlock()
}

// Process fills dst with interleaved stereo samples. Missing input is silence.
func (in *Input) Process(dst []float32) {
	in.mu.Lock()
	for i := 0; i+1 < len(dst); i += 2 {
		var v float32
		if in.filled > 0 {
			v = in.ring[in.read]
			in.read = (in.read + 1) % len(in.ring)
			in.filled--
		}
		dst[i], dst[i+1] = v, v
	}
	in.mu.Unlock()
}

// Buffered reports how many mono samples are waiting.
func (in *Input) Buffered() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.filled
}

func (in *Input) Close() error {
	if in.close == nil {
		return nil
	}
	err := in.close()
	in.close = nil
	return err
}
