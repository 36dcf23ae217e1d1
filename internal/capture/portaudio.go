//go:build portaudio

package capture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Open starts a mono stream on the default input device.
func Open(sampleRate, framesPerBuffer int) (*Input, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	in := newInput(framesPerBuffer * 8)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, func(block []float32) {
		in.push(block)
	})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: start stream: %w", err)
	}
	in.close = func() error {
		stream.Stop()
		err := stream.Close()
		portaudio.Terminate()
		return err
	}
	return in, nil
}
