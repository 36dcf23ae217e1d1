//go:build !portaudio

package capture

func Open(sampleRate, framesPerBuffer int) (*Input, error) {
	return nil, ErrUnavailable
}
