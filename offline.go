package stompbox

import (
	"fmt"

	"github.com/cbegin/stompbox-go/internal/wavfile"
)

// BlockFrames is the block size offline rendering feeds through the chain,
// matching a typical device callback.
const BlockFrames = 1024

// Render processes a copy of interleaved stereo samples block by block and
// returns it. The session's taps see every block.
func (s *Session) Render(samples []float32) []float32 {
	out := append([]float32(nil), samples[:len(samples)&^1]...)
	for off := 0; off < len(out); off += BlockFrames * 2 {
		end := min(off+BlockFrames*2, len(out))
		s.Process(out[off:end])
	}
	return out
}

// RenderClip runs a decoded clip through a fresh session built with opts.
func RenderClip(clip *wavfile.Clip, opts ...SessionOption) ([]float32, *Session, error) {
	s, err := NewSession(clip.SampleRate, opts...)
	if err != nil {
		return nil, nil, err
	}
	return s.Render(clip.Samples), s, nil
}

// RenderFile reads the WAV at in, processes it and writes 16-bit stereo WAV
// to out.
func RenderFile(in, out string, opts ...SessionOption) error {
	clip, err := wavfile.Read(in)
	if err != nil {
		return err
	}
	samples, _, err := RenderClip(clip, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	if err := wavfile.Write(out, samples, clip.SampleRate, 2); err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}
	return nil
}
