// Package wavfile reads and writes PCM WAV files as interleaved stereo
// float32 samples.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BitDepth is the sample size of written files.
const BitDepth = 16

const pcmFormat = 1

var ErrInvalidFile = errors.New("wavfile: not a valid WAV file")

// Clip is decoded audio, always interleaved stereo.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Frames returns the number of stereo frames.
func (c *Clip) Frames() int { return len(c.Samples) / 2 }

// Read decodes the WAV file at path.
func Read(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	clip, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// Decode reads a whole WAV stream. Mono is duplicated to both channels and
// channels past the second are dropped.
func Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		return nil, fmt.Errorf("%w: unknown bit depth", ErrInvalidFile)
	}
	chans := buf.Format.NumChannels
	if chans <= 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidFile)
	}
	factor := float32(math.Pow(2, float64(bitDepth-1)))
	frames := len(buf.Data) / chans
	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		l := float32(buf.Data[i*chans]) / factor
		r := l
		if chans > 1 {
			r = float32(buf.Data[i*chans+1]) / factor
		}
		out[i*2] = l
		out[i*2+1] = r
	}
	return &Clip{Samples: out, SampleRate: buf.Format.SampleRate}, nil
}

// Write encodes interleaved samples as 16-bit PCM to path.
func Write(path string, samples []float32, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, samples, sampleRate, channels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes interleaved samples as 16-bit PCM. Values outside [-1,1]
// are clipped.
func Encode(w io.WriteSeeker, samples []float32, sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("wavfile: bad format %d Hz x %d", sampleRate, channels)
	}
	enc := wav.NewEncoder(w, sampleRate, BitDepth, channels, pcmFormat)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: BitDepth,
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf.Data[i] = int(math.Round(float64(s) * 32767))
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
