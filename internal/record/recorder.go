// Package record captures the processed signal and writes it out as WAV.
package record

import (
	"errors"
	"sync"

	"github.com/cbegin/stompbox-go/internal/wavfile"
)

var (
	ErrNotRecording     = errors.New("record: not recording")
	ErrAlreadyRecording = errors.New("record: already recording")
	ErrNoTake           = errors.New("record: no completed take")
)

type State int

const (
	Idle State = iota
	Recording
	Completed
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

// Recorder accumulates interleaved stereo buffers between Start and Stop.
type Recorder struct {
	mu         sync.Mutex
	sampleRate int
	state      State
	take       []float32
}

func New(sampleRate int) *Recorder {
	return &Recorder{sampleRate: sampleRate}
}

// Start begins a new take, discarding any completed one.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Recording {
		return ErrAlreadyRecording
	}
	r.take = r.take[:0]
	r.state = Recording
	return nil
}

// Tap appends samples while recording. It is called from the audio thread.
func (r *Recorder) Tap(samples []float32) {
	r.mu.Lock()
	if r.state == Recording {
		r.take = append(r.take, samples...)
	}
	r.mu.Unlock()
}

// Stop ends the take and returns a copy of it.
func (r *Recorder) Stop() ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Recording {
		return nil, ErrNotRecording
	}
	r.state = Completed
	return append([]float32(nil), r.take...), nil
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Duration returns the take length in seconds.
func (r *Recorder) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sampleRate <= 0 {
		return 0
	}
	return float64(len(r.take)/2) / float64(r.sampleRate)
}

// WriteTo saves the completed take to path.
func (r *Recorder) WriteTo(path string) error {
	r.mu.Lock()
	if r.state != Completed {
		r.mu.Unlock()
		return ErrNoTake
	}
	take := append([]float32(nil), r.take...)
	r.mu.Unlock()
	return wavfile.Write(path, take, r.sampleRate, 2)
}
