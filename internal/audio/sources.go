package audio

import (
	"sync"
	"sync/atomic"
)

// ProcessFunc transforms interleaved stereo samples in place.
type ProcessFunc func(dst []float32)

// LoopSource plays a stereo clip forever, running each buffer through process.
type LoopSource struct {
	mu      sync.Mutex
	clip    []float32
	pos     int
	process ProcessFunc
}

func NewLoopSource(clip []float32, process ProcessFunc) *LoopSource {
	return &LoopSource{clip: clip[:len(clip)&^1], process: process}
}

func (s *LoopSource) Process(dst []float32) {
	s.mu.Lock()
	if len(s.clip) == 0 {
		clear(dst)
	} else {
		for i := 0; i < len(dst); {
			n := copy(dst[i:], s.clip[s.pos:])
			i += n
			s.pos = (s.pos + n) % len(s.clip)
		}
	}
	s.mu.Unlock()
	if s.process != nil {
		s.process(dst)
	}
}

// Rewind restarts the loop from the top of the clip.
func (s *LoopSource) Rewind() {
	s.mu.Lock()
	s.pos = 0
	s.mu.Unlock()
}

// ClipSource plays a stereo clip once. After the clip ends it feeds silence
// through process and reports Finished.
type ClipSource struct {
	mu       sync.Mutex
	clip     []float32
	pos      int
	process  ProcessFunc
	finished atomic.Bool
}

func NewClipSource(clip []float32, process ProcessFunc) *ClipSource {
	return &ClipSource{clip: clip[:len(clip)&^1], process: process}
}

func (s *ClipSource) Process(dst []float32) {
	s.mu.Lock()
	n := copy(dst, s.clip[s.pos:])
	s.pos += n
	clear(dst[n:])
	if s.pos >= len(s.clip) {
		s.finished.Store(true)
	}
	s.mu.Unlock()
	if s.process != nil {
		s.process(dst)
	}
}

func (s *ClipSource) Finished() bool {
	return s.finished.Load()
}
