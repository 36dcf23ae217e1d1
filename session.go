package stompbox

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/cbegin/stompbox-go/internal/curve"
	intfx "github.com/cbegin/stompbox-go/internal/effects"
	"github.com/cbegin/stompbox-go/internal/knob"
	"github.com/cbegin/stompbox-go/internal/preset"
)

// Knob identifiers.
const (
	KnobGain   = "gain"
	KnobDrive  = "drive"
	KnobTone   = "tone"
	KnobOutput = "output"
	KnobType   = "type"
)

// KnobIDs lists the controls in panel order.
var KnobIDs = []string{KnobGain, KnobDrive, KnobTone, KnobOutput, KnobType}

var (
	ErrNoStore     = errors.New("stompbox: no preset store configured")
	ErrUnknownKnob = errors.New("stompbox: unknown knob")
)

// ControlEvent carries a committed control change from Watch().
// Value is the stop index when Detented is set.
type ControlEvent struct {
	ControlID string
	Value     int
	Label     string
	Detented  bool
}

type SessionOption func(*sessionConfig)

type sessionConfig struct {
	settings  preset.Settings
	policy    curve.Policy
	sampleTap []func([]float32)
	logger    *log.Logger
	store     *preset.Store
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		settings: preset.Defaults(),
		policy:   curve.PolicyClamp,
		logger:   log.New(io.Discard, "", 0),
	}
}

// WithSettings sets the starting control state. Defaults() otherwise.
func WithSettings(s preset.Settings) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.settings = s
	}
}

// WithOverdrivePolicy selects how an Overdrive amount at or above 1 is handled.
func WithOverdrivePolicy(p curve.Policy) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.policy = p
	}
}

// WithSampleTap installs a callback invoked with each processed stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
// Taps run in the order they were given.
func WithSampleTap(tap func([]float32)) SessionOption {
	return func(cfg *sessionConfig) {
		if tap != nil {
			cfg.sampleTap = append(cfg.sampleTap, tap)
		}
	}
}

func WithLogger(l *log.Logger) SessionOption {
	return func(cfg *sessionConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

func WithStore(st *preset.Store) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.store = st
	}
}

// Session owns the pedal chain and its controls. Knob moves, Apply and
// preset loads may come from the UI goroutine while Process runs on the
// audio thread.
type Session struct {
	mu         sync.Mutex
	sampleRate int
	settings   preset.Settings
	amount     float64
	policy     curve.Policy
	pedal      *intfx.Pedal
	knobs      map[string]*knob.Rotary
	store      *preset.Store
	logger     *log.Logger
	sampleTap  []func([]float32)
	refused    bool // last knob change was put back
	eventCh    chan ControlEvent
	eventChMu  sync.Mutex
}

func NewSession(sampleRate int, opts ...SessionOption) (*Session, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Session{
		sampleRate: sampleRate,
		policy:     cfg.policy,
		pedal:      intfx.NewPedal(sampleRate),
		knobs:      make(map[string]*knob.Rotary, len(KnobIDs)),
		store:      cfg.store,
		logger:     cfg.logger,
		sampleTap:  cfg.sampleTap,
	}
	for _, id := range []string{KnobGain, KnobDrive, KnobTone, KnobOutput} {
		k, err := knob.NewContinuous(id, 0, s.onKnob)
		if err != nil {
			return nil, err
		}
		s.knobs[id] = k
	}
	sel, err := knob.NewDetented(KnobType, curve.Names[:], 0, s.onKnob)
	if err != nil {
		return nil, err
	}
	s.knobs[KnobType] = sel
	if err := s.Apply(cfg.settings); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) SampleRate() int { return s.sampleRate }

// Knob returns the control with the given id, or nil. Drive controls from a
// single goroutine.
func (s *Session) Knob(id string) *knob.Rotary {
	return s.knobs[id]
}

// Move forwards a pointer delta to a dragging control. It reports false when
// the control ignored the sample or the chain refused the resulting change.
func (s *Session) Move(id string, dx, dy float64) (bool, error) {
	k := s.knobs[id]
	if k == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownKnob, id)
	}
	s.mu.Lock()
	s.refused = false
	s.mu.Unlock()
	if !k.Move(dx, dy) {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.refused, nil
}

// Settings returns the committed control state.
func (s *Session) Settings() preset.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Amount returns the shaping amount behind the active curve, after any clamp.
func (s *Session) Amount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amount
}

// CurrentCurve returns the active transfer curve.
func (s *Session) CurrentCurve() curve.Curve {
	return s.pedal.Shaper.Curve()
}

// Apply validates settings, positions every control without emitting and
// retunes the chain, resynthesising the curve.
func (s *Session) Apply(settings preset.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyLocked(settings, true); err != nil {
		return err
	}
	for id, v := range map[string]int{
		KnobGain:   settings.Gain,
		KnobDrive:  settings.Drive,
		KnobTone:   settings.Tone,
		KnobOutput: settings.Output,
		KnobType:   int(settings.DistortionType),
	} {
		if err := s.knobs[id].Set(v); err != nil {
			return err
		}
	}
	return nil
}

// Reset returns every control to Defaults().
func (s *Session) Reset() error {
	return s.Apply(preset.Defaults())
}

// Process runs interleaved stereo samples through the chain in place.
func (s *Session) Process(dst []float32) {
	s.pedal.ProcessInterleaved(dst)
	for _, tap := range s.sampleTap {
		tap(dst)
	}
}

// ResetState clears filter history without touching the controls. The
// chain drops its state on the audio thread before the next sample.
func (s *Session) ResetState() {
	s.pedal.Reset()
}

func (s *Session) applyLocked(next preset.Settings, resynth bool) error {
	if resynth {
		c, amount, err := curve.ForDrive(next.DistortionType, next.Drive, s.policy)
		if err != nil {
			return fmt.Errorf("%s drive %d: %w", next.DistortionType, next.Drive, err)
		}
		if want := curve.DriveAmount(next.DistortionType, next.Drive); amount != want {
			s.logger.Printf("stompbox: %s amount %.2f clamped to %.2f", next.DistortionType, want, amount)
		}
		s.pedal.Shaper.SetCurve(c)
		s.amount = amount
	}
	s.pedal.Input.Set(intfx.InputGain(next.Gain))
	s.pedal.Tone.SetCutoff(intfx.ToneCutoff(next.Tone))
	s.pedal.Output.Set(intfx.OutputGain(next.Output))
	s.settings = next
	return nil
}

// onKnob routes a committed control change into the chain. A change the
// chain refuses puts the control back where it was.
func (s *Session) onKnob(c knob.Change) {
	s.mu.Lock()
	prev := s.settings
	next := prev
	resynth := false
	switch c.ControlID {
	case KnobGain:
		next.Gain = c.Value
	case KnobDrive:
		next.Drive = c.Value
		resynth = true
	case KnobTone:
		next.Tone = c.Value
	case KnobOutput:
		next.Output = c.Value
	case KnobType:
		next.DistortionType = curve.Type(c.Value)
		resynth = true
	}
	if next == prev && !resynth {
		s.mu.Unlock()
		s.sendEvent(ControlEvent(c))
		return
	}
	err := s.applyLocked(next, resynth)
	if err != nil {
		s.knobs[c.ControlID].Set(settingFor(prev, c.ControlID))
		s.refused = true
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Printf("stompbox: %s change refused: %v", c.ControlID, err)
		return
	}
	s.sendEvent(ControlEvent(c))
}

func settingFor(st preset.Settings, id string) int {
	switch id {
	case KnobGain:
		return st.Gain
	case KnobDrive:
		return st.Drive
	case KnobTone:
		return st.Tone
	case KnobOutput:
		return st.Output
	default:
		return int(st.DistortionType)
	}
}

func (s *Session) sendEvent(ev ControlEvent) {
	s.eventChMu.Lock()
	ch := s.eventCh
	s.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			s.logger.Printf("stompbox: dropped %s event", ev.ControlID)
		}
	}
}

// Watch returns a channel that receives a ControlEvent for every accepted
// control move. Programmatic changes (Apply, Reset, LoadPreset) do not emit.
//
// The channel is buffered (cap 8) and events are dropped when it is full.
// Only the most recent Watch() channel receives events.
func (s *Session) Watch() <-chan ControlEvent {
	ch := make(chan ControlEvent, 8)
	s.eventChMu.Lock()
	s.eventCh = ch
	s.eventChMu.Unlock()
	return ch
}

// SavePreset stores the current settings under name, newest first.
func (s *Session) SavePreset(name string) (preset.Preset, error) {
	if s.store == nil {
		return preset.Preset{}, ErrNoStore
	}
	return s.store.Save(name, s.Settings())
}

// LoadPreset applies the preset at index in Presets() order.
func (s *Session) LoadPreset(index int) (preset.Preset, error) {
	if s.store == nil {
		return preset.Preset{}, ErrNoStore
	}
	p, err := s.store.Get(index)
	if err != nil {
		return preset.Preset{}, err
	}
	return p, s.Apply(p.Settings)
}

// LoadPresetNamed applies the newest preset called name.
func (s *Session) LoadPresetNamed(name string) (preset.Preset, error) {
	if s.store == nil {
		return preset.Preset{}, ErrNoStore
	}
	p, _, err := s.store.Find(name)
	if err != nil {
		return preset.Preset{}, err
	}
	return p, s.Apply(p.Settings)
}

func (s *Session) DeletePreset(index int) (preset.Preset, error) {
	if s.store == nil {
		return preset.Preset{}, ErrNoStore
	}
	return s.store.Delete(index)
}

func (s *Session) Presets() ([]preset.Preset, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.List()
}
