package stompbox

import (
	"bytes"
	"errors"
	"log"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/cbegin/stompbox-go/internal/curve"
	"github.com/cbegin/stompbox-go/internal/preset"
)

// pointer returns a pointer delta that lands on the given control rotation.
func pointer(rot float64) (float64, float64) {
	rad := (rot + 135) * math.Pi / 180
	return 100 * math.Cos(rad), 100 * math.Sin(rad)
}

func drag(t *testing.T, s *Session, id string, rot float64) bool {
	t.Helper()
	k := s.Knob(id)
	k.Press()
	defer k.Release()
	dx, dy := pointer(rot)
	ok, err := s.Move(id, dx, dy)
	if err != nil {
		t.Fatal(err)
	}
	return ok
}

func sameCurve(t *testing.T, got curve.Curve, typ curve.Type, drive int) {
	t.Helper()
	want, _, err := curve.ForDrive(typ, drive, curve.PolicyClamp)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("curve len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("curve[%d] = %v, want %v (%s drive %d)", i, got[i], want[i], typ, drive)
		}
	}
}

func TestNewSessionDefaults(t *testing.T) {
	s, err := NewSession(48000)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Settings(); got != preset.Defaults() {
		t.Fatalf("settings = %+v", got)
	}
	for _, id := range []string{KnobGain, KnobDrive, KnobTone, KnobOutput} {
		if v := s.Knob(id).Value(); v != 50 {
			t.Fatalf("%s = %d, want 50", id, v)
		}
	}
	if l := s.Knob(KnobType).Label(); l != "SOFT" {
		t.Fatalf("type label = %q", l)
	}
	sameCurve(t, s.CurrentCurve(), curve.Soft, 50)
	if _, err := NewSession(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestDriveDragResynthesizes(t *testing.T) {
	s, _ := NewSession(48000)
	events := s.Watch()
	if !drag(t, s, KnobDrive, 189) {
		t.Fatal("move rejected")
	}
	if got := s.Settings().Drive; got != 70 {
		t.Fatalf("drive = %d, want 70", got)
	}
	sameCurve(t, s.CurrentCurve(), curve.Soft, 70)
	select {
	case ev := <-events:
		want := ControlEvent{ControlID: KnobDrive, Value: 70, Label: "70"}
		if ev != want {
			t.Fatalf("event = %+v, want %+v", ev, want)
		}
	default:
		t.Fatal("no event")
	}
}

func TestTypeSelectorSnapsAndEmits(t *testing.T) {
	s, _ := NewSession(48000)
	events := s.Watch()
	drag(t, s, KnobType, 170)
	if got := s.Settings().DistortionType; got != curve.Fuzz {
		t.Fatalf("type = %v, want FUZZ", got)
	}
	sameCurve(t, s.CurrentCurve(), curve.Fuzz, 50)
	ev := <-events
	if ev.Value != 2 || ev.Label != "FUZZ" || !ev.Detented {
		t.Fatalf("event = %+v", ev)
	}
}

func TestDeadZoneAndIdleMovesIgnored(t *testing.T) {
	s, _ := NewSession(48000)
	events := s.Watch()
	if drag(t, s, KnobGain, 300) {
		t.Fatal("dead-zone move accepted")
	}
	dx, dy := pointer(10)
	if ok, _ := s.Move(KnobGain, dx, dy); ok {
		t.Fatal("move accepted while idle")
	}
	if _, err := s.Move("volume", dx, dy); !errors.Is(err, ErrUnknownKnob) {
		t.Fatalf("err = %v, want ErrUnknownKnob", err)
	}
	if got := s.Settings().Gain; got != 50 {
		t.Fatalf("gain = %d, want 50", got)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestPresetRoundTrip(t *testing.T) {
	st := preset.NewStore(preset.NewMemoryBackend())
	s, err := NewSession(44100, WithStore(st))
	if err != nil {
		t.Fatal(err)
	}
	crunch := preset.Settings{Gain: 30, Drive: 70, Tone: 40, Output: 60, DistortionType: curve.Fuzz}
	if err := s.Apply(crunch); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePreset("Crunch"); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if s.Settings() != preset.Defaults() {
		t.Fatalf("reset settings = %+v", s.Settings())
	}
	p, err := s.LoadPreset(0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Crunch" || s.Settings() != crunch {
		t.Fatalf("loaded %q = %+v", p.Name, s.Settings())
	}
	want := map[string]int{KnobGain: 30, KnobDrive: 70, KnobTone: 40, KnobOutput: 60, KnobType: 2}
	for id, v := range want {
		if got := s.Knob(id).Value(); got != v {
			t.Errorf("%s = %d, want %d", id, got, v)
		}
	}
	sameCurve(t, s.CurrentCurve(), curve.Fuzz, 70)

	list, _ := s.Presets()
	if len(list) != 1 {
		t.Fatalf("presets = %d", len(list))
	}
	if _, err := s.LoadPresetNamed("crunch"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeletePreset(0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadPreset(0); !errors.Is(err, preset.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyDoesNotEmit(t *testing.T) {
	s, _ := NewSession(48000)
	events := s.Watch()
	s.Apply(preset.Settings{Gain: 10, Drive: 20, Tone: 30, Output: 40, DistortionType: curve.Hard})
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestApplyRejectsInvalid(t *testing.T) {
	s, _ := NewSession(48000)
	err := s.Apply(preset.Settings{Gain: 101, DistortionType: curve.Soft})
	if !errors.Is(err, preset.ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if s.Settings() != preset.Defaults() {
		t.Fatalf("settings changed: %+v", s.Settings())
	}
}

func TestOverdriveClampIsLogged(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewSession(48000, WithLogger(log.New(&buf, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	st := preset.Defaults()
	st.DistortionType = curve.Overdrive
	if err := s.Apply(st); err != nil {
		t.Fatal(err)
	}
	if s.Amount() != curve.MaxOverdriveAmount {
		t.Fatalf("amount = %v", s.Amount())
	}
	for i, v := range s.CurrentCurve() {
		if math.IsNaN(float64(v)) || v < -1 || v > 1 {
			t.Fatalf("curve[%d] = %v", i, v)
		}
	}
	if !strings.Contains(buf.String(), "clamped") {
		t.Fatalf("log = %q", buf.String())
	}
}

func TestOverdriveRejectPolicy(t *testing.T) {
	s, err := NewSession(48000, WithOverdrivePolicy(curve.PolicyReject))
	if err != nil {
		t.Fatal(err)
	}
	st := preset.Defaults()
	st.DistortionType = curve.Overdrive
	if err := s.Apply(st); !errors.Is(err, curve.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	events := s.Watch()
	if drag(t, s, KnobType, 260) {
		t.Fatal("refused overdrive change reported as accepted")
	}
	if got := s.Knob(KnobType).Value(); got != 0 {
		t.Fatalf("selector = %d, want it restored to 0", got)
	}
	if s.Settings().DistortionType != curve.Soft {
		t.Fatalf("type = %v", s.Settings().DistortionType)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
	if !drag(t, s, KnobType, 90) {
		t.Fatal("hard change after a refusal rejected")
	}
	if got := s.Settings().DistortionType; got != curve.Hard {
		t.Fatalf("type = %v, want HARD", got)
	}
}

func TestPresetsNeedStore(t *testing.T) {
	s, _ := NewSession(48000)
	if _, err := s.SavePreset("x"); !errors.Is(err, ErrNoStore) {
		t.Fatalf("err = %v, want ErrNoStore", err)
	}
	if _, err := s.Presets(); !errors.Is(err, ErrNoStore) {
		t.Fatalf("err = %v, want ErrNoStore", err)
	}
}

func TestProcessRunsTapsAndMutes(t *testing.T) {
	var tapped int
	s, err := NewSession(48000,
		WithSettings(preset.Settings{Gain: 50, Drive: 50, Tone: 50, Output: 0, DistortionType: curve.Hard}),
		WithSampleTap(func(buf []float32) { tapped += len(buf) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	buf := []float32{0.5, -0.5, 0.25, -0.25}
	s.Process(buf)
	if tapped != 4 {
		t.Fatalf("tapped = %d", tapped)
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestWatchDropsWhenFull(t *testing.T) {
	s, _ := NewSession(48000)
	events := s.Watch()
	for i := 0; i < 20; i++ {
		drag(t, s, KnobTone, float64(i*10))
	}
	if len(events) != cap(events) {
		t.Fatalf("buffered = %d, want %d", len(events), cap(events))
	}
	if got := s.Settings().Tone; got != 70 {
		t.Fatalf("tone = %d, want 70", got)
	}
}

// Run with -race: knob drags, Apply and ResetState come from one goroutine
// while another processes audio.
func TestConcurrentControlAndProcess(t *testing.T) {
	s, err := NewSession(48000)
	if err != nil {
		t.Fatal(err)
	}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]float32, 256)
		for {
			select {
			case <-stop:
				return
			default:
			}
			for i := range buf {
				buf[i] = float32(math.Sin(float64(i) / 8))
			}
			s.Process(buf)
		}
	}()

	for i := 0; i < 200; i++ {
		drag(t, s, KnobIDs[i%len(KnobIDs)], float64(i*7%270))
		if i%10 == 0 {
			s.ResetState()
		}
		if i%25 == 0 {
			if err := s.Apply(preset.Settings{Gain: i % 100, Drive: 30, Tone: 60, Output: 80, DistortionType: curve.Hard}); err != nil {
				close(stop)
				wg.Wait()
				t.Fatal(err)
			}
		}
	}
	close(stop)
	wg.Wait()

	buf := []float32{0.5, 0.5}
	s.Process(buf)
	if math.IsNaN(float64(buf[0])) || math.IsNaN(float64(buf[1])) {
		t.Fatalf("output = %v", buf)
	}
}
