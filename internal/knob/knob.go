// Package knob implements the rotary-control interaction model: pointer
// deltas from a control's centre become a continuous value in [0,100] or a
// detented stop index.
package knob

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	// ArcDegrees is the active travel of a control.
	ArcDegrees = 270
	// MaxValue is the top of the continuous range.
	MaxValue = 100

	startOffset = 135
)

// Stops are the detent reference angles in degrees.
var Stops = [4]float64{0, 90, 180, 270}

var ErrOutOfRange = errors.New("knob: value out of range")

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Change is the value-changed notification emitted by a control.
type Change struct {
	ControlID string
	// Value is the continuous value, or the stop index for detented controls.
	Value     int
	Label     string
	Detented  bool
}

// Rotation converts a pointer delta to a rotation in [0,360) measured from
// the control's zero orientation. ok is false in the dead zone past
// ArcDegrees.
func Rotation(dx, dy float64) (deg float64, ok bool) {
	angle := math.Atan2(dy, dx) * 180 / math.Pi
	deg = math.Mod(angle-startOffset+360, 360)
	return deg, deg <= ArcDegrees
}

// Continuous maps a rotation in [0,ArcDegrees] to [0,MaxValue].
func Continuous(rotation float64) int {
	return int(math.Round(rotation / ArcDegrees * MaxValue))
}

// Snap returns the index of the stop nearest to rotation. Ties go to the
// lower index.
func Snap(rotation float64) int {
	best := 0
	minDiff := math.Inf(1)
	for i, stop := range Stops {
		if d := math.Abs(stop - rotation); d < minDiff {
			minDiff = d
			best = i
		}
	}
	return best
}

// Rotary is a single control. It is not safe for concurrent use; drive it
// from the UI goroutine.
type Rotary struct {
	id       string
	detented bool
	labels   []string
	state    State
	value    int
	onChange func(Change)
}

// NewContinuous returns a 0..100 control.
func NewContinuous(id string, initial int, onChange func(Change)) (*Rotary, error) {
	r := &Rotary{id: id, onChange: onChange}
	if err := r.Set(initial); err != nil {
		return nil, err
	}
	return r, nil
}

// NewDetented returns a four-stop control. labels must hold one label per
// stop.
func NewDetented(id string, labels []string, initial int, onChange func(Change)) (*Rotary, error) {
	if len(labels) != len(Stops) {
		return nil, fmt.Errorf("knob %s: need %d labels, got %d", id, len(Stops), len(labels))
	}
	r := &Rotary{id: id, detented: true, labels: append([]string(nil), labels...), onChange: onChange}
	if err := r.Set(initial); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rotary) ID() string       { return r.id }
func (r *Rotary) Detented() bool   { return r.detented }
func (r *Rotary) State() State     { return r.state }
func (r *Rotary) Value() int       { return r.value }
func (r *Rotary) Dragging() bool   { return r.state == Dragging }
func (r *Rotary) Release()         { r.state = Idle }
func (r *Rotary) Press()           { r.state = Dragging }
func (r *Rotary) Labels() []string { return r.labels }

// Label is the display text for the committed value.
func (r *Rotary) Label() string {
	if r.detented {
		return r.labels[r.value]
	}
	return strconv.Itoa(r.value)
}

// Angle is the committed rotation in degrees, in [0,ArcDegrees].
func (r *Rotary) Angle() float64 {
	if r.detented {
		return Stops[r.value]
	}
	return float64(r.value) / MaxValue * ArcDegrees
}

// Progress is Angle as a fraction of the arc.
func (r *Rotary) Progress() float64 {
	return r.Angle() / ArcDegrees
}

// Move feeds one pointer sample while dragging. It reports whether the
// sample was accepted; idle controls and dead-zone samples are ignored.
func (r *Rotary) Move(dx, dy float64) bool {
	if r.state != Dragging {
		return false
	}
	rot, ok := Rotation(dx, dy)
	if !ok {
		return false
	}
	if r.detented {
		r.value = Snap(rot)
	} else {
		r.value = Continuous(rot)
	}
	r.emit()
	return true
}

// Set positions the control without emitting a change.
func (r *Rotary) Set(value int) error {
	if value < 0 || value > r.maxValue() {
		return fmt.Errorf("%w: %s=%d (0..%d)", ErrOutOfRange, r.id, value, r.maxValue())
	}
	r.value = value
	return nil
}

func (r *Rotary) maxValue() int {
	if r.detented {
		return len(Stops) - 1
	}
	return MaxValue
}

func (r *Rotary) emit() {
	if r.onChange == nil {
		return
	}
	r.onChange(Change{
		ControlID: r.id,
		Value:     r.value,
		Label:     r.Label(),
		Detented:  r.detented,
	})
}
