// Package preset holds the pedal settings record and the named-preset store.
package preset

import (
	"errors"
	"fmt"

	"github.com/cbegin/stompbox-go/internal/curve"
)

var (
	ErrOutOfRange = errors.New("preset: setting out of range")
	ErrNotFound   = errors.New("preset: not found")
	ErrEmptyName  = errors.New("preset: empty name")
)

// Settings is the full control state of the pedal. Continuous controls are
// in [0,100].
type Settings struct {
	Gain           int        `json:"gain"`
	Drive          int        `json:"drive"`
	Tone           int        `json:"tone"`
	Output         int        `json:"output"`
	DistortionType curve.Type `json:"distortionType"`
}

// Defaults is the state the pedal starts in and resets to.
func Defaults() Settings {
	return Settings{Gain: 50, Drive: 50, Tone: 50, Output: 50, DistortionType: curve.Soft}
}

func (s Settings) Validate() error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"gain", s.Gain},
		{"drive", s.Drive},
		{"tone", s.Tone},
		{"output", s.Output},
	} {
		if f.v < 0 || f.v > 100 {
			return fmt.Errorf("%w: %s=%d", ErrOutOfRange, f.name, f.v)
		}
	}
	if !s.DistortionType.Valid() {
		return fmt.Errorf("%w: distortionType=%d", ErrOutOfRange, int(s.DistortionType))
	}
	return nil
}

// Preset is a named, timestamped snapshot of Settings.
type Preset struct {
	Name      string   `json:"name"`
	Timestamp string   `json:"date"`
	Settings  Settings `json:"settings"`
}
