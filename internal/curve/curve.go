// Package curve synthesizes the waveshaping transfer functions used by the
// distortion stage.
package curve

import (
	"errors"
	"fmt"
	"math"
)

// Samples is the fixed length of every synthesized curve.
const Samples = 44100

// MaxOverdriveAmount is the largest amount the Overdrive formula accepts
// under PolicyClamp. The formula is singular at 1.
const MaxOverdriveAmount = 0.99

var (
	ErrInvalidAmount = errors.New("curve: invalid amount")
	ErrUnknownType   = errors.New("curve: unknown distortion type")
)

// Curve is a transfer-function lookup table. Index i corresponds to the
// input x = 2i/len - 1.
type Curve []float32

// Policy decides what ForDrive does with an Overdrive amount >= 1.
type Policy int

const (
	PolicyClamp Policy = iota
	PolicyReject
)

func (p Policy) String() string {
	switch p {
	case PolicyClamp:
		return "clamp"
	case PolicyReject:
		return "reject"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Transfer evaluates the type's transfer function at x. It does not validate
// amount; use Synthesize for checked output.
func Transfer(t Type, x, amount float64) float64 {
	switch t {
	case Soft:
		return (math.Pi + math.Atan(math.Pi*x*amount)) / (math.Pi + math.Atan(math.Pi*amount))
	case Hard:
		return clamp(x*amount, -0.8, 0.8) / amount
	case Fuzz:
		return math.Sin(x*math.Pi*amount) * 0.8
	case Overdrive:
		k := 2 * amount / (1 - amount)
		return (1 + k) * x / (1 + k*math.Abs(x))
	default:
		return x
	}
}

// CheckAmount reports whether amount is usable for t.
func CheckAmount(t Type, amount float64) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if t == Overdrive && amount >= 1 {
		return fmt.Errorf("%w: overdrive needs amount < 1, got %v", ErrInvalidAmount, amount)
	}
	return nil
}

// Synthesize builds the Samples-long curve of type t.
func Synthesize(t Type, amount float64) (Curve, error) {
	if err := CheckAmount(t, amount); err != nil {
		return nil, err
	}
	c := make(Curve, Samples)
	for i := range c {
		y := Transfer(t, At(i, Samples), amount)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("%w: %s amount %v overflows at sample %d", ErrInvalidAmount, t, amount, i)
		}
		c[i] = float32(y)
	}
	return c, nil
}

// DriveAmount maps a drive control value in [0,100] to the curve amount for t.
func DriveAmount(t Type, drive int) float64 {
	normalized := 1 + float64(drive)/100*9
	return normalized * t.DriveScale()
}

// ForDrive synthesizes the curve for a drive control value, applying policy
// to Overdrive amounts the formula cannot take. It returns the amount that
// was actually used.
func ForDrive(t Type, drive int, policy Policy) (Curve, float64, error) {
	amount := DriveAmount(t, drive)
	if t == Overdrive && amount >= 1 && policy == PolicyClamp {
		amount = MaxOverdriveAmount
	}
	c, err := Synthesize(t, amount)
	if err != nil {
		return nil, amount, err
	}
	return c, amount, nil
}

// At returns the input value represented by index i of an n-sample curve.
func At(i, n int) float64 {
	return float64(i*2)/float64(n) - 1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
