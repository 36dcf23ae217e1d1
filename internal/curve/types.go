package curve

import (
	"fmt"
	"strconv"
	"strings"
)

// Type selects a waveshaping transfer function.
type Type int

const (
	Soft Type = iota
	Hard
	Fuzz
	Overdrive
)

// NumTypes is the number of distortion types; it is also the number of
// stops on the type selector.
const NumTypes = 4

// Names are the display labels of the distortion types, indexed by Type.
var Names = [NumTypes]string{"SOFT", "HARD", "FUZZ", "OVERDRIVE"}

// driveScale is the per-type gain applied on top of the normalised drive.
var driveScale = [NumTypes]float64{20, 40, 60, 30}

func (t Type) Valid() bool { return t >= 0 && t < NumTypes }

func (t Type) String() string {
	if t.Valid() {
		return Names[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// DriveScale returns the type's drive constant, or 0 for an unknown type.
func (t Type) DriveScale() float64 {
	if !t.Valid() {
		return 0
	}
	return driveScale[t]
}

var typeAliases = map[string]Type{
	"soft":       Soft,
	"soft clip":  Soft,
	"softclip":   Soft,
	"hard":       Hard,
	"hard clip":  Hard,
	"hardclip":   Hard,
	"clip":       Hard,
	"fuzz":       Fuzz,
	"overdrive":  Overdrive,
	"over drive": Overdrive,
	"od":         Overdrive,
	"drive":      Overdrive,
}

// ParseType accepts a type name or alias (case-insensitive) or a 0-based index.
func ParseType(s string) (Type, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if t, ok := typeAliases[norm]; ok {
		return t, nil
	}
	if n, err := strconv.Atoi(norm); err == nil && Type(n).Valid() {
		return Type(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}
