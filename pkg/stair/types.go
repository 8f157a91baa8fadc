package stair

import (
	"fmt"
	"strings"
)

// Direction is the rotational sense applied to every per-tread increment.
type Direction int

const (
	Clockwise Direction = iota
	CounterClockwise
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counter-clockwise"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Sign returns the multiplier for angular increments. Angles follow the
// usual plan-view convention, so counter-clockwise is positive.
func (d Direction) Sign() float64 {
	if d == Clockwise {
		return -1
	}
	return 1
}

// ParseDirection accepts "clockwise", "cw", "counter-clockwise",
// "counterclockwise", "ccw" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clockwise", "cw":
		return Clockwise, nil
	case "counter-clockwise", "counterclockwise", "counter_clockwise", "ccw":
		return CounterClockwise, nil
	}
	return 0, fmt.Errorf("invalid direction %q, expected clockwise or counter-clockwise", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if d != Clockwise && d != CounterClockwise {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Field names one scalar input of a Spec. Repair suggestions target fields.
type Field int

const (
	FieldCenterPoleDiameter Field = iota
	FieldOverallHeight
	FieldOutsideDiameter
	FieldTotalRotation
)

func (f Field) String() string {
	switch f {
	case FieldCenterPoleDiameter:
		return "center pole diameter"
	case FieldOverallHeight:
		return "overall height"
	case FieldOutsideDiameter:
		return "outside diameter"
	case FieldTotalRotation:
		return "total rotation"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// Unit returns the unit suffix used when printing values of the field.
func (f Field) Unit() string {
	if f == FieldTotalRotation {
		return "degrees"
	}
	return "inches"
}

// Spec is the design input of one staircase. It is a value type; callers
// change it only through With.
type Spec struct {
	CenterPoleDiameter float64   `json:"center_pole_diameter" yaml:"center_pole_diameter"`
	OverallHeight      float64   `json:"overall_height" yaml:"overall_height"`
	OutsideDiameter    float64   `json:"outside_diameter" yaml:"outside_diameter"`
	TotalRotation      float64   `json:"total_rotation" yaml:"total_rotation"`
	Direction          Direction `json:"direction" yaml:"direction"`
}

// Get returns the value of a field.
func (s Spec) Get(f Field) float64 {
	switch f {
	case FieldCenterPoleDiameter:
		return s.CenterPoleDiameter
	case FieldOverallHeight:
		return s.OverallHeight
	case FieldOutsideDiameter:
		return s.OutsideDiameter
	case FieldTotalRotation:
		return s.TotalRotation
	}
	panic(fmt.Sprintf("stair: unknown field %d", int(f)))
}

// With returns a copy of s with field f set to v.
func (s Spec) With(f Field, v float64) Spec {
	switch f {
	case FieldCenterPoleDiameter:
		s.CenterPoleDiameter = v
	case FieldOverallHeight:
		s.OverallHeight = v
	case FieldOutsideDiameter:
		s.OutsideDiameter = v
	case FieldTotalRotation:
		s.TotalRotation = v
	default:
		panic(fmt.Sprintf("stair: unknown field %d", int(f)))
	}
	return s
}

func (s Spec) String() string {
	return fmt.Sprintf("pole=%.3f height=%.2f outside=%.2f rotation=%.2f %s",
		s.CenterPoleDiameter, s.OverallHeight, s.OutsideDiameter, s.TotalRotation, s.Direction)
}

// NoMidLanding marks a Derived without a mid-landing.
const NoMidLanding = -1

// Derived holds the values computed from a Spec. It is recomputed from
// scratch whenever the Spec changes.
type Derived struct {
	NumberOfTreads   int     `json:"number_of_treads"`
	RiserHeight      float64 `json:"riser_height"`
	RotationPerTread float64 `json:"rotation_per_tread"` // magnitude; Direction supplies the sign
	TreadClearWidth  float64 `json:"tread_clear_width"`
	WalklineRadius   float64 `json:"walkline_radius"`
	WalklineWidth    float64 `json:"walkline_width"`
	MidLandingIndex  int     `json:"mid_landing_index"` // zero-based tread slot or NoMidLanding
}

// HasMidLanding reports whether a landing slot has been chosen.
func (d Derived) HasMidLanding() bool {
	return d.MidLandingIndex != NoMidLanding
}

// RegularTreads is the number of slots that are ordinary rotating treads.
func (d Derived) RegularTreads() int {
	n := d.NumberOfTreads - 1 // top landing
	if d.HasMidLanding() {
		n--
	}
	return n
}
