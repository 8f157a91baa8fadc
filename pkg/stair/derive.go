package stair

import (
	"errors"
	"fmt"
	"math"
)

// Code constants. Values are IRC R311.7.10.1 spiral stair limits plus the
// allowances used by the fabricator.
const (
	MaxRiserHeight      = 7.75  // in
	MinTreads           = 2     // a stair needs a start and an end tread
	NosingAllowance     = 1.5   // in, tread nosing / rail allowance off the clear width
	WalklineOffset      = 12.0  // in, walkline distance from the pole face
	MidLandingThreshold = 151.0 // in, heights above this need a mid-landing
	MidLandingRotation  = 90.0  // degrees consumed by a mid-landing
)

// ErrLandingInfeasible is returned when a mid-landing cannot fit because
// the stair has too few treads to share the remaining rotation.
var ErrLandingInfeasible = errors.New("stair: mid-landing needs at least 3 treads")

// NumberOfTreads returns max(2, ceil(height / 7.75)).
func NumberOfTreads(height float64) int {
	n := int(math.Ceil(height / MaxRiserHeight))
	if n < MinTreads {
		return MinTreads
	}
	return n
}

// RiserHeight returns the rise between consecutive treads.
func RiserHeight(height float64, n int) float64 {
	return height / float64(n)
}

// RotationPerTread returns the angle swept by each tread.
func RotationPerTread(totalRotation float64, n int) float64 {
	return totalRotation / float64(n)
}

// TreadClearWidth returns the usable tread depth between pole and rail.
func TreadClearWidth(outsideDiameter, centerPoleDiameter float64) float64 {
	return outsideDiameter/2 - centerPoleDiameter/2 - NosingAllowance
}

// WalklineRadius returns the radius of the walkline, 12 in out from the
// pole face.
func WalklineRadius(centerPoleDiameter float64) float64 {
	return centerPoleDiameter/2 + WalklineOffset
}

// WalklineWidth returns the arc length one tread sweeps at the walkline.
func WalklineWidth(walklineRadius, rotationPerTread float64) float64 {
	return walklineRadius * math.Abs(rotationPerTread) * math.Pi / 180
}

// RequiresMidLanding reports whether the height exceeds the landing threshold.
func RequiresMidLanding(height float64) bool {
	return height > MidLandingThreshold
}

// LandingRotationPerTread returns the per-tread angle of the regular treads
// once a landing has taken 90 degrees and one riser slot.
func LandingRotationPerTread(totalRotation float64, n int) (float64, error) {
	if n-2 <= 0 {
		return 0, fmt.Errorf("%w (have %d)", ErrLandingInfeasible, n)
	}
	return math.Abs(totalRotation-MidLandingRotation) / float64(n-2), nil
}

// Derive computes every derived value for s. The result never has a
// mid-landing; use WithMidLanding for that.
func Derive(s Spec) Derived {
	n := NumberOfTreads(s.OverallHeight)
	rot := RotationPerTread(s.TotalRotation, n)
	r := WalklineRadius(s.CenterPoleDiameter)
	return Derived{
		NumberOfTreads:   n,
		RiserHeight:      RiserHeight(s.OverallHeight, n),
		RotationPerTread: rot,
		TreadClearWidth:  TreadClearWidth(s.OutsideDiameter, s.CenterPoleDiameter),
		WalklineRadius:   r,
		WalklineWidth:    WalklineWidth(r, rot),
		MidLandingIndex:  NoMidLanding,
	}
}

// WithMidLanding returns a copy of d with a landing in the zero-based slot
// index and the regular-tread rotation recomputed for it.
func (d Derived) WithMidLanding(s Spec, index int) (Derived, error) {
	if index < 0 || index >= d.NumberOfTreads {
		return d, fmt.Errorf("stair: landing slot %d outside [0, %d)", index, d.NumberOfTreads)
	}
	rot, err := LandingRotationPerTread(s.TotalRotation, d.NumberOfTreads)
	if err != nil {
		return d, err
	}
	d.MidLandingIndex = index
	d.RotationPerTread = rot
	d.WalklineWidth = WalklineWidth(d.WalklineRadius, rot)
	return d, nil
}
