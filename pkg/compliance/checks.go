package compliance

import (
	"fmt"
	"math"

	"github.com/chazu/spiral/pkg/catalog"
	"github.com/chazu/spiral/pkg/stair"
)

// CheckFunc inspects a spec and its derived values. It returns nil when the
// rule is satisfied.
type CheckFunc func(s stair.Spec, d stair.Derived) *Violation

// Check is one entry of the ordered rule list.
type Check struct {
	Kind     Kind
	Severity Severity
	Run      CheckFunc
}

// fatalChecks run first; any failure stops the run.
var fatalChecks = []Check{
	{HeightOutOfRange, SeverityFatal, checkHeight},
	{OutsideDiameterOutOfRange, SeverityFatal, checkOutsideDiameter},
	{RotationOutOfRange, SeverityFatal, checkRotation},
}

// softChecks are ordered: walkline width depends on a pole diameter that
// the walkline radius check may already have changed.
var softChecks = []Check{
	{ClearWidthTooNarrow, SeveritySoft, checkClearWidth},
	{WalklineRadiusExceeded, SeveritySoft, checkWalklineRadius},
	{WalklineWidthTooNarrow, SeveritySoft, checkWalklineWidth},
}

// Checks returns the repairable checks in the order the repair loop runs them.
func Checks() []Check {
	return append([]Check(nil), softChecks...)
}

// Validate derives s and runs the fatal range checks. An empty slice means
// the spec may enter the repair loop.
func Validate(s stair.Spec) (stair.Derived, []Violation) {
	d := stair.Derive(s)
	return d, run(fatalChecks, s, d)
}

// Audit runs every check, including the mid-landing requirement, against
// the unrepaired spec.
func Audit(s stair.Spec) Report {
	d := stair.Derive(s)
	r := Report{
		Derived: d,
		Fatal:   run(fatalChecks, s, d),
		Soft:    run(softChecks, s, d),
	}
	if v := CheckMidLanding(s, d); v != nil {
		r.Soft = append(r.Soft, *v)
	}
	return r
}

func run(checks []Check, s stair.Spec, d stair.Derived) []Violation {
	var out []Violation
	for _, c := range checks {
		if v := c.Run(s, d); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// inRange is written so that NaN fails.
func inRange(v, lo, hi float64) bool {
	return v >= lo-tolerance && v <= hi+tolerance
}

// ---------------------------------------------------------------------------
// Fatal range checks
// ---------------------------------------------------------------------------

func checkHeight(s stair.Spec, _ stair.Derived) *Violation {
	if inRange(s.OverallHeight, MinOverallHeight, MaxOverallHeight) {
		return nil
	}
	return &Violation{
		Kind:     HeightOutOfRange,
		Severity: SeverityFatal,
		Message: fmt.Sprintf("overall height %.2f in must be between %.0f and %.0f inches",
			s.OverallHeight, MinOverallHeight, MaxOverallHeight),
		Actual: s.OverallHeight,
		Limit:  limitFor(s.OverallHeight, MinOverallHeight, MaxOverallHeight),
	}
}

func checkOutsideDiameter(s stair.Spec, _ stair.Derived) *Violation {
	lo := s.CenterPoleDiameter + MinOutsideOverPole
	if inRange(s.OutsideDiameter, lo, MaxOutsideDiameter) {
		return nil
	}
	return &Violation{
		Kind:     OutsideDiameterOutOfRange,
		Severity: SeverityFatal,
		Message: fmt.Sprintf("outside diameter %.2f in must be between %.2f (center pole + %.0f) and %.0f inches",
			s.OutsideDiameter, lo, MinOutsideOverPole, MaxOutsideDiameter),
		Actual: s.OutsideDiameter,
		Limit:  limitFor(s.OutsideDiameter, lo, MaxOutsideDiameter),
	}
}

func checkRotation(s stair.Spec, _ stair.Derived) *Violation {
	if inRange(s.TotalRotation, MinTotalRotation, MaxTotalRotation) {
		return nil
	}
	return &Violation{
		Kind:     RotationOutOfRange,
		Severity: SeverityFatal,
		Message: fmt.Sprintf("total rotation %.2f degrees must be between %.0f and %.0f degrees",
			s.TotalRotation, MinTotalRotation, MaxTotalRotation),
		Actual: s.TotalRotation,
		Limit:  limitFor(s.TotalRotation, MinTotalRotation, MaxTotalRotation),
	}
}

// limitFor reports the bound that v crossed.
func limitFor(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	return lo
}

// ---------------------------------------------------------------------------
// Repairable clearance checks
// ---------------------------------------------------------------------------

func checkClearWidth(s stair.Spec, d stair.Derived) *Violation {
	if d.TreadClearWidth >= MinClearWidth-tolerance {
		return nil
	}
	od := 2 * (MinClearWidth + s.CenterPoleDiameter/2 + stair.NosingAllowance)
	return &Violation{
		Kind:     ClearWidthTooNarrow,
		Severity: SeveritySoft,
		Message: fmt.Sprintf("clear width %.2f in is less than the minimum of %.0f inches",
			d.TreadClearWidth, MinClearWidth),
		Actual: d.TreadClearWidth,
		Limit:  MinClearWidth,
		Suggestions: []Suggestion{{
			Field: stair.FieldOutsideDiameter,
			Value: od,
			Label: fmt.Sprintf("increase outside diameter to %.2f inches", od),
		}},
	}
}

func checkWalklineRadius(s stair.Spec, d stair.Derived) *Violation {
	if d.WalklineRadius <= MaxWalklineRadius+tolerance {
		return nil
	}
	pole := 2 * (MaxWalklineRadius - stair.WalklineOffset)
	return &Violation{
		Kind:     WalklineRadiusExceeded,
		Severity: SeveritySoft,
		Message: fmt.Sprintf("walkline radius %.2f in exceeds the maximum of %.1f inches",
			d.WalklineRadius, MaxWalklineRadius),
		Actual: d.WalklineRadius,
		Limit:  MaxWalklineRadius,
		Suggestions: []Suggestion{{
			Field: stair.FieldCenterPoleDiameter,
			Value: pole,
			Label: fmt.Sprintf("reduce center pole diameter to %.2f inches", pole),
		}},
	}
}

func checkWalklineWidth(s stair.Spec, d stair.Derived) *Violation {
	if d.WalklineWidth >= MinWalklineWidth-tolerance {
		return nil
	}
	v := &Violation{
		Kind:     WalklineWidthTooNarrow,
		Severity: SeveritySoft,
		Message: fmt.Sprintf("walkline width %.2f in is less than the minimum of %.2f inches",
			d.WalklineWidth, MinWalklineWidth),
		Actual: d.WalklineWidth,
		Limit:  MinWalklineWidth,
	}
	if sg, ok := poleForWalklineWidth(s, d); ok {
		v.Suggestions = append(v.Suggestions, sg)
	}
	if sg, ok := rotationForWalklineWidth(s, d); ok {
		v.Suggestions = append(v.Suggestions, sg)
	}
	return v
}

// poleForWalklineWidth snaps the pole up to the smallest stock size whose
// walkline radius gives the current tread angle enough arc length.
func poleForWalklineWidth(s stair.Spec, d stair.Derived) (Suggestion, bool) {
	theta := math.Abs(d.RotationPerTread)
	if theta == 0 || math.IsNaN(theta) {
		return Suggestion{}, false
	}
	minRadius := MinWalklineWidth * 180 / (math.Pi * theta)
	minPole := 2 * (minRadius - stair.WalklineOffset)
	dia, ok := catalog.AtLeast(minPole)
	if !ok {
		return Suggestion{}, false
	}
	// A pole that breaks the outside diameter range is not a repair.
	if dia.Value+MinOutsideOverPole > s.OutsideDiameter+tolerance {
		return Suggestion{}, false
	}
	return Suggestion{
		Field: stair.FieldCenterPoleDiameter,
		Value: dia.Value,
		Label: fmt.Sprintf("increase center pole diameter to %s", dia.Label),
	}, true
}

// rotationForWalklineWidth raises the total rotation until each tread
// sweeps enough arc at the walkline. When the height will need a
// mid-landing, the rotation also covers the 90 degrees the landing takes
// out of the regular treads.
func rotationForWalklineWidth(s stair.Spec, d stair.Derived) (Suggestion, bool) {
	if d.WalklineRadius <= 0 {
		return Suggestion{}, false
	}
	thetaMin := MinWalklineWidth / d.WalklineRadius * 180 / math.Pi
	rot := thetaMin * float64(d.NumberOfTreads)
	if stair.RequiresMidLanding(s.OverallHeight) && d.NumberOfTreads > 2 {
		rot = math.Max(rot, stair.MidLandingRotation+thetaMin*float64(d.NumberOfTreads-2))
	}
	rot = math.Ceil(rot*100) / 100
	if rot > MaxTotalRotation {
		return Suggestion{}, false
	}
	return Suggestion{
		Field: stair.FieldTotalRotation,
		Value: rot,
		Label: fmt.Sprintf("increase total rotation to %.2f degrees", rot),
	}, true
}

// CheckWalklineWidth runs the walkline width check on its own. The repair
// loop uses it again once a landing has changed the tread angle.
func CheckWalklineWidth(s stair.Spec, d stair.Derived) *Violation {
	return checkWalklineWidth(s, d)
}

// CheckMidLanding reports the landing requirement for heights above the
// threshold that do not have a landing yet.
func CheckMidLanding(s stair.Spec, d stair.Derived) *Violation {
	if !stair.RequiresMidLanding(s.OverallHeight) || d.HasMidLanding() {
		return nil
	}
	return &Violation{
		Kind:     MidLandingRequired,
		Severity: SeveritySoft,
		Message: fmt.Sprintf("overall height %.2f in exceeds %.0f inches; a mid-landing is required",
			s.OverallHeight, stair.MidLandingThreshold),
		Actual: s.OverallHeight,
		Limit:  stair.MidLandingThreshold,
	}
}
