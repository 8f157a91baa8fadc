package repair

import (
	"fmt"

	"github.com/chazu/spiral/pkg/compliance"
	"github.com/chazu/spiral/pkg/stair"
)

// Summary is the display record for a finished run. The loop does not
// format it for any surface; Lines gives a plain-text rendering.
type Summary struct {
	CenterPoleDiameter float64  `json:"center_pole_diameter"`
	OverallHeight      float64  `json:"overall_height"`
	OutsideDiameter    float64  `json:"outside_diameter"`
	TotalRotation      float64  `json:"total_rotation"`
	Direction          string   `json:"direction"`
	NumberOfTreads     int      `json:"number_of_treads"`
	RiserHeight        float64  `json:"riser_height"`
	TreadAngle         float64  `json:"tread_angle"`
	TreadClearWidth    float64  `json:"tread_clear_width"`
	WalklineRadius     float64  `json:"walkline_radius"`
	WalklineWidth      float64  `json:"walkline_width"`
	MidLanding         string   `json:"mid_landing"`
	Ignored            []string `json:"ignored,omitempty"`
}

// Summarize builds the display record.
func Summarize(s stair.Spec, d stair.Derived, ignored []compliance.Violation) Summary {
	sum := Summary{
		CenterPoleDiameter: s.CenterPoleDiameter,
		OverallHeight:      s.OverallHeight,
		OutsideDiameter:    s.OutsideDiameter,
		TotalRotation:      s.TotalRotation,
		Direction:          s.Direction.String(),
		NumberOfTreads:     d.NumberOfTreads,
		RiserHeight:        d.RiserHeight,
		TreadAngle:         d.RotationPerTread,
		TreadClearWidth:    d.TreadClearWidth,
		WalklineRadius:     d.WalklineRadius,
		WalklineWidth:      d.WalklineWidth,
		MidLanding:         MidLandingStatus(d),
	}
	for _, v := range ignored {
		sum.Ignored = append(sum.Ignored, v.Error())
	}
	return sum
}

// MidLandingStatus returns "Yes at tread N" (one-based) or "No". A landing
// in the last slot is noted, because the top landing takes that slot.
func MidLandingStatus(d stair.Derived) string {
	if !d.HasMidLanding() {
		return "No"
	}
	if d.MidLandingIndex == d.NumberOfTreads-1 {
		return fmt.Sprintf("Yes at tread %d (replaced by the top landing)", d.MidLandingIndex+1)
	}
	return fmt.Sprintf("Yes at tread %d", d.MidLandingIndex+1)
}

// Lines renders the summary one value per line.
func (s Summary) Lines() []string {
	lines := []string{
		fmt.Sprintf("Center Pole Diameter: %.2f inches", s.CenterPoleDiameter),
		fmt.Sprintf("Overall Height: %.2f inches", s.OverallHeight),
		fmt.Sprintf("Outside Diameter: %.2f inches", s.OutsideDiameter),
		fmt.Sprintf("Total Rotation: %.2f degrees %s", s.TotalRotation, s.Direction),
		fmt.Sprintf("Number of Treads: %d", s.NumberOfTreads),
		fmt.Sprintf("Riser Height: %.2f inches", s.RiserHeight),
		fmt.Sprintf("Tread Angle: %.2f degrees", s.TreadAngle),
		fmt.Sprintf("Clear Width: %.2f inches", s.TreadClearWidth),
		fmt.Sprintf("Walkline Width: %.2f inches", s.WalklineWidth),
		fmt.Sprintf("Mid-landing: %s", s.MidLanding),
	}
	for _, ig := range s.Ignored {
		lines = append(lines, "Ignored: "+ig)
	}
	return lines
}
