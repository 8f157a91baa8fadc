package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/chazu/spiral/pkg/stair"
)

// ErrGeometryDefect means the inputs could not have passed validation. It
// is an internal fault and is never shown as a compliance message.
var ErrGeometryDefect = errors.New("geometry: defect in upstream values")

// Options controls outline fidelity.
type Options struct {
	// ArcSegments is the number of straight segments used per arc. Values
	// of 1 or less produce plain quadrilaterals.
	ArcSegments int
}

// DefaultOptions returns quadrilateral outlines.
func DefaultOptions() Options {
	return Options{ArcSegments: 1}
}

func defect(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGeometryDefect, fmt.Sprintf(format, args...))
}

// Build lays out the staircase. The result always has NumberOfTreads+1
// placements: the pole first, then one per tread slot in climbing order.
func Build(s stair.Spec, d stair.Derived, opts Options) ([]Placement, error) {
	if err := checkInputs(s, d); err != nil {
		return nil, err
	}

	inner := s.CenterPoleDiameter / 2
	outer := s.OutsideDiameter / 2
	sign := s.Direction.Sign()
	top := s.OverallHeight - Thickness

	out := make([]Placement, 0, d.NumberOfTreads+1)
	out = append(out, Placement{
		Kind:        CenterPole,
		Slot:        PoleSlot,
		Sign:        sign,
		OuterRadius: inner,
		EndAngle:    360,
		Z:           0,
		Thickness:   s.OverallHeight,
		Tag:         TagSteel,
		Outline:     circle(inner, PoleSegments),
	})

	current := 0.0
	last := d.NumberOfTreads - 1
	for i := 0; i < d.NumberOfTreads; i++ {
		z := math.Min(d.RiserHeight*float64(i+1)-Thickness, top)

		switch {
		case i == last:
			out = append(out, Placement{
				Kind:        TopLandingPanel,
				Slot:        i,
				Sign:        sign,
				OuterRadius: outer,
				StartAngle:  current,
				EndAngle:    current,
				Width:       TopLandingWidth,
				Length:      outer,
				Z:           z,
				Thickness:   Thickness,
				Tag:         TagGreen,
				Outline:     panel(current, sign, outer, TopLandingWidth),
			})

		case i == d.MidLandingIndex:
			end := current + stair.MidLandingRotation*sign
			out = append(out, sector(MidLandingSector, i, sign, inner, outer, current, end, z, TagRed, opts))
			current = end

		default:
			end := current + d.RotationPerTread*sign
			out = append(out, sector(TreadSector, i, sign, inner, outer, current, end, z, TagSteel, opts))
			current = end
		}
	}

	for _, p := range out {
		if err := checkPlacement(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sector(kind ShapeKind, slot int, sign, inner, outer, start, end, z float64, tag Tag, opts Options) Placement {
	return Placement{
		Kind:        kind,
		Slot:        slot,
		Sign:        sign,
		InnerRadius: inner,
		OuterRadius: outer,
		StartAngle:  start,
		EndAngle:    end,
		Z:           z,
		Thickness:   Thickness,
		Tag:         tag,
		Outline:     annulusSector(inner, outer, start, end, opts.ArcSegments),
	}
}

func checkInputs(s stair.Spec, d stair.Derived) error {
	if d.NumberOfTreads < stair.MinTreads {
		return defect("%d treads", d.NumberOfTreads)
	}
	vals := []float64{
		s.CenterPoleDiameter, s.OverallHeight, s.OutsideDiameter, s.TotalRotation,
		d.RiserHeight, d.RotationPerTread,
	}
	if floats.HasNaN(vals) || math.IsInf(floats.Max(vals), 1) || math.IsInf(floats.Min(vals), -1) {
		return defect("non-finite input %v", vals)
	}
	if s.CenterPoleDiameter <= 0 || s.OutsideDiameter <= s.CenterPoleDiameter {
		return defect("pole %.3f, outside %.3f", s.CenterPoleDiameter, s.OutsideDiameter)
	}
	if d.RiserHeight <= 0 {
		return defect("riser height %.3f", d.RiserHeight)
	}
	// Only slots that become regular treads need a sweep.
	if d.RegularTreads() > 0 && d.RotationPerTread == 0 {
		return defect("zero tread sweep")
	}
	return nil
}

func checkPlacement(p Placement) error {
	if len(p.Outline) < 3 {
		return defect("%s has %d outline points", p.Name(), len(p.Outline))
	}
	for _, v := range p.Outline {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return defect("%s has a non-finite outline point", p.Name())
		}
	}
	if math.Abs(signedArea(p.Outline)) < 1e-9 {
		return defect("%s has zero area", p.Name())
	}
	return nil
}
