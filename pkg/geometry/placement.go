// Package geometry turns a repaired staircase into an ordered list of
// abstract shape placements: the center pole, one entry per tread slot,
// and the top landing. A rendering collaborator turns placements into
// solids; this package draws nothing.
package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// ShapeKind identifies the family of a placement.
type ShapeKind int

const (
	CenterPole ShapeKind = iota
	TreadSector
	MidLandingSector
	TopLandingPanel
)

func (k ShapeKind) String() string {
	switch k {
	case CenterPole:
		return "center-pole"
	case TreadSector:
		return "tread"
	case MidLandingSector:
		return "mid-landing"
	case TopLandingPanel:
		return "top-landing"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Tag is the display/material class a renderer maps to a color.
type Tag string

const (
	TagSteel Tag = "steel-251" // pole and regular treads
	TagRed   Tag = "red-1"     // mid-landing
	TagGreen Tag = "green-3"   // top landing
)

// Fixed dimensions.
const (
	Thickness       = 0.25 // in, tread and landing plate thickness
	TopLandingWidth = 50.0 // in, lateral extent of the top landing panel
	PoleSegments    = 32   // outline vertices of the center pole
)

// PoleSlot is the Slot value of the center pole placement.
const PoleSlot = -1

// Placement describes one solid. Angles are in degrees, measured
// counter-clockwise from +X in plan view; lengths are in inches.
type Placement struct {
	Kind ShapeKind `json:"kind"`
	Slot int       `json:"slot"` // tread index, PoleSlot for the pole
	Sign float64   `json:"sign"` // direction of travel, +1 counter-clockwise

	InnerRadius float64 `json:"inner_radius"`
	OuterRadius float64 `json:"outer_radius"`
	StartAngle  float64 `json:"start_angle"`
	EndAngle    float64 `json:"end_angle"`

	// Rectangle extent, top landing only.
	Width  float64 `json:"width,omitempty"`
	Length float64 `json:"length,omitempty"`

	Z         float64 `json:"z"`         // base elevation
	Thickness float64 `json:"thickness"` // extrusion height
	Tag       Tag     `json:"tag"`

	// Outline is the plan-view boundary in counter-clockwise order.
	Outline []r2.Vec `json:"outline"`
}

// Sweep returns EndAngle - StartAngle.
func (p Placement) Sweep() float64 {
	return p.EndAngle - p.StartAngle
}

// Top returns the elevation of the upper face.
func (p Placement) Top() float64 {
	return p.Z + p.Thickness
}

// Name returns a stable part name such as "pole", "tread-03",
// "mid-landing-10" or "top-landing". Tread numbers are one-based.
func (p Placement) Name() string {
	switch p.Kind {
	case CenterPole:
		return "pole"
	case TreadSector:
		return fmt.Sprintf("tread-%02d", p.Slot+1)
	case MidLandingSector:
		return fmt.Sprintf("mid-landing-%02d", p.Slot+1)
	case TopLandingPanel:
		return "top-landing"
	default:
		return p.Kind.String()
	}
}
