// Package tessellate turns geometry placements into kernel solids and
// triangle meshes. One mesh is produced per placement.
package tessellate

import (
	"fmt"

	"github.com/chazu/spiral/pkg/geometry"
	"github.com/chazu/spiral/pkg/kernel"
)

// tagColors maps material tags to display colors.
var tagColors = map[geometry.Tag]string{
	geometry.TagSteel: "#505050",
	geometry.TagRed:   "#FF0000",
	geometry.TagGreen: "#00FF00",
}

// fallbackColor is used for tags without a palette entry.
const fallbackColor = "#4A90D9"

// TagColor returns the display color for a material tag.
func TagColor(tag string) string {
	if c, ok := tagColors[geometry.Tag(tag)]; ok {
		return c
	}
	return fallbackColor
}

// Part is a placement together with its solid.
type Part struct {
	Placement geometry.Placement
	Solid     kernel.Solid
}

// Solids builds one solid per placement. The tessellator is read-only and
// never mutates the placements.
func Solids(ps []geometry.Placement, k kernel.Kernel) ([]Part, error) {
	parts := make([]Part, 0, len(ps))
	for _, p := range ps {
		s, err := solid(p, k)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: %w", p.Name(), err)
		}
		parts = append(parts, Part{Placement: p, Solid: s})
	}
	return parts, nil
}

// solid creates geometry for one placement, base at z=0, then lifts it.
func solid(p geometry.Placement, k kernel.Kernel) (kernel.Solid, error) {
	var s kernel.Solid

	switch p.Kind {
	case geometry.CenterPole:
		s = k.Cylinder(p.Thickness, p.OuterRadius, geometry.PoleSegments)

	case geometry.TopLandingPanel:
		// Box has its min corner at the origin and extends along +X and +Y.
		// A clockwise stair lays the panel out on the -Y side instead.
		s = k.Box(p.Length, p.Width, p.Thickness)
		if p.Sign < 0 {
			s = k.Translate(s, 0, -p.Width, 0)
		}
		if p.StartAngle != 0 {
			s = k.Rotate(s, 0, 0, p.StartAngle)
		}

	case geometry.TreadSector, geometry.MidLandingSector:
		var err error
		s, err = k.Extrude(Outline(p), p.Thickness)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported placement kind %v", p.Kind)
	}

	if p.Z != 0 {
		s = k.Translate(s, 0, 0, p.Z)
	}
	return s, nil
}

// Outline converts a placement outline to the kernel form.
func Outline(p geometry.Placement) kernel.Outline {
	o := make(kernel.Outline, len(p.Outline))
	for i, v := range p.Outline {
		o[i] = [2]float64{v.X, v.Y}
	}
	return o
}

// PlanOutlines returns the plan-view outline of every placement.
func PlanOutlines(ps []geometry.Placement) []kernel.Outline {
	out := make([]kernel.Outline, 0, len(ps))
	for _, p := range ps {
		out = append(out, Outline(p))
	}
	return out
}

// Tessellate produces one triangle mesh per placement using the provided
// geometry kernel.
func Tessellate(ps []geometry.Placement, k kernel.Kernel) ([]*kernel.Mesh, error) {
	parts, err := Solids(ps, k)
	if err != nil {
		return nil, err
	}
	return Meshes(parts, k)
}

// Meshes tessellates already-built parts.
func Meshes(parts []Part, k kernel.Kernel) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, part := range parts {
		mesh, err := k.ToMesh(part.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", part.Placement.Name(), err)
		}
		mesh.PartName = part.Placement.Name()
		mesh.Tag = string(part.Placement.Tag)
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Assemble unions every part into a single solid for export.
func Assemble(parts []Part, k kernel.Kernel) (kernel.Solid, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("tessellate: nothing to assemble")
	}
	s := parts[0].Solid
	for _, p := range parts[1:] {
		s = k.Union(s, p.Solid)
	}
	return s, nil
}
