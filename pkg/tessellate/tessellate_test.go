package tessellate_test

import (
	"math"
	"testing"

	"github.com/chazu/spiral/pkg/geometry"
	"github.com/chazu/spiral/pkg/kernel"
	"github.com/chazu/spiral/pkg/kernel/sdfx"
	"github.com/chazu/spiral/pkg/stair"
	"github.com/chazu/spiral/pkg/tessellate"
)

// newKernel returns a fresh sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.NewWithCells(64)
}

// countingKernel records which primitives were requested and returns
// non-empty meshes without doing any geometry.
type countingKernel struct {
	boxes, cylinders, extrusions, unions, rotations int
}

type fakeSolid struct{}

func (fakeSolid) BoundingBox() (min, max [3]float64) { return }

func (k *countingKernel) Box(x, y, z float64) kernel.Solid {
	k.boxes++
	return fakeSolid{}
}

func (k *countingKernel) Cylinder(height, radius float64, _ int) kernel.Solid {
	k.cylinders++
	return fakeSolid{}
}

func (k *countingKernel) Extrude(o kernel.Outline, height float64) (kernel.Solid, error) {
	k.extrusions++
	return fakeSolid{}, nil
}

func (k *countingKernel) Union(a, _ kernel.Solid) kernel.Solid {
	k.unions++
	return a
}

func (k *countingKernel) Translate(s kernel.Solid, _, _, _ float64) kernel.Solid { return s }

func (k *countingKernel) Rotate(s kernel.Solid, _, _, _ float64) kernel.Solid {
	k.rotations++
	return s
}

func (k *countingKernel) ToMesh(_ kernel.Solid) (*kernel.Mesh, error) {
	return &kernel.Mesh{Vertices: []float32{0, 0, 0}, Indices: []uint32{0, 0, 0}}, nil
}

func (k *countingKernel) ExportSTL(_ kernel.Solid, _ string) error         { return nil }
func (k *countingKernel) ExportPlanDXF(_ []kernel.Outline, _ string) error { return nil }

func scenarioA(dir stair.Direction) stair.Spec {
	return stair.Spec{CenterPoleDiameter: 5.62, OverallHeight: 144, OutsideDiameter: 72, TotalRotation: 450, Direction: dir}
}

func build(t *testing.T, s stair.Spec, landing int) []geometry.Placement {
	t.Helper()
	d := stair.Derive(s)
	if landing != stair.NoMidLanding {
		var err error
		d, err = d.WithMidLanding(s, landing)
		if err != nil {
			t.Fatalf("WithMidLanding: %v", err)
		}
	}
	ps, err := geometry.Build(s, d, geometry.DefaultOptions())
	if err != nil {
		t.Fatalf("geometry.Build: %v", err)
	}
	return ps
}

func TestPartNamesAndTags(t *testing.T) {
	k := &countingKernel{}
	s := stair.Spec{CenterPoleDiameter: 5.62, OverallHeight: 160, OutsideDiameter: 72, TotalRotation: 540, Direction: stair.Clockwise}
	ps := build(t, s, 9)

	meshes, err := tessellate.Tessellate(ps, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != len(ps) {
		t.Fatalf("expected %d meshes, got %d", len(ps), len(meshes))
	}

	want := map[string]string{
		"pole":           "steel-251",
		"tread-01":       "steel-251",
		"tread-03":       "steel-251",
		"mid-landing-10": "red-1",
		"tread-20":       "steel-251",
		"top-landing":    "green-3",
	}
	got := map[string]string{}
	for _, m := range meshes {
		if _, dup := got[m.PartName]; dup {
			t.Errorf("duplicate part name %q", m.PartName)
		}
		got[m.PartName] = m.Tag
	}
	for name, tag := range want {
		if got[name] != tag {
			t.Errorf("part %q: tag = %q, want %q", name, got[name], tag)
		}
	}

	if k.cylinders != 1 {
		t.Errorf("cylinders = %d, want 1", k.cylinders)
	}
	if k.boxes != 1 {
		t.Errorf("boxes = %d, want 1", k.boxes)
	}
	if k.extrusions != len(ps)-2 {
		t.Errorf("extrusions = %d, want %d", k.extrusions, len(ps)-2)
	}
}

func TestTagColor(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"steel-251", "#505050"},
		{"red-1", "#FF0000"},
		{"green-3", "#00FF00"},
		{"unknown", "#4A90D9"},
	}
	for _, tt := range tests {
		if got := tessellate.TagColor(tt.tag); got != tt.want {
			t.Errorf("TagColor(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

// outlineBounds returns the plan extent of a placement.
func outlineBounds(p geometry.Placement) (min, max [3]float64) {
	for i, v := range p.Outline {
		if i == 0 || v.X < min[0] {
			min[0] = v.X
		}
		if i == 0 || v.Y < min[1] {
			min[1] = v.Y
		}
		if i == 0 || v.X > max[0] {
			max[0] = v.X
		}
		if i == 0 || v.Y > max[1] {
			max[1] = v.Y
		}
	}
	min[2], max[2] = p.Z, p.Top()
	return min, max
}

func assertNear(t *testing.T, label string, got, want [3]float64, tol float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("%s[%d] = %.4f, want %.4f", label, i, got[i], want[i])
		}
	}
}

// Solids must sit exactly where the plan outlines say they are.
func TestSolidsMatchOutlines(t *testing.T) {
	k := newKernel()
	for _, dir := range []stair.Direction{stair.Clockwise, stair.CounterClockwise} {
		t.Run(dir.String(), func(t *testing.T) {
			ps := build(t, scenarioA(dir), stair.NoMidLanding)
			parts, err := tessellate.Solids(ps, k)
			if err != nil {
				t.Fatalf("Solids failed: %v", err)
			}
			for _, part := range parts[1:] {
				p := part.Placement
				wantMin, wantMax := outlineBounds(p)
				gotMin, gotMax := part.Solid.BoundingBox()
				assertNear(t, p.Name()+" min", gotMin, wantMin, 0.01)
				assertNear(t, p.Name()+" max", gotMax, wantMax, 0.01)
			}
		})
	}
}

func TestPoleMesh(t *testing.T) {
	k := newKernel()
	ps := build(t, scenarioA(stair.Clockwise), stair.NoMidLanding)

	meshes, err := tessellate.Tessellate(ps[:1], k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	m := meshes[0]
	if m.IsEmpty() {
		t.Fatal("pole mesh should not be empty")
	}
	if m.PartName != "pole" {
		t.Errorf("expected PartName %q, got %q", "pole", m.PartName)
	}
	_, max := m.Bounds()
	if math.Abs(float64(max[2])-144) > 3 {
		t.Errorf("pole top = %.2f, want ~144", max[2])
	}
}

func TestAssemble(t *testing.T) {
	k := newKernel()
	ps := build(t, scenarioA(stair.CounterClockwise), stair.NoMidLanding)
	parts, err := tessellate.Solids(ps, k)
	if err != nil {
		t.Fatalf("Solids failed: %v", err)
	}

	all, err := tessellate.Assemble(parts, k)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	min, max := all.BoundingBox()
	if math.Abs(min[2]) > 0.01 || math.Abs(max[2]-144) > 0.01 {
		t.Errorf("assembly z range = [%.3f, %.3f], want [0, 144]", min[2], max[2])
	}
	if max[0] < 35.9 {
		t.Errorf("assembly should reach the outside radius, max x = %.3f", max[0])
	}

	if _, err := tessellate.Assemble(nil, k); err == nil {
		t.Error("expected error assembling no parts")
	}
}

func TestUnsupportedKind(t *testing.T) {
	p := geometry.Placement{Kind: geometry.ShapeKind(42)}
	if _, err := tessellate.Solids([]geometry.Placement{p}, &countingKernel{}); err == nil {
		t.Fatal("expected error for unknown placement kind")
	}
}

func TestPlanOutlines(t *testing.T) {
	ps := build(t, scenarioA(stair.Clockwise), stair.NoMidLanding)
	outs := tessellate.PlanOutlines(ps)
	if len(outs) != len(ps) {
		t.Fatalf("expected %d outlines, got %d", len(ps), len(outs))
	}
	for i, o := range outs {
		if len(o) != len(ps[i].Outline) {
			t.Errorf("outline %d has %d points, want %d", i, len(o), len(ps[i].Outline))
		}
	}
}
