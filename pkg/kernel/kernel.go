// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling, meshing and file export behind
// this interface so the placement walk does not depend on a backend.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Outline is a closed plan-view polygon, counter-clockwise, one [x, y]
// pair per vertex.
type Outline [][2]float64

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Every primitive has its base on z=0.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Extrude(outline Outline, height float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Output
	ToMesh(s Solid) (*Mesh, error)
	ExportSTL(s Solid, path string) error
	ExportPlanDXF(outlines []Outline, path string) error
}
