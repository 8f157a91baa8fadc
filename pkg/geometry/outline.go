package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// polar returns the point at radius r and angle deg.
func polar(r, deg float64) r2.Vec {
	a := radians(deg)
	return r2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
}

// annulusSector outlines the ring slice between inner and outer from start
// to end. segments <= 1 gives the quadrilateral through the four corners.
// Sweeps wider than 90 degrees always get at least one segment per 90.
func annulusSector(inner, outer, start, end float64, segments int) []r2.Vec {
	if need := int(math.Ceil(math.Abs(end-start) / 90)); segments < need {
		segments = need
	}
	if segments < 1 {
		segments = 1
	}
	pts := make([]r2.Vec, 0, 2*(segments+1))
	step := (end - start) / float64(segments)
	for k := 0; k <= segments; k++ {
		pts = append(pts, polar(outer, start+step*float64(k)))
	}
	for k := segments; k >= 0; k-- {
		pts = append(pts, polar(inner, start+step*float64(k)))
	}
	return counterClockwise(pts)
}

// panel outlines the top landing: a length x width rectangle with one
// short edge on the pole axis, its long axis along angle, extending
// sideways in the direction of travel.
func panel(angle, sign, length, width float64) []r2.Vec {
	along := polar(1, angle)
	side := polar(1, angle+90*sign)
	a := r2.Vec{}
	b := r2.Add(a, r2.Scale(length, along))
	c := r2.Add(b, r2.Scale(width, side))
	d := r2.Add(a, r2.Scale(width, side))
	return counterClockwise([]r2.Vec{a, b, c, d})
}

func circle(r float64, n int) []r2.Vec {
	pts := make([]r2.Vec, n)
	for i := range pts {
		pts[i] = polar(r, 360*float64(i)/float64(n))
	}
	return pts
}

// signedArea is positive for counter-clockwise polygons.
func signedArea(pts []r2.Vec) float64 {
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += r2.Cross(p, q)
	}
	return sum / 2
}

func counterClockwise(pts []r2.Vec) []r2.Vec {
	if signedArea(pts) >= 0 {
		return pts
	}
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
	return pts
}
