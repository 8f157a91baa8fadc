// Package catalog holds the stock center-pole sizes a spiral stair can be
// fabricated from.
package catalog

import (
	"fmt"
	"math"
)

// matchTolerance is how close an input must be to a stock size to count as
// that size.
const matchTolerance = 0.001

// Diameter is one stock pole size.
type Diameter struct {
	Value float64 `json:"value" yaml:"value"` // outside diameter in inches
	Label string  `json:"label" yaml:"label"` // e.g. "6.625 (6in. pipe)"
}

func (d Diameter) String() string {
	return d.Label
}

// stock is kept in ascending order; Nearest relies on it for tie-breaking.
var stock = []Diameter{
	{3, "3 (tube)"},
	{3.5, "3.5 (tube)"},
	{4, "4 (tube)"},
	{4.5, "4.5 (tube)"},
	{5, "5 (tube)"},
	{5.56, "5.56 (tube)"},
	{6, "6 (tube)"},
	{6.625, "6.625 (6in. pipe)"},
	{8, "8 (tube)"},
	{8.625, "8.625 (8in. pipe)"},
	{10.75, "10.75 (10in. pipe)"},
	{12.75, "12.75 (12in. pipe)"},
}

// Entries returns a copy of the stock table in ascending order.
func Entries() []Diameter {
	out := make([]Diameter, len(stock))
	copy(out, stock)
	return out
}

// Labels returns the human-readable label of every stock size.
func Labels() []string {
	labels := make([]string, len(stock))
	for i, d := range stock {
		labels[i] = d.Label
	}
	return labels
}

// Nearest returns the stock size closest to v. Ties go to the smaller size.
func Nearest(v float64) Diameter {
	best := stock[0]
	bestDist := math.Abs(best.Value - v)
	for _, d := range stock[1:] {
		// Strict less-than keeps the first (smaller) entry on ties.
		if dist := math.Abs(d.Value - v); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

// AtLeast returns the smallest stock size that is >= v. ok is false when
// every stock size is smaller than v.
func AtLeast(v float64) (d Diameter, ok bool) {
	for _, d := range stock {
		if d.Value >= v-matchTolerance {
			return d, true
		}
	}
	return Diameter{}, false
}

// Contains reports whether v matches a stock size.
func Contains(v float64) bool {
	for _, d := range stock {
		if math.Abs(d.Value-v) < matchTolerance {
			return true
		}
	}
	return false
}

// Lookup returns the stock entry matching v.
func Lookup(v float64) (Diameter, error) {
	for _, d := range stock {
		if math.Abs(d.Value-v) < matchTolerance {
			return d, nil
		}
	}
	return Diameter{}, fmt.Errorf("catalog: %.3f in is not a stock pole size", v)
}
