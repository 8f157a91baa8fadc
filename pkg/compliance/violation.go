// Package compliance checks a staircase against code minimums and maximums
// and proposes corrected inputs for the checks that can be repaired.
// Findings are returned as data; nothing in this package fails by error.
package compliance

import (
	"fmt"

	"github.com/chazu/spiral/pkg/stair"
)

// Severity tells the caller whether a finding can be repaired.
type Severity int

const (
	SeverityFatal Severity = iota // caller must change raw inputs and start over
	SeveritySoft                  // repairable, ignorable, or abortable
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeveritySoft:
		return "soft"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Kind identifies which rule a violation came from.
type Kind int

const (
	HeightOutOfRange Kind = iota
	OutsideDiameterOutOfRange
	RotationOutOfRange
	ClearWidthTooNarrow
	WalklineRadiusExceeded
	WalklineWidthTooNarrow
	MidLandingRequired
)

func (k Kind) String() string {
	switch k {
	case HeightOutOfRange:
		return "height-out-of-range"
	case OutsideDiameterOutOfRange:
		return "outside-diameter-out-of-range"
	case RotationOutOfRange:
		return "rotation-out-of-range"
	case ClearWidthTooNarrow:
		return "clear-width-too-narrow"
	case WalklineRadiusExceeded:
		return "walkline-radius-exceeded"
	case WalklineWidthTooNarrow:
		return "walkline-width-too-narrow"
	case MidLandingRequired:
		return "mid-landing-required"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Suggestion is one proposed replacement value for a Spec field.
type Suggestion struct {
	Field stair.Field `json:"field"`
	Value float64     `json:"value"`
	Label string      `json:"label"`
}

// Apply returns spec with the suggested value substituted.
func (s Suggestion) Apply(spec stair.Spec) stair.Spec {
	return spec.With(s.Field, s.Value)
}

func (s Suggestion) String() string {
	if s.Label != "" {
		return s.Label
	}
	return fmt.Sprintf("set %s to %.2f %s", s.Field, s.Value, s.Field.Unit())
}

// Violation is one failed check.
type Violation struct {
	Kind        Kind         `json:"kind"`
	Severity    Severity     `json:"severity"`
	Message     string       `json:"message"`
	Actual      float64      `json:"actual"`
	Limit       float64      `json:"limit"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Kind, v.Message)
}

// Fatal reports whether the violation is a hard stop.
func (v Violation) Fatal() bool {
	return v.Severity == SeverityFatal
}

// Report splits every finding for a spec into fatal and soft lists.
type Report struct {
	Derived stair.Derived `json:"derived"`
	Fatal   []Violation   `json:"fatal,omitempty"`
	Soft    []Violation   `json:"soft,omitempty"`
}

// Clean reports whether the spec passed every check.
func (r Report) Clean() bool {
	return len(r.Fatal) == 0 && len(r.Soft) == 0
}

// All returns fatal then soft findings in check order.
func (r Report) All() []Violation {
	out := make([]Violation, 0, len(r.Fatal)+len(r.Soft))
	out = append(out, r.Fatal...)
	return append(out, r.Soft...)
}
