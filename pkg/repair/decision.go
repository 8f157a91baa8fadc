package repair

import (
	"fmt"

	"github.com/chazu/spiral/pkg/compliance"
	"github.com/chazu/spiral/pkg/stair"
)

// Action is what the caller chose at a checkpoint.
type Action int

const (
	ActionAccept Action = iota
	ActionIgnore
	ActionAbort
	ActionPlaceLanding
)

func (a Action) String() string {
	switch a {
	case ActionAccept:
		return "accept"
	case ActionIgnore:
		return "ignore"
	case ActionAbort:
		return "abort"
	case ActionPlaceLanding:
		return "place-landing"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision is one answer to a Checkpoint.
type Decision struct {
	Action      Action
	Alternative int // index into the violation's suggestions, for ActionAccept
	Tread       int // one-based tread number, for ActionPlaceLanding
}

// Accept applies suggestion alt of the current violation.
func Accept(alt int) Decision { return Decision{Action: ActionAccept, Alternative: alt} }

// Ignore proceeds with the violation recorded.
func Ignore() Decision { return Decision{Action: ActionIgnore} }

// Abort ends the run.
func Abort() Decision { return Decision{Action: ActionAbort} }

// PlaceLanding puts the mid-landing at one-based tread number tread.
func PlaceLanding(tread int) Decision { return Decision{Action: ActionPlaceLanding, Tread: tread} }

func (d Decision) String() string {
	switch d.Action {
	case ActionAccept:
		return fmt.Sprintf("accept #%d", d.Alternative+1)
	case ActionPlaceLanding:
		return fmt.Sprintf("place landing at tread %d", d.Tread)
	default:
		return d.Action.String()
	}
}

// CheckpointKind distinguishes a soft violation from the landing choice.
type CheckpointKind int

const (
	CheckpointViolation CheckpointKind = iota
	CheckpointLanding
)

func (k CheckpointKind) String() string {
	switch k {
	case CheckpointViolation:
		return "violation"
	case CheckpointLanding:
		return "landing"
	default:
		return fmt.Sprintf("CheckpointKind(%d)", int(k))
	}
}

// Checkpoint is what the loop hands the caller while it waits for a
// decision. Spec and Derived are the current, possibly already repaired,
// values.
type Checkpoint struct {
	Kind      CheckpointKind
	Violation compliance.Violation
	Spec      stair.Spec
	Derived   stair.Derived
	Attempt   int // suggestions already accepted for this check
}

// Treads returns the valid range of a PlaceLanding answer.
func (c Checkpoint) Treads() (lo, hi int) {
	return 1, c.Derived.NumberOfTreads
}

// Allows reports whether d is a legal answer to c.
func (c Checkpoint) Allows(d Decision) bool {
	switch d.Action {
	case ActionIgnore, ActionAbort:
		return true
	case ActionAccept:
		return c.Kind == CheckpointViolation &&
			d.Alternative >= 0 && d.Alternative < len(c.Violation.Suggestions)
	case ActionPlaceLanding:
		lo, hi := c.Treads()
		return c.Kind == CheckpointLanding && d.Tread >= lo && d.Tread <= hi
	}
	return false
}

// DecisionProvider answers checkpoints. Implementations block until the
// answer is known.
type DecisionProvider interface {
	Decide(cp Checkpoint) (Decision, error)
}

// DecisionFunc adapts a plain function to a DecisionProvider.
type DecisionFunc func(cp Checkpoint) (Decision, error)

func (f DecisionFunc) Decide(cp Checkpoint) (Decision, error) { return f(cp) }
