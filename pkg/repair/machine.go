package repair

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Loop states.
const (
	StateChecking         = "checking"
	StateAwaitingDecision = "awaiting_decision"
	StateRepaired         = "repaired"
	StateAborted          = "aborted"
	StateReady            = "ready"
)

// Loop events.
const (
	EventViolation = "violation"
	EventAccept    = "accept"
	EventRecheck   = "recheck"
	EventIgnore    = "ignore"
	EventAbort     = "abort"
	EventPass      = "pass"
)

// Transition is one recorded state change.
type Transition struct {
	From  string `json:"from"`
	Event string `json:"event"`
	To    string `json:"to"`
}

func (t Transition) String() string {
	return fmt.Sprintf("%s --%s--> %s", t.From, t.Event, t.To)
}

// loopContext is the machine context. The loop keeps its own data outside
// the machine; the context only carries the run ID for tracing.
type loopContext struct {
	RunID string
}

// machine wraps the statekit interpreter and records every transition.
type machine struct {
	interpreter *statekit.Interpreter[loopContext]
	history     []Transition
}

func newMachine(runID string) (*machine, error) {
	builder := statekit.NewMachine[loopContext]("repair-loop").
		WithInitial(statekit.StateID(StateChecking)).
		WithContext(loopContext{RunID: runID})

	builder.State(StateChecking).
		On(EventViolation).Target(StateAwaitingDecision).
		On(EventPass).Target(StateReady).
		Done()

	builder.State(StateAwaitingDecision).
		On(EventAccept).Target(StateRepaired).
		On(EventIgnore).Target(StateChecking).
		On(EventAbort).Target(StateAborted).
		Done()

	builder.State(StateRepaired).
		On(EventRecheck).Target(StateChecking).
		Done()

	// Aborted and Ready accept no events.
	builder.State(StateAborted).Done()
	builder.State(StateReady).Done()

	def, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build repair machine: %w", err)
	}

	interp := statekit.NewInterpreter(def)
	interp.Start()
	return &machine{interpreter: interp}, nil
}

// Current returns the active state.
func (m *machine) Current() string {
	return string(m.interpreter.State().Value)
}

// fire sends event and fails when the machine did not move.
func (m *machine) fire(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := m.Current()
	if before == after {
		return fmt.Errorf("repair: event %q not allowed in state %q", event, before)
	}
	m.history = append(m.history, Transition{From: before, Event: event, To: after})
	return nil
}

// History returns a copy of the recorded transitions.
func (m *machine) History() []Transition {
	return append([]Transition(nil), m.history...)
}
