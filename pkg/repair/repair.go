// Package repair runs the constraint repair loop: it walks the repairable
// compliance checks in order, asks a DecisionProvider what to do about each
// violation, re-derives after every accepted fix, and finally settles the
// mid-landing placement.
package repair

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chazu/spiral/pkg/compliance"
	"github.com/chazu/spiral/pkg/stair"
)

// DefaultMaxAttempts bounds accepted suggestions per check. Past the bound
// the violation is recorded as ignored.
const DefaultMaxAttempts = 3

var (
	// ErrAborted is returned when the caller chose Abort. It is a deliberate
	// outcome; no partial result is returned with it.
	ErrAborted = errors.New("repair: aborted by caller")

	// ErrInvalidDecision is returned when a provider answers a checkpoint
	// with a decision the checkpoint does not allow.
	ErrInvalidDecision = errors.New("repair: invalid decision")
)

// FatalError carries the hard-stop violations that kept a spec out of the
// repair loop.
type FatalError struct {
	Violations []compliance.Violation
}

func (e *FatalError) Error() string {
	if len(e.Violations) == 1 {
		return "repair: " + e.Violations[0].Message
	}
	return fmt.Sprintf("repair: %d fatal violations, first: %s", len(e.Violations), e.Violations[0].Message)
}

// Fix records one accepted suggestion.
type Fix struct {
	Kind       compliance.Kind       `json:"kind"`
	Suggestion compliance.Suggestion `json:"suggestion"`
	Previous   float64               `json:"previous"`
}

func (f Fix) String() string {
	return fmt.Sprintf("%s: %s changed from %.3f to %.3f",
		f.Kind, f.Suggestion.Field, f.Previous, f.Suggestion.Value)
}

// Result is the outcome of a completed run.
type Result struct {
	RunID       string                 `json:"run_id"`
	Spec        stair.Spec             `json:"spec"`
	Derived     stair.Derived          `json:"derived"`
	Ignored     []compliance.Violation `json:"ignored,omitempty"`
	Accepted    []Fix                  `json:"accepted,omitempty"`
	Transitions []Transition           `json:"transitions"`
	Summary     Summary                `json:"summary"`
}

// Options configures a run.
type Options struct {
	Logger      *slog.Logger
	MaxAttempts int
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger used for transitions and accepted fixes.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// Repair runs the loop for spec. A nil provider ignores every checkpoint.
func Repair(spec stair.Spec, provider DecisionProvider, opts ...Option) (Result, error) {
	o := Options{MaxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if provider == nil {
		provider = DecisionFunc(func(Checkpoint) (Decision, error) { return Ignore(), nil })
	}

	derived, fatal := compliance.Validate(spec)
	if len(fatal) > 0 {
		return Result{}, &FatalError{Violations: fatal}
	}

	runID := uuid.NewString()
	m, err := newMachine(runID)
	if err != nil {
		return Result{}, err
	}
	l := &loop{
		m:        m,
		provider: provider,
		opts:     o,
		log:      o.Logger.With("run_id", runID),
		spec:     spec,
		derived:  derived,
	}

	l.log.Debug("repair started", "spec", spec.String())
	for _, c := range compliance.Checks() {
		if err := l.runCheck(c); err != nil {
			return Result{}, err
		}
	}
	if err := l.settleLanding(); err != nil {
		return Result{}, err
	}
	if err := l.m.fire(EventPass); err != nil {
		return Result{}, err
	}
	l.log.Info("repair ready",
		"accepted", len(l.accepted),
		"ignored", len(l.ignored),
		"mid_landing", l.derived.HasMidLanding())

	return Result{
		RunID:       runID,
		Spec:        l.spec,
		Derived:     l.derived,
		Ignored:     l.ignored,
		Accepted:    l.accepted,
		Transitions: l.m.History(),
		Summary:     Summarize(l.spec, l.derived, l.ignored),
	}, nil
}

// loop holds the mutable state of one run.
type loop struct {
	m        *machine
	provider DecisionProvider
	opts     Options
	log      *slog.Logger

	spec     stair.Spec
	derived  stair.Derived
	ignored  []compliance.Violation
	accepted []Fix
}

// runCheck re-runs c until it passes, is ignored, or the run aborts.
// Earlier checks are never revisited.
func (l *loop) runCheck(c compliance.Check) error {
	for attempt := 0; ; attempt++ {
		v := c.Run(l.spec, l.derived)
		if v == nil {
			return nil
		}
		if err := l.m.fire(EventViolation); err != nil {
			return err
		}
		if attempt >= l.opts.MaxAttempts {
			l.log.Warn("accept bound reached, recording violation as ignored",
				"check", c.Kind.String(), "attempts", attempt)
			return l.ignore(*v)
		}

		cp := Checkpoint{
			Kind:      CheckpointViolation,
			Violation: *v,
			Spec:      l.spec,
			Derived:   l.derived,
			Attempt:   attempt,
		}
		d, err := l.decide(cp)
		if err != nil {
			return err
		}

		switch d.Action {
		case ActionIgnore:
			return l.ignore(*v)
		case ActionAbort:
			return l.abort()
		case ActionAccept:
			if err := l.accept(*v, v.Suggestions[d.Alternative]); err != nil {
				return err
			}
		}
	}
}

// settleLanding presents the landing checkpoint when the height needs one.
func (l *loop) settleLanding() error {
	v := compliance.CheckMidLanding(l.spec, l.derived)
	if v == nil {
		return nil
	}
	if l.derived.NumberOfTreads-2 <= 0 {
		return fmt.Errorf("%w: %d treads", stair.ErrLandingInfeasible, l.derived.NumberOfTreads)
	}
	if err := l.m.fire(EventViolation); err != nil {
		return err
	}

	d, err := l.decide(Checkpoint{
		Kind:      CheckpointLanding,
		Violation: *v,
		Spec:      l.spec,
		Derived:   l.derived,
	})
	if err != nil {
		return err
	}

	switch d.Action {
	case ActionIgnore:
		return l.ignore(*v)
	case ActionAbort:
		return l.abort()
	}

	index := d.Tread - 1
	landed, err := l.derived.WithMidLanding(l.spec, index)
	if err != nil {
		return err
	}
	l.derived = landed
	l.log.Info("mid-landing placed",
		"tread", d.Tread,
		"rotation_per_tread", landed.RotationPerTread)
	if index == landed.NumberOfTreads-1 {
		l.log.Warn("mid-landing is in the top landing slot and will not be built", "tread", d.Tread)
	}
	if err := l.m.fire(EventAccept); err != nil {
		return err
	}
	if err := l.m.fire(EventRecheck); err != nil {
		return err
	}
	return l.recheckLandingWidth(index)
}

// recheckLandingWidth re-runs the walkline width check with the narrower
// tread angle a landing leaves. Only pole changes are offered, since the
// landing angle does not depend on the pole; a rotation change would have to
// be derived again without the landing.
func (l *loop) recheckLandingWidth(index int) error {
	for attempt := 0; ; attempt++ {
		v := compliance.CheckWalklineWidth(l.spec, l.derived)
		if v == nil {
			return nil
		}
		var poleOnly []compliance.Suggestion
		for _, sg := range v.Suggestions {
			if sg.Field == stair.FieldCenterPoleDiameter {
				poleOnly = append(poleOnly, sg)
			}
		}
		v.Suggestions = poleOnly

		if err := l.m.fire(EventViolation); err != nil {
			return err
		}
		if attempt >= l.opts.MaxAttempts {
			l.log.Warn("accept bound reached, recording violation as ignored",
				"check", v.Kind.String(), "attempts", attempt)
			return l.ignore(*v)
		}

		d, err := l.decide(Checkpoint{
			Kind:      CheckpointViolation,
			Violation: *v,
			Spec:      l.spec,
			Derived:   l.derived,
			Attempt:   attempt,
		})
		if err != nil {
			return err
		}

		switch d.Action {
		case ActionIgnore:
			return l.ignore(*v)
		case ActionAbort:
			return l.abort()
		case ActionAccept:
			if err := l.accept(*v, v.Suggestions[d.Alternative]); err != nil {
				return err
			}
			if l.derived, err = l.derived.WithMidLanding(l.spec, index); err != nil {
				return err
			}
		}
	}
}

func (l *loop) decide(cp Checkpoint) (Decision, error) {
	d, err := l.provider.Decide(cp)
	if err != nil {
		return Decision{}, fmt.Errorf("repair: decision for %s: %w", cp.Violation.Kind, err)
	}
	if !cp.Allows(d) {
		return Decision{}, fmt.Errorf("%w: %s at %s checkpoint (%s)",
			ErrInvalidDecision, d, cp.Kind, cp.Violation.Kind)
	}
	l.log.Debug("decision", "checkpoint", cp.Kind.String(), "kind", cp.Violation.Kind.String(), "decision", d.String())
	return d, nil
}

func (l *loop) ignore(v compliance.Violation) error {
	l.ignored = append(l.ignored, v)
	l.log.Info("violation ignored", "kind", v.Kind.String(), "message", v.Message)
	return l.m.fire(EventIgnore)
}

func (l *loop) abort() error {
	if err := l.m.fire(EventAbort); err != nil {
		return err
	}
	l.log.Info("repair aborted")
	return ErrAborted
}

// accept applies s, re-derives, and returns the machine to checking.
func (l *loop) accept(v compliance.Violation, s compliance.Suggestion) error {
	prev := l.spec.Get(s.Field)
	next := s.Apply(l.spec)

	// A repair must not push a raw input out of its absolute range.
	derived, fatal := compliance.Validate(next)
	if len(fatal) > 0 {
		return &FatalError{Violations: fatal}
	}

	l.spec, l.derived = next, derived
	l.accepted = append(l.accepted, Fix{Kind: v.Kind, Suggestion: s, Previous: prev})
	l.log.Info("suggestion accepted",
		"kind", v.Kind.String(),
		"field", s.Field.String(),
		"from", prev,
		"to", s.Value)

	if err := l.m.fire(EventAccept); err != nil {
		return err
	}
	return l.m.fire(EventRecheck)
}
