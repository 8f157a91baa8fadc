// Package prompt supplies repair.DecisionProvider implementations for the
// command line: fixed policies for unattended runs, a line prompter and a
// full-screen picker.
package prompt

import (
	"fmt"
	"strings"

	"github.com/chazu/spiral/pkg/repair"
)

// Policy is a fixed answer applied to every checkpoint.
type Policy string

const (
	PolicyAccept Policy = "accept"
	PolicyIgnore Policy = "ignore"
	PolicyAbort  Policy = "abort"
)

// ParsePolicy accepts accept, ignore or abort in any case.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyAccept, PolicyIgnore, PolicyAbort:
		return p, nil
	}
	return "", fmt.Errorf("invalid policy %q, expected accept, ignore or abort", s)
}

// Decide implements repair.DecisionProvider. Accept takes the first
// suggestion and places a required landing at DefaultLandingTread; a
// violation without suggestions is ignored.
func (p Policy) Decide(cp repair.Checkpoint) (repair.Decision, error) {
	switch p {
	case PolicyAccept:
		if cp.Kind == repair.CheckpointLanding {
			return repair.PlaceLanding(DefaultLandingTread(cp)), nil
		}
		if len(cp.Violation.Suggestions) > 0 {
			return repair.Accept(0), nil
		}
		return repair.Ignore(), nil
	case PolicyIgnore:
		return repair.Ignore(), nil
	case PolicyAbort:
		return repair.Abort(), nil
	}
	return repair.Decision{}, fmt.Errorf("invalid policy %q", string(p))
}

// DefaultLandingTread is the middle tread of the stair.
func DefaultLandingTread(cp repair.Checkpoint) int {
	lo, hi := cp.Treads()
	return lo + (hi-lo)/2
}
