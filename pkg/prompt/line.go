package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/spiral/pkg/repair"
)

// ErrNoInput is returned when the input ends before a valid answer.
var ErrNoInput = errors.New("prompt: input closed before a decision was made")

// Line asks for decisions one line at a time.
type Line struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewLine reads answers from in and writes questions to out.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewScanner(in), out: out}
}

// Decide implements repair.DecisionProvider. Invalid answers are reported
// and asked again.
func (l *Line) Decide(cp repair.Checkpoint) (repair.Decision, error) {
	fmt.Fprintln(l.out, RenderCheckpoint(cp))
	for {
		fmt.Fprint(l.out, question(cp))
		if !l.in.Scan() {
			if err := l.in.Err(); err != nil {
				return repair.Decision{}, fmt.Errorf("prompt: %w", err)
			}
			return repair.Decision{}, ErrNoInput
		}
		d, err := parseAnswer(cp, l.in.Text())
		if err == nil && !cp.Allows(d) {
			err = fmt.Errorf("%s is not allowed here", d)
		}
		if err != nil {
			fmt.Fprintln(l.out, errorStyle.Render(err.Error()))
			continue
		}
		return d, nil
	}
}

func question(cp repair.Checkpoint) string {
	if cp.Kind == repair.CheckpointLanding {
		lo, hi := cp.Treads()
		return fmt.Sprintf("Tread number for the mid-landing (%d-%d), [i]gnore or [a]bort: ", lo, hi)
	}
	n := len(cp.Violation.Suggestions)
	switch n {
	case 0:
		return "[i]gnore or [a]bort: "
	case 1:
		return "[1] accept, [i]gnore or [a]bort: "
	}
	return fmt.Sprintf("[1-%d] accept, [i]gnore or [a]bort: ", n)
}

// parseAnswer maps a typed answer to a decision. Numbers pick a suggestion,
// or a tread at a landing checkpoint.
func parseAnswer(cp repair.Checkpoint, text string) (repair.Decision, error) {
	answer := strings.ToLower(strings.TrimSpace(text))
	switch answer {
	case "":
		return repair.Decision{}, fmt.Errorf("please enter an answer")
	case "i", "ignore":
		return repair.Ignore(), nil
	case "a", "abort", "q", "quit":
		return repair.Abort(), nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return repair.Decision{}, fmt.Errorf("unrecognized answer %q", text)
	}
	if cp.Kind == repair.CheckpointLanding {
		return repair.PlaceLanding(n), nil
	}
	return repair.Accept(n - 1), nil
}
