package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/spiral/pkg/stair"
)

const scenarioA = `(staircase :pole 5.62 :height 144 :outside 72 :rotation 450 :direction :clockwise)`

func TestEvaluateRejectsSource(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"empty", "", "no staircase form"},
		{"blank", "   \n\t  \n  ", "no staircase form"},
		{"only definitions", "(def x 10)\n(+ x 2)", "no staircase form"},
		{"unbalanced", "(staircase :pole 5", ""},
		{"unbound height", "(staircase :pole 5.62 :height undefined-height :outside 72 :rotation 450)", ""},
	}
	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("Evaluate() fatal error = %v", err)
			}
			if res.OK() {
				t.Fatalf("Evaluate(%q) accepted the source", tt.source)
			}
			if res.Errors[0].Message == "" {
				t.Error("eval error without a message")
			}
			if tt.want != "" && !strings.Contains(res.Errors[0].Message, tt.want) {
				t.Errorf("message = %q, want containing %q", res.Errors[0].Message, tt.want)
			}
		})
	}
}

func TestEvaluateDefinitionsBeforeStaircase(t *testing.T) {
	res, err := NewEngine().Evaluate(`
(def od 72)
(def h (feet 12))
(staircase :pole 5.62 :height h :outside od :rotation (+ 360 90))
`)
	if err != nil {
		t.Fatalf("Evaluate() fatal error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("eval errors: %v", res.Errors)
	}
	want := stair.Spec{
		CenterPoleDiameter: 5.62,
		OverallHeight:      144,
		OutsideDiameter:    72,
		TotalRotation:      450,
		Direction:          stair.Clockwise,
	}
	if res.Spec != want {
		t.Errorf("spec = %v, want %v", res.Spec, want)
	}
}

func TestEvaluateErrorLine(t *testing.T) {
	res, err := NewEngine().Evaluate("(def od 72)\n(staircase :pole 5.62")
	if err != nil {
		t.Fatalf("Evaluate() fatal error = %v", err)
	}
	if res.OK() {
		t.Fatal("expected an eval error")
	}
	// zygomys only reports a line for some parse failures.
	if e := res.Errors[0]; e.Line > 2 {
		t.Errorf("line = %d, source has 2 lines", e.Line)
	}
}

func TestEvalErrorString(t *testing.T) {
	tests := []struct {
		err  EvalError
		want string
	}{
		{EvalError{Line: 5, Message: "staircase: missing :outside"}, "line 5: staircase: missing :outside"},
		{EvalError{Message: "no staircase form in source"}, "no staircase form in source"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestEvaluateRepeatable(t *testing.T) {
	eng := NewEngine()
	var first stair.Spec
	for i := 0; i < 5; i++ {
		res, err := eng.Evaluate(scenarioA)
		if err != nil || !res.OK() {
			t.Fatalf("run %d: %v %v", i, err, res)
		}
		if i == 0 {
			first = res.Spec
		} else if res.Spec != first {
			t.Errorf("run %d: spec %v, first run %v", i, res.Spec, first)
		}
	}
}

func TestWaitTimesOut(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(1)
	never := make(chan evalResult)

	done := make(chan error, 1)
	go func() {
		_, err := waitWithTimeout(never, 50*time.Millisecond, 1, &mu, &gen)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "timed out") {
			t.Errorf("err = %v, want timeout", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitWithTimeout did not return")
	}
}

func TestWaitDiscardsStaleGeneration(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2)
	ch := make(chan evalResult, 1)
	ch <- evalResult{result: &EvalResult{}}

	if _, err := waitWithTimeout(ch, time.Second, 1, &mu, &gen); err == nil || !strings.Contains(err.Error(), "superseded") {
		t.Errorf("err = %v, want superseded", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"error on line 12: missing paren", 12, "missing paren"},
		{"line 3: staircase: pole must be a positive number", 3, "pole must be a positive number"},
		{"some generic error", 0, "some generic error"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1", len(errs))
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if !strings.Contains(errs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
