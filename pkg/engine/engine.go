// Package engine evaluates staircase source files. It wraps zygomys in a
// sandboxed environment and produces a stair.Spec from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/spiral/pkg/stair"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a note about a source that still evaluated.
type EvalWarning struct {
	Message string
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Spec     stair.Spec
	Name     string
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the source produced a usable spec.
func (r *EvalResult) OK() bool {
	return r != nil && len(r.Errors) == 0
}

// Engine wraps the zygomys interpreter for staircase sources.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	// DefaultDirection is used when a staircase form omits :direction.
	DefaultDirection stair.Direction
	// Timeout bounds one evaluation. Zero means EvalTimeout.
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{DefaultDirection: stair.Clockwise}
}

// Evaluate takes Lisp source code and produces the staircase it declares.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns a result with an empty Errors slice
//   - On parse/eval failure: returns a result whose Errors are populated
//   - On fatal failure (timeout, panic, superseded): returns nil + error
func (e *Engine) Evaluate(source string) (*EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	dir := e.DefaultDirection
	limit := e.Timeout
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, err := evaluate(source, dir)
		ch <- evalResult{result: res, err: err}
	}()

	return waitWithTimeout(ch, limit, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func evaluate(source string, dir stair.Direction) (*EvalResult, error) {
	if strings.TrimSpace(source) == "" {
		return &EvalResult{Errors: []EvalError{{Message: "no staircase form in source"}}}, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	c := &collector{direction: dir}
	registerBuiltins(env, c)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}, nil
	}
	if _, err := env.Run(); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}, nil
	}

	res := &EvalResult{Warnings: c.warnings}
	if c.count == 0 {
		res.Errors = []EvalError{{Message: "no staircase form in source"}}
		return res, nil
	}
	res.Spec = c.spec
	res.Name = c.name
	return res, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
