package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/spiral/pkg/catalog"
	"github.com/chazu/spiral/pkg/stair"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms staircase Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: stock-pole -> stock_pole
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value, treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// ---------------------------------------------------------------------------
// Staircase collection
// ---------------------------------------------------------------------------

// sexpStaircase wraps a stair.Spec so the staircase form has a printable
// value in the REPL and in def bindings.
type sexpStaircase struct {
	spec stair.Spec
}

func (s *sexpStaircase) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(staircase %s)", s.spec)
}
func (s *sexpStaircase) Type() *zygo.RegisteredType { return nil }

// collector receives what the builtins declare during one evaluation.
type collector struct {
	direction stair.Direction
	spec      stair.Spec
	name      string
	count     int
	warnings  []EvalWarning
}

// staircaseFields maps keyword names to the numeric field they set.
var staircaseFields = map[string]stair.Field{
	"pole":     stair.FieldCenterPoleDiameter,
	"height":   stair.FieldOverallHeight,
	"outside":  stair.FieldOutsideDiameter,
	"rotation": stair.FieldTotalRotation,
}

func (c *collector) staircase(args []zygo.Sexp) (stair.Spec, error) {
	if c.count > 0 {
		return stair.Spec{}, fmt.Errorf("staircase: only one staircase form is allowed per source")
	}
	pa := parseArgs(args)
	if len(pa.positional) > 0 {
		return stair.Spec{}, fmt.Errorf("staircase: unexpected positional argument %s", pa.positional[0].SexpString(nil))
	}

	spec := stair.Spec{Direction: c.direction}
	var missing []string
	for kw, field := range staircaseFields {
		v, ok := pa.kw[kw]
		if !ok {
			missing = append(missing, ":"+kw)
			continue
		}
		f, err := toFloat64(v)
		if err != nil {
			return stair.Spec{}, fmt.Errorf("staircase: %s: %w", kw, err)
		}
		if math.IsInf(f, 0) || !(f > 0) {
			return stair.Spec{}, fmt.Errorf("staircase: %s must be a positive number, got %v", kw, f)
		}
		spec = spec.With(field, f)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return stair.Spec{}, fmt.Errorf("staircase: missing %s", strings.Join(missing, ", "))
	}

	for kw, v := range pa.kw {
		switch kw {
		case "pole", "height", "outside", "rotation":
		case "direction":
			s, err := toKeywordString(v)
			if err != nil {
				return stair.Spec{}, fmt.Errorf("staircase: direction: %w", err)
			}
			d, err := stair.ParseDirection(s)
			if err != nil {
				return stair.Spec{}, fmt.Errorf("staircase: %w", err)
			}
			spec.Direction = d
		case "name":
			s, err := toString(v)
			if err != nil {
				return stair.Spec{}, fmt.Errorf("staircase: name: %w", err)
			}
			c.name = s
		default:
			return stair.Spec{}, fmt.Errorf("staircase: unknown keyword :%s", kw)
		}
	}

	c.spec = spec
	c.count++
	return spec, nil
}

// registerBuiltins installs the staircase DSL into env.
func registerBuiltins(env *zygo.Zlisp, c *collector) {

	// -----------------------------------------------------------------------
	// (staircase :pole 5.62 :height (feet 12) :outside 72 :rotation 450
	//            :direction :clockwise :name "north stair")
	// -----------------------------------------------------------------------
	env.AddFunction("staircase", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		spec, err := c.staircase(args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpStaircase{spec: spec}, nil
	})

	// (feet 12) -> 144
	env.AddFunction("feet", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := oneNumber(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpFloat{Val: f * 12}, nil
	})

	// (inches 6.5) -> 6.5
	env.AddFunction("inches", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := oneNumber(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpFloat{Val: f}, nil
	})

	// -----------------------------------------------------------------------
	// (stock-pole 5.6) -> 5.56, the nearest catalog size
	// -----------------------------------------------------------------------
	env.AddFunction("stock_pole", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := oneNumber("stock-pole", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		d := catalog.Nearest(f)
		if !catalog.Contains(f) {
			c.warnings = append(c.warnings, EvalWarning{
				Message: fmt.Sprintf("stock-pole: %.3f is not a stock size, using %s", f, d.Label),
			})
		}
		return &zygo.SexpFloat{Val: d.Value}, nil
	})
}

func oneNumber(name string, args []zygo.Sexp) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: expected 1 argument, got %d", name, len(args))
	}
	f, err := toFloat64(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}
