package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/dovetail/pkg/dovetail"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites a parameter script before zygomys sees it:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal), so
//     keywords never need to be registered as globals.
//
//  2. Kebab-case to underscore: pin-width -> pin_width. zygomys reads a
//     hyphen inside an identifier as subtraction.
//
//  3. Line comments: ; and ;; become //, the zygomys comment marker.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := i + 1
			for j < len(b) && b[j] != '"' {
				if b[j] == '\\' && j+1 < len(b) {
					j++
				}
				j++
			}
			if j < len(b) {
				j++
			}
			result = append(result, b[i:j]...)
			i = j
			continue

		case b[i] == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			if j < len(b) {
				j++
			}
			result = append(result, b[i:j]...)
			i = j
			continue

		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue

		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, b[i], b[i+1])
			i += 2
			continue

		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
			continue

		// A hyphen between identifier characters is part of a name, not a
		// minus operator.
		case b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]):
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
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpJoint is returned by (dovetail ...) so the REPL-style result of a
// script prints something useful.
type sexpJoint struct {
	params dovetail.Parameters
	opts   dovetail.SceneOptions
}

func (j *sexpJoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(dovetail %gx%gx%g :teeth %d :display %s :layout %s)",
		j.params.Thickness, j.params.Width, j.params.Length, j.params.Teeth,
		j.opts.Display, j.opts.Layout)
}
func (j *sexpJoint) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW returns the keyword name of a preprocessed keyword string.
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
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// A trailing keyword with no value reads as a flag.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func describe(s zygo.Sexp) string {
	if s == nil {
		return "nil"
	}
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

// toInt accepts an integer, or a float with no fractional part.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %s", describe(s))
}

// toBool accepts true/false, or a bare trailing keyword as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %s", describe(s))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_all) and plain strings ("all").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %s", describe(s))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// dovetailKeywords are the keywords (dovetail ...) accepts.
var dovetailKeywords = map[string]bool{
	"thickness": true,
	"width":     true,
	"length":    true,
	"teeth":     true,
	"pin-width": true,
	"angle":     true,
	"slope":     true,
	"extend":    true,
	"display":   true,
	"intersect": true,
	"layout":    true,
}

func unknownKeywords(kw map[string]zygo.Sexp) []string {
	var bad []string
	for name := range kw {
		if !dovetailKeywords[name] {
			bad = append(bad, name)
		}
	}
	sort.Strings(bad)
	return bad
}

// applyJoint merges the keyword arguments of one (dovetail ...) form into
// cfg. cfg is only modified when every argument is valid.
func applyJoint(cfg *Config, args []zygo.Sexp) error {
	pa := parseArgs(args)
	if len(pa.positional) > 0 {
		return fmt.Errorf("unexpected positional argument %s", describe(pa.positional[0]))
	}
	if bad := unknownKeywords(pa.kw); len(bad) > 0 {
		return fmt.Errorf("unknown keyword :%s", strings.Join(bad, ", :"))
	}

	next := *cfg
	lengths := []struct {
		name string
		dst  *float64
	}{
		{"thickness", &next.Params.Thickness},
		{"width", &next.Params.Width},
		{"length", &next.Params.Length},
		{"pin-width", &next.Params.PinWidth},
		{"angle", &next.Params.Angle},
		{"extend", &next.Params.Extend},
	}
	for _, l := range lengths {
		v, ok := pa.kw[l.name]
		if !ok {
			continue
		}
		f, err := toFloat64(v)
		if err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
		*l.dst = f
	}

	if v, ok := pa.kw["slope"]; ok {
		if _, both := pa.kw["angle"]; both {
			return fmt.Errorf("give either :angle or :slope, not both")
		}
		n, err := toFloat64(v)
		if err != nil {
			return fmt.Errorf("slope: %w", err)
		}
		if !(n > 0) {
			return fmt.Errorf("slope: must be positive, got %g", n)
		}
		next.Params.Angle = dovetail.SlopeAngle(n)
	}

	if v, ok := pa.kw["teeth"]; ok {
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("teeth: %w", err)
		}
		next.Params.Teeth = n
	}

	if v, ok := pa.kw["display"]; ok {
		name, err := toKeywordString(v)
		if err != nil {
			return fmt.Errorf("display: %w", err)
		}
		mode, err := dovetail.ParseDisplayMode(name)
		if err != nil {
			return fmt.Errorf("display: %w", err)
		}
		next.Options.Display = mode
	}

	if v, ok := pa.kw["intersect"]; ok {
		if _, both := pa.kw["layout"]; both {
			return fmt.Errorf("give either :intersect or :layout, not both")
		}
		on, err := toBool(v)
		if err != nil {
			return fmt.Errorf("intersect: %w", err)
		}
		next.Options.Layout = dovetail.LayoutFor(on)
	}

	if v, ok := pa.kw["layout"]; ok {
		name, err := toKeywordString(v)
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		layout, err := dovetail.ParseLayout(name)
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		next.Options.Layout = layout
	}

	next.Forms++
	*cfg = next
	return nil
}

// registerBuiltins installs the parameter-script builtins. Each
// (dovetail ...) form is merged into cfg in evaluation order, so later
// forms override earlier ones.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, cfg *Config) {

	// (dovetail :thickness 19.05 :width (inch 3.5) :teeth 5 :slope 8 :display :all)
	env.AddFunction("dovetail", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := applyJoint(cfg, args); err != nil {
			return zygo.SexpNull, fmt.Errorf("dovetail: %w", err)
		}
		return &sexpJoint{params: cfg.Params, opts: cfg.Options}, nil
	})

	// (inch 0.75) => 19.05
	env.AddFunction("inch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("inch takes one argument, got %d", len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("inch: %w", err)
		}
		return &zygo.SexpFloat{Val: f * dovetail.Inch}, nil
	})

	// (slope 6) => the cut angle of a 1:6 dovetail, in degrees
	env.AddFunction("slope", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("slope takes one argument, got %d", len(args))
		}
		n, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("slope: %w", err)
		}
		return &zygo.SexpFloat{Val: dovetail.SlopeAngle(n)}, nil
	})
}
