// Package pattern compiles a small textual DSL into matcher trees.
//
// The DSL is call-style composition over the constructors of core/match:
//
//	seq(lit("GET"), oneOrMore)
//	all(unique, ascending)
//	serial(zeroOrMore, even, odd)
//
// Atom literals are strings, integers, and floats. All numeric literals
// normalize to float64 so they compare against tokens produced by the
// tokenize adapters, which normalize the same way.
package pattern

import (
	"fmt"
	"math"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/Cadence/core/errors"
	"github.com/FocuswithJustin/Cadence/core/match"
	"github.com/FocuswithJustin/Cadence/core/order"
)

// exprNode is one call or bare name in the DSL.
//
//nolint:govet // participle grammar tags are not standard struct tags
type exprNode struct {
	Name string    `parser:"@Ident"`
	Call *callNode `parser:"@@?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type callNode struct {
	Args []*argNode `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type argNode struct {
	Str   *string   `parser:"  @String"`
	Float *float64  `parser:"| @Float"`
	Int   *int64    `parser:"| @Int"`
	Expr  *exprNode `parser:"| @@"`
}

// patternLexer tokenizes the DSL. Float must precede Int so "2.5" is not
// split at the dot.
var patternLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Float", Pattern: `-?[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `-?[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z][a-zA-Z0-9]*`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var patternParser = participle.MustBuild[exprNode](
	participle.Lexer(patternLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// Compile parses src and builds the matcher tree it describes.
func Compile(src string) (match.Matcher[any], error) {
	node, err := patternParser.ParseString("", src)
	if err != nil {
		return nil, &errors.ParseError{Format: "pattern", Message: err.Error(), Err: err}
	}
	return compile(node)
}

// MustCompile is Compile for patterns known to be valid; it panics on
// error. Intended for tests and package-level pattern variables.
func MustCompile(src string) match.Matcher[any] {
	m, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("pattern: failed to compile %q: %v", src, err))
	}
	return m
}

func compile(node *exprNode) (match.Matcher[any], error) {
	args := []*argNode{}
	if node.Call != nil {
		args = node.Call.Args
	}

	switch node.Name {
	case "lit":
		v, err := scalarArgs(node, args, 1)
		if err != nil {
			return nil, err
		}
		return match.Literal(v[0]), nil

	case "any":
		v, err := scalarArgs(node, args, -1)
		if err != nil {
			return nil, err
		}
		if len(v) == 0 {
			return nil, arityError(node, "at least one value")
		}
		return match.AnyOf(v...), nil

	case "exactly":
		n, err := intArgs(node, args, 1)
		if err != nil {
			return nil, err
		}
		return match.Exactly[any](n[0]), nil

	case "between":
		n, err := intArgs(node, args, 2)
		if err != nil {
			return nil, err
		}
		return match.Between[any](n[0], n[1]), nil

	case "zeroOrMore":
		return noArgs(node, args, match.ZeroOrMore[any]())
	case "oneOrMore":
		return noArgs(node, args, match.OneOrMore[any]())
	case "optional":
		return noArgs(node, args, match.Optional[any]())
	case "one":
		return noArgs(node, args, match.ExactlyOne[any]())
	case "varying":
		return noArgs(node, args, match.Varying[any]())
	case "unique":
		return noArgs(node, args, match.Unique[any]())
	case "ascending":
		return noArgs(node, args, match.Ascending[any](order.Dynamic))
	case "even":
		return noArgs(node, args, match.Where(isEven))
	case "odd":
		return noArgs(node, args, match.Where(isOdd))

	case "gt":
		v, err := scalarArgs(node, args, 1)
		if err != nil {
			return nil, err
		}
		return match.Where(order.Above(v[0])), nil

	case "lt":
		v, err := scalarArgs(node, args, 1)
		if err != nil {
			return nil, err
		}
		return match.Where(order.Below(v[0])), nil

	case "inRange":
		v, err := scalarArgs(node, args, 2)
		if err != nil {
			return nil, err
		}
		return match.Where(order.Within(v[0], v[1])), nil

	case "not":
		ms, err := exprArgs(node, args, 1)
		if err != nil {
			return nil, err
		}
		return match.Not(ms[0]), nil

	case "all":
		ms, err := exprArgs(node, args, -1)
		if err != nil {
			return nil, err
		}
		return match.And(ms...), nil

	case "either":
		ms, err := exprArgs(node, args, -1)
		if err != nil {
			return nil, err
		}
		return match.Or(ms...), nil

	case "seq":
		ms, err := exprArgs(node, args, -1)
		if err != nil {
			return nil, err
		}
		return match.Seq(ms...), nil

	case "serial":
		ms, err := exprArgs(node, args, -1)
		if err != nil {
			return nil, err
		}
		if len(ms) < 2 {
			return nil, arityError(node, "a superior and at least one child")
		}
		// The superior consumes child indices; adapt the dynamic matcher
		// to the index stream with the same numeric normalization the
		// token adapters use.
		superior := match.Project(func(i int) any { return float64(i) }, ms[0])
		return match.Serial(superior, ms[1:]...), nil

	default:
		return nil, &errors.ParseError{
			Format:  "pattern",
			Message: fmt.Sprintf("unknown matcher %q", node.Name),
		}
	}
}

// scalar converts an atom argument to its token value. Integers widen to
// float64 to mirror the tokenize adapters.
func (a *argNode) scalar() (any, bool) {
	switch {
	case a.Str != nil:
		return *a.Str, true
	case a.Float != nil:
		return *a.Float, true
	case a.Int != nil:
		return float64(*a.Int), true
	default:
		return nil, false
	}
}

// scalarArgs collects exactly want scalar arguments; want < 0 accepts any
// count.
func scalarArgs(node *exprNode, args []*argNode, want int) ([]any, error) {
	if want >= 0 && len(args) != want {
		return nil, arityError(node, fmt.Sprintf("%d value argument(s)", want))
	}
	out := make([]any, len(args))
	for i, a := range args {
		v, ok := a.scalar()
		if !ok {
			return nil, arityError(node, "value arguments, not sub-patterns")
		}
		out[i] = v
	}
	return out, nil
}

func intArgs(node *exprNode, args []*argNode, want int) ([]int, error) {
	if len(args) != want {
		return nil, arityError(node, fmt.Sprintf("%d integer argument(s)", want))
	}
	out := make([]int, len(args))
	for i, a := range args {
		if a.Int == nil {
			return nil, arityError(node, "integer arguments")
		}
		out[i] = int(*a.Int)
	}
	return out, nil
}

func exprArgs(node *exprNode, args []*argNode, want int) ([]match.Matcher[any], error) {
	if want >= 0 && len(args) != want {
		return nil, arityError(node, fmt.Sprintf("%d sub-pattern(s)", want))
	}
	out := make([]match.Matcher[any], len(args))
	for i, a := range args {
		if a.Expr == nil {
			return nil, arityError(node, "sub-patterns, not values")
		}
		m, err := compile(a.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func noArgs(node *exprNode, args []*argNode, m match.Matcher[any]) (match.Matcher[any], error) {
	if len(args) != 0 {
		return nil, arityError(node, "no arguments")
	}
	return m, nil
}

func arityError(node *exprNode, want string) error {
	return &errors.ParseError{
		Format:  "pattern",
		Message: fmt.Sprintf("%s expects %s", node.Name, want),
	}
}

// isEven reports whether a token is an integral number divisible by two.
// Non-numeric and fractional tokens are simply not even, a rejection
// rather than a fault.
func isEven(tok any) bool {
	f, ok := asNumber(tok)
	if !ok || f != math.Trunc(f) {
		return false
	}
	return math.Mod(f, 2) == 0
}

func isOdd(tok any) bool {
	f, ok := asNumber(tok)
	if !ok || f != math.Trunc(f) {
		return false
	}
	return math.Mod(f, 2) != 0
}

func asNumber(tok any) (float64, bool) {
	switch n := tok.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
