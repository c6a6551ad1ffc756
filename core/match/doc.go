// Package match provides a sequence-matching engine: regular expressions
// generalized from character streams to arbitrary typed token streams.
//
// Matchers are immutable, composable recognition rules. A matcher tree is
// built once from the constructors in this package and can then be evaluated
// any number of times, on any number of independent inputs, concurrently.
//
// # Contract
//
// Every matcher implements two operations:
//
//   - Begin: the outcome of matching the empty token sequence, plus the
//     initial opaque state for subsequent calls.
//   - Continue: the outcome after consuming one more token, given the state
//     returned by the previous call.
//
// Both return a Verdict carrying two independent flags: whether feeding more
// tokens could still lead to acceptance (MayContinue), and whether the
// tokens consumed so far form an accepted sequence (IsMatching). State is
// owned by the caller, threaded by value, and never inspected.
//
// # Composition
//
// Primitives (Literal, AnyOf, Where, cardinality constructors) combine
// through boolean operators (Not, And, Or), the Project token adapter, and
// serial composition. Serial composition aligns runs of input tokens against
// an ordered list of inferior matchers under a superior matcher that
// consumes child indices as its own token stream; Seq is the common case of
// one strict in-order pass through the children. The serial engine runs an
// NFA-style simulation over a deduplicated set of candidate alignment paths.
//
// # Example
//
//	m := match.Seq(
//	    match.Literal("GET"),
//	    match.Where(func(tok string) bool { return len(tok) > 0 }),
//	)
//	ok, err := match.Accepts(m, []string{"GET", "/index.html"})
//
// Rejection of an input is a normal outcome (an Invalid verdict), never an
// error. Errors are reserved for genuine faults: non-comparable tokens fed
// to an ordering matcher, or failures surfaced by caller-supplied code.
package match
