package match

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// path is one candidate alignment of input-token positions to inferior
// matchers: the superior matcher's progress, the index of the inferior
// currently consuming tokens, and that inferior's progress. The root path
// of a fresh session carries index -1 and a placeholder inferior verdict
// of Matching: its empty run is complete, and since the placeholder cannot
// consume anything the age step retires it on the first token.
type path[T any] struct {
	supState   State
	supVerdict Verdict
	index      int
	infState   State
	infVerdict Verdict
}

// fingerprint is a digest of the full triple, used both for structural
// deduplication of paths and for canonical rendering of nested path sets.
func (p path[T]) fingerprint() string {
	sum := blake3.Sum256([]byte(fmt.Sprintf("%s\x1f%v\x1f%d\x1f%s\x1f%v",
		stateKey(p.supState), p.supVerdict, p.index, stateKey(p.infState), p.infVerdict)))
	return hex.EncodeToString(sum[:])
}

// pathSet is an ordered, deduplicated collection of surviving alignment
// paths: the serial engine's matching state. It is the NFA
// subset-construction frontier, kept as an explicit slice plus a
// membership set so path growth stays observable and bounded by the
// number of distinct triples.
type pathSet[T any] struct {
	paths []path[T]
	keys  map[string]struct{}
}

func newPathSet[T any](capacity int) pathSet[T] {
	return pathSet[T]{
		paths: make([]path[T], 0, capacity),
		keys:  make(map[string]struct{}, capacity),
	}
}

// add appends p unless a structurally equal path is already present.
func (ps *pathSet[T]) add(p path[T]) {
	key := p.fingerprint()
	if _, dup := ps.keys[key]; dup {
		return
	}
	ps.keys[key] = struct{}{}
	ps.paths = append(ps.paths, p)
}

func (ps pathSet[T]) pathCount() int { return len(ps.paths) }

// String renders the set canonically (sorted fingerprints), so a serial
// matcher nested as an inferior of another serial compares structurally.
func (ps pathSet[T]) String() string {
	keys := make([]string, 0, len(ps.paths))
	for key := range ps.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x1d")
}

// pathCounter is implemented by serial matching states.
type pathCounter interface {
	pathCount() int
}

// PathCount returns the number of live alignment paths inside a serial
// matching state. The second return is false when st does not belong to a
// serial matcher. Path-set width is the engine's only unbounded resource,
// so it is exposed for tests and metrics.
func PathCount(st State) (int, bool) {
	pc, ok := st.(pathCounter)
	if !ok {
		return 0, false
	}
	return pc.pathCount(), true
}

// serial composes an ordered list of inferior matchers under a superior
// matcher. The superior consumes inferior indices as its own token stream,
// deciding which child may become active next and how often children may
// repeat; each active child consumes a run of input tokens.
type serial[T any] struct {
	superior  Matcher[int]
	inferiors []Matcher[T]
}

// Serial composes inferiors under superior. With IndexRange(len(inferiors))
// as the superior this is plain sequencing (see Seq); other superiors allow
// repeated, optional, or reordered selection among the children, e.g. a
// cardinality matcher over indices for arbitrary interleavings.
func Serial[T any](superior Matcher[int], inferiors ...Matcher[T]) Matcher[T] {
	return serial[T]{superior: superior, inferiors: inferiors}
}

// Seq matches the concatenation of one run per child, in order: exactly
// one pass through the children, no repeats, no skips, no reordering.
func Seq[T any](inferiors ...Matcher[T]) Matcher[T] {
	return Serial(IndexRange(len(inferiors)), inferiors...)
}

func (s serial[T]) Begin() (State, Verdict, error) {
	supState, supVerdict, err := s.superior.Begin()
	if err != nil {
		return nil, Invalid, err
	}
	set := newPathSet[T](1 + len(s.inferiors))
	set.add(path[T]{
		supState:   supState,
		supVerdict: supVerdict,
		index:      -1,
		infState:   nil,
		infVerdict: Matching,
	})
	if err := s.branch(&set); err != nil {
		return nil, Invalid, err
	}
	return set, s.judge(set), nil
}

func (s serial[T]) Continue(st State, tok T) (State, Verdict, error) {
	prev := st.(pathSet[T])
	next := newPathSet[T](len(prev.paths))

	// Age: feed the token to every path whose inferior can still consume;
	// paths whose inferior rejects it die here and are never revived.
	for _, p := range prev.paths {
		if !p.infVerdict.MayContinue() {
			continue
		}
		infState, infVerdict, err := s.inferiors[p.index].Continue(p.infState, tok)
		if err != nil {
			return st, Invalid, err
		}
		if infVerdict.IsInvalid() {
			continue
		}
		next.add(path[T]{
			supState:   p.supState,
			supVerdict: p.supVerdict,
			index:      p.index,
			infState:   infState,
			infVerdict: infVerdict,
		})
	}

	if err := s.branch(&next); err != nil {
		return st, Invalid, err
	}
	return next, s.judge(next), nil
}

// branch spawns successor paths at the current token position: wherever the
// superior may continue and the assigned inferior has fully accepted its
// run, every inferior index the superior admits opens a fresh candidate
// alignment. Freshly added paths are branched in turn (their new inferior
// may accept the empty run), so the loop runs to a fixpoint; deduplication
// in add bounds the set by the number of distinct triples and guarantees
// termination.
func (s serial[T]) branch(set *pathSet[T]) error {
	for i := 0; i < len(set.paths); i++ {
		p := set.paths[i]
		if !p.supVerdict.MayContinue() || !p.infVerdict.IsMatching() {
			continue
		}
		for index := range s.inferiors {
			supState, supVerdict, err := s.superior.Continue(p.supState, index)
			if err != nil {
				return err
			}
			if supVerdict.IsInvalid() {
				continue
			}
			infState, infVerdict, err := s.inferiors[index].Begin()
			if err != nil {
				return err
			}
			set.add(path[T]{
				supState:   supState,
				supVerdict: supVerdict,
				index:      index,
				infState:   infState,
				infVerdict: infVerdict,
			})
		}
	}
	return nil
}

// judge folds the surviving paths into the step verdict: a path may
// continue if either of its components may, and is matching only when both
// components are matching at once. An empty set judges to Invalid.
func (s serial[T]) judge(set pathSet[T]) Verdict {
	v := Invalid
	for _, p := range set.paths {
		continuing := Continue.Intersect(p.supVerdict.Union(p.infVerdict))
		matching := Matching.Intersect(p.supVerdict.Intersect(p.infVerdict))
		v = v.Union(continuing.Union(matching))
	}
	return v
}
