package match

// Verdict is the outcome of matching the tokens consumed so far. Its two
// flags are orthogonal: MayContinue says feeding more tokens could still
// lead to acceptance, IsMatching says the sequence would be accepted if it
// ended here.
type Verdict struct {
	mayContinue bool
	isMatching  bool
}

// The four possible verdicts.
var (
	// Invalid rejects the tokens seen so far and every extension of them.
	Invalid = Verdict{false, false}

	// Continue rejects the tokens seen so far but some extension of them
	// may still be accepted.
	Continue = Verdict{true, false}

	// Matching accepts the tokens seen so far; no extension is accepted.
	Matching = Verdict{false, true}

	// Satisfied accepts the tokens seen so far and extensions may also be
	// accepted.
	Satisfied = Verdict{true, true}
)

// FromBool returns Satisfied if ok is true and Invalid otherwise.
func FromBool(ok bool) Verdict {
	if ok {
		return Satisfied
	}
	return Invalid
}

// MayContinue reports whether feeding more tokens could lead to acceptance.
func (v Verdict) MayContinue() bool { return v.mayContinue }

// IsMatching reports whether the tokens consumed so far are accepted.
func (v Verdict) IsMatching() bool { return v.isMatching }

// IsInvalid reports whether the match has failed outright: the tokens seen
// so far are rejected and no extension can be accepted.
func (v Verdict) IsInvalid() bool { return !v.mayContinue && !v.isMatching }

// IsSatisfied reports whether both flags are set.
func (v Verdict) IsSatisfied() bool { return v.mayContinue && v.isMatching }

// Union combines two verdicts flag-wise with OR. Invalid is the identity.
func (v Verdict) Union(o Verdict) Verdict {
	return Verdict{v.mayContinue || o.mayContinue, v.isMatching || o.isMatching}
}

// Intersect combines two verdicts flag-wise with AND. Satisfied is the
// identity.
func (v Verdict) Intersect(o Verdict) Verdict {
	return Verdict{v.mayContinue && o.mayContinue, v.isMatching && o.isMatching}
}

// UnionAll returns the union of vs. The union of no verdicts is Invalid.
func UnionAll(vs ...Verdict) Verdict {
	v := Invalid
	for _, o := range vs {
		v = v.Union(o)
	}
	return v
}

// IntersectAll returns the intersection of vs. The intersection of no
// verdicts is Satisfied.
func IntersectAll(vs ...Verdict) Verdict {
	v := Satisfied
	for _, o := range vs {
		v = v.Intersect(o)
	}
	return v
}

// String returns the verdict's name.
func (v Verdict) String() string {
	switch v {
	case Continue:
		return "continue"
	case Matching:
		return "matching"
	case Satisfied:
		return "satisfied"
	default:
		return "invalid"
	}
}
