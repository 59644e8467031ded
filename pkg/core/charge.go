package core

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNoCharge is returned by Charge.First when the record carries no charge.
var ErrNoCharge = errors.New("charge is missing")

// Charge is the decoded precursor charge of a spectrum. MGF allows a list of
// candidate states ("2+ and 3+"); a plain value decodes to a single state.
type Charge struct {
	States []int
}

// NewCharge returns a single-state charge.
func NewCharge(z int) Charge {
	return Charge{States: []int{z}}
}

// IsSet reports whether at least one state was decoded.
func (c Charge) IsSet() bool {
	return len(c.States) > 0
}

// First returns the charge used for validation: the first decoded state.
func (c Charge) First() (int, error) {
	if len(c.States) == 0 {
		return 0, ErrNoCharge
	}
	return c.States[0], nil
}

// String formats the charge the way MGF writes it ("2+", "2+ and 3+").
func (c Charge) String() string {
	parts := make([]string, len(c.States))
	for i, z := range c.States {
		parts[i] = FormatChargeState(z)
	}
	return strings.Join(parts, " and ")
}

// ParseCharge decodes an MGF CHARGE value. Accepted forms: "2", "2+", "+2",
// "3-", "2+ and 3+", "2+,3+". An empty value yields an unset Charge.
func ParseCharge(value string) (Charge, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Charge{}, nil
	}

	tokens := strings.FieldsFunc(strings.ReplaceAll(value, " and ", ","), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	var c Charge
	for _, tok := range tokens {
		z, err := ParseChargeState(tok)
		if err != nil {
			return Charge{}, fmt.Errorf("invalid charge %q: %w", value, err)
		}
		c.States = append(c.States, z)
	}
	return c, nil
}

// ParseChargeState decodes one signed state ("2+", "3-", "+1", "2").
func ParseChargeState(tok string) (int, error) {
	tok = strings.TrimSpace(tok)
	sign := 1
	switch {
	case strings.HasSuffix(tok, "+"):
		tok = strings.TrimSuffix(tok, "+")
	case strings.HasSuffix(tok, "-"):
		tok = strings.TrimSuffix(tok, "-")
		sign = -1
	case strings.HasPrefix(tok, "+"):
		tok = strings.TrimPrefix(tok, "+")
	case strings.HasPrefix(tok, "-"):
		tok = strings.TrimPrefix(tok, "-")
		sign = -1
	}
	z, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	if z < 0 {
		return 0, fmt.Errorf("double sign in charge state")
	}
	return sign * z, nil
}

// FormatChargeState writes z with a trailing sign ("2+", "1-").
func FormatChargeState(z int) string {
	if z < 0 {
		return strconv.Itoa(-z) + "-"
	}
	return strconv.Itoa(z) + "+"
}

// ChargeSet is an immutable sorted set of allowed charge states. The zero
// value is the empty set, which callers treat as "no filter". A contiguous
// range is held by its bounds only.
type ChargeSet struct {
	states []int // sorted, distinct; nil when span is set
	lo, hi int
	span   bool
}

// NewChargeSet builds a set from arbitrary states; duplicates are dropped.
func NewChargeSet(states ...int) ChargeSet {
	if len(states) == 0 {
		return ChargeSet{}
	}
	sorted := append([]int(nil), states...)
	sort.Ints(sorted)

	out := sorted[:1]
	for _, z := range sorted[1:] {
		if z != out[len(out)-1] {
			out = append(out, z)
		}
	}
	return ChargeSet{states: out}
}

// ChargeRange returns the inclusive set {lo..hi}; empty when hi < lo.
func ChargeRange(lo, hi int) ChargeSet {
	if hi < lo {
		return ChargeSet{}
	}
	return ChargeSet{lo: lo, hi: hi, span: true}
}

// Len returns the number of states in the set.
func (s ChargeSet) Len() int {
	if s.span {
		return s.hi - s.lo + 1
	}
	return len(s.states)
}

// IsEmpty reports whether the set has no states.
func (s ChargeSet) IsEmpty() bool { return !s.span && len(s.states) == 0 }

// States returns a copy of the sorted states. For a range this allocates
// Len() ints.
func (s ChargeSet) States() []int {
	if !s.span {
		return append([]int(nil), s.states...)
	}
	out := make([]int, 0, s.Len())
	for z := s.lo; ; z++ {
		out = append(out, z)
		if z == s.hi {
			return out
		}
	}
}

// Contains reports whether z is a member of the set.
func (s ChargeSet) Contains(z int) bool {
	if s.span {
		return z >= s.lo && z <= s.hi
	}
	i := sort.SearchInts(s.states, z)
	return i < len(s.states) && s.states[i] == z
}

// Min returns the smallest state. It panics on an empty set.
func (s ChargeSet) Min() int {
	if s.span {
		return s.lo
	}
	return s.states[0]
}

// Max returns the largest state. It panics on an empty set.
func (s ChargeSet) Max() int {
	if s.span {
		return s.hi
	}
	return s.states[len(s.states)-1]
}

// Clip clamps z into [Min, Max].
func (s ChargeSet) Clip(z int) int {
	if z < s.Min() {
		return s.Min()
	}
	if z > s.Max() {
		return s.Max()
	}
	return z
}

// Nearest returns the member closest to z; ties go to the lower member.
func (s ChargeSet) Nearest(z int) int {
	if s.span {
		return s.Clip(z)
	}
	i := sort.SearchInts(s.states, z)
	switch {
	case i == 0:
		return s.states[0]
	case i == len(s.states):
		return s.states[len(s.states)-1]
	case s.states[i] == z:
		return z
	}
	lo, hi := s.states[i-1], s.states[i]
	if z-lo <= hi-z {
		return lo
	}
	return hi
}

// String formats the set's bounds as "[min, max]".
func (s ChargeSet) String() string {
	if s.IsEmpty() {
		return "[]"
	}
	return fmt.Sprintf("[%d, %d]", s.Min(), s.Max())
}
