package parse

import (
	"errors"
	"go/build/constraint"
	"strings"
)

// Predicate is the build constraint of a gate.
type Predicate struct {
	// Text is the constraint as written in the directive.
	Text string

	// Expr is the parsed constraint.
	Expr constraint.Expr
}

// ParsePredicate parses the text after "//cfgpanic:gate".
func ParsePredicate(text string) (Predicate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Predicate{}, errors.New("missing build constraint after //cfgpanic:gate")
	}

	expr, err := constraint.Parse("//go:build " + text)
	if err != nil {
		return Predicate{}, errors.New("invalid build constraint: " + err.Error())
	}
	return Predicate{Text: text, Expr: expr}, nil
}

// Key identifies gates sharing the same constraint.
func (p Predicate) Key() string { return p.Expr.String() }

// Enabled returns the constraint which keeps the original code.
func (p Predicate) Enabled() constraint.Expr { return p.Expr }

// Disabled returns the constraint which selects the stubs. Enabled and
// Disabled never hold at the same time, and one of them always holds.
func (p Predicate) Disabled() constraint.Expr { return Not(p.Expr) }

// Not negates the expression. Double negations are removed.
func Not(x constraint.Expr) constraint.Expr {
	if not, ok := x.(*constraint.NotExpr); ok {
		return not.X
	}
	return &constraint.NotExpr{X: x}
}

// And joins expressions with "&&". Nil expressions are ignored. It returns
// nil if all expressions are nil.
func And(xs ...constraint.Expr) constraint.Expr {
	var and constraint.Expr
	for _, x := range xs {
		if x == nil {
			continue
		}
		if and == nil {
			and = x
			continue
		}
		and = &constraint.AndExpr{X: and, Y: x}
	}
	return and
}

// hasTag reports whether the tag appears anywhere in the expression.
func hasTag(x constraint.Expr, tag string) bool {
	found := false
	x.Eval(func(t string) bool {
		if t == tag {
			found = true
		}
		return true
	})
	return found
}

// hasPositiveTag reports whether the tag appears outside of any negation.
func hasPositiveTag(x constraint.Expr, tag string) bool {
	switch x := x.(type) {
	case *constraint.TagExpr:
		return x.Tag == tag
	case *constraint.AndExpr:
		return hasPositiveTag(x.X, tag) || hasPositiveTag(x.Y, tag)
	case *constraint.OrExpr:
		return hasPositiveTag(x.X, tag) || hasPositiveTag(x.Y, tag)
	}
	return false
}

// stripTag removes the tag from a conjunction. It fails if the tag appears
// under a negation or a disjunction, where it cannot be removed without
// changing the meaning of the rest.
//
//	cfgpanic              => nil
//	cfgpanic && linux     => linux
//	linux || cfgpanic     => (fail)
func stripTag(x constraint.Expr, tag string) (constraint.Expr, bool) {
	switch x := x.(type) {
	case *constraint.TagExpr:
		if x.Tag == tag {
			return nil, true
		}
		return x, true

	case *constraint.AndExpr:
		l, ok := stripTag(x.X, tag)
		if !ok {
			return nil, false
		}
		r, ok := stripTag(x.Y, tag)
		if !ok {
			return nil, false
		}
		return And(l, r), true
	}

	if hasTag(x, tag) {
		return nil, false
	}
	return x, true
}
