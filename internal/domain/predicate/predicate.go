// Package predicate evaluates the boolean expressions interrupt windows use
// to decide whether they are open.
//
// A predicate is a closed tree: composites (Not, And, Or) over leaves
// (ChainIndex, ChainLength, ResourceThreshold, LinkType, LastMissed,
// PathCompare). Evaluation is pure. Decoding rejects unknown types so a
// data-authoring mistake surfaces as an error instead of a silent false.
package predicate

import (
	"fmt"
	"strings"
)

// Op is a comparison operator
type Op string

const (
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

// Role selects which side of the exchange a leaf inspects
type Role string

const (
	RoleAggressor Role = "aggressor"
	RoleDefender  Role = "defender"
)

// Predicate is implemented only by the node types in this package
type Predicate interface {
	Eval(ctx *Context) (bool, error)
	isPredicate()
}

// Not negates P
type Not struct {
	P Predicate
}

// And is true when every child is true; empty And is true
type And struct {
	All []Predicate
}

// Or is true when any child is true; empty Or is false
type Or struct {
	Any []Predicate
}

// ChainIndex compares the current link index
type ChainIndex struct {
	Op    Op
	Value int
}

// ChainLength compares the number of declared links
type ChainLength struct {
	Op    Op
	Value int
}

// ResourceThreshold compares a resource of the aggressor or defender
type ResourceThreshold struct {
	Who      Role
	Resource string
	Op       Op
	Value    int
}

// LinkType matches when the current link carries the tag or path Type
type LinkType struct {
	Type string
}

// LastMissed matches the outcome of the previous link
type LastMissed struct {
	Value bool
}

// PathCompare compares the value at a dotted path of the context projection
type PathCompare struct {
	Path  string
	Op    Op
	Value any
}

func (Not) isPredicate()               {}
func (And) isPredicate()               {}
func (Or) isPredicate()                {}
func (ChainIndex) isPredicate()        {}
func (ChainLength) isPredicate()       {}
func (ResourceThreshold) isPredicate() {}
func (LinkType) isPredicate()          {}
func (LastMissed) isPredicate()        {}
func (PathCompare) isPredicate()       {}

// Evaluate runs p against ctx. A nil predicate is always true.
func Evaluate(p Predicate, ctx *Context) (bool, error) {
	if p == nil {
		return true, nil
	}
	return p.Eval(ctx)
}

// Eval implements Predicate
func (n Not) Eval(ctx *Context) (bool, error) {
	if n.P == nil {
		return false, fmt.Errorf("predicate: not without operand")
	}
	ok, err := n.P.Eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Eval implements Predicate
func (a And) Eval(ctx *Context) (bool, error) {
	for i, child := range a.All {
		if child == nil {
			return false, fmt.Errorf("predicate: and operand %d is empty", i)
		}
		ok, err := child.Eval(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Eval implements Predicate
func (o Or) Eval(ctx *Context) (bool, error) {
	for i, child := range o.Any {
		if child == nil {
			return false, fmt.Errorf("predicate: or operand %d is empty", i)
		}
		ok, err := child.Eval(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Eval implements Predicate
func (c ChainIndex) Eval(ctx *Context) (bool, error) {
	return compareInts(ctx.Chain.Index, c.Op, c.Value)
}

// Eval implements Predicate
func (c ChainLength) Eval(ctx *Context) (bool, error) {
	return compareInts(ctx.Chain.Length, c.Op, c.Value)
}

// Eval implements Predicate
func (r ResourceThreshold) Eval(ctx *Context) (bool, error) {
	var subject Subject
	switch r.Who {
	case RoleAggressor:
		subject = ctx.Aggressor
	case RoleDefender:
		subject = ctx.Defender
	default:
		return false, fmt.Errorf("predicate: unknown role %q", r.Who)
	}
	return compareInts(subject.Resource(r.Resource), r.Op, r.Value)
}

// Eval implements Predicate
func (l LinkType) Eval(ctx *Context) (bool, error) {
	if strings.EqualFold(ctx.Link.Path, l.Type) {
		return true, nil
	}
	for _, tag := range ctx.Link.Tags {
		if strings.EqualFold(tag, l.Type) {
			return true, nil
		}
	}
	return false, nil
}

// Eval implements Predicate
func (l LastMissed) Eval(ctx *Context) (bool, error) {
	return ctx.Chain.LastMissed == l.Value, nil
}

func compareInts(left int, op Op, right int) (bool, error) {
	switch op {
	case OpEq:
		return left == right, nil
	case OpNe:
		return left != right, nil
	case OpLt:
		return left < right, nil
	case OpLte:
		return left <= right, nil
	case OpGt:
		return left > right, nil
	case OpGte:
		return left >= right, nil
	default:
		return false, fmt.Errorf("predicate: unknown operator %q", op)
	}
}
