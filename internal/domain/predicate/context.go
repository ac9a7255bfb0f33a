package predicate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Context is the read-only fact sheet a predicate is evaluated against.
// Its JSON projection is what PathCompare paths address, for example
// "aggressor.resources.heat" or "chain.index".
type Context struct {
	Chain     ChainFacts `json:"chain"`
	Link      LinkFacts  `json:"link"`
	Aggressor Subject    `json:"aggressor"`
	Defender  Subject    `json:"defender"`
	Rolls     RollFacts  `json:"rolls"`

	projection []byte
}

// ChainFacts describes where in the chain evaluation happens
type ChainFacts struct {
	Index      int    `json:"index"`
	Length     int    `json:"length"`
	LastMissed bool   `json:"last_missed"`
	When       string `json:"when"`
}

// LinkFacts describes the current link's ability
type LinkFacts struct {
	Name string   `json:"name"`
	Path string   `json:"path"`
	Tags []string `json:"tags"`
}

// Subject is a participant as predicates see it
type Subject struct {
	ID        string         `json:"id"`
	Side      string         `json:"side"`
	Archetype string         `json:"archetype"`
	Resources map[string]int `json:"resources"`
	Statuses  map[string]int `json:"statuses"`
}

// Resource returns a named resource, 0 when absent
func (s Subject) Resource(name string) int {
	return s.Resources[strings.ToLower(name)]
}

// RollFacts carries the shared rolls of the chain
type RollFacts struct {
	AttackD20  int `json:"attack_d20"`
	DefenseD20 int `json:"defense_d20"`
}

// lookup resolves a dotted path against the JSON projection of the context
func (c *Context) lookup(path string) (gjson.Result, error) {
	if c.projection == nil {
		data, err := json.Marshal(c)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("predicate: project context: %w", err)
		}
		c.projection = data
	}
	return gjson.GetBytes(c.projection, path), nil
}

// Eval implements Predicate. A path that does not exist compares false.
func (p PathCompare) Eval(ctx *Context) (bool, error) {
	if p.Path == "" {
		return false, fmt.Errorf("predicate: path compare without path")
	}

	found, err := ctx.lookup(p.Path)
	if err != nil {
		return false, err
	}
	if !found.Exists() {
		return false, nil
	}

	if want, ok := asNumber(p.Value); ok && (found.Type == gjson.Number || found.Type == gjson.True || found.Type == gjson.False) {
		return compareFloats(found.Float(), p.Op, want)
	}

	if want, ok := p.Value.(bool); ok {
		switch p.Op {
		case OpEq:
			return found.Bool() == want, nil
		case OpNe:
			return found.Bool() != want, nil
		}
		return false, fmt.Errorf("predicate: operator %q not valid for booleans", p.Op)
	}

	want := fmt.Sprint(p.Value)
	switch p.Op {
	case OpEq:
		return strings.EqualFold(found.String(), want), nil
	case OpNe:
		return !strings.EqualFold(found.String(), want), nil
	default:
		return false, fmt.Errorf("predicate: operator %q not valid for strings", p.Op)
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func compareFloats(left float64, op Op, right float64) (bool, error) {
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
