package predicate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// node is the wire shape of a predicate. Composites may be written either as
// {"type":"and","all":[...]} or in the short form {"and":[...]}.
type node struct {
	Type      string            `json:"type"`
	Op        Op                `json:"op"`
	Value     json.RawMessage   `json:"value"`
	Who       Role              `json:"who"`
	Resource  string            `json:"resource"`
	Path      string            `json:"path"`
	Link      string            `json:"link"`
	Predicate json.RawMessage   `json:"predicate"`
	All       []json.RawMessage `json:"all"`
	Any       []json.RawMessage `json:"any"`

	ShortNot json.RawMessage   `json:"not"`
	ShortAnd []json.RawMessage `json:"and"`
	ShortOr  []json.RawMessage `json:"or"`
}

// Decode parses a predicate from JSON. Unknown node types are an error.
func Decode(data []byte) (Predicate, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var n node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("predicate: %w", err)
	}

	switch {
	case n.Type == "" && len(n.ShortNot) > 0:
		n.Type, n.Predicate = "not", n.ShortNot
	case n.Type == "" && n.ShortAnd != nil:
		n.Type, n.All = "and", n.ShortAnd
	case n.Type == "" && n.ShortOr != nil:
		n.Type, n.Any = "or", n.ShortOr
	}

	switch n.Type {
	case "not":
		child, err := Decode(n.Predicate)
		if err != nil {
			return nil, err
		}
		if child == nil {
			return nil, fmt.Errorf("predicate: not requires an operand")
		}
		return Not{P: child}, nil
	case "and":
		children, err := decodeAll(n.All)
		if err != nil {
			return nil, err
		}
		return And{All: children}, nil
	case "or":
		children, err := decodeAll(n.Any)
		if err != nil {
			return nil, err
		}
		return Or{Any: children}, nil
	case "chain_index":
		v, err := intValue(n)
		if err != nil {
			return nil, err
		}
		return ChainIndex{Op: opOrDefault(n.Op), Value: v}, nil
	case "chain_length":
		v, err := intValue(n)
		if err != nil {
			return nil, err
		}
		return ChainLength{Op: opOrDefault(n.Op), Value: v}, nil
	case "resource":
		if n.Who != RoleAggressor && n.Who != RoleDefender {
			return nil, fmt.Errorf("predicate: resource leaf needs who aggressor|defender, got %q", n.Who)
		}
		if n.Resource == "" {
			return nil, fmt.Errorf("predicate: resource leaf needs a resource name")
		}
		v, err := intValue(n)
		if err != nil {
			return nil, err
		}
		return ResourceThreshold{Who: n.Who, Resource: strings.ToLower(n.Resource), Op: opOrDefault(n.Op), Value: v}, nil
	case "link_type":
		link := n.Link
		if link == "" {
			if err := json.Unmarshal(n.Value, &link); err != nil {
				return nil, fmt.Errorf("predicate: link_type needs a link name")
			}
		}
		return LinkType{Type: link}, nil
	case "last_missed":
		want := true
		if len(n.Value) > 0 {
			if err := json.Unmarshal(n.Value, &want); err != nil {
				return nil, fmt.Errorf("predicate: last_missed value must be a bool")
			}
		}
		return LastMissed{Value: want}, nil
	case "path":
		if n.Path == "" {
			return nil, fmt.Errorf("predicate: path leaf needs a path")
		}
		var v any
		if len(n.Value) > 0 {
			if err := json.Unmarshal(n.Value, &v); err != nil {
				return nil, fmt.Errorf("predicate: path value: %w", err)
			}
		}
		return PathCompare{Path: n.Path, Op: opOrDefault(n.Op), Value: v}, nil
	case "":
		return nil, fmt.Errorf("predicate: node without type")
	default:
		return nil, fmt.Errorf("predicate: unknown predicate type %q", n.Type)
	}
}

func decodeAll(raw []json.RawMessage) ([]Predicate, error) {
	out := make([]Predicate, 0, len(raw))
	for i, r := range raw {
		p, err := Decode(r)
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i, err)
		}
		if p == nil {
			return nil, fmt.Errorf("predicate: operand %d is empty", i)
		}
		out = append(out, p)
	}
	return out, nil
}

func intValue(n node) (int, error) {
	var v int
	if err := json.Unmarshal(n.Value, &v); err != nil {
		return 0, fmt.Errorf("predicate: %s needs an integer value", n.Type)
	}
	return v, nil
}

func opOrDefault(op Op) Op {
	if op == "" {
		return OpEq
	}
	return op
}

// Encode writes a predicate back to its wire form
func Encode(p Predicate) (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	m, err := toWire(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func toWire(p Predicate) (map[string]any, error) {
	switch v := p.(type) {
	case Not:
		child, err := toWire(v.P)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "not", "predicate": child}, nil
	case And:
		children, err := toWireAll(v.All)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "and", "all": children}, nil
	case Or:
		children, err := toWireAll(v.Any)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "or", "any": children}, nil
	case ChainIndex:
		return map[string]any{"type": "chain_index", "op": v.Op, "value": v.Value}, nil
	case ChainLength:
		return map[string]any{"type": "chain_length", "op": v.Op, "value": v.Value}, nil
	case ResourceThreshold:
		return map[string]any{"type": "resource", "who": v.Who, "resource": v.Resource, "op": v.Op, "value": v.Value}, nil
	case LinkType:
		return map[string]any{"type": "link_type", "link": v.Type}, nil
	case LastMissed:
		return map[string]any{"type": "last_missed", "value": v.Value}, nil
	case PathCompare:
		return map[string]any{"type": "path", "path": v.Path, "op": v.Op, "value": v.Value}, nil
	default:
		return nil, fmt.Errorf("predicate: cannot encode %T", p)
	}
}

func toWireAll(ps []Predicate) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(ps))
	for _, p := range ps {
		m, err := toWire(p)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
