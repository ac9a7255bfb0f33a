package entities

import (
	"encoding/json"
	"fmt"

	"github.com/KirkDiggler/combat-engine/internal/domain/predicate"
)

// WindowPhase is when, relative to a link, an interrupt window is checked
type WindowPhase string

const (
	BeforeLink WindowPhase = "before_link"
	AfterLink  WindowPhase = "after_link"
)

// WindowSchema records which data shape a window was authored in
type WindowSchema string

const (
	SchemaPredicate WindowSchema = "predicate"
	SchemaLegacy    WindowSchema = "legacy"
)

// InterruptWindow is the single normalized form of both window schemas:
//
//	predicate: {when, if, chance, priority}
//	legacy:    {after_action_index: [int], trigger_if: {...}, weight}
//
// Resolution logic only reads this type.
type InterruptWindow struct {
	Schema   WindowSchema
	When     WindowPhase
	If       predicate.Predicate
	Chance   float64
	Priority int

	AfterActionIndex []int
	TriggerIf        map[string]any
	Weight           float64
}

// Probability is the chance a matched window actually opens
func (w InterruptWindow) Probability() float64 {
	if w.Schema == SchemaLegacy {
		return w.Weight
	}
	return w.Chance
}

type windowWire struct {
	When             WindowPhase     `json:"when,omitempty"`
	If               json.RawMessage `json:"if,omitempty"`
	Chance           *float64        `json:"chance,omitempty"`
	Priority         int             `json:"priority,omitempty"`
	AfterActionIndex []int           `json:"after_action_index,omitempty"`
	TriggerIf        map[string]any  `json:"trigger_if,omitempty"`
	Weight           *float64        `json:"weight,omitempty"`
}

// UnmarshalJSON normalizes either schema. A window is legacy when it names
// after_action_index or trigger_if and no when; otherwise it is predicate-based.
func (w *InterruptWindow) UnmarshalJSON(data []byte) error {
	var wire windowWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("interrupt window: %w", err)
	}

	if wire.When == "" && (wire.AfterActionIndex != nil || wire.TriggerIf != nil) {
		*w = InterruptWindow{
			Schema:           SchemaLegacy,
			When:             AfterLink,
			AfterActionIndex: wire.AfterActionIndex,
			TriggerIf:        wire.TriggerIf,
			Weight:           probability(wire.Weight),
		}
		return nil
	}

	switch wire.When {
	case BeforeLink, AfterLink:
	default:
		return fmt.Errorf("interrupt window: when must be before_link or after_link, got %q", wire.When)
	}

	cond, err := predicate.Decode(wire.If)
	if err != nil {
		return fmt.Errorf("interrupt window: %w", err)
	}

	*w = InterruptWindow{
		Schema:   SchemaPredicate,
		When:     wire.When,
		If:       cond,
		Chance:   probability(wire.Chance),
		Priority: wire.Priority,
	}
	return nil
}

// MarshalJSON writes the window back in the schema it was authored in
func (w InterruptWindow) MarshalJSON() ([]byte, error) {
	if w.Schema == SchemaLegacy {
		weight := w.Weight
		return json.Marshal(windowWire{
			AfterActionIndex: w.AfterActionIndex,
			TriggerIf:        w.TriggerIf,
			Weight:           &weight,
		})
	}

	cond, err := predicate.Encode(w.If)
	if err != nil {
		return nil, err
	}
	chance := w.Chance
	return json.Marshal(windowWire{
		When:     w.When,
		If:       cond,
		Chance:   &chance,
		Priority: w.Priority,
	})
}

// probability defaults a missing chance/weight to 1 and reads values above 1 as percentages
func probability(v *float64) float64 {
	if v == nil {
		return 1
	}
	p := *v
	if p > 1 {
		p /= 100
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
