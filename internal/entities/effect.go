package entities

import (
	"encoding/json"
	"fmt"
)

// Trigger names the moment an ability's effect list fires
type Trigger string

const (
	TriggerOnUse     Trigger = "on_use"
	TriggerOnHit     Trigger = "on_hit"
	TriggerOnMiss    Trigger = "on_miss"
	TriggerOnSuccess Trigger = "on_success"
)

// Target selects who an effect lands on relative to the acting participant
type Target string

const (
	TargetDefault Target = ""
	TargetSelf    Target = "self"
	TargetEnemy   Target = "enemy"
)

// EffectKind is the declared "type" of a structured effect
type EffectKind string

const (
	EffectResourceDelta EffectKind = "resource_delta"
	EffectResourceSet   EffectKind = "resource_set"
	EffectHeal          EffectKind = "heal"
	EffectStatus        EffectKind = "status"
	EffectBuff          EffectKind = "buff"
	EffectReduceDamage  EffectKind = "reduce_damage"
	EffectAttackBonus   EffectKind = "attack_bonus"
	EffectDefenseBonus  EffectKind = "defense_bonus"
	EffectIDFBonus      EffectKind = "idf_bonus"
)

// Effect is the closed set of structured effects. Every variant is declared
// in this file; anything the decoder does not recognise becomes UnknownEffect.
type Effect interface {
	Kind() EffectKind
	TargetOf() Target
	isEffect()
}

// ResourceDelta adds Delta to a named resource
type ResourceDelta struct {
	Target   Target `json:"target,omitempty"`
	Resource string `json:"resource"`
	Delta    int    `json:"delta"`
}

// ResourceSet overwrites a named resource with Value
type ResourceSet struct {
	Target   Target `json:"target,omitempty"`
	Resource string `json:"resource"`
	Value    int    `json:"value"`
}

// Heal restores hp by a dice roll plus a flat amount
type Heal struct {
	Target Target `json:"target,omitempty"`
	Dice   string `json:"dice,omitempty"`
	Flat   int    `json:"flat,omitempty"`
}

// StatusGrant applies stacks/duration of a named status. Buffs decode to the
// same shape with Buff set.
type StatusGrant struct {
	Target   Target `json:"target,omitempty"`
	Status   string `json:"status"`
	Stacks   int    `json:"stacks"`
	Duration int    `json:"duration"`
	Buff     bool   `json:"buff,omitempty"`
}

// ReduceDamage queues a one-shot shield on the target. The value is
// Amount plus a roll of Dice, evaluated when the shield is consumed.
type ReduceDamage struct {
	Target Target `json:"target,omitempty"`
	Amount int    `json:"amount,omitempty"`
	Dice   string `json:"dice,omitempty"`
}

// Bonus is a cumulative temporary attack, defense or idf bonus
type Bonus struct {
	Target Target     `json:"target,omitempty"`
	Type   EffectKind `json:"type"`
	Amount int        `json:"amount"`
}

// UnknownEffect keeps the kind name of an effect this engine does not know
type UnknownEffect struct {
	Target Target `json:"target,omitempty"`
	Type   string `json:"type"`
}

func (e ResourceDelta) Kind() EffectKind { return EffectResourceDelta }
func (e ResourceSet) Kind() EffectKind   { return EffectResourceSet }
func (e Heal) Kind() EffectKind          { return EffectHeal }
func (e ReduceDamage) Kind() EffectKind  { return EffectReduceDamage }
func (e Bonus) Kind() EffectKind         { return e.Type }
func (e UnknownEffect) Kind() EffectKind { return EffectKind(e.Type) }
func (e StatusGrant) Kind() EffectKind {
	if e.Buff {
		return EffectBuff
	}
	return EffectStatus
}

func (e ResourceDelta) TargetOf() Target { return e.Target }
func (e ResourceSet) TargetOf() Target   { return e.Target }
func (e Heal) TargetOf() Target          { return e.Target }
func (e StatusGrant) TargetOf() Target   { return e.Target }
func (e ReduceDamage) TargetOf() Target  { return e.Target }
func (e Bonus) TargetOf() Target         { return e.Target }
func (e UnknownEffect) TargetOf() Target { return e.Target }

func (ResourceDelta) isEffect() {}
func (ResourceSet) isEffect()   {}
func (Heal) isEffect()          {}
func (StatusGrant) isEffect()   {}
func (ReduceDamage) isEffect()  {}
func (Bonus) isEffect()         {}
func (UnknownEffect) isEffect() {}

// EffectSpec is the wire shape of an effect object
type EffectSpec struct {
	Type     string `json:"type"`
	Target   string `json:"target,omitempty"`
	Resource string `json:"resource,omitempty"`
	Delta    *int   `json:"delta,omitempty"`
	Status   string `json:"status,omitempty"`
	Stacks   *int   `json:"stacks,omitempty"`
	Duration *int   `json:"duration,omitempty"`
	Dice     string `json:"dice,omitempty"`
	Flat     *int   `json:"flat,omitempty"`
	Amount   *int   `json:"amount,omitempty"`
}

// Decode turns the wire shape into its Effect variant
func (s EffectSpec) Decode() Effect {
	target := Target(s.Target)

	switch EffectKind(s.Type) {
	case EffectResourceDelta:
		return ResourceDelta{Target: target, Resource: s.Resource, Delta: firstInt(s.Delta, s.Amount)}
	case EffectResourceSet:
		return ResourceSet{Target: target, Resource: s.Resource, Value: firstInt(s.Amount, s.Delta)}
	case EffectHeal:
		return Heal{Target: target, Dice: s.Dice, Flat: firstInt(s.Flat, s.Amount)}
	case EffectStatus, EffectBuff:
		return StatusGrant{
			Target:   target,
			Status:   s.Status,
			Stacks:   intOr(s.Stacks, 1),
			Duration: intOr(s.Duration, 1),
			Buff:     EffectKind(s.Type) == EffectBuff,
		}
	case EffectReduceDamage:
		return ReduceDamage{Target: target, Amount: firstInt(s.Amount, s.Flat), Dice: s.Dice}
	case EffectAttackBonus, EffectDefenseBonus, EffectIDFBonus:
		return Bonus{Target: target, Type: EffectKind(s.Type), Amount: firstInt(s.Amount, s.Delta)}
	default:
		return UnknownEffect{Target: target, Type: s.Type}
	}
}

// EffectList decodes a JSON array of effect objects into Effect variants
type EffectList []Effect

// UnmarshalJSON implements json.Unmarshaler
func (l *EffectList) UnmarshalJSON(data []byte) error {
	var specs []EffectSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return fmt.Errorf("decode effects: %w", err)
	}

	out := make(EffectList, 0, len(specs))
	for _, spec := range specs {
		out = append(out, spec.Decode())
	}
	*l = out
	return nil
}

// MarshalJSON writes the list back in wire shape so snapshots round-trip
func (l EffectList) MarshalJSON() ([]byte, error) {
	specs := make([]EffectSpec, 0, len(l))
	for _, e := range l {
		specs = append(specs, Encode(e))
	}
	return json.Marshal(specs)
}

// Encode converts an Effect variant back to its wire shape
func Encode(e Effect) EffectSpec {
	spec := EffectSpec{Type: string(e.Kind()), Target: string(e.TargetOf())}

	switch v := e.(type) {
	case ResourceDelta:
		spec.Resource = v.Resource
		spec.Delta = intPtr(v.Delta)
	case ResourceSet:
		spec.Resource = v.Resource
		spec.Amount = intPtr(v.Value)
	case Heal:
		spec.Dice = v.Dice
		spec.Flat = intPtr(v.Flat)
	case StatusGrant:
		spec.Status = v.Status
		spec.Stacks = intPtr(v.Stacks)
		spec.Duration = intPtr(v.Duration)
	case ReduceDamage:
		spec.Amount = intPtr(v.Amount)
		spec.Dice = v.Dice
	case Bonus:
		spec.Amount = intPtr(v.Amount)
	}
	return spec
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func intPtr(v int) *int {
	return &v
}
