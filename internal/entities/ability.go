package entities

import "strings"

// Ability tags with engine-defined side effects
const (
	TagMomentum          = "momentum"
	TagHeat              = "heat"
	TagBalanceMinus1     = "balance_minus_1"
	TagBalancePlus2      = "balance_plus_2"
	TagDefensiveReaction = "defensive_reaction"
)

// Cooldown tracks rounds until an ability can be declared again
type Cooldown struct {
	Current int `json:"current"`
	Base    int `json:"base"`
}

// Ability is a move template. Templates are shared read-only; each
// participant holds its own copy so only its cooldown changes.
type Ability struct {
	Name     string   `json:"name"`
	Path     string   `json:"path,omitempty"`
	Tier     int      `json:"tier,omitempty"`
	Cost     int      `json:"cost,omitempty"`
	Resource string   `json:"resource,omitempty"`
	Pool     string   `json:"pool,omitempty"`
	Dice     string   `json:"dice,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Stat     string   `json:"stat,omitempty"`

	// Nil means true
	AddStatToAttackRoll *bool `json:"addStatToAttackRoll,omitempty"`
	AddStatToDamage     *bool `json:"addStatToDamage,omitempty"`

	// ToHit is the per-link to-hit modifier
	ToHit int `json:"to_hit,omitempty"`

	// DamageBonus is a flat bonus added on hit
	DamageBonus int `json:"damage_bonus,omitempty"`

	Cooldown Cooldown               `json:"cooldown"`
	Effects  map[Trigger]EffectList `json:"effects,omitempty"`
}

// StatOnAttack reports whether the stat modifier is added to the attack roll
func (a *Ability) StatOnAttack() bool {
	return a.AddStatToAttackRoll == nil || *a.AddStatToAttackRoll
}

// StatOnDamage reports whether the stat modifier is added to damage
func (a *Ability) StatOnDamage() bool {
	return a.AddStatToDamage == nil || *a.AddStatToDamage
}

// HasTag reports whether the ability carries tag (case-insensitive)
func (a *Ability) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// EffectsFor returns the effects fired by trigger
func (a *Ability) EffectsFor(trigger Trigger) []Effect {
	if a.Effects == nil {
		return nil
	}
	return a.Effects[trigger]
}

// OnCooldown reports whether the ability cannot be used this round
func (a *Ability) OnCooldown() bool {
	return a.Cooldown.Current > 0
}

// Clone returns a participant-owned copy of the template
func (a *Ability) Clone() *Ability {
	if a == nil {
		return nil
	}
	c := *a
	c.Tags = append([]string(nil), a.Tags...)
	if a.Effects != nil {
		c.Effects = make(map[Trigger]EffectList, len(a.Effects))
		for trig, list := range a.Effects {
			c.Effects[trig] = append(EffectList(nil), list...)
		}
	}
	return &c
}
