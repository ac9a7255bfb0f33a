package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Side is which team a participant fights for
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Controller is who makes decisions for a participant
type Controller string

const (
	ControllerHuman Controller = "human"
	ControllerAI    Controller = "ai"
)

// MeterSeed holds the starting combat meters copied into the meter store on registration
type MeterSeed struct {
	Heat     int `json:"heat"`
	Balance  int `json:"balance"`
	Momentum int `json:"momentum"`
	RP       int `json:"rp"`
	RPCap    int `json:"rp_cap"`
}

// TempBonuses are cumulative until explicitly reset
type TempBonuses struct {
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	IDF     int `json:"idf"`
}

// Reset clears all temporary bonuses
func (b *TempBonuses) Reset() {
	*b = TempBonuses{}
}

// Declaration is a committed chain for the current round
type Declaration struct {
	Abilities    []string `json:"abilities"`
	ResolveSpent int      `json:"resolve_spent"`
}

// Participant is a player character or an enemy instance. The engine mutates
// it in place while resolving.
type Participant struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Side       Side           `json:"side"`
	Controller Controller     `json:"controller,omitempty"`
	Archetype  string         `json:"archetype,omitempty"`
	Attributes map[string]int `json:"attributes,omitempty"`

	HP     Resource `json:"hp"`
	IDF    int      `json:"idf"`
	DVBase int      `json:"dv_base"`

	Meters    MeterSeed      `json:"meters"`
	Resources map[string]int `json:"resources,omitempty"`

	Abilities []*Ability `json:"abilities,omitempty"`
	Statuses  StatusMap  `json:"statuses,omitempty"`

	Bonuses         TempBonuses    `json:"bonuses"`
	DamageReduction []ReduceDamage `json:"damage_reduction,omitempty"`
	Declaration     *Declaration   `json:"declaration,omitempty"`

	// BloodMarkTier unlocks passive combat bonuses
	BloodMarkTier int `json:"blood_mark_tier,omitempty"`

	// MomentumFeeds maps a trigger name to the chance of gaining momentum
	MomentumFeeds map[string]float64 `json:"momentum_feeds,omitempty"`

	Windows []InterruptWindow `json:"interrupt_windows,omitempty"`

	// DamageTakenThisLink is set by the action resolver for the current link
	DamageTakenThisLink bool `json:"damage_taken_this_link,omitempty"`
}

// IsHuman reports whether a person decides for this participant
func (p *Participant) IsHuman() bool {
	return p.Controller == ControllerHuman
}

// DisplayName is the name when set, otherwise the ID
func (p *Participant) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Alive reports whether the participant can still act
func (p *Participant) Alive() bool {
	return p.HP.Current > 0
}

// Ability finds the participant's own copy of an ability by name
func (p *Participant) Ability(name string) *Ability {
	for _, a := range p.Abilities {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

// AbilityTagged returns the first usable ability carrying tag
func (p *Participant) AbilityTagged(tag string) *Ability {
	for _, a := range p.Abilities {
		if a.HasTag(tag) && !a.OnCooldown() {
			return a
		}
	}
	return nil
}

// StatModifier returns floor((score-10)/2) for stat; unknown stats give 0
func (p *Participant) StatModifier(stat string) int {
	if stat == "" || p.Attributes == nil {
		return 0
	}
	score, ok := p.Attributes[strings.ToLower(stat)]
	if !ok {
		return 0
	}
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// EnsureMaps initializes nil maps so the engine can write without checks
func (p *Participant) EnsureMaps() {
	if p.Statuses == nil {
		p.Statuses = StatusMap{}
	}
	if p.Resources == nil {
		p.Resources = map[string]int{}
	}
	if p.Attributes == nil {
		p.Attributes = map[string]int{}
	}
}

// meterAliases maps resource keys found in data files onto meter seeds
var meterAliases = map[string]func(*MeterSeed) *int{
	"heat":        func(m *MeterSeed) *int { return &m.Heat },
	"balance":     func(m *MeterSeed) *int { return &m.Balance },
	"momentum":    func(m *MeterSeed) *int { return &m.Momentum },
	"rp":          func(m *MeterSeed) *int { return &m.RP },
	"resolve":     func(m *MeterSeed) *int { return &m.RP },
	"rp_cap":      func(m *MeterSeed) *int { return &m.RPCap },
	"resolve_cap": func(m *MeterSeed) *int { return &m.RPCap },
}

// UnmarshalJSON normalizes the shapes found in character and enemy files:
// hp may be top-level or nested under resources, and meters may be listed
// under resources by name.
func (p *Participant) UnmarshalJSON(data []byte) error {
	type plain Participant
	var raw struct {
		plain
		HP        json.RawMessage            `json:"hp"`
		Resources map[string]json.RawMessage `json:"resources"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Participant(raw.plain)
	p.Resources = nil

	if len(raw.HP) > 0 && string(raw.HP) != "null" {
		if err := json.Unmarshal(raw.HP, &p.HP); err != nil {
			return fmt.Errorf("participant %q hp: %w", raw.ID, err)
		}
	}

	for key, value := range raw.Resources {
		name := strings.ToLower(key)
		switch {
		case name == "hp":
			if err := json.Unmarshal(value, &p.HP); err != nil {
				return fmt.Errorf("participant %q resources.hp: %w", raw.ID, err)
			}
		case name == "idf":
			if err := json.Unmarshal(value, &p.IDF); err != nil {
				return fmt.Errorf("participant %q resources.idf: %w", raw.ID, err)
			}
		case meterAliases[name] != nil:
			if err := json.Unmarshal(value, meterAliases[name](&p.Meters)); err != nil {
				return fmt.Errorf("participant %q resources.%s: %w", raw.ID, key, err)
			}
		default:
			var n int
			if err := json.Unmarshal(value, &n); err != nil {
				return fmt.Errorf("participant %q resources.%s: %w", raw.ID, key, err)
			}
			if p.Resources == nil {
				p.Resources = map[string]int{}
			}
			p.Resources[name] = n
		}
	}

	if len(p.Attributes) > 0 {
		attrs := make(map[string]int, len(p.Attributes))
		for k, v := range p.Attributes {
			attrs[strings.ToLower(k)] = v
		}
		p.Attributes = attrs
	}

	p.EnsureMaps()
	return nil
}
