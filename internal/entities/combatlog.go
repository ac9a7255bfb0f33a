package entities

import (
	"encoding/json"
)

// LogKind classifies an entry of the combat log
type LogKind string

const (
	LogActionResolution LogKind = "action_resolution"
	LogDefenseReaction  LogKind = "defense_reaction"
	LogExposure         LogKind = "exposure"
	LogStatusTick       LogKind = "status_tick"
	LogChainResult      LogKind = "chain_result"
)

// MeterSnapshot is a participant's resources at the moment an entry was written
type MeterSnapshot struct {
	HP       int `json:"hp"`
	MaxHP    int `json:"max_hp"`
	RP       int `json:"rp"`
	RPCap    int `json:"rp_cap"`
	Heat     int `json:"heat"`
	Balance  int `json:"balance"`
	Momentum int `json:"momentum"`
}

// RollAudit keeps every number that went into a hit decision
type RollAudit struct {
	D20           int   `json:"d20"`
	AttackTotal   int   `json:"attack_total"`
	DefenseD20    int   `json:"defense_d20,omitempty"`
	DefenseTarget int   `json:"defense_target"`
	Contested     bool  `json:"contested"`
	DamageRolls   []int `json:"damage_rolls,omitempty"`
	DamageRoll    int   `json:"damage_roll"`
}

// DamageBreakdown itemizes a hit's damage
type DamageBreakdown struct {
	Base     int `json:"base"`
	Heat     int `json:"heat"`
	Flat     int `json:"flat"`
	Passive  int `json:"passive"`
	Absorbed int `json:"absorbed"`
	Dealt    int `json:"dealt"`
}

// ReactionAudit records an interrupt contest and any defensive reaction
type ReactionAudit struct {
	Interrupter   string `json:"interrupter"`
	Hit           bool   `json:"hit"`
	AttackerRolls []int  `json:"attacker_rolls"`
	DefenderRolls []int  `json:"defender_rolls"`
	AttackerTotal int    `json:"attacker_total"`
	DefenderTotal int    `json:"defender_total"`
	Margin        int    `json:"margin"`
	Damage        int    `json:"damage"`
	Reaction      string `json:"reaction,omitempty"`
	Shield        int    `json:"shield,omitempty"`
	Blocked       bool   `json:"blocked,omitempty"`
	Reflected     int    `json:"reflected,omitempty"`
	ChainBroken   bool   `json:"chain_broken"`
}

// TickAudit records a status upkeep pass for one participant
type TickAudit struct {
	Damage  int      `json:"damage"`
	Expired []string `json:"expired,omitempty"`
}

// LogEntry is one append-only record consumed by narration and UI
type LogEntry struct {
	ID      string  `json:"id"`
	Seq     int     `json:"seq"`
	Round   int     `json:"round"`
	Kind    LogKind `json:"kind"`
	Actor   string  `json:"actor,omitempty"`
	Target  string  `json:"target,omitempty"`
	Ability string  `json:"ability,omitempty"`

	Hit            bool `json:"hit,omitempty"`
	Crit           bool `json:"crit,omitempty"`
	PerfectDefense bool `json:"perfect_defense,omitempty"`

	Rolls           *RollAudit               `json:"rolls,omitempty"`
	Damage          *DamageBreakdown         `json:"damage,omitempty"`
	StatusesApplied []string                 `json:"statuses_applied,omitempty"`
	Resources       map[string]MeterSnapshot `json:"resources,omitempty"`
	Exposure        []string                 `json:"exposure,omitempty"`
	Reaction        *ReactionAudit           `json:"reaction,omitempty"`
	Tick            *TickAudit               `json:"tick,omitempty"`
	Chain           *ChainResult             `json:"chain,omitempty"`
	Notes           []string                 `json:"notes,omitempty"`

	Narration      string `json:"narration,omitempty"`
	NarrationError string `json:"narration_error,omitempty"`
}

// LogPublisher receives entries after they are appended
type LogPublisher interface {
	Publish(entry LogEntry)
}

// CombatLog is append-only. Entries are copied in and out so nothing
// outside the log can change a recorded entry.
type CombatLog struct {
	entries   []LogEntry
	publisher LogPublisher
}

// NewCombatLog creates an empty log
func NewCombatLog() *CombatLog {
	return &CombatLog{}
}

// SetPublisher attaches a publisher notified on every append
func (l *CombatLog) SetPublisher(p LogPublisher) {
	l.publisher = p
}

// Append records entry, assigning its sequence number, and returns the stored copy
func (l *CombatLog) Append(entry LogEntry) LogEntry {
	entry.Seq = len(l.entries) + 1
	entry = cloneEntry(entry)
	l.entries = append(l.entries, entry)

	if l.publisher != nil {
		l.publisher.Publish(cloneEntry(entry))
	}
	return cloneEntry(entry)
}

// Len returns the number of entries
func (l *CombatLog) Len() int {
	return len(l.entries)
}

// Entries returns a copy of every entry
func (l *CombatLog) Entries() []LogEntry {
	return l.Since(0)
}

// Since returns copies of entries after the first n
func (l *CombatLog) Since(n int) []LogEntry {
	if n < 0 {
		n = 0
	}
	if n >= len(l.entries) {
		return []LogEntry{}
	}
	out := make([]LogEntry, 0, len(l.entries)-n)
	for _, e := range l.entries[n:] {
		out = append(out, cloneEntry(e))
	}
	return out
}

// Last returns the most recent entry
func (l *CombatLog) Last() (LogEntry, bool) {
	if len(l.entries) == 0 {
		return LogEntry{}, false
	}
	return cloneEntry(l.entries[len(l.entries)-1]), true
}

// MarshalJSON writes the entries as an array
func (l *CombatLog) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

// UnmarshalJSON restores entries from an array
func (l *CombatLog) UnmarshalJSON(data []byte) error {
	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.entries = entries
	return nil
}

// Restore replaces the entries, used when loading a persisted encounter
func (l *CombatLog) Restore(entries []LogEntry) {
	l.entries = append([]LogEntry(nil), entries...)
}

func cloneEntry(e LogEntry) LogEntry {
	c := e
	if e.Rolls != nil {
		r := *e.Rolls
		r.DamageRolls = append([]int(nil), e.Rolls.DamageRolls...)
		c.Rolls = &r
	}
	if e.Damage != nil {
		d := *e.Damage
		c.Damage = &d
	}
	if e.Reaction != nil {
		r := *e.Reaction
		r.AttackerRolls = append([]int(nil), e.Reaction.AttackerRolls...)
		r.DefenderRolls = append([]int(nil), e.Reaction.DefenderRolls...)
		c.Reaction = &r
	}
	if e.Tick != nil {
		t := *e.Tick
		t.Expired = append([]string(nil), e.Tick.Expired...)
		c.Tick = &t
	}
	if e.Chain != nil {
		ch := *e.Chain
		if e.Chain.Awaiting != nil {
			s := *e.Chain.Awaiting
			s.Options = append([]string(nil), e.Chain.Awaiting.Options...)
			ch.Awaiting = &s
		}
		c.Chain = &ch
	}
	c.StatusesApplied = append([]string(nil), e.StatusesApplied...)
	c.Exposure = append([]string(nil), e.Exposure...)
	c.Notes = append([]string(nil), e.Notes...)
	if e.Resources != nil {
		c.Resources = make(map[string]MeterSnapshot, len(e.Resources))
		for k, v := range e.Resources {
			c.Resources[k] = v
		}
	}
	return c
}
