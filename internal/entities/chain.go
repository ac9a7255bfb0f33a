package entities

// ChainStatus is the terminal state of a chain resolution call
type ChainStatus string

const (
	ChainCompleted ChainStatus = "completed"
	ChainBroken    ChainStatus = "broken"
	ChainAwaiting  ChainStatus = "awaiting"
)

// Chain break reasons
const (
	ReasonDamageEndedChain = "damage_ended_chain"
	ReasonInterrupted      = "interrupted"
	ReasonEmptyChain       = "empty_chain"
	ReasonAllLinksResolved = "all_links_resolved"
	ReasonAwaitingDecision = "awaiting_interrupt_decision"
	ReasonAggressorDown    = "aggressor_down"
)

// ChainResult is what a resolve call ends in
type ChainResult struct {
	Status        ChainStatus `json:"status"`
	Reason        string      `json:"reason,omitempty"`
	LinksResolved int         `json:"links_resolved"`
	Invalidated   bool        `json:"invalidated,omitempty"`
	Awaiting      *Suspension `json:"awaiting,omitempty"`
}

// SuspensionType names what external input a suspension waits for
type SuspensionType string

const (
	SuspensionInterruptDecision SuspensionType = "interrupt_decision"
)

// Interrupt decision options offered to a human defender
const (
	OptionInterrupt = "interrupt"
	OptionPass      = "pass"
)

// Suspension describes the decision a non-blocking caller must supply
// before the chain can continue.
type Suspension struct {
	Type        SuspensionType   `json:"type"`
	Options     []string         `json:"options"`
	When        WindowPhase      `json:"when"`
	LinkIndex   int              `json:"link_index"`
	AggressorID string           `json:"aggressor_id"`
	DefenderID  string           `json:"defender_id"`
	Window      *InterruptWindow `json:"window,omitempty"`
}

// Allows reports whether choice is one of the offered options
func (s *Suspension) Allows(choice string) bool {
	for _, o := range s.Options {
		if o == choice {
			return true
		}
	}
	return false
}

// PendingAction holds rolled values between ResolveStep and ApplyEffects
type PendingAction struct {
	ActorID      string   `json:"actor_id"`
	Ability      string   `json:"ability"`
	D20          int      `json:"d20"`
	AttackTotal  int      `json:"attack_total"`
	BalanceBonus int      `json:"balance_bonus"`
	DamageRoll   int      `json:"damage_roll"`
	DamageRolls  []int    `json:"damage_rolls,omitempty"`
	DamageTotal  int      `json:"damage_total"`
	OnUseApplied []string `json:"on_use_applied,omitempty"`
}

// DVMode selects how the defender's target number is produced
type DVMode string

const (
	// DVStatic uses dv_base + idf + momentum + bonuses
	DVStatic DVMode = "static"
	// DVPerChain rolls one defender d20 shared by every link
	DVPerChain DVMode = "per_chain"
)

// ChainStage is where inside a link a run currently is
type ChainStage string

const (
	StageBeforeLink ChainStage = "before_link"
	StageResolve    ChainStage = "resolve"
	StageAfterLink  ChainStage = "after_link"
)

// ChainRun is the in-flight state of a chain, kept on the encounter so an
// awaiting chain can be resumed by a later call.
type ChainRun struct {
	AggressorID   string     `json:"aggressor_id"`
	DefenderID    string     `json:"defender_id"`
	Abilities     []string   `json:"abilities"`
	DefenderGroup []string   `json:"defender_group,omitempty"`
	DVMode        DVMode     `json:"dv_mode"`
	Index         int        `json:"index"`
	Stage         ChainStage `json:"stage"`
	AttackD20     int        `json:"attack_d20"`
	DefenseD20    int        `json:"defense_d20,omitempty"`
	LastMissed    bool       `json:"last_missed"`
	LinksResolved int        `json:"links_resolved"`
	Invalidated   bool       `json:"invalidated,omitempty"`
}
