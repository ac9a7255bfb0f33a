package status

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// Status names the engine gives special treatment
const (
	Stunned = "stunned"
	Guarded = "guarded"
	Focused = "focused"
	Marked  = "marked"
	Exposed = "exposed"
	Stagger = "stagger"
	Bleed   = "bleed"
	Burn    = "burn"
	Poison  = "poison"
)

// nonStacking statuses keep one stack and extend their duration
var nonStacking = map[string]bool{
	Stunned: true,
	Guarded: true,
	Focused: true,
	Marked:  true,
	Exposed: true,
}

// damageOverTime statuses deal one damage per stack on each tick
var damageOverTime = map[string]bool{
	Bleed:  true,
	Burn:   true,
	Poison: true,
}

// IsNonStacking reports whether name uses the non-stacking policy
func IsNonStacking(name string) bool {
	return nonStacking[strings.ToLower(name)]
}

// IsDamageOverTime reports whether name deals damage on tick
func IsDamageOverTime(name string) bool {
	return damageOverTime[strings.ToLower(name)]
}

// TickSummary is the outcome of one upkeep pass on a participant
type TickSummary struct {
	Damage  int      `json:"damage"`
	Expired []string `json:"expired"`
}

// Engine applies, stacks and decays statuses
type Engine struct {
	logger *zap.Logger
}

// Config holds the engine's collaborators
type Config struct {
	Logger *zap.Logger
}

// NewEngine creates a status engine
func NewEngine(cfg *Config) *Engine {
	e := &Engine{logger: zap.NewNop()}
	if cfg != nil && cfg.Logger != nil {
		e.logger = cfg.Logger
	}
	return e
}

// Apply adds each grant to the target and returns the applied names in order.
// Stackable statuses add stacks and keep the longer duration; non-stacking
// statuses hold at least one stack and add the new duration.
func (e *Engine) Apply(target *entities.Participant, grants []entities.StatusGrant) []string {
	if target == nil || len(grants) == 0 {
		return nil
	}
	target.EnsureMaps()

	applied := make([]string, 0, len(grants))
	for _, g := range grants {
		name := strings.ToLower(strings.TrimSpace(g.Status))
		if name == "" {
			continue
		}
		stacks := g.Stacks
		if stacks < 1 {
			stacks = 1
		}
		duration := g.Duration
		if duration < 1 {
			duration = 1
		}

		existing := target.Statuses.Get(name)
		next := existing
		if nonStacking[name] {
			next.Stacks = max(1, existing.Stacks)
			next.Duration = existing.Duration + duration
		} else {
			next.Stacks = existing.Stacks + stacks
			next.Duration = max(existing.Duration, duration)
		}
		target.Statuses[name] = next
		applied = append(applied, name)

		e.logger.Debug("status applied",
			zap.String("participant", target.ID),
			zap.String("status", name),
			zap.Int("stacks", next.Stacks),
			zap.Int("duration", next.Duration))
	}
	return applied
}

// Tick runs one round of decay: damage-over-time first, then every
// duration drops by one and statuses at zero or below are removed.
func (e *Engine) Tick(target *entities.Participant) TickSummary {
	summary := TickSummary{Expired: []string{}}
	if target == nil || len(target.Statuses) == 0 {
		return summary
	}

	names := make([]string, 0, len(target.Statuses))
	for name := range target.Statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := target.Statuses[name]
		if damageOverTime[name] && st.Stacks > 0 {
			summary.Damage += target.HP.Sub(st.Stacks)
		}

		st.Duration--
		if st.Duration <= 0 {
			delete(target.Statuses, name)
			summary.Expired = append(summary.Expired, name)
			continue
		}
		target.Statuses[name] = st
	}

	if summary.Damage > 0 || len(summary.Expired) > 0 {
		e.logger.Debug("status tick",
			zap.String("participant", target.ID),
			zap.Int("damage", summary.Damage),
			zap.Strings("expired", summary.Expired))
	}
	return summary
}
