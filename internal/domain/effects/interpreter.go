package effects

import (
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/dice"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/domain/status"
	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// Resource names routed to the participant rather than the meter store
const (
	ResourceHP  = "hp"
	ResourceIDF = "idf"
)

// Outcome summarizes one Apply call for the combat log
type Outcome struct {
	StatusesApplied []string
	Healed          int
	Skipped         []string
}

// Interpreter executes structured effect lists
type Interpreter struct {
	src      dice.Source
	statuses *status.Engine
	logger   *zap.Logger
}

// Config holds the interpreter's collaborators
type Config struct {
	Source   dice.Source
	Statuses *status.Engine
	Logger   *zap.Logger
}

// NewInterpreter creates an effect interpreter
func NewInterpreter(cfg *Config) *Interpreter {
	if cfg == nil || cfg.Source == nil {
		panic("dice source is required")
	}

	in := &Interpreter{
		src:      cfg.Source,
		statuses: cfg.Statuses,
		logger:   cfg.Logger,
	}
	if in.logger == nil {
		in.logger = zap.NewNop()
	}
	if in.statuses == nil {
		in.statuses = status.NewEngine(&status.Config{Logger: in.logger})
	}
	return in
}

// Apply runs every effect against actor or enemy. Effects without a target
// land on defaultTarget. Unknown kinds are skipped.
func (in *Interpreter) Apply(store *meters.Store, actor, enemy *entities.Participant, list []entities.Effect, defaultTarget entities.Target) Outcome {
	var out Outcome

	for _, effect := range list {
		target := resolveTarget(effect.TargetOf(), defaultTarget, actor, enemy)
		if target == nil {
			continue
		}
		target.EnsureMaps()

		switch e := effect.(type) {
		case entities.ResourceDelta:
			AdjustResource(store, target, e.Resource, e.Delta)
		case entities.ResourceSet:
			SetResource(store, target, e.Resource, e.Value)
		case entities.Heal:
			amount := dice.Roll(in.src, e.Dice) + e.Flat
			out.Healed += target.HP.Add(amount)
		case entities.StatusGrant:
			out.StatusesApplied = append(out.StatusesApplied, in.statuses.Apply(target, []entities.StatusGrant{e})...)
		case entities.ReduceDamage:
			target.DamageReduction = append(target.DamageReduction, e)
		case entities.Bonus:
			switch e.Type {
			case entities.EffectAttackBonus:
				target.Bonuses.Attack += e.Amount
			case entities.EffectDefenseBonus:
				target.Bonuses.Defense += e.Amount
			case entities.EffectIDFBonus:
				target.Bonuses.IDF += e.Amount
			}
		default:
			out.Skipped = append(out.Skipped, string(effect.Kind()))
			in.logger.Debug("skipping unknown effect",
				zap.String("kind", string(effect.Kind())),
				zap.String("participant", target.ID))
		}
	}
	return out
}

func resolveTarget(t, fallback entities.Target, actor, enemy *entities.Participant) *entities.Participant {
	if t == entities.TargetDefault {
		t = fallback
	}
	if t == entities.TargetEnemy {
		return enemy
	}
	return actor
}

// ReadResource reads a named resource wherever it lives
func ReadResource(store *meters.Store, p *entities.Participant, name string) int {
	n := strings.ToLower(name)
	if meter, ok := meters.Canonical(n); ok {
		return store.Value(meters.KeyOf(p), meter)
	}
	switch n {
	case ResourceHP:
		return p.HP.Current
	case ResourceIDF:
		return p.IDF
	default:
		return p.Resources[n]
	}
}

// AdjustResource adds delta to a named resource and returns the new value.
// hp never drops below 0 and never exceeds a known max.
func AdjustResource(store *meters.Store, p *entities.Participant, name string, delta int) int {
	n := strings.ToLower(name)
	if meter, ok := meters.Canonical(n); ok {
		v, _ := store.Add(meters.KeyOf(p), meter, delta)
		return v
	}
	switch n {
	case ResourceHP:
		if delta >= 0 {
			p.HP.Add(delta)
		} else {
			p.HP.Sub(-delta)
		}
		return p.HP.Current
	case ResourceIDF:
		p.IDF += delta
		return p.IDF
	default:
		if p.Resources == nil {
			p.Resources = map[string]int{}
		}
		p.Resources[n] += delta
		return p.Resources[n]
	}
}

// SetResource overwrites a named resource
func SetResource(store *meters.Store, p *entities.Participant, name string, value int) {
	n := strings.ToLower(name)
	if meter, ok := meters.Canonical(n); ok {
		_ = store.Set(meters.KeyOf(p), meter, value)
		return
	}
	switch n {
	case ResourceHP:
		if value < 0 {
			value = 0
		}
		if p.HP.HasMax() && value > p.HP.Max {
			value = p.HP.Max
		}
		p.HP.Current = value
	case ResourceIDF:
		p.IDF = value
	default:
		if p.Resources == nil {
			p.Resources = map[string]int{}
		}
		p.Resources[n] = value
	}
}
