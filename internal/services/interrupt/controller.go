package interrupt

import (
	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/dice"
	"github.com/KirkDiggler/combat-engine/internal/domain/status"
	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// Controller defaults
const (
	DefaultBreakMargin = 5
	DefaultDamageDie   = "1d4"
	DefaultStat        = "agility"
)

// RollOptions limits what a contest may touch
type RollOptions struct {
	AllowReaction bool
	ApplyDamage   bool
}

// RollResult is the full audit of one interrupt contest. The attacker is
// the interrupting side; the defender is the chain's aggressor.
type RollResult struct {
	Hit           bool
	Attacker      dice.ModifiedRoll
	Defender      dice.ModifiedRoll
	AttackerTotal int
	DefenderTotal int
	Margin        int
	Damage        int
	Reaction      string
	Shield        int
	Blocked       bool
	Reflected     int
	ChainBroken   bool
	Invalidated   bool
}

// Audit converts the result for the combat log
func (r RollResult) Audit(interrupter string) *entities.ReactionAudit {
	return &entities.ReactionAudit{
		Interrupter:   interrupter,
		Hit:           r.Hit,
		AttackerRolls: append([]int(nil), r.Attacker.Rolls...),
		DefenderRolls: append([]int(nil), r.Defender.Rolls...),
		AttackerTotal: r.AttackerTotal,
		DefenderTotal: r.DefenderTotal,
		Margin:        r.Margin,
		Damage:        r.Damage,
		Reaction:      r.Reaction,
		Shield:        r.Shield,
		Blocked:       r.Blocked,
		Reflected:     r.Reflected,
		ChainBroken:   r.ChainBroken,
	}
}

// Controller resolves contested interrupt rolls. It never reads or writes
// phase or turn state.
type Controller struct {
	src         dice.Source
	breakMargin int
	damageDie   string
	stat        string
	logger      *zap.Logger
}

// ControllerConfig holds the controller's settings
type ControllerConfig struct {
	Source      dice.Source
	BreakMargin int
	DamageDie   string
	Stat        string
	Logger      *zap.Logger
}

// NewController creates an interrupt controller
func NewController(cfg *ControllerConfig) *Controller {
	if cfg == nil || cfg.Source == nil {
		panic("dice source is required")
	}

	c := &Controller{
		src:         cfg.Source,
		breakMargin: cfg.BreakMargin,
		damageDie:   cfg.DamageDie,
		stat:        cfg.Stat,
		logger:      cfg.Logger,
	}
	if c.breakMargin <= 0 {
		c.breakMargin = DefaultBreakMargin
	}
	if c.damageDie == "" {
		c.damageDie = DefaultDamageDie
	}
	if c.stat == "" {
		c.stat = DefaultStat
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// BreakMargin is the margin at which a hit breaks the chain on its own
func (c *Controller) BreakMargin() int {
	return c.breakMargin
}

// Roll contests attacker against defender. Each side rolls the 2d10 check
// in the mode its stagger stacks give it.
func (c *Controller) Roll(attacker, defender *entities.Participant, opts RollOptions) RollResult {
	var res RollResult

	res.Attacker = dice.RollModified(c.src, dice.ModeFromStagger(attacker.Statuses.Stacks(status.Stagger)))
	res.Defender = dice.RollModified(c.src, dice.ModeFromStagger(defender.Statuses.Stacks(status.Stagger)))

	res.AttackerTotal = res.Attacker.Total + attacker.StatModifier(c.stat) + attacker.Bonuses.Attack
	res.DefenderTotal = res.Defender.Total + defender.StatModifier(c.stat) + defender.Bonuses.Defense
	res.Margin = res.AttackerTotal - res.DefenderTotal
	res.Hit = res.AttackerTotal >= res.DefenderTotal

	if res.Hit {
		res.Damage = dice.Roll(c.src, c.damageDie)

		if opts.AllowReaction {
			c.react(attacker, defender, opts, &res)
		}
		if opts.ApplyDamage && res.Damage > 0 {
			res.Damage = defender.HP.Sub(res.Damage)
		}
	}

	res.Invalidated = res.Hit && res.Margin >= c.breakMargin
	res.ChainBroken = res.Hit && (res.Damage > 0 || res.Invalidated)

	c.logger.Debug("interrupt contest",
		zap.String("attacker", attacker.ID),
		zap.String("defender", defender.ID),
		zap.Ints("attacker_kept", res.Attacker.Kept),
		zap.Ints("defender_kept", res.Defender.Kept),
		zap.Int("attacker_total", res.AttackerTotal),
		zap.Int("defender_total", res.DefenderTotal),
		zap.Int("margin", res.Margin),
		zap.Int("damage", res.Damage),
		zap.Bool("chain_broken", res.ChainBroken))

	return res
}

// react lets the defender's defensive reaction soak the interrupt damage.
// A full block reflects the reaction stat's modifier, when positive.
func (c *Controller) react(attacker, defender *entities.Participant, opts RollOptions, res *RollResult) {
	reaction := defender.AbilityTagged(entities.TagDefensiveReaction)
	if reaction == nil {
		return
	}
	reaction.Cooldown.Current = reaction.Cooldown.Base

	res.Reaction = reaction.Name
	res.Shield = max(dice.Roll(c.src, reaction.Dice), 0)
	absorbed := min(res.Shield, res.Damage)
	res.Damage -= absorbed

	if res.Damage > 0 {
		return
	}
	res.Blocked = true

	stat := reaction.Stat
	if stat == "" {
		stat = c.stat
	}
	if mod := defender.StatModifier(stat); mod > 0 {
		res.Reflected = mod
		if opts.ApplyDamage {
			res.Reflected = attacker.HP.Sub(mod)
		}
	}
}
