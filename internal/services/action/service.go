package action

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/dice"
	"github.com/KirkDiggler/combat-engine/internal/domain/effects"
	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
	"github.com/KirkDiggler/combat-engine/internal/uuid"
)

// Exposure states reported by CheckExposure
const (
	ExposureOverheat   = "overheat"
	ExposureOffBalance = "off_balance"
)

// Exposure thresholds
const (
	OverheatAt   = 5
	OffBalanceAt = -3
)

// Momentum feed triggers looked up on the defender
const (
	FeedAttackerMissed = "attacker_missed"
	FeedPerfectDefense = "perfect_defense"
)

const (
	// maxHeatBonus caps the damage bonus from prior heat
	maxHeatBonus = 4
	// edgeMargin is the margin for crits and perfect defenses
	edgeMargin = 5
)

// Service defines the single-action resolution step
type Service interface {
	// AttackRoll returns the attack total and the d20 used
	AttackRoll(actor *entities.Participant, ability *entities.Ability, forcedD20 *int) (total, d20 int)

	// DamageTotal adds the stat modifier to a base damage roll when the ability opts in
	DamageTotal(actor *entities.Participant, ability *entities.Ability, baseRoll int) int

	// ResolveStep pays the cost, rolls, applies on_use effects and stores a pending action
	ResolveStep(ctx context.Context, enc *combat.Encounter, actor *entities.Participant, ability *entities.Ability, opts *StepOptions) (*entities.PendingAction, error)

	// ApplyEffects resolves the actor's pending action against the first living enemy
	ApplyEffects(ctx context.Context, enc *combat.Encounter, actor *entities.Participant, enemies []*entities.Participant, forcedDefenseD20 *int) (*Result, error)

	// CheckExposure reports overheat/off_balance and logs them when present
	CheckExposure(ctx context.Context, enc *combat.Encounter, actor *entities.Participant) []string
}

// StepOptions tunes a single ResolveStep call
type StepOptions struct {
	ForcedD20    *int
	BalanceBonus int

	// Target receives on_use effects aimed at the enemy
	Target *entities.Participant
}

// Result is the outcome of ApplyEffects
type Result struct {
	Hit            bool
	Crit           bool
	PerfectDefense bool
	Damage         int
	Target         *entities.Participant
	Entry          entities.LogEntry
}

// Judgement is the pure hit decision
type Judgement struct {
	Hit            bool
	Crit           bool
	PerfectDefense bool
	Margin         int
}

// Judge decides hit, crit and perfect defense from the two totals
func Judge(toHit, defense int) Judgement {
	margin := toHit - defense
	hit := margin >= 0
	return Judgement{
		Hit:            hit,
		Crit:           hit && margin >= edgeMargin,
		PerfectDefense: -margin >= edgeMargin,
		Margin:         margin,
	}
}

// HeatBonus is the damage bonus granted by prior heat
func HeatBonus(priorHeat int) int {
	return min(max(priorHeat, 0), maxHeatBonus)
}

// Passives is the Blood Mark table
type Passives struct {
	WoundedTier     int
	WoundedBelowPct int
	WoundedDamage   int
	CritTier        int
	CritRP          int
}

// DefaultPassives unlocks +1 damage against wounded targets at tier 1 and
// +1 RP on a crit at tier 2.
func DefaultPassives() Passives {
	return Passives{
		WoundedTier:     1,
		WoundedBelowPct: 50,
		WoundedDamage:   1,
		CritTier:        2,
		CritRP:          1,
	}
}

type service struct {
	src           dice.Source
	interpreter   *effects.Interpreter
	narrator      Narrator
	logger        *zap.Logger
	uuidGenerator uuid.Generator
	passives      Passives
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Source        dice.Source
	Effects       *effects.Interpreter
	Narrator      Narrator
	Logger        *zap.Logger
	UUIDGenerator uuid.Generator
	Passives      *Passives
}

// NewService creates a new action service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Source == nil {
		panic("dice source is required")
	}

	svc := &service{
		src:           cfg.Source,
		interpreter:   cfg.Effects,
		narrator:      cfg.Narrator,
		logger:        cfg.Logger,
		uuidGenerator: cfg.UUIDGenerator,
		passives:      DefaultPassives(),
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.uuidGenerator == nil {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if svc.interpreter == nil {
		svc.interpreter = effects.NewInterpreter(&effects.Config{Source: cfg.Source, Logger: svc.logger})
	}
	if cfg.Passives != nil {
		svc.passives = *cfg.Passives
	}
	return svc
}

// AttackRoll returns d20 (or the forced value) plus attack bonus plus the stat modifier
func (s *service) AttackRoll(actor *entities.Participant, ability *entities.Ability, forcedD20 *int) (int, int) {
	d20 := 0
	if forcedD20 != nil {
		d20 = *forcedD20
	} else {
		d20 = s.src.Int(1, 20)
	}

	total := d20 + actor.Bonuses.Attack
	if ability.StatOnAttack() {
		total += actor.StatModifier(ability.Stat)
	}
	return total, d20
}

// DamageTotal adds the stat modifier when the ability opts in
func (s *service) DamageTotal(actor *entities.Participant, ability *entities.Ability, baseRoll int) int {
	if ability.StatOnDamage() {
		return baseRoll + actor.StatModifier(ability.Stat)
	}
	return baseRoll
}

// ResolveStep pays the cost, rolls attack and damage and stores a pending
// action. hp and enemy resources are untouched until ApplyEffects.
func (s *service) ResolveStep(ctx context.Context, enc *combat.Encounter, actor *entities.Participant, ability *entities.Ability, opts *StepOptions) (*entities.PendingAction, error) {
	if enc == nil || actor == nil || ability == nil {
		return nil, dnderr.InvalidArgument("encounter, actor and ability are required")
	}
	if opts == nil {
		opts = &StepOptions{}
	}
	if enc.PendingFor(actor) != nil {
		return nil, dnderr.FailedPreconditionf("%s already has a pending action", actor.ID).
			WithMeta("participant_id", actor.ID)
	}

	if err := s.payCost(enc, actor, ability); err != nil {
		return nil, err
	}
	ability.Cooldown.Current = ability.Cooldown.Base

	attack, d20 := s.AttackRoll(actor, ability, opts.ForcedD20)
	damage := dice.RollExpression(s.src, ability.Dice)

	pending := &entities.PendingAction{
		ActorID:      actor.ID,
		Ability:      ability.Name,
		D20:          d20,
		AttackTotal:  attack + ability.ToHit + opts.BalanceBonus,
		BalanceBonus: opts.BalanceBonus,
		DamageRoll:   damage.Total,
		DamageRolls:  damage.Rolls,
		DamageTotal:  s.DamageTotal(actor, ability, damage.Total),
	}

	if list := ability.EffectsFor(entities.TriggerOnUse); len(list) > 0 {
		out := s.interpreter.Apply(enc.Meters, actor, opts.Target, list, entities.TargetSelf)
		pending.OnUseApplied = out.StatusesApplied
	}

	enc.SetPending(actor, pending)

	s.logger.Debug("action step resolved",
		zap.String("actor", actor.ID),
		zap.String("ability", ability.Name),
		zap.Int("d20", d20),
		zap.Int("attack_total", pending.AttackTotal),
		zap.Int("damage_total", pending.DamageTotal))

	return pending, nil
}

func (s *service) payCost(enc *combat.Encounter, actor *entities.Participant, ability *entities.Ability) error {
	if ability.Cost <= 0 {
		return nil
	}

	resource := meters.RP
	switch {
	case ability.Pool != "":
		resource = ability.Pool
	case ability.Resource != "":
		resource = ability.Resource
	}

	if have := effects.ReadResource(enc.Meters, actor, resource); have < ability.Cost {
		return dnderr.Rejected("%s needs %d %s for %s, has %d", actor.DisplayName(), ability.Cost, resource, ability.Name, have).
			WithMeta("resource", resource)
	}
	effects.AdjustResource(enc.Meters, actor, resource, -ability.Cost)
	return nil
}

// ApplyEffects resolves the pending action. The pending action is cleared
// whatever the outcome. A resolved action appends exactly one
// action_resolution entry; when the ability is gone or no enemy is left
// standing nothing is resolved and nothing is appended.
func (s *service) ApplyEffects(ctx context.Context, enc *combat.Encounter, actor *entities.Participant, enemies []*entities.Participant, forcedDefenseD20 *int) (*Result, error) {
	if enc == nil || actor == nil {
		return nil, dnderr.InvalidArgument("encounter and actor are required")
	}
	pending := enc.PendingFor(actor)
	if pending == nil {
		return nil, dnderr.FailedPreconditionf("%s has no pending action", actor.ID)
	}
	defer enc.SetPending(actor, nil)

	ability := actor.Ability(pending.Ability)
	if ability == nil {
		return nil, dnderr.NotFoundf("ability %q not found on %s", pending.Ability, actor.ID)
	}

	var enemy *entities.Participant
	for _, e := range enemies {
		if e != nil && e.Alive() {
			enemy = e
			break
		}
	}
	if enemy == nil {
		return nil, dnderr.InvalidArgument("no living enemy to resolve against")
	}
	enemy.EnsureMaps()

	enemyKey := meters.KeyOf(enemy)

	defense := enemy.IDF + enemy.Bonuses.IDF + enemy.Bonuses.Defense + enc.Meters.Value(enemyKey, meters.Momentum)
	rolls := &entities.RollAudit{
		D20:         pending.D20,
		AttackTotal: pending.AttackTotal,
		DamageRoll:  pending.DamageRoll,
		DamageRolls: pending.DamageRolls,
	}
	if forcedDefenseD20 != nil {
		rolls.Contested = true
		rolls.DefenseD20 = *forcedDefenseD20
		defense += *forcedDefenseD20
	} else {
		defense += enemy.DVBase
	}
	rolls.DefenseTarget = defense

	judged := Judge(pending.AttackTotal, defense)

	entry := entities.LogEntry{
		ID:             s.uuidGenerator.New(),
		Round:          enc.Round,
		Kind:           entities.LogActionResolution,
		Actor:          actor.ID,
		Target:         enemy.ID,
		Ability:        ability.Name,
		Hit:            judged.Hit,
		Crit:           judged.Crit,
		PerfectDefense: judged.PerfectDefense,
		Rolls:          rolls,
	}
	entry.StatusesApplied = append(entry.StatusesApplied, pending.OnUseApplied...)

	result := &Result{
		Hit:            judged.Hit,
		Crit:           judged.Crit,
		PerfectDefense: judged.PerfectDefense,
		Target:         enemy,
	}

	if !judged.Hit {
		s.applyMiss(enc, actor, enemy, ability, judged, &entry)
	} else {
		result.Damage = s.applyHit(enc, actor, enemy, ability, pending, judged, &entry)
	}

	entry.Resources = map[string]entities.MeterSnapshot{
		actor.ID: enc.Snapshot(actor),
		enemy.ID: enc.Snapshot(enemy),
	}

	if s.narrator != nil {
		text, err := s.narrator.Narrate(ctx, entry)
		if err != nil {
			entry.NarrationError = err.Error()
			s.logger.Warn("narration failed",
				zap.String("actor", actor.ID),
				zap.String("ability", ability.Name),
				zap.Error(err))
		} else {
			entry.Narration = text
		}
	}

	result.Entry = enc.Log.Append(entry)

	s.logger.Debug("action resolved",
		zap.String("actor", actor.ID),
		zap.String("target", enemy.ID),
		zap.String("ability", ability.Name),
		zap.Int("to_hit", pending.AttackTotal),
		zap.Int("defense", defense),
		zap.Bool("hit", judged.Hit),
		zap.Bool("crit", judged.Crit),
		zap.Int("damage", result.Damage))

	return result, nil
}

func (s *service) applyMiss(enc *combat.Encounter, actor, enemy *entities.Participant, ability *entities.Ability, judged Judgement, entry *entities.LogEntry) {
	actorKey := meters.KeyOf(actor)
	enemyKey := meters.KeyOf(enemy)

	balance, _ := enc.Meters.Add(actorKey, meters.Balance, 2)
	entry.Notes = append(entry.Notes, fmt.Sprintf("%s balance +2 (now %d)", actor.ID, balance))

	triggers := []string{FeedAttackerMissed}
	if judged.PerfectDefense {
		triggers = append(triggers, FeedPerfectDefense)
	}
	for _, trigger := range triggers {
		chance := enemy.MomentumFeeds[trigger]
		if chance <= 0 {
			continue
		}
		if s.src.Float() < chance {
			momentum, _ := enc.Meters.Add(enemyKey, meters.Momentum, 1)
			entry.Notes = append(entry.Notes, fmt.Sprintf("%s momentum +1 from %s (now %d)", enemy.ID, trigger, momentum))
		}
	}

	if list := ability.EffectsFor(entities.TriggerOnMiss); len(list) > 0 {
		out := s.interpreter.Apply(enc.Meters, actor, enemy, list, entities.TargetSelf)
		entry.StatusesApplied = append(entry.StatusesApplied, out.StatusesApplied...)
	}
	enemy.DamageTakenThisLink = false
}

func (s *service) applyHit(enc *combat.Encounter, actor, enemy *entities.Participant, ability *entities.Ability, pending *entities.PendingAction, judged Judgement, entry *entities.LogEntry) int {
	actorKey := meters.KeyOf(actor)

	breakdown := &entities.DamageBreakdown{
		Base: pending.DamageTotal,
		Heat: HeatBonus(enc.Meters.Value(actorKey, meters.Heat)),
		Flat: ability.DamageBonus,
	}
	if actor.BloodMarkTier >= s.passives.WoundedTier && s.passives.WoundedTier > 0 &&
		enemy.HP.BelowPercent(s.passives.WoundedBelowPct) {
		breakdown.Passive += s.passives.WoundedDamage
		entry.Notes = append(entry.Notes, "blood mark: wounded target")
	}

	raw := max(breakdown.Base+breakdown.Heat+breakdown.Flat+breakdown.Passive, 0)
	breakdown.Absorbed = min(s.consumeShields(enemy), raw)
	breakdown.Dealt = enemy.HP.Sub(raw - breakdown.Absorbed)
	entry.Damage = breakdown
	enemy.DamageTakenThisLink = breakdown.Dealt > 0

	if judged.Crit && s.passives.CritTier > 0 && actor.BloodMarkTier >= s.passives.CritTier {
		rp := enc.Meters.Value(actorKey, meters.RP)
		limit := enc.Meters.Value(actorKey, meters.RPCap)
		next := rp + s.passives.CritRP
		if limit > 0 && next > limit {
			next = limit
		}
		if next > rp {
			_ = enc.Meters.Set(actorKey, meters.RP, next)
			entry.Notes = append(entry.Notes, fmt.Sprintf("blood mark: crit rp +%d", next-rp))
		}
	}

	_, _ = enc.Meters.Add(actorKey, meters.Heat, 1)

	if list := ability.EffectsFor(entities.TriggerOnHit); len(list) > 0 {
		out := s.interpreter.Apply(enc.Meters, actor, enemy, list, entities.TargetEnemy)
		entry.StatusesApplied = append(entry.StatusesApplied, out.StatusesApplied...)
	}
	if list := ability.EffectsFor(entities.TriggerOnSuccess); len(list) > 0 {
		out := s.interpreter.Apply(enc.Meters, actor, enemy, list, entities.TargetSelf)
		entry.StatusesApplied = append(entry.StatusesApplied, out.StatusesApplied...)
	}

	s.applyTags(enc, actor, ability, entry)
	return breakdown.Dealt
}

// consumeShields totals the queued damage reduction and clears the queue
func (s *service) consumeShields(target *entities.Participant) int {
	total := 0
	for _, shield := range target.DamageReduction {
		total += shield.Amount + dice.Roll(s.src, shield.Dice)
	}
	target.DamageReduction = nil
	return max(total, 0)
}

var tagMeters = []struct {
	tag   string
	meter string
	delta int
}{
	{entities.TagMomentum, meters.Momentum, 1},
	{entities.TagHeat, meters.Heat, 1},
	{entities.TagBalanceMinus1, meters.Balance, -1},
	{entities.TagBalancePlus2, meters.Balance, 2},
}

func (s *service) applyTags(enc *combat.Encounter, actor *entities.Participant, ability *entities.Ability, entry *entities.LogEntry) {
	key := meters.KeyOf(actor)
	for _, tm := range tagMeters {
		if !ability.HasTag(tm.tag) {
			continue
		}
		v, _ := enc.Meters.Add(key, tm.meter, tm.delta)
		entry.Notes = append(entry.Notes, fmt.Sprintf("tag %s: %s %+d (now %d)", tm.tag, tm.meter, tm.delta, v))
	}
}

// CheckExposure reports penalty states from the actor's meters
func (s *service) CheckExposure(ctx context.Context, enc *combat.Encounter, actor *entities.Participant) []string {
	key := meters.KeyOf(actor)

	var states []string
	if enc.Meters.Value(key, meters.Heat) >= OverheatAt {
		states = append(states, ExposureOverheat)
	}
	if enc.Meters.Value(key, meters.Balance) <= OffBalanceAt {
		states = append(states, ExposureOffBalance)
	}
	if len(states) == 0 {
		return nil
	}

	enc.Log.Append(entities.LogEntry{
		ID:        s.uuidGenerator.New(),
		Round:     enc.Round,
		Kind:      entities.LogExposure,
		Actor:     actor.ID,
		Exposure:  states,
		Resources: map[string]entities.MeterSnapshot{actor.ID: enc.Snapshot(actor)},
	})
	s.logger.Info("exposure",
		zap.String("actor", actor.ID),
		zap.Strings("states", states))
	return states
}
