package chain

//go:generate mockgen -destination=mock/mock_service.go -package=mockchain -source=service.go

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/dice"
	"github.com/KirkDiggler/combat-engine/internal/domain/effects"
	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/domain/status"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
	"github.com/KirkDiggler/combat-engine/internal/observe"
	"github.com/KirkDiggler/combat-engine/internal/services/action"
	"github.com/KirkDiggler/combat-engine/internal/services/interrupt"
	"github.com/KirkDiggler/combat-engine/internal/uuid"
)

// DefaultResolveRegen is the RP regained each upkeep
const DefaultResolveRegen = 1

// Service runs declared chains through the round
type Service interface {
	// DeclareChain validates and commits an actor's chain for the round.
	// Nothing is written unless every check passes.
	DeclareChain(ctx context.Context, enc *combat.Encounter, actorID string, abilities []string, resolveSpent int) (*entities.Declaration, error)

	// ResolveChain runs a chain link by link until it completes, breaks or
	// suspends on a decision only a person can make.
	ResolveChain(ctx context.Context, enc *combat.Encounter, ui interrupt.PromptUI, req *ResolveRequest) (*entities.ChainResult, error)

	// ResumeChain continues a suspended chain with the caller's choice
	ResumeChain(ctx context.Context, enc *combat.Encounter, ui interrupt.PromptUI, choice string) (*entities.ChainResult, error)

	// TickRoundUpkeep ends the round and opens the next declare phase
	TickRoundUpkeep(ctx context.Context, enc *combat.Encounter) ([]UpkeepSummary, error)
}

// ResolveRequest names a chain to resolve. Abilities defaults to the
// aggressor's declaration; DefenderGroup defaults to the defender alone.
type ResolveRequest struct {
	AggressorID   string
	DefenderID    string
	Abilities     []string
	DefenderGroup []string
	DVMode        entities.DVMode
}

// UpkeepSummary is what upkeep did to one participant
type UpkeepSummary struct {
	ParticipantID string
	Damage        int
	Expired       []string
	RPRegained    int
}

type service struct {
	action        action.Service
	controller    *interrupt.Controller
	policy        interrupt.Policy
	statuses      *status.Engine
	src           dice.Source
	metrics       *observe.Metrics
	logger        *zap.Logger
	uuidGenerator uuid.Generator
	resolveRegen  int
}

// Config holds the chain engine's collaborators
type Config struct {
	Action        action.Service
	Controller    *interrupt.Controller
	Policy        interrupt.Policy
	Statuses      *status.Engine
	Source        dice.Source
	Metrics       *observe.Metrics
	Logger        *zap.Logger
	UUIDGenerator uuid.Generator

	// ResolveRegen overrides DefaultResolveRegen when non-nil
	ResolveRegen *int
}

// NewService creates a chain service
func NewService(cfg *Config) Service {
	if cfg.Action == nil {
		panic("action service is required")
	}
	if cfg.Controller == nil {
		panic("interrupt controller is required")
	}
	if cfg.Policy == nil {
		panic("interrupt policy is required")
	}
	if cfg.Source == nil {
		panic("dice source is required")
	}

	svc := &service{
		action:        cfg.Action,
		controller:    cfg.Controller,
		policy:        cfg.Policy,
		statuses:      cfg.Statuses,
		src:           cfg.Source,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		uuidGenerator: cfg.UUIDGenerator,
		resolveRegen:  DefaultResolveRegen,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.statuses == nil {
		svc.statuses = status.NewEngine(&status.Config{Logger: svc.logger})
	}
	if svc.uuidGenerator == nil {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if cfg.ResolveRegen != nil {
		svc.resolveRegen = *cfg.ResolveRegen
	}
	return svc
}

// DeclareChain checks phase, ownership, duplicates, cooldowns, resolve and
// pools in that order and stops at the first failure.
func (s *service) DeclareChain(ctx context.Context, enc *combat.Encounter, actorID string, names []string, resolveSpent int) (*entities.Declaration, error) {
	if enc == nil {
		return nil, dnderr.InvalidArgument("encounter is required")
	}
	if enc.Phase != combat.PhaseDeclare {
		return nil, dnderr.Rejected("chains can only be declared in the declare phase, encounter is in %s", enc.Phase).
			WithMeta("phase", string(enc.Phase))
	}

	actor, err := enc.Lookup(actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Alive() {
		return nil, dnderr.Rejected("%s cannot act while down", actor.ID)
	}
	if resolveSpent < 0 {
		return nil, dnderr.Rejected("resolve spent cannot be negative")
	}

	seen := make(map[string]bool, len(names))
	chosen := make([]*entities.Ability, 0, len(names))
	for _, name := range names {
		ability := actor.Ability(name)
		if ability == nil {
			return nil, dnderr.Rejected("%s does not know %s", actor.ID, name).
				WithMeta("ability", name)
		}
		key := strings.ToLower(ability.Name)
		if seen[key] {
			return nil, dnderr.Rejected("%s is declared more than once", ability.Name).
				WithMeta("ability", ability.Name)
		}
		seen[key] = true
		if ability.OnCooldown() {
			return nil, dnderr.Rejected("%s is on cooldown for %d more round(s)", ability.Name, ability.Cooldown.Current).
				WithMeta("ability", ability.Name)
		}
		chosen = append(chosen, ability)
	}

	required := 0
	pools := map[string]int{}
	for _, ability := range chosen {
		resource, paysRP := costResource(ability)
		if ability.Cost <= 0 {
			continue
		}
		if paysRP {
			required += ability.Cost
		} else {
			pools[resource] += ability.Cost
		}
	}

	rp := enc.Meters.Value(meters.KeyOf(actor), meters.RP)
	if resolveSpent < required {
		return nil, dnderr.Rejected("chain needs %d resolve, only %d committed", required, resolveSpent)
	}
	if resolveSpent > rp {
		return nil, dnderr.Rejected("%s has %d resolve, cannot commit %d", actor.ID, rp, resolveSpent)
	}
	for resource, cost := range pools {
		if have := effects.ReadResource(enc.Meters, actor, resource); have < cost {
			return nil, dnderr.Rejected("chain needs %d %s, %s has %d", cost, resource, actor.ID, have).
				WithMeta("resource", resource)
		}
	}

	decl := &entities.Declaration{ResolveSpent: resolveSpent, Abilities: make([]string, 0, len(chosen))}
	for _, ability := range chosen {
		decl.Abilities = append(decl.Abilities, ability.Name)
	}
	actor.Declaration = decl

	s.logger.Info("chain declared",
		zap.String("encounter_id", enc.ID),
		zap.String("actor", actor.ID),
		zap.Strings("abilities", decl.Abilities),
		zap.Int("resolve_spent", resolveSpent))

	return decl, nil
}

// costResource names what an ability's cost is paid from, pool first
func costResource(ability *entities.Ability) (string, bool) {
	resource := ability.Pool
	if resource == "" {
		resource = ability.Resource
	}
	if resource == "" {
		return meters.RP, true
	}
	if canonical, ok := meters.Canonical(resource); ok && canonical == meters.RP {
		return meters.RP, true
	}
	return strings.ToLower(resource), false
}

// ResolveChain starts a chain. The attack d20 is shared by every link and
// re-rolled after a miss; per_chain mode also shares one defense d20.
func (s *service) ResolveChain(ctx context.Context, enc *combat.Encounter, ui interrupt.PromptUI, req *ResolveRequest) (*entities.ChainResult, error) {
	if enc == nil || req == nil {
		return nil, dnderr.InvalidArgument("encounter and request are required")
	}
	if enc.Awaiting != nil {
		return nil, dnderr.FailedPreconditionf("encounter %s is awaiting a %s", enc.ID, enc.Awaiting.Type)
	}

	aggressor, err := enc.Lookup(req.AggressorID)
	if err != nil {
		return nil, err
	}
	if !aggressor.Alive() {
		return nil, dnderr.Rejected("%s cannot act while down", aggressor.ID).
			WithMeta("participant_id", aggressor.ID)
	}
	if _, err := enc.Lookup(req.DefenderID); err != nil {
		return nil, err
	}
	for _, id := range req.DefenderGroup {
		if _, err := enc.Lookup(id); err != nil {
			return nil, err
		}
	}

	mode := req.DVMode
	switch mode {
	case "":
		mode = entities.DVStatic
	case entities.DVStatic, entities.DVPerChain:
	default:
		return nil, dnderr.InvalidArgumentf("unknown dv mode %q", req.DVMode)
	}

	names := req.Abilities
	if names == nil && aggressor.Declaration != nil {
		names = aggressor.Declaration.Abilities
	}
	abilities := make([]string, 0, len(names))
	for _, name := range names {
		ability := aggressor.Ability(name)
		if ability == nil {
			return nil, dnderr.NotFoundf("%s does not know %s", aggressor.ID, name).
				WithMeta("ability", name)
		}
		abilities = append(abilities, ability.Name)
	}

	enc.Phase = combat.PhaseResolve
	run := &entities.ChainRun{
		AggressorID:   aggressor.ID,
		DefenderID:    req.DefenderID,
		Abilities:     abilities,
		DefenderGroup: append([]string(nil), req.DefenderGroup...),
		DVMode:        mode,
		Stage:         entities.StageBeforeLink,
	}

	if len(abilities) == 0 {
		return s.finish(ctx, enc, run, entities.ChainCompleted, entities.ReasonEmptyChain)
	}

	run.AttackD20 = s.src.Int(1, 20)
	if mode == entities.DVPerChain {
		run.DefenseD20 = s.src.Int(1, 20)
	}

	s.logger.Info("chain started",
		zap.String("encounter_id", enc.ID),
		zap.String("aggressor", run.AggressorID),
		zap.String("defender", run.DefenderID),
		zap.Strings("abilities", abilities),
		zap.String("dv_mode", string(mode)))

	return s.advance(ctx, enc, ui, run, "")
}

// ResumeChain consumes the encounter's suspension. The choice answers the
// window the chain stopped at; resolution then continues as normal.
func (s *service) ResumeChain(ctx context.Context, enc *combat.Encounter, ui interrupt.PromptUI, choice string) (*entities.ChainResult, error) {
	if enc == nil {
		return nil, dnderr.InvalidArgument("encounter is required")
	}
	if enc.Awaiting == nil || enc.ActiveChain == nil {
		return nil, dnderr.FailedPreconditionf("encounter %s has no suspended chain", enc.ID)
	}
	if !enc.Awaiting.Allows(choice) {
		return nil, dnderr.InvalidArgumentf("%q is not one of %v", choice, enc.Awaiting.Options).
			WithMeta("choice", choice)
	}

	run := enc.ActiveChain
	enc.Awaiting = nil
	enc.ActiveChain = nil

	s.logger.Info("chain resumed",
		zap.String("encounter_id", enc.ID),
		zap.String("aggressor", run.AggressorID),
		zap.Int("index", run.Index),
		zap.String("stage", string(run.Stage)),
		zap.String("choice", choice))

	return s.advance(ctx, enc, ui, run, choice)
}

// advance runs the chain from its current index and stage. choice, when
// set, answers the first window check instead of the policy.
func (s *service) advance(ctx context.Context, enc *combat.Encounter, ui interrupt.PromptUI, run *entities.ChainRun, choice string) (*entities.ChainResult, error) {
	aggressor, err := enc.Lookup(run.AggressorID)
	if err != nil {
		return nil, err
	}
	defender, err := enc.Lookup(run.DefenderID)
	if err != nil {
		return nil, err
	}

	for run.Index < len(run.Abilities) {
		switch run.Stage {
		case entities.StageBeforeLink, "":
			run.Stage = entities.StageBeforeLink
			res, err := s.checkWindow(ctx, enc, ui, run, aggressor, defender, entities.BeforeLink, choice)
			choice = ""
			if err != nil || res != nil {
				return res, err
			}
			run.Stage = entities.StageResolve

		case entities.StageResolve:
			res, err := s.resolveLink(ctx, enc, run, aggressor, defender)
			if err != nil || res != nil {
				return res, err
			}
			run.Stage = entities.StageAfterLink

		case entities.StageAfterLink:
			res, err := s.checkWindow(ctx, enc, ui, run, aggressor, defender, entities.AfterLink, choice)
			choice = ""
			if err != nil || res != nil {
				return res, err
			}
			run.Index++
			run.Stage = entities.StageBeforeLink

		default:
			return nil, dnderr.Internalf("chain stage %q is not recognized", run.Stage)
		}
	}

	return s.finish(ctx, enc, run, entities.ChainCompleted, entities.ReasonAllLinksResolved)
}

// resolveLink rolls and applies the current link. A non-nil result ends the chain.
func (s *service) resolveLink(ctx context.Context, enc *combat.Encounter, run *entities.ChainRun, aggressor, defender *entities.Participant) (*entities.ChainResult, error) {
	ability := aggressor.Ability(run.Abilities[run.Index])
	if ability == nil {
		return nil, dnderr.NotFoundf("%s no longer knows %s", aggressor.ID, run.Abilities[run.Index])
	}

	balance := 0
	if run.Index > 0 {
		balance = enc.Meters.Value(meters.KeyOf(aggressor), meters.Balance)
	}
	d20 := run.AttackD20
	if _, err := s.action.ResolveStep(ctx, enc, aggressor, ability, &action.StepOptions{
		ForcedD20:    &d20,
		BalanceBonus: balance,
		Target:       defender,
	}); err != nil {
		return nil, err
	}

	var defenseD20 *int
	if run.DVMode == entities.DVPerChain {
		dd := run.DefenseD20
		defenseD20 = &dd
	}
	res, err := s.action.ApplyEffects(ctx, enc, aggressor, s.targets(enc, run, defender), defenseD20)
	if err != nil {
		return nil, err
	}

	run.LinksResolved++
	run.LastMissed = !res.Hit
	if !res.Hit {
		run.AttackD20 = s.src.Int(1, 20)
	}

	if res.Target != nil && res.Target.DamageTakenThisLink {
		return s.finish(ctx, enc, run, entities.ChainBroken, entities.ReasonDamageEndedChain)
	}
	return nil, nil
}

// targets is the defender group in order, or the defender alone
func (s *service) targets(enc *combat.Encounter, run *entities.ChainRun, defender *entities.Participant) []*entities.Participant {
	if len(run.DefenderGroup) == 0 {
		return []*entities.Participant{defender}
	}
	out := make([]*entities.Participant, 0, len(run.DefenderGroup))
	for _, id := range run.DefenderGroup {
		if p := enc.Participant(id); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// checkWindow asks the policy about one window, or takes the resumed
// choice. A non-nil result ends or suspends the chain.
func (s *service) checkWindow(ctx context.Context, enc *combat.Encounter, ui interrupt.PromptUI, run *entities.ChainRun, aggressor, defender *entities.Participant, when entities.WindowPhase, choice string) (*entities.ChainResult, error) {
	attempt := false
	switch choice {
	case entities.OptionInterrupt:
		attempt = true
	case entities.OptionPass:
	default:
		decision, err := s.policy.Decide(ctx, &interrupt.Context{
			When:       when,
			Aggressor:  aggressor,
			Defender:   defender,
			Meters:     enc.Meters,
			Index:      run.Index,
			Length:     len(run.Abilities),
			LastMissed: run.LastMissed,
			Link:       aggressor.Ability(run.Abilities[run.Index]),
			AttackD20:  run.AttackD20,
			DefenseD20: run.DefenseD20,
		}, ui)
		if err != nil {
			return nil, err
		}
		switch decision.Kind {
		case interrupt.Awaiting:
			return s.suspend(enc, run, decision.Suspension), nil
		case interrupt.Attempt:
			attempt = true
		}
	}

	if !attempt {
		return nil, nil
	}
	return s.interrupt(ctx, enc, run, aggressor, defender, when)
}

// interrupt runs the defender's contest against the aggressor
func (s *service) interrupt(ctx context.Context, enc *combat.Encounter, run *entities.ChainRun, aggressor, defender *entities.Participant, when entities.WindowPhase) (*entities.ChainResult, error) {
	res := s.controller.Roll(defender, aggressor, interrupt.RollOptions{AllowReaction: true, ApplyDamage: true})

	enc.Log.Append(entities.LogEntry{
		ID:       s.uuidGenerator.New(),
		Round:    enc.Round,
		Kind:     entities.LogDefenseReaction,
		Actor:    defender.ID,
		Target:   aggressor.ID,
		Ability:  run.Abilities[run.Index],
		Hit:      res.Hit,
		Reaction: res.Audit(defender.ID),
		Resources: map[string]entities.MeterSnapshot{
			defender.ID:  enc.Snapshot(defender),
			aggressor.ID: enc.Snapshot(aggressor),
		},
		Notes: []string{string(when)},
	})
	s.metrics.RecordInterrupt(ctx, string(when), res.ChainBroken)

	if res.Invalidated {
		run.Invalidated = true
	}
	switch {
	case res.ChainBroken:
		return s.finish(ctx, enc, run, entities.ChainBroken, entities.ReasonInterrupted)
	case !aggressor.Alive():
		return s.finish(ctx, enc, run, entities.ChainBroken, entities.ReasonAggressorDown)
	}
	return nil, nil
}

// suspend parks the run on the encounter until ResumeChain
func (s *service) suspend(enc *combat.Encounter, run *entities.ChainRun, susp *entities.Suspension) *entities.ChainResult {
	enc.Awaiting = susp
	enc.ActiveChain = run

	s.logger.Info("chain awaiting decision",
		zap.String("encounter_id", enc.ID),
		zap.String("aggressor", run.AggressorID),
		zap.String("defender", susp.DefenderID),
		zap.String("when", string(susp.When)),
		zap.Int("index", run.Index))

	return &entities.ChainResult{
		Status:        entities.ChainAwaiting,
		Reason:        entities.ReasonAwaitingDecision,
		LinksResolved: run.LinksResolved,
		Invalidated:   run.Invalidated,
		Awaiting:      susp,
	}
}

// finish records a terminal result and checks the aggressor's exposure
func (s *service) finish(ctx context.Context, enc *combat.Encounter, run *entities.ChainRun, chainStatus entities.ChainStatus, reason string) (*entities.ChainResult, error) {
	enc.Awaiting = nil
	enc.ActiveChain = nil

	result := &entities.ChainResult{
		Status:        chainStatus,
		Reason:        reason,
		LinksResolved: run.LinksResolved,
		Invalidated:   run.Invalidated,
	}

	aggressor, err := enc.Lookup(run.AggressorID)
	if err != nil {
		return nil, err
	}
	entry := entities.LogEntry{
		ID:        s.uuidGenerator.New(),
		Round:     enc.Round,
		Kind:      entities.LogChainResult,
		Actor:     aggressor.ID,
		Target:    run.DefenderID,
		Chain:     result,
		Resources: map[string]entities.MeterSnapshot{aggressor.ID: enc.Snapshot(aggressor)},
	}
	if defender := enc.Participant(run.DefenderID); defender != nil {
		entry.Resources[defender.ID] = enc.Snapshot(defender)
	}
	enc.Log.Append(entry)

	s.action.CheckExposure(ctx, enc, aggressor)
	s.metrics.RecordChain(ctx, string(chainStatus), run.LinksResolved)
	enc.CheckOver()

	s.logger.Info("chain finished",
		zap.String("encounter_id", enc.ID),
		zap.String("aggressor", run.AggressorID),
		zap.String("status", string(chainStatus)),
		zap.String("reason", reason),
		zap.Int("links_resolved", run.LinksResolved),
		zap.Bool("invalidated", run.Invalidated))

	return result, nil
}

// TickRoundUpkeep decays cooldowns, regains resolve up to the cap, resets
// balance, cools heat by one and ticks statuses for every participant.
func (s *service) TickRoundUpkeep(ctx context.Context, enc *combat.Encounter) ([]UpkeepSummary, error) {
	if enc == nil {
		return nil, dnderr.InvalidArgument("encounter is required")
	}
	if enc.Awaiting != nil {
		return nil, dnderr.FailedPreconditionf("encounter %s is awaiting a %s", enc.ID, enc.Awaiting.Type)
	}

	summaries := make([]UpkeepSummary, 0, len(enc.Participants))
	for _, p := range enc.Participants {
		key := meters.KeyOf(p)
		summary := UpkeepSummary{ParticipantID: p.ID}

		for _, ability := range p.Abilities {
			if ability.Cooldown.Current > 0 {
				ability.Cooldown.Current--
			}
		}

		rp := enc.Meters.Value(key, meters.RP)
		next := rp + s.resolveRegen
		if limit := enc.Meters.Value(key, meters.RPCap); limit > 0 {
			next = min(next, max(limit, rp))
		}
		if next > rp {
			_ = enc.Meters.Set(key, meters.RP, next)
			summary.RPRegained = next - rp
		}

		_ = enc.Meters.Set(key, meters.Balance, 0)
		if heat := enc.Meters.Value(key, meters.Heat); heat > 0 {
			_ = enc.Meters.Set(key, meters.Heat, heat-1)
		}

		tick := s.statuses.Tick(p)
		summary.Damage = tick.Damage
		summary.Expired = tick.Expired
		if tick.Damage > 0 || len(tick.Expired) > 0 {
			enc.Log.Append(entities.LogEntry{
				ID:        s.uuidGenerator.New(),
				Round:     enc.Round,
				Kind:      entities.LogStatusTick,
				Actor:     p.ID,
				Tick:      &entities.TickAudit{Damage: tick.Damage, Expired: tick.Expired},
				Resources: map[string]entities.MeterSnapshot{p.ID: enc.Snapshot(p)},
			})
			s.metrics.RecordTickDamage(ctx, tick.Damage)
		}

		p.Bonuses.Reset()
		p.Declaration = nil
		summaries = append(summaries, summary)
	}

	enc.Round++
	enc.Phase = combat.PhaseDeclare
	enc.CheckOver()

	s.logger.Info("round upkeep",
		zap.String("encounter_id", enc.ID),
		zap.Int("round", enc.Round))

	return summaries, nil
}
