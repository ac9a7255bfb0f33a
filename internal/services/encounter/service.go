package encounter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
	"github.com/KirkDiggler/combat-engine/internal/repositories/encounters"
	"github.com/KirkDiggler/combat-engine/internal/services/chain"
	"github.com/KirkDiggler/combat-engine/internal/services/interrupt"
	"github.com/KirkDiggler/combat-engine/internal/uuid"
)

// Service runs engine steps against stored encounters. Each call loads the
// encounter, performs one step and saves the result, so a chain suspended
// on a player's decision can be resumed by a later request.
type Service interface {
	// StartEncounter creates and stores a new encounter
	StartEncounter(ctx context.Context, input *StartEncounterInput) (*combat.Encounter, error)

	// GetEncounter retrieves an encounter by ID
	GetEncounter(ctx context.Context, encounterID string) (*combat.Encounter, error)

	// ListActive retrieves every encounter still in progress
	ListActive(ctx context.Context) ([]*combat.Encounter, error)

	// DeclareChain commits an actor's chain for the current round
	DeclareChain(ctx context.Context, encounterID, actorID string, abilities []string, resolveSpent int) (*entities.Declaration, error)

	// ResolveChain resolves a chain, possibly stopping in awaiting
	ResolveChain(ctx context.Context, encounterID string, ui interrupt.PromptUI, req *chain.ResolveRequest) (*entities.ChainResult, error)

	// ResumeChain continues a chain suspended on a player's decision
	ResumeChain(ctx context.Context, encounterID string, ui interrupt.PromptUI, choice string) (*entities.ChainResult, error)

	// EndRound runs upkeep and opens the next round
	EndRound(ctx context.Context, encounterID string) ([]chain.UpkeepSummary, error)

	// EndEncounter removes an encounter
	EndEncounter(ctx context.Context, encounterID string) error
}

// StartEncounterInput contains data for starting an encounter
type StartEncounterInput struct {
	Name         string
	Participants []*entities.Participant
}

type service struct {
	repository    encounters.Repository
	chain         chain.Service
	publisher     entities.LogPublisher
	uuidGenerator uuid.Generator
	logger        *zap.Logger
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository encounters.Repository
	Chain      chain.Service

	// Publisher receives log entries once the step that wrote them is saved
	Publisher     entities.LogPublisher
	UUIDGenerator uuid.Generator
	Logger        *zap.Logger
}

// NewService creates a new encounter service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}
	if cfg.Chain == nil {
		panic("chain service is required")
	}

	svc := &service{
		repository: cfg.Repository,
		chain:      cfg.Chain,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
	}

	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}

	return svc
}

// StartEncounter creates a new encounter in round 1
func (s *service) StartEncounter(ctx context.Context, input *StartEncounterInput) (*combat.Encounter, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}
	if len(input.Participants) == 0 {
		return nil, dnderr.InvalidArgument("an encounter needs participants")
	}

	enc, err := combat.NewEncounter(s.uuidGenerator.New(),
		meters.NewStore(&meters.Config{UUIDGenerator: s.uuidGenerator}),
		input.Participants...)
	if err != nil {
		return nil, err
	}
	enc.Name = strings.TrimSpace(input.Name)

	if len(enc.Standing(entities.SidePlayer)) == 0 || len(enc.Standing(entities.SideEnemy)) == 0 {
		return nil, dnderr.InvalidArgument("an encounter needs a living participant on each side")
	}

	if err := s.repository.Create(ctx, enc); err != nil {
		return nil, dnderr.Wrapf(err, "failed to create encounter").
			WithMeta("encounter_id", enc.ID)
	}
	s.publish(enc, 0)

	s.logger.Info("encounter started",
		zap.String("encounter_id", enc.ID),
		zap.String("name", enc.Name),
		zap.Int("participants", len(enc.Participants)),
	)
	return enc, nil
}

// GetEncounter retrieves an encounter by ID
func (s *service) GetEncounter(ctx context.Context, encounterID string) (*combat.Encounter, error) {
	if strings.TrimSpace(encounterID) == "" {
		return nil, dnderr.InvalidArgument("encounter ID is required")
	}

	return s.repository.Get(ctx, encounterID)
}

// ListActive retrieves every encounter still in progress
func (s *service) ListActive(ctx context.Context) ([]*combat.Encounter, error) {
	return s.repository.ListActive(ctx)
}

// publish forwards the entries after the first n to the publisher
func (s *service) publish(enc *combat.Encounter, n int) {
	if s.publisher == nil || enc.Log == nil {
		return
	}
	for _, entry := range enc.Log.Since(n) {
		s.publisher.Publish(entry)
	}
}

// step loads an active encounter, runs fn and saves the encounter when fn
// succeeds. A failed step is neither saved nor published.
func (s *service) step(ctx context.Context, encounterID string, fn func(*combat.Encounter) error) (*combat.Encounter, error) {
	enc, err := s.GetEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if enc.Status != combat.EncounterStatusActive {
		return nil, dnderr.FailedPreconditionf("encounter %s is %s", enc.ID, enc.Status).
			WithMeta("encounter_id", enc.ID)
	}

	before := 0
	if enc.Log != nil {
		before = enc.Log.Len()
	}

	if err := fn(enc); err != nil {
		return nil, err
	}

	if err := s.repository.Update(ctx, enc); err != nil {
		wrapped := dnderr.Wrapf(err, "failed to save encounter").
			WithMeta("encounter_id", enc.ID)
		s.logger.Warn("encounter step not saved", dnderr.Fields(wrapped)...)
		return nil, wrapped
	}
	s.publish(enc, before)
	return enc, nil
}

// DeclareChain commits an actor's chain for the current round
func (s *service) DeclareChain(ctx context.Context, encounterID, actorID string, abilities []string, resolveSpent int) (*entities.Declaration, error) {
	var decl *entities.Declaration
	_, err := s.step(ctx, encounterID, func(enc *combat.Encounter) error {
		var err error
		decl, err = s.chain.DeclareChain(ctx, enc, actorID, abilities, resolveSpent)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decl, nil
}

// ResolveChain resolves a chain and saves the outcome, including a suspension
func (s *service) ResolveChain(ctx context.Context, encounterID string, ui interrupt.PromptUI, req *chain.ResolveRequest) (*entities.ChainResult, error) {
	var result *entities.ChainResult
	_, err := s.step(ctx, encounterID, func(enc *combat.Encounter) error {
		var err error
		result, err = s.chain.ResolveChain(ctx, enc, ui, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logResult(encounterID, result)
	return result, nil
}

// ResumeChain continues a suspended chain
func (s *service) ResumeChain(ctx context.Context, encounterID string, ui interrupt.PromptUI, choice string) (*entities.ChainResult, error) {
	var result *entities.ChainResult
	_, err := s.step(ctx, encounterID, func(enc *combat.Encounter) error {
		var err error
		result, err = s.chain.ResumeChain(ctx, enc, ui, choice)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logResult(encounterID, result)
	return result, nil
}

// EndRound runs upkeep for every participant
func (s *service) EndRound(ctx context.Context, encounterID string) ([]chain.UpkeepSummary, error) {
	var summaries []chain.UpkeepSummary
	enc, err := s.step(ctx, encounterID, func(enc *combat.Encounter) error {
		var err error
		summaries, err = s.chain.TickRoundUpkeep(ctx, enc)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("round ended",
		zap.String("encounter_id", encounterID),
		zap.Int("round", enc.Round),
		zap.String("status", string(enc.Status)),
	)
	return summaries, nil
}

// EndEncounter removes an encounter
func (s *service) EndEncounter(ctx context.Context, encounterID string) error {
	if strings.TrimSpace(encounterID) == "" {
		return dnderr.InvalidArgument("encounter ID is required")
	}
	return s.repository.Delete(ctx, encounterID)
}

func (s *service) logResult(encounterID string, result *entities.ChainResult) {
	if result == nil {
		return
	}
	s.logger.Debug("chain step saved",
		zap.String("encounter_id", encounterID),
		zap.String("status", string(result.Status)),
		zap.Bool("awaiting", result.Awaiting != nil),
	)
}
