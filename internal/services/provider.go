package services

import (
	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/config"
	"github.com/KirkDiggler/combat-engine/internal/dice"
	"github.com/KirkDiggler/combat-engine/internal/domain/effects"
	"github.com/KirkDiggler/combat-engine/internal/domain/status"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	"github.com/KirkDiggler/combat-engine/internal/observe"
	"github.com/KirkDiggler/combat-engine/internal/repositories/encounters"
	"github.com/KirkDiggler/combat-engine/internal/services/action"
	"github.com/KirkDiggler/combat-engine/internal/services/chain"
	"github.com/KirkDiggler/combat-engine/internal/services/encounter"
	"github.com/KirkDiggler/combat-engine/internal/services/interrupt"
	"github.com/KirkDiggler/combat-engine/internal/uuid"
)

// Provider holds all service instances
type Provider struct {
	ActionService    action.Service
	ChainService     chain.Service
	EncounterService encounter.Service
	Controller       *interrupt.Controller
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	Engine     config.EngineConfig
	Source     dice.Source
	Repository encounters.Repository
	Narrator   action.Narrator
	Publisher  entities.LogPublisher
	Metrics    *observe.Metrics
	Logger     *zap.Logger

	UUIDGenerator uuid.Generator
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	src := cfg.Source
	if src == nil {
		src = dice.NewRandomSource()
	}

	// Use in-memory repository if none provided
	repo := cfg.Repository
	if repo == nil {
		repo = encounters.NewInMemoryRepository()
	}

	// An unset engine config means the default rules, not zeroed ones
	engine := cfg.Engine
	if engine == (config.EngineConfig{}) {
		engine = config.DefaultEngineConfig()
	}

	statuses := status.NewEngine(&status.Config{Logger: logger.Named("status")})

	actionService := action.NewService(&action.ServiceConfig{
		Source: src,
		Effects: effects.NewInterpreter(&effects.Config{
			Source:   src,
			Statuses: statuses,
			Logger:   logger.Named("effects"),
		}),
		Narrator:      cfg.Narrator,
		Logger:        logger.Named("action"),
		UUIDGenerator: cfg.UUIDGenerator,
	})

	controller := interrupt.NewController(&interrupt.ControllerConfig{
		Source:      src,
		BreakMargin: engine.BreakMargin,
		DamageDie:   engine.InterruptDie,
		Stat:        engine.InterruptStat,
		Logger:      logger.Named("interrupt"),
	})

	chance := engine.DefaultWindowChance
	policy := &interrupt.SelectingPolicy{
		Player: interrupt.NewPlayerPromptPolicy(logger.Named("policy")),
		Enemy: interrupt.NewEnemyWindowPolicy(&interrupt.EnemyWindowConfig{
			Source:        src,
			DefaultChance: &chance,
			Logger:        logger.Named("policy"),
		}),
	}

	regen := engine.ResolveRegen
	chainService := chain.NewService(&chain.Config{
		Action:        actionService,
		Controller:    controller,
		Policy:        policy,
		Statuses:      statuses,
		Source:        src,
		Metrics:       cfg.Metrics,
		Logger:        logger.Named("chain"),
		UUIDGenerator: cfg.UUIDGenerator,
		ResolveRegen:  &regen,
	})

	encounterService := encounter.NewService(&encounter.ServiceConfig{
		Repository:    repo,
		Chain:         chainService,
		Publisher:     cfg.Publisher,
		UUIDGenerator: cfg.UUIDGenerator,
		Logger:        logger.Named("encounter"),
	})

	return &Provider{
		ActionService:    actionService,
		ChainService:     chainService,
		EncounterService: encounterService,
		Controller:       controller,
	}
}
