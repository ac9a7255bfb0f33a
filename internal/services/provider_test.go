package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/combat-engine/internal/config"
	"github.com/KirkDiggler/combat-engine/internal/dice"
	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	"github.com/KirkDiggler/combat-engine/internal/services"
	"github.com/KirkDiggler/combat-engine/internal/services/encounter"
	"github.com/KirkDiggler/combat-engine/internal/testutils"
	"github.com/KirkDiggler/combat-engine/internal/uuid"
)

func TestProvider_DeclareAndUpkeepThroughRepository(t *testing.T) {
	ctx := context.Background()
	provider := services.NewProvider(&services.ProviderConfig{
		Engine: config.EngineConfig{
			BreakMargin:         5,
			InterruptDie:        "1d4",
			ResolveRegen:        2,
			DefaultWindowChance: 1,
		},
		Source:        dice.NewSource(7),
		UUIDGenerator: uuid.NewSequentialGenerator("enc"),
	})
	require.NotNil(t, provider.EncounterService)
	assert.Equal(t, 5, provider.Controller.BreakMargin())

	skirmish := testutils.CreateTestSkirmish(t, "template")
	enc, err := provider.EncounterService.StartEncounter(ctx, &encounter.StartEncounterInput{
		Name:         "Goblin Pass",
		Participants: skirmish.Participants,
	})
	require.NoError(t, err)

	decl, err := provider.EncounterService.DeclareChain(ctx, enc.ID, "hero", []string{"Strike", "Jab"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Strike", "Jab"}, decl.Abilities)

	_, err = provider.EncounterService.EndRound(ctx, enc.ID)
	require.NoError(t, err)

	saved, err := provider.EncounterService.GetEncounter(ctx, enc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Round)
	assert.Equal(t, combat.PhaseDeclare, saved.Phase)

	hero := saved.Participant("hero")
	require.NotNil(t, hero)
	assert.Nil(t, hero.Declaration)
	assert.Equal(t, 5, saved.Meters.Value(meters.KeyOf(hero), meters.RP), "regen of 2 stops at the cap of 5")
}

func TestProvider_Defaults(t *testing.T) {
	provider := services.NewProvider(&services.ProviderConfig{})

	assert.NotNil(t, provider.ActionService)
	assert.NotNil(t, provider.ChainService)
	assert.NotNil(t, provider.EncounterService)
	assert.Equal(t, 5, provider.Controller.BreakMargin())

	_, err := provider.EncounterService.StartEncounter(context.Background(), &encounter.StartEncounterInput{
		Participants: []*entities.Participant{
			testutils.CreateTestParticipant("hero", entities.SidePlayer, 10),
			testutils.CreateTestParticipant("orc", entities.SideEnemy, 10),
		},
	})
	assert.NoError(t, err)
}

func TestProvider_UnsetEngineUsesDefaultRules(t *testing.T) {
	ctx := context.Background()
	provider := services.NewProvider(&services.ProviderConfig{Source: dice.NewSource(3)})

	skirmish := testutils.CreateTestSkirmish(t, "template")
	enc, err := provider.EncounterService.StartEncounter(ctx, &encounter.StartEncounterInput{
		Participants: skirmish.Participants,
	})
	require.NoError(t, err)

	summaries, err := provider.EncounterService.EndRound(ctx, enc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, summaries)
	assert.Equal(t, "hero", summaries[0].ParticipantID)
	assert.Equal(t, 1, summaries[0].RPRegained)

	saved, err := provider.EncounterService.GetEncounter(ctx, enc.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, saved.Meters.Value(meters.KeyOf(saved.Participant("hero")), meters.RP))
}
