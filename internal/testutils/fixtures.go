package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// CreateTestParticipant creates a participant with full hp and initialized maps
func CreateTestParticipant(id string, side entities.Side, hp int) *entities.Participant {
	p := &entities.Participant{
		ID:   id,
		Name: id,
		Side: side,
		HP:   entities.Resource{Current: hp, Max: hp},
	}
	if side == entities.SidePlayer {
		p.Controller = entities.ControllerHuman
	} else {
		p.Controller = entities.ControllerAI
	}
	p.EnsureMaps()
	return p
}

// CreateTestAbility creates a plain damaging ability
func CreateTestAbility(name, dice string) *entities.Ability {
	return &entities.Ability{
		Name: name,
		Path: "brute",
		Dice: dice,
	}
}

// CreateTestEncounter builds an encounter around participants, failing the
// test if any participant is rejected.
func CreateTestEncounter(t *testing.T, id string, participants ...*entities.Participant) *combat.Encounter {
	t.Helper()
	enc, err := combat.NewEncounter(id, meters.NewStore(nil), participants...)
	require.NoError(t, err)
	enc.Name = id
	return enc
}

// CreateTestSkirmish returns a two-participant encounter: a human hero with
// two abilities against an orc.
func CreateTestSkirmish(t *testing.T, id string) *combat.Encounter {
	t.Helper()
	hero := CreateTestParticipant("hero", entities.SidePlayer, 20)
	hero.Meters = entities.MeterSeed{RP: 3, RPCap: 5}
	hero.Abilities = []*entities.Ability{
		CreateTestAbility("Strike", "1d4"),
		CreateTestAbility("Jab", "1d4"),
	}

	orc := CreateTestParticipant("orc", entities.SideEnemy, 10)
	orc.DVBase = 5
	orc.Abilities = []*entities.Ability{CreateTestAbility("Claw", "1d6")}

	return CreateTestEncounter(t, id, hero, orc)
}
