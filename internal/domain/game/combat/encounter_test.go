package combat_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
	"github.com/KirkDiggler/combat-engine/internal/testutils"
)

type EncounterTestSuite struct {
	suite.Suite
	enc  *combat.Encounter
	hero *entities.Participant
	orc  *entities.Participant
}

func (s *EncounterTestSuite) SetupTest() {
	s.enc = testutils.CreateTestSkirmish(s.T(), "enc-1")
	s.hero = s.enc.Participant("hero")
	s.orc = s.enc.Participant("orc")
	s.Require().NotNil(s.hero)
	s.Require().NotNil(s.orc)
}

func TestEncounterSuite(t *testing.T) {
	suite.Run(t, new(EncounterTestSuite))
}

func (s *EncounterTestSuite) TestNewEncounter() {
	s.Equal(combat.EncounterStatusActive, s.enc.Status)
	s.Equal(combat.PhaseDeclare, s.enc.Phase)
	s.Equal(1, s.enc.Round)
	s.Len(s.enc.Participants, 2)
	s.Equal(0, s.enc.Log.Len())

	s.True(s.enc.Meters.Registered(meters.KeyOf(s.hero)))
	s.Equal(3, s.enc.Meters.Value(meters.KeyOf(s.hero), meters.RP))
	s.Equal(5, s.enc.Meters.Value(meters.KeyOf(s.hero), meters.RPCap))
}

func (s *EncounterTestSuite) TestAddParticipant_Duplicate() {
	dup := testutils.CreateTestParticipant("hero", entities.SidePlayer, 5)

	err := s.enc.AddParticipant(dup)

	s.Error(err)
	s.True(dnderr.IsAlreadyExists(err))
	s.Len(s.enc.Participants, 2)
}

func (s *EncounterTestSuite) TestAddParticipant_SameIDOtherSide() {
	mirror := testutils.CreateTestParticipant("hero", entities.SideEnemy, 5)

	s.Require().NoError(s.enc.AddParticipant(mirror))
	s.Len(s.enc.Participants, 3)
	s.Same(mirror, s.enc.ByKey(meters.KeyOf(mirror)))
}

func (s *EncounterTestSuite) TestAddParticipant_ReAddIsNoop() {
	s.NoError(s.enc.AddParticipant(s.hero))
	s.Len(s.enc.Participants, 2)
}

func (s *EncounterTestSuite) TestAddParticipant_Nil() {
	err := s.enc.AddParticipant(nil)
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *EncounterTestSuite) TestAddParticipant_AssignsID() {
	anon := &entities.Participant{Side: entities.SideEnemy, HP: entities.Resource{Current: 3, Max: 3}}

	s.Require().NoError(s.enc.AddParticipant(anon))
	s.NotEmpty(anon.ID)
	s.Same(anon, s.enc.Participant(anon.ID))
}

func (s *EncounterTestSuite) TestLookup() {
	p, err := s.enc.Lookup("HERO")
	s.Require().NoError(err)
	s.Same(s.hero, p)

	_, err = s.enc.Lookup("ghost")
	s.True(dnderr.IsNotFound(err))
}

func (s *EncounterTestSuite) TestOpponentsAndStanding() {
	s.Equal([]*entities.Participant{s.orc}, s.enc.Opponents(entities.SidePlayer))
	s.Equal([]*entities.Participant{s.hero}, s.enc.Standing(entities.SidePlayer))

	s.orc.HP.Current = 0
	s.Empty(s.enc.Opponents(entities.SidePlayer))
	s.Empty(s.enc.Standing(entities.SideEnemy))
}

func (s *EncounterTestSuite) TestCheckOver() {
	s.False(s.enc.CheckOver())
	s.Equal(combat.EncounterStatusActive, s.enc.Status)

	s.orc.HP.Current = 0
	s.True(s.enc.CheckOver())
	s.Equal(combat.EncounterStatusCompleted, s.enc.Status)

	// completion sticks even if someone is healed afterwards
	s.orc.HP.Current = 4
	s.True(s.enc.CheckOver())
}

func (s *EncounterTestSuite) TestPending() {
	s.Nil(s.enc.PendingFor(s.hero))

	action := &entities.PendingAction{ActorID: "hero", Ability: "Strike", D20: 14}
	s.enc.SetPending(s.hero, action)
	s.Same(action, s.enc.PendingFor(s.hero))
	s.Nil(s.enc.PendingFor(s.orc))

	s.enc.SetPending(s.hero, nil)
	s.Nil(s.enc.PendingFor(s.hero))
}

func (s *EncounterTestSuite) TestPending_NilMap() {
	s.enc.Pending = nil
	s.Nil(s.enc.PendingFor(s.hero))

	s.enc.SetPending(s.hero, &entities.PendingAction{Ability: "Jab"})
	s.NotNil(s.enc.PendingFor(s.hero))
}

func (s *EncounterTestSuite) TestSnapshot() {
	s.hero.HP.Current = 12
	_, err := s.enc.Meters.Add(meters.KeyOf(s.hero), meters.Heat, 2)
	s.Require().NoError(err)

	snap := s.enc.Snapshot(s.hero)

	s.Equal(12, snap.HP)
	s.Equal(20, snap.MaxHP)
	s.Equal(3, snap.RP)
	s.Equal(5, snap.RPCap)
	s.Equal(2, snap.Heat)
}

func TestEnsureRuntime_DecodedSnapshot(t *testing.T) {
	enc := testutils.CreateTestSkirmish(t, "enc-2")
	hero := enc.Participant("hero")
	_, err := enc.Meters.Add(meters.KeyOf(hero), meters.Momentum, 4)
	require.NoError(t, err)

	data, err := json.Marshal(enc)
	require.NoError(t, err)

	var decoded combat.Encounter
	require.NoError(t, json.Unmarshal(data, &decoded))
	decoded.EnsureRuntime()

	require.NotNil(t, decoded.Log)
	require.NotNil(t, decoded.Pending)
	decodedHero := decoded.Participant("hero")
	require.NotNil(t, decodedHero)
	assert.Equal(t, 4, decoded.Meters.Value(meters.KeyOf(decodedHero), meters.Momentum))
	assert.Equal(t, 3, decoded.Meters.Value(meters.KeyOf(decodedHero), meters.RP))
}

func TestEnsureRuntime_RegistersMissingMeters(t *testing.T) {
	hero := testutils.CreateTestParticipant("hero", entities.SidePlayer, 10)
	hero.Meters = entities.MeterSeed{RP: 2}
	enc := &combat.Encounter{ID: "bare", Participants: []*entities.Participant{hero}}

	enc.EnsureRuntime()

	require.NotNil(t, enc.Meters)
	assert.True(t, enc.Meters.Registered(meters.KeyOf(hero)))
	assert.Equal(t, 2, enc.Meters.Value(meters.KeyOf(hero), meters.RP))
	assert.Equal(t, 0, enc.Log.Len())
}
