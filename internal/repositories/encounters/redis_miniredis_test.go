package encounters_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
	"github.com/KirkDiggler/combat-engine/internal/repositories/encounters"
	"github.com/KirkDiggler/combat-engine/internal/testutils"
)

type MiniredisRepoTestSuite struct {
	suite.Suite
	mr   *miniredis.Miniredis
	repo encounters.Repository
	ctx  context.Context
}

func (s *MiniredisRepoTestSuite) SetupTest() {
	mr, client := testutils.CreateMiniredisClient(s.T())
	s.mr = mr
	s.repo = encounters.NewRedisRepository(&encounters.RedisRepoConfig{
		Client: client,
		TTL:    time.Hour,
	})
	s.ctx = context.Background()
}

func TestMiniredisRepoSuite(t *testing.T) {
	suite.Run(t, new(MiniredisRepoTestSuite))
}

// suspended returns an encounter paused on a human interrupt decision
func (s *MiniredisRepoTestSuite) suspended(id string) *combat.Encounter {
	enc := testutils.CreateTestSkirmish(s.T(), id)
	enc.Phase = combat.PhaseResolve
	hero := enc.Participant("hero")
	s.Require().NoError(enc.Meters.Set(meters.KeyOf(hero), meters.Heat, 2))

	enc.Log.Append(entities.LogEntry{Round: 1, Kind: entities.LogActionResolution, Actor: "orc", Target: "hero", Ability: "Claw", Hit: true})
	enc.ActiveChain = &entities.ChainRun{
		AggressorID:   "orc",
		DefenderID:    "hero",
		Abilities:     []string{"Claw"},
		DVMode:        entities.DVStatic,
		Stage:         entities.StageAfterLink,
		AttackD20:     12,
		LinksResolved: 1,
	}
	enc.Awaiting = &entities.Suspension{
		Type:        entities.SuspensionInterruptDecision,
		Options:     []string{entities.OptionInterrupt, entities.OptionPass},
		When:        entities.AfterLink,
		AggressorID: "orc",
		DefenderID:  "hero",
	}
	return enc
}

func (s *MiniredisRepoTestSuite) TestRoundTripKeepsSuspension() {
	enc := s.suspended("enc-1")
	s.Require().NoError(s.repo.Create(s.ctx, enc))

	got, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)

	s.Equal(combat.PhaseResolve, got.Phase)
	s.Require().NotNil(got.Awaiting)
	s.True(got.Awaiting.Allows(entities.OptionPass))
	s.Equal("hero", got.Awaiting.DefenderID)
	s.Require().NotNil(got.ActiveChain)
	s.Equal(entities.StageAfterLink, got.ActiveChain.Stage)
	s.Equal(12, got.ActiveChain.AttackD20)

	hero := got.Participant("hero")
	s.Require().NotNil(hero)
	s.Equal(2, got.Meters.Value(meters.KeyOf(hero), meters.Heat))
	s.Equal(3, got.Meters.Value(meters.KeyOf(hero), meters.RP))

	s.Require().Equal(1, got.Log.Len())
	last, ok := got.Log.Last()
	s.Require().True(ok)
	s.Equal(1, last.Seq)
	s.Equal("Claw", last.Ability)
}

func (s *MiniredisRepoTestSuite) TestUpdateAppendsLog() {
	enc := s.suspended("enc-1")
	s.Require().NoError(s.repo.Create(s.ctx, enc))

	got, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)

	got.Awaiting = nil
	got.ActiveChain = nil
	got.Log.Append(entities.LogEntry{Round: 1, Kind: entities.LogChainResult, Actor: "orc"})
	s.Require().NoError(s.repo.Update(s.ctx, got))

	// a second save with nothing new must not duplicate entries
	s.Require().NoError(s.repo.Update(s.ctx, got))

	reloaded, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)
	s.Nil(reloaded.Awaiting)
	s.Require().Equal(2, reloaded.Log.Len())
	entries := reloaded.Log.Entries()
	s.Equal(entities.LogChainResult, entries[1].Kind)
	s.Equal(2, entries[1].Seq)
}

func (s *MiniredisRepoTestSuite) TestKeysExpire() {
	s.Require().NoError(s.repo.Create(s.ctx, s.suspended("enc-1")))

	s.mr.FastForward(2 * time.Hour)

	_, err := s.repo.Get(s.ctx, "enc-1")
	s.True(dnderr.IsNotFound(err))
}

func (s *MiniredisRepoTestSuite) TestListActiveSkipsCompleted() {
	s.Require().NoError(s.repo.Create(s.ctx, s.suspended("enc-b")))
	s.Require().NoError(s.repo.Create(s.ctx, s.suspended("enc-a")))

	done := s.suspended("enc-c")
	s.Require().NoError(s.repo.Create(s.ctx, done))
	done.Status = combat.EncounterStatusCompleted
	s.Require().NoError(s.repo.Update(s.ctx, done))

	active, err := s.repo.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(active, 2)
	s.Equal("enc-a", active[0].ID)
	s.Equal("enc-b", active[1].ID)
}

func (s *MiniredisRepoTestSuite) TestDelete() {
	s.Require().NoError(s.repo.Create(s.ctx, s.suspended("enc-1")))
	s.Require().NoError(s.repo.Delete(s.ctx, "enc-1"))

	s.False(s.mr.Exists("encounter:enc-1"))
	s.False(s.mr.Exists("encounter:enc-1:log"))

	active, err := s.repo.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Empty(active)
}
