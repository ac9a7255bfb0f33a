package action_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	mockdice "github.com/KirkDiggler/combat-engine/internal/dice/mock"
	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
	"github.com/KirkDiggler/combat-engine/internal/services/action"
	mockaction "github.com/KirkDiggler/combat-engine/internal/services/action/mock"
	"github.com/KirkDiggler/combat-engine/internal/uuid"
)

func intPtr(v int) *int { return &v }

func TestJudge(t *testing.T) {
	tests := []struct {
		name    string
		toHit   int
		defense int
		want    action.Judgement
	}{
		{name: "tie hits", toHit: 10, defense: 10, want: action.Judgement{Hit: true, Margin: 0}},
		{name: "margin 4 is not a crit", toHit: 14, defense: 10, want: action.Judgement{Hit: true, Margin: 4}},
		{name: "margin 5 crits", toHit: 15, defense: 10, want: action.Judgement{Hit: true, Crit: true, Margin: 5}},
		{name: "miss by 4", toHit: 6, defense: 10, want: action.Judgement{Margin: -4}},
		{name: "miss by 5 is perfect defense", toHit: 5, defense: 10, want: action.Judgement{PerfectDefense: true, Margin: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, action.Judge(tt.toHit, tt.defense))
		})
	}
}

func TestHeatBonus(t *testing.T) {
	assert.Equal(t, 0, action.HeatBonus(-2))
	assert.Equal(t, 0, action.HeatBonus(0))
	assert.Equal(t, 3, action.HeatBonus(3))
	assert.Equal(t, 4, action.HeatBonus(4))
	assert.Equal(t, 4, action.HeatBonus(9))
}

type ActionServiceTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	src      *mockdice.ManualMockSource
	narrator *mockaction.MockNarrator
	svc      action.Service
	enc      *combat.Encounter
	hero     *entities.Participant
	orc      *entities.Participant
	strike   *entities.Ability
}

func (s *ActionServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.src = mockdice.NewManualMockSource()
	s.narrator = mockaction.NewMockNarrator(s.ctrl)

	s.svc = action.NewService(&action.ServiceConfig{
		Source:        s.src,
		UUIDGenerator: uuid.NewSequentialGenerator("entry"),
	})

	s.strike = &entities.Ability{Name: "Basic Strike", Dice: "1d4", Cost: 1, Stat: "strength", Cooldown: entities.Cooldown{Base: 1}}
	s.hero = &entities.Participant{
		ID:        "hero",
		Name:      "Hero",
		Side:      entities.SidePlayer,
		HP:        entities.Resource{Current: 20, Max: 20},
		Meters:    entities.MeterSeed{RP: 3, RPCap: 5},
		Abilities: []*entities.Ability{s.strike},
	}
	s.orc = &entities.Participant{
		ID:     "orc",
		Name:   "Orc",
		Side:   entities.SideEnemy,
		HP:     entities.Resource{Current: 10, Max: 10},
		DVBase: 5,
	}

	enc, err := combat.NewEncounter("enc-1", nil, s.hero, s.orc)
	s.Require().NoError(err)
	s.enc = enc
}

func (s *ActionServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestActionServiceSuite(t *testing.T) {
	suite.Run(t, new(ActionServiceTestSuite))
}

func (s *ActionServiceTestSuite) resolve(svc action.Service, ability *entities.Ability, d20 int, defense *int) *action.Result {
	ctx := context.Background()
	_, err := svc.ResolveStep(ctx, s.enc, s.hero, ability, &action.StepOptions{ForcedD20: intPtr(d20)})
	s.Require().NoError(err)
	res, err := svc.ApplyEffects(ctx, s.enc, s.hero, []*entities.Participant{s.orc}, defense)
	s.Require().NoError(err)
	return res
}

func (s *ActionServiceTestSuite) heroMeter(name string) int {
	return s.enc.Meters.Value(meters.KeyOf(s.hero), name)
}

func (s *ActionServiceTestSuite) TestBasicStrikeEndToEnd() {
	s.src.SetInts(3)

	res := s.resolve(s.svc, s.strike, 15, nil)

	s.True(res.Hit)
	s.Equal(3, res.Damage)
	s.Equal(7, s.orc.HP.Current)
	s.Equal(1, s.heroMeter(meters.Heat))
	s.Equal(2, s.heroMeter(meters.RP), "cost paid from resolve")
	s.Equal(1, s.strike.Cooldown.Current)
	s.Nil(s.enc.PendingFor(s.hero))

	entries := s.enc.Log.Entries()
	s.Require().Len(entries, 1)
	s.Equal(entities.LogActionResolution, entries[0].Kind)
	s.Equal(5, entries[0].Rolls.DefenseTarget)
	s.Equal(3, entries[0].Damage.Dealt)
	s.Equal(7, entries[0].Resources["orc"].HP)
}

func (s *ActionServiceTestSuite) TestHeatBonusUsesPriorHeat() {
	s.Require().NoError(s.enc.Meters.Set(meters.KeyOf(s.hero), meters.Heat, 6))
	s.src.SetInts(1)

	res := s.resolve(s.svc, s.strike, 12, nil)

	s.Equal(5, res.Damage)
	s.Equal(7, s.heroMeter(meters.Heat))
}

func (s *ActionServiceTestSuite) TestStatModifierAndToHit() {
	s.hero.Attributes["strength"] = 14
	ability := &entities.Ability{Name: "Lunge", Dice: "1d4", Stat: "strength", ToHit: 2}
	s.hero.Abilities = append(s.hero.Abilities, ability)
	s.src.SetInts(2)

	pending, err := s.svc.ResolveStep(context.Background(), s.enc, s.hero, ability, &action.StepOptions{ForcedD20: intPtr(3), BalanceBonus: 1})
	s.Require().NoError(err)

	s.Equal(3+2+2+1, pending.AttackTotal)
	s.Equal(4, pending.DamageTotal)
}

func (s *ActionServiceTestSuite) TestStatOptOut() {
	s.hero.Attributes["strength"] = 18
	off := false
	ability := &entities.Ability{Name: "Jab", Dice: "1d4", Stat: "strength", AddStatToAttackRoll: &off, AddStatToDamage: &off}

	total, d20 := s.svc.AttackRoll(s.hero, ability, intPtr(10))
	s.Equal(10, total)
	s.Equal(10, d20)
	s.Equal(2, s.svc.DamageTotal(s.hero, ability, 2))
}

func (s *ActionServiceTestSuite) TestMissPath() {
	s.orc.DVBase = 10
	s.orc.MomentumFeeds = map[string]float64{
		action.FeedAttackerMissed: 0.5,
		action.FeedPerfectDefense: 0.5,
	}
	s.strike.Effects = map[entities.Trigger]entities.EffectList{
		entities.TriggerOnMiss: {entities.StatusGrant{Status: "exposed", Stacks: 1, Duration: 1}},
	}
	s.src.SetInts(4)
	s.src.SetFloats(0.1, 0.9)

	res := s.resolve(s.svc, s.strike, 1, nil)

	s.False(res.Hit)
	s.True(res.PerfectDefense)
	s.Equal(2, s.heroMeter(meters.Balance))
	s.Equal(1, s.enc.Meters.Value(meters.KeyOf(s.orc), meters.Momentum))
	s.True(s.hero.Statuses.Has("exposed"))
	s.Equal(10, s.orc.HP.Current)
	s.False(s.orc.DamageTakenThisLink)
	s.Nil(s.enc.PendingFor(s.hero))
	s.Equal(1, s.enc.Log.Len())
}

func (s *ActionServiceTestSuite) TestContestedDefense() {
	s.orc.IDF = 2
	s.src.SetInts(1)

	res := s.resolve(s.svc, s.strike, 12, intPtr(11))

	s.False(res.Hit)
	s.True(res.Entry.Rolls.Contested)
	s.Equal(13, res.Entry.Rolls.DefenseTarget)
}

func (s *ActionServiceTestSuite) TestShieldAbsorbsOnce() {
	s.orc.DamageReduction = []entities.ReduceDamage{{Amount: 2}}
	s.src.SetInts(4)

	res := s.resolve(s.svc, s.strike, 15, nil)

	s.Equal(2, res.Damage)
	s.Equal(2, res.Entry.Damage.Absorbed)
	s.Empty(s.orc.DamageReduction)
}

func (s *ActionServiceTestSuite) TestFullyAbsorbedHitDoesNotFlagDamage() {
	s.orc.DamageReduction = []entities.ReduceDamage{{Amount: 9}}
	s.src.SetInts(2)

	res := s.resolve(s.svc, s.strike, 15, nil)

	s.True(res.Hit)
	s.Zero(res.Damage)
	s.False(s.orc.DamageTakenThisLink)
	s.Equal(1, s.heroMeter(meters.Heat), "heat rises on every hit")
}

func (s *ActionServiceTestSuite) TestOnHitAndOnSuccessTargets() {
	s.strike.Effects = map[entities.Trigger]entities.EffectList{
		entities.TriggerOnHit:     {entities.StatusGrant{Status: "bleed", Stacks: 1, Duration: 2}},
		entities.TriggerOnSuccess: {entities.Bonus{Type: entities.EffectAttackBonus, Amount: 1}},
	}
	s.src.SetInts(1)

	res := s.resolve(s.svc, s.strike, 15, nil)

	s.True(s.orc.Statuses.Has("bleed"))
	s.Equal(1, s.hero.Bonuses.Attack)
	s.Contains(res.Entry.StatusesApplied, "bleed")
}

func (s *ActionServiceTestSuite) TestTagSideEffects() {
	s.strike.Tags = []string{"momentum", "balance_minus_1", "heat"}
	s.src.SetInts(1)

	s.resolve(s.svc, s.strike, 15, nil)

	s.Equal(1, s.heroMeter(meters.Momentum))
	s.Equal(-1, s.heroMeter(meters.Balance))
	s.Equal(2, s.heroMeter(meters.Heat))
}

func (s *ActionServiceTestSuite) TestBloodMarkPassives() {
	s.hero.BloodMarkTier = 2
	s.orc.HP.Current = 4
	s.src.SetInts(1)

	res := s.resolve(s.svc, s.strike, 15, nil)

	s.Equal(2, res.Damage, "wounded target takes +1")
	s.True(res.Crit)
	s.Equal(3, s.heroMeter(meters.RP), "cost 1 paid, crit refunds 1")
}

func (s *ActionServiceTestSuite) TestPoolCost() {
	s.hero.Resources["stamina"] = 3
	ability := &entities.Ability{Name: "Rush", Dice: "1d4", Cost: 2, Pool: "stamina"}
	s.hero.Abilities = append(s.hero.Abilities, ability)

	_, err := s.svc.ResolveStep(context.Background(), s.enc, s.hero, ability, nil)
	s.Require().NoError(err)
	s.Equal(1, s.hero.Resources["stamina"])
	s.Equal(3, s.heroMeter(meters.RP))

	s.enc.SetPending(s.hero, nil)
	_, err = s.svc.ResolveStep(context.Background(), s.enc, s.hero, ability, nil)
	s.True(dnderr.IsValidation(err))
}

func (s *ActionServiceTestSuite) TestRejectsSecondPendingAction() {
	ctx := context.Background()
	_, err := s.svc.ResolveStep(ctx, s.enc, s.hero, s.strike, nil)
	s.Require().NoError(err)

	_, err = s.svc.ResolveStep(ctx, s.enc, s.hero, s.strike, nil)
	s.True(dnderr.IsFailedPrecondition(err))
}

func (s *ActionServiceTestSuite) TestApplyWithoutPending() {
	_, err := s.svc.ApplyEffects(context.Background(), s.enc, s.hero, []*entities.Participant{s.orc}, nil)
	s.True(dnderr.IsFailedPrecondition(err))
}

func (s *ActionServiceTestSuite) TestUnaffordableCostNamesNamelessActor() {
	s.hero.Name = ""
	ability := &entities.Ability{Name: "Big", Dice: "1d8", Cost: 5}
	s.hero.Abilities = append(s.hero.Abilities, ability)

	_, err := s.svc.ResolveStep(context.Background(), s.enc, s.hero, ability, nil)
	s.True(dnderr.IsValidation(err))
	s.Equal("hero needs 5 rp for Big, has 3", dnderr.Reason(err))
}

func (s *ActionServiceTestSuite) TestUnresolvableActionAppendsNothing() {
	ctx := context.Background()

	_, err := s.svc.ResolveStep(ctx, s.enc, s.hero, s.strike, &action.StepOptions{ForcedD20: intPtr(15)})
	s.Require().NoError(err)
	s.orc.HP.Current = 0
	_, err = s.svc.ApplyEffects(ctx, s.enc, s.hero, []*entities.Participant{s.orc}, nil)
	s.True(dnderr.IsInvalidArgument(err))
	s.Nil(s.enc.PendingFor(s.hero))

	s.orc.HP.Current = 10
	_, err = s.svc.ResolveStep(ctx, s.enc, s.hero, s.strike, &action.StepOptions{ForcedD20: intPtr(15)})
	s.Require().NoError(err)
	s.hero.Abilities = nil
	_, err = s.svc.ApplyEffects(ctx, s.enc, s.hero, []*entities.Participant{s.orc}, nil)
	s.True(dnderr.IsNotFound(err))
	s.Nil(s.enc.PendingFor(s.hero))

	s.Equal(0, s.enc.Log.Len())
	s.Equal(10, s.orc.HP.Current)
}

func (s *ActionServiceTestSuite) TestNarrationAttached() {
	svc := action.NewService(&action.ServiceConfig{Source: s.src, Narrator: s.narrator})
	s.narrator.EXPECT().Narrate(gomock.Any(), gomock.Any()).Return("The orc reels.", nil)
	s.src.SetInts(2)

	res := s.resolve(svc, s.strike, 15, nil)

	s.Equal("The orc reels.", res.Entry.Narration)
	s.Empty(res.Entry.NarrationError)
}

func (s *ActionServiceTestSuite) TestNarrationFailureNeverAbortsResolution() {
	svc := action.NewService(&action.ServiceConfig{Source: s.src, Narrator: s.narrator})
	s.narrator.EXPECT().Narrate(gomock.Any(), gomock.Any()).Return("", errors.New("model offline"))
	s.src.SetInts(2)

	res := s.resolve(svc, s.strike, 15, nil)

	s.Equal("model offline", res.Entry.NarrationError)
	s.Equal(8, s.orc.HP.Current)
	s.Equal(1, s.enc.Log.Len())
}

func (s *ActionServiceTestSuite) TestCheckExposure() {
	ctx := context.Background()
	s.Nil(s.svc.CheckExposure(ctx, s.enc, s.hero))
	s.Zero(s.enc.Log.Len())

	key := meters.KeyOf(s.hero)
	s.Require().NoError(s.enc.Meters.Set(key, meters.Heat, 5))
	s.Require().NoError(s.enc.Meters.Set(key, meters.Balance, -3))

	states := s.svc.CheckExposure(ctx, s.enc, s.hero)
	s.Equal([]string{action.ExposureOverheat, action.ExposureOffBalance}, states)

	last, ok := s.enc.Log.Last()
	s.Require().True(ok)
	s.Equal(entities.LogExposure, last.Kind)
}
