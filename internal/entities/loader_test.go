package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEncounterYAML = `
abilities:
  - name: Strike
    dice: 1d4
    cooldown: { base: 1 }
    effects:
      on_hit:
        - { type: status, target: enemy, status: bleed, duration: 2 }
participants:
  - id: hero
    side: player
    hp: 10
    loadout: [strike]
  - id: twin
    side: player
    hp: { current: 4, max: 8 }
    loadout: [Strike]
    abilities:
      - name: Kick
        dice: 1d2
`

func TestLoadEncounter_YAMLLoadout(t *testing.T) {
	ef, err := LoadEncounter(strings.NewReader(testEncounterYAML), FormatYAML)
	require.NoError(t, err)

	require.Len(t, ef.Abilities, 1)
	require.Len(t, ef.Participants, 2)

	hero, twin := ef.Participants[0], ef.Participants[1]
	require.NotNil(t, hero.Ability("Strike"))
	assert.Equal(t, 1, hero.Ability("Strike").Cooldown.Base)
	assert.Equal(t, Resource{Current: 4, Max: 8}, twin.HP)
	assert.NotNil(t, twin.Ability("Kick"))

	hits := hero.Ability("Strike").EffectsFor(TriggerOnHit)
	require.Len(t, hits, 1)
	assert.Equal(t, StatusGrant{Target: TargetEnemy, Status: "bleed", Stacks: 1, Duration: 2}, hits[0])

	// loadout abilities are copies owned by each participant
	hero.Ability("Strike").Cooldown.Current = 1
	assert.False(t, twin.Ability("Strike").OnCooldown())
	assert.False(t, ef.Abilities[0].OnCooldown())
}

func TestLoadEncounter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		errMsg string
	}{
		{
			name:   "unknown loadout",
			input:  `{"participants":[{"id":"hero","loadout":["Meteor"]}]}`,
			format: FormatJSON,
			errMsg: "Meteor",
		},
		{
			name:   "nameless ability",
			input:  `{"abilities":[{"dice":"1d4"}]}`,
			format: FormatJSON,
			errMsg: "without name",
		},
		{
			name:   "bad yaml",
			input:  "participants: [\n",
			format: FormatYAML,
			errMsg: "decode yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadEncounter(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadEncounterFile_Sample(t *testing.T) {
	ef, err := LoadEncounterFile("../../data/skirmish.yaml")
	require.NoError(t, err)
	require.Len(t, ef.Participants, 4)

	byID := map[string]*Participant{}
	for _, p := range ef.Participants {
		byID[p.ID] = p
	}

	hero := byID["hero"]
	require.NotNil(t, hero)
	assert.True(t, hero.IsHuman())
	assert.Equal(t, 3, hero.Meters.RP)
	assert.Equal(t, 5, hero.Meters.RPCap)
	assert.Equal(t, 1, hero.Resources["stamina"])

	orc := byID["orc"]
	require.Len(t, orc.Windows, 2)
	assert.Equal(t, SchemaPredicate, orc.Windows[0].Schema)
	assert.InDelta(t, 0.6, orc.Windows[0].Chance, 1e-9)

	wolf := byID["wolf"]
	require.Len(t, wolf.Windows, 1)
	assert.Equal(t, SchemaLegacy, wolf.Windows[0].Schema)
}

func TestLoadEncounterFile_Missing(t *testing.T) {
	_, err := LoadEncounterFile("does-not-exist.json")
	assert.Error(t, err)
}

func TestLoadParticipantsAndAbilities(t *testing.T) {
	abilities, err := LoadAbilities(strings.NewReader("- name: Jab\n  dice: 1d3\n"), FormatYAML)
	require.NoError(t, err)
	require.Len(t, abilities, 1)
	assert.Equal(t, "1d3", abilities[0].Dice)

	ps, err := LoadParticipants(strings.NewReader(`[{"id":"a","side":"enemy","hp":3}]`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, SideEnemy, ps[0].Side)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("a/b.YML"))
	assert.Equal(t, FormatYAML, FormatForPath("enc.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("enc.json"))
	assert.Equal(t, FormatJSON, FormatForPath("enc"))
}
