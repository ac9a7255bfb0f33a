package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	entries []LogEntry
}

func (c *capturePublisher) Publish(entry LogEntry) {
	c.entries = append(c.entries, entry)
}

func TestCombatLogAppend(t *testing.T) {
	log := NewCombatLog()
	pub := &capturePublisher{}
	log.SetPublisher(pub)

	first := log.Append(LogEntry{Kind: LogActionResolution, Actor: "hero", Rolls: &RollAudit{D20: 12, DamageRolls: []int{3}}})
	second := log.Append(LogEntry{Kind: LogChainResult, Actor: "hero"})

	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, 2, log.Len())
	require.Len(t, pub.entries, 2)
	assert.Equal(t, LogChainResult, pub.entries[1].Kind)

	// returned and published copies do not alias the stored entry
	first.Rolls.DamageRolls[0] = 99
	pub.entries[0].Rolls.D20 = 1
	stored := log.Entries()[0]
	assert.Equal(t, 3, stored.Rolls.DamageRolls[0])
	assert.Equal(t, 12, stored.Rolls.D20)

	last, ok := log.Last()
	require.True(t, ok)
	assert.Equal(t, 2, last.Seq)
}

func TestCombatLogSince(t *testing.T) {
	log := NewCombatLog()
	for i := 0; i < 3; i++ {
		log.Append(LogEntry{Kind: LogStatusTick})
	}

	assert.Len(t, log.Since(1), 2)
	assert.Equal(t, 2, log.Since(1)[0].Seq)
	assert.Empty(t, log.Since(3))
	assert.Len(t, log.Since(-1), 3)

	_, ok := NewCombatLog().Last()
	assert.False(t, ok)
}

func TestCombatLogJSON(t *testing.T) {
	empty, err := json.Marshal(NewCombatLog())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(empty))

	log := NewCombatLog()
	log.Append(LogEntry{Kind: LogExposure, Exposure: []string{"heat"}})
	data, err := json.Marshal(log)
	require.NoError(t, err)

	restored := NewCombatLog()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, log.Entries(), restored.Entries())

	other := NewCombatLog()
	other.Restore(log.Entries())
	next := other.Append(LogEntry{Kind: LogStatusTick})
	assert.Equal(t, 2, next.Seq)
}
