package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/combat-engine/internal/domain/predicate"
)

func TestInterruptWindowUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		schema    WindowSchema
		when      WindowPhase
		prob      float64
		priority  int
		hasIf     bool
		wantError bool
	}{
		{
			name:     "predicate percent chance",
			input:    `{"when":"after_link","if":{"type":"chain_index","op":">=","value":1},"chance":60,"priority":2}`,
			schema:   SchemaPredicate,
			when:     AfterLink,
			prob:     0.6,
			priority: 2,
			hasIf:    true,
		},
		{
			name:   "predicate default chance",
			input:  `{"when":"before_link"}`,
			schema: SchemaPredicate,
			when:   BeforeLink,
			prob:   1,
		},
		{
			name:   "legacy",
			input:  `{"after_action_index":[0,2],"trigger_if":{"last_missed":true},"weight":0.4}`,
			schema: SchemaLegacy,
			when:   AfterLink,
			prob:   0.4,
		},
		{
			name:   "negative chance",
			input:  `{"when":"after_link","chance":-1}`,
			schema: SchemaPredicate,
			when:   AfterLink,
			prob:   0,
		},
		{name: "bad phase", input: `{"when":"during"}`, wantError: true},
		{name: "bad predicate", input: `{"when":"after_link","if":{"type":"weather"}}`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w InterruptWindow
			err := json.Unmarshal([]byte(tt.input), &w)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.schema, w.Schema)
			assert.Equal(t, tt.when, w.When)
			assert.InDelta(t, tt.prob, w.Probability(), 1e-9)
			assert.Equal(t, tt.priority, w.Priority)
			assert.Equal(t, tt.hasIf, w.If != nil)
		})
	}
}

func TestInterruptWindowMarshalKeepsSchema(t *testing.T) {
	windows := []InterruptWindow{
		{Schema: SchemaPredicate, When: BeforeLink, If: predicate.LinkType{Type: "brute"}, Chance: 0.5, Priority: 1},
		{Schema: SchemaLegacy, When: AfterLink, AfterActionIndex: []int{1}, TriggerIf: map[string]any{"last_missed": true}, Weight: 0.25},
	}

	data, err := json.Marshal(windows)
	require.NoError(t, err)

	var decoded []InterruptWindow
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, SchemaPredicate, decoded[0].Schema)
	assert.Equal(t, predicate.LinkType{Type: "brute"}, decoded[0].If)
	assert.InDelta(t, 0.5, decoded[0].Chance, 1e-9)
	assert.Equal(t, 1, decoded[0].Priority)

	assert.Equal(t, SchemaLegacy, decoded[1].Schema)
	assert.Equal(t, []int{1}, decoded[1].AfterActionIndex)
	assert.InDelta(t, 0.25, decoded[1].Weight, 1e-9)
}
