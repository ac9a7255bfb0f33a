package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Resource
		wantErr bool
	}{
		{name: "flat", input: `12`, want: Resource{Current: 12, Max: 12}},
		{name: "current max", input: `{"current":5,"max":10}`, want: Resource{Current: 5, Max: 10}},
		{name: "hp max_hp", input: `{"hp":7,"max_hp":9}`, want: Resource{Current: 7, Max: 9}},
		{name: "current only", input: `{"current":4}`, want: Resource{Current: 4}},
		{name: "string", input: `"lots"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Resource
			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
		})
	}
}

func TestResourceSubAdd(t *testing.T) {
	r := Resource{Current: 5, Max: 10}

	assert.Equal(t, 5, r.Sub(8), "sub floors at zero")
	assert.Equal(t, 0, r.Current)
	assert.Equal(t, 0, r.Sub(-3))

	assert.Equal(t, 10, r.Add(15), "add clamps to max")
	assert.Equal(t, 10, r.Current)
	assert.Equal(t, 0, r.Add(0))

	unbounded := Resource{Current: 3}
	assert.Equal(t, 7, unbounded.Add(7))
	assert.Equal(t, 10, unbounded.Current)
}

func TestResourceBelowPercent(t *testing.T) {
	assert.True(t, Resource{Current: 4, Max: 10}.BelowPercent(50))
	assert.False(t, Resource{Current: 5, Max: 10}.BelowPercent(50))
	assert.False(t, Resource{Current: 1}.BelowPercent(50), "unknown max is never below")
}
