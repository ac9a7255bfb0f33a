package dice_test

import (
	"testing"

	"github.com/KirkDiggler/combat-engine/internal/dice"
	mockdice "github.com/KirkDiggler/combat-engine/internal/dice/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollExpression(t *testing.T) {
	tests := []struct {
		name      string
		expr      string
		setup     []int
		wantTotal int
		wantRolls []int
		wantValid bool
	}{
		{
			name:      "single d4",
			expr:      "1d4",
			setup:     []int{3},
			wantTotal: 3,
			wantRolls: []int{3},
			wantValid: true,
		},
		{
			name:      "2d6 sums both dice",
			expr:      "2d6",
			setup:     []int{4, 5},
			wantTotal: 9,
			wantRolls: []int{4, 5},
			wantValid: true,
		},
		{
			name:      "missing count means one die",
			expr:      "d8",
			setup:     []int{7},
			wantTotal: 7,
			wantRolls: []int{7},
			wantValid: true,
		},
		{
			name:      "whitespace and case tolerated",
			expr:      " 1D6 ",
			setup:     []int{2},
			wantTotal: 2,
			wantRolls: []int{2},
			wantValid: true,
		},
		{name: "empty string is zero", expr: ""},
		{name: "garbage is zero", expr: "banana"},
		{name: "flat number is zero", expr: "5"},
		{name: "zero sides is zero", expr: "1d0"},
		{name: "zero count is zero", expr: "0d6"},
		{name: "negative count is zero", expr: "-1d6"},
		{name: "too many separators is zero", expr: "1d6d6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := mockdice.NewManualMockSource()
			src.SetInts(tt.setup...)

			result := dice.RollExpression(src, tt.expr)

			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantRolls, result.Rolls)
			assert.Equal(t, tt.wantTotal, dice.Roll(mockdiceWith(tt.setup), tt.expr))
		})
	}
}

func mockdiceWith(ints []int) dice.Source {
	src := mockdice.NewManualMockSource()
	src.SetInts(ints...)
	return src
}

func TestRoll_MalformedNeverConsumesRolls(t *testing.T) {
	src := mockdice.NewManualMockSource()
	src.SetInts(6)

	assert.Equal(t, 0, dice.Roll(src, "xd6"))
	assert.Equal(t, 1, src.RemainingInts())
}

func TestRollModified(t *testing.T) {
	tests := []struct {
		name      string
		mode      dice.Mode
		setup     []int
		wantMode  dice.Mode
		wantRolls []int
		wantKept  []int
		wantTotal int
	}{
		{
			name:      "normal keeps both",
			mode:      dice.ModeNormal,
			setup:     []int{4, 7},
			wantMode:  dice.ModeNormal,
			wantRolls: []int{4, 7},
			wantKept:  []int{4, 7},
			wantTotal: 11,
		},
		{
			name:      "disadvantage keeps lowest and highest of three",
			mode:      dice.ModeDisadvantage,
			setup:     []int{2, 9, 5},
			wantMode:  dice.ModeDisadvantage,
			wantRolls: []int{2, 9, 5},
			wantKept:  []int{2, 9},
			wantTotal: 11,
		},
		{
			name:      "severe disadvantage discards the middle two",
			mode:      dice.ModeSevereDisadvantage,
			setup:     []int{6, 1, 8, 3},
			wantMode:  dice.ModeSevereDisadvantage,
			wantRolls: []int{6, 1, 8, 3},
			wantKept:  []int{1, 8},
			wantTotal: 9,
		},
		{
			name:      "extreme disadvantage keeps two lowest",
			mode:      dice.ModeExtremeDisadvantage,
			setup:     []int{6, 1, 8, 3},
			wantMode:  dice.ModeExtremeDisadvantage,
			wantRolls: []int{6, 1, 8, 3},
			wantKept:  []int{1, 3},
			wantTotal: 4,
		},
		{
			name:      "advantage keeps two highest of three",
			mode:      dice.ModeAdvantage,
			setup:     []int{2, 9, 5},
			wantMode:  dice.ModeAdvantage,
			wantRolls: []int{2, 9, 5},
			wantKept:  []int{5, 9},
			wantTotal: 14,
		},
		{
			name:      "severe advantage keeps two highest of four",
			mode:      dice.ModeSevereAdvantage,
			setup:     []int{6, 1, 8, 3},
			wantMode:  dice.ModeSevereAdvantage,
			wantRolls: []int{6, 1, 8, 3},
			wantKept:  []int{6, 8},
			wantTotal: 14,
		},
		{
			name:      "extreme advantage keeps two highest of four",
			mode:      dice.ModeExtremeAdvantage,
			setup:     []int{10, 10, 2, 2},
			wantMode:  dice.ModeExtremeAdvantage,
			wantRolls: []int{10, 10, 2, 2},
			wantKept:  []int{10, 10},
			wantTotal: 20,
		},
		{
			name:      "unknown mode degrades to normal",
			mode:      dice.Mode("lucky"),
			setup:     []int{3, 4, 10},
			wantMode:  dice.ModeNormal,
			wantRolls: []int{3, 4},
			wantKept:  []int{3, 4},
			wantTotal: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := mockdice.NewManualMockSource()
			src.SetInts(tt.setup...)

			result := dice.RollModified(src, tt.mode)

			assert.Equal(t, tt.wantMode, result.Mode)
			assert.Equal(t, tt.wantRolls, result.Rolls)
			assert.Equal(t, tt.wantKept, result.Kept)
			assert.Equal(t, tt.wantTotal, result.Total)
		})
	}
}

func TestRollModified_KeptIsSubsetOfRolled(t *testing.T) {
	modes := []dice.Mode{
		dice.ModeNormal,
		dice.ModeAdvantage,
		dice.ModeSevereAdvantage,
		dice.ModeExtremeAdvantage,
		dice.ModeDisadvantage,
		dice.ModeSevereDisadvantage,
		dice.ModeExtremeDisadvantage,
	}
	src := dice.NewSource(42)

	for _, mode := range modes {
		for i := 0; i < 200; i++ {
			result := dice.RollModified(src, mode)
			require.Len(t, result.Kept, 2, "mode %s", mode)

			remaining := map[int]int{}
			for _, r := range result.Rolls {
				assert.GreaterOrEqual(t, r, 1)
				assert.LessOrEqual(t, r, 10)
				remaining[r]++
			}
			for _, k := range result.Kept {
				require.Positive(t, remaining[k], "kept %d not in rolls %v", k, result.Rolls)
				remaining[k]--
			}
			assert.Equal(t, result.Kept[0]+result.Kept[1], result.Total)
		}
	}
}

func TestModeFromStagger(t *testing.T) {
	assert.Equal(t, dice.ModeNormal, dice.ModeFromStagger(0))
	assert.Equal(t, dice.ModeNormal, dice.ModeFromStagger(-2))
	assert.Equal(t, dice.ModeDisadvantage, dice.ModeFromStagger(1))
	assert.Equal(t, dice.ModeSevereDisadvantage, dice.ModeFromStagger(2))
	assert.Equal(t, dice.ModeExtremeDisadvantage, dice.ModeFromStagger(3))
	assert.Equal(t, dice.ModeExtremeDisadvantage, dice.ModeFromStagger(7))
}

func TestNewSource_Deterministic(t *testing.T) {
	a := dice.NewSource(7)
	b := dice.NewSource(7)

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Int(1, 20), b.Int(1, 20))
		assert.Equal(t, a.Float(), b.Float())
	}
}

func TestNewRandomSource_Bounds(t *testing.T) {
	src := dice.NewRandomSource()
	for i := 0; i < 100; i++ {
		v := src.Int(1, 20)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 20)
		f := src.Float()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
	assert.Equal(t, 3, src.Int(3, 3))
}
