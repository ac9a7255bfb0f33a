package dice

import "sort"

// Mode selects how many d10s the canonical 2d10 check rolls and which two are kept
type Mode string

const (
	ModeNormal              Mode = "normal"
	ModeAdvantage           Mode = "advantage"
	ModeSevereAdvantage     Mode = "severe_advantage"
	ModeExtremeAdvantage    Mode = "extreme_advantage"
	ModeDisadvantage        Mode = "disadvantage"
	ModeSevereDisadvantage  Mode = "severe_disadvantage"
	ModeExtremeDisadvantage Mode = "extreme_disadvantage"
)

// checkSides is the die size of the modified check
const checkSides = 10

// ModifiedRoll is the result of a 2d10 check under a roll mode
type ModifiedRoll struct {
	Mode  Mode  `json:"mode"`
	Rolls []int `json:"rolls"`
	Kept  []int `json:"kept"`
	Total int   `json:"total"`
}

// poolSize is how many d10s a mode rolls
func poolSize(mode Mode) int {
	switch mode {
	case ModeAdvantage, ModeDisadvantage:
		return 3
	case ModeSevereAdvantage, ModeExtremeAdvantage, ModeSevereDisadvantage, ModeExtremeDisadvantage:
		return 4
	default:
		return 2
	}
}

// RollModified rolls the 2d10 check for mode. Exactly two dice are kept:
//
//	normal                              both
//	advantage / severe / extreme        two highest of 3 / 4 / 4
//	disadvantage / severe_disadvantage  lowest + highest of 3 / 4
//	extreme_disadvantage                two lowest of 4
//
// Unknown modes roll as normal.
func RollModified(src Source, mode Mode) ModifiedRoll {
	if poolSize(mode) == 2 && mode != ModeNormal {
		mode = ModeNormal
	}

	rolls := make([]int, poolSize(mode))
	for i := range rolls {
		rolls[i] = src.Int(1, checkSides)
	}

	kept := Keep(mode, rolls)
	return ModifiedRoll{
		Mode:  mode,
		Rolls: rolls,
		Kept:  kept,
		Total: kept[0] + kept[1],
	}
}

// Keep picks the two kept dice for mode from rolls, returned in ascending order.
// rolls must hold at least two dice.
func Keep(mode Mode, rolls []int) []int {
	sorted := append([]int(nil), rolls...)
	sort.Ints(sorted)
	last := len(sorted) - 1

	switch mode {
	case ModeAdvantage, ModeSevereAdvantage, ModeExtremeAdvantage:
		return []int{sorted[last-1], sorted[last]}
	case ModeDisadvantage, ModeSevereDisadvantage:
		return []int{sorted[0], sorted[last]}
	case ModeExtremeDisadvantage:
		return []int{sorted[0], sorted[1]}
	default:
		return []int{sorted[0], sorted[1]}
	}
}

// ModeFromStagger maps stagger stacks to a disadvantage tier
func ModeFromStagger(stacks int) Mode {
	switch {
	case stacks >= 3:
		return ModeExtremeDisadvantage
	case stacks == 2:
		return ModeSevereDisadvantage
	case stacks == 1:
		return ModeDisadvantage
	default:
		return ModeNormal
	}
}
