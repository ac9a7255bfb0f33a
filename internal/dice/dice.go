package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// maxDice bounds the count of a single expression so bad data still terminates quickly
const maxDice = 100

// RollResult is the audit trail of a dice expression
type RollResult struct {
	Expression string `json:"expression"`
	Rolls      []int  `json:"rolls,omitempty"`
	Total      int    `json:"total"`
	Valid      bool   `json:"valid"`
}

// String renders the roll as "2d6 [3 5] = 8"
func (r RollResult) String() string {
	if !r.Valid {
		return fmt.Sprintf("%s (invalid) = 0", r.Expression)
	}
	return fmt.Sprintf("%s %v = %d", r.Expression, r.Rolls, r.Total)
}

// Roll evaluates an "NdM" expression and returns the sum of the dice.
// Malformed expressions total 0 and never error, so resolution always
// terminates on bad data. Callers must not use the 0 as a validation signal.
func Roll(src Source, expr string) int {
	return RollExpression(src, expr).Total
}

// RollExpression evaluates an "NdM" expression keeping every individual die
func RollExpression(src Source, expr string) RollResult {
	result := RollResult{Expression: expr}

	count, sides, ok := Parse(expr)
	if !ok {
		return result
	}

	result.Valid = true
	result.Rolls = make([]int, count)
	for i := 0; i < count; i++ {
		roll := src.Int(1, sides)
		result.Rolls[i] = roll
		result.Total += roll
	}

	return result
}

// Parse splits "NdM" into its count and sides. A missing count means one die.
func Parse(expr string) (count, sides int, ok bool) {
	expr = strings.ToLower(strings.TrimSpace(expr))

	parts := strings.Split(expr, "d")
	if len(parts) != 2 {
		return 0, 0, false
	}

	count = 1
	if parts[0] != "" {
		n, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, false
		}
		count = n
	}

	sides, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}

	if count < 1 || count > maxDice || sides < 1 {
		return 0, 0, false
	}

	return count, sides, true
}
