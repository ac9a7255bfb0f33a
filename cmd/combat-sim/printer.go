package main

import (
	"fmt"
	"strings"

	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// formatEntry renders one combat log entry as a single terminal line
func formatEntry(e entities.LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] ", e.Seq)

	switch e.Kind {
	case entities.LogActionResolution:
		outcome := "misses"
		if e.Hit {
			outcome = "hits"
		}
		if e.Crit {
			outcome = "crits"
		}
		fmt.Fprintf(&b, "%s uses %s and %s %s", e.Actor, e.Ability, outcome, e.Target)
		if e.Rolls != nil {
			fmt.Fprintf(&b, " (%d vs %d)", e.Rolls.AttackTotal, e.Rolls.DefenseTarget)
		}
		if e.Damage != nil && e.Damage.Dealt > 0 {
			fmt.Fprintf(&b, " for %d", e.Damage.Dealt)
		}
		if len(e.StatusesApplied) > 0 {
			fmt.Fprintf(&b, ", applying %s", strings.Join(e.StatusesApplied, ", "))
		}
		if e.PerfectDefense {
			b.WriteString(" [perfect defense]")
		}
	case entities.LogDefenseReaction:
		r := e.Reaction
		if r == nil {
			fmt.Fprintf(&b, "%s reacts to %s", e.Actor, e.Target)
			break
		}
		fmt.Fprintf(&b, "%s interrupts %s: %d vs %d", e.Actor, e.Target, r.AttackerTotal, r.DefenderTotal)
		if r.Hit {
			fmt.Fprintf(&b, ", hit for %d", r.Damage)
		} else {
			b.WriteString(", missed")
		}
		if r.Reaction != "" {
			fmt.Fprintf(&b, " (%s shields %d", r.Reaction, r.Shield)
			if r.Reflected > 0 {
				fmt.Fprintf(&b, ", reflects %d", r.Reflected)
			}
			b.WriteString(")")
		}
		if r.ChainBroken {
			b.WriteString(", chain broken")
		}
	case entities.LogExposure:
		fmt.Fprintf(&b, "%s is exposed: %s", e.Actor, strings.Join(e.Exposure, ", "))
	case entities.LogStatusTick:
		fmt.Fprintf(&b, "%s upkeep", e.Actor)
		if e.Tick != nil {
			if e.Tick.Damage > 0 {
				fmt.Fprintf(&b, ": %d damage", e.Tick.Damage)
			}
			if len(e.Tick.Expired) > 0 {
				fmt.Fprintf(&b, ", %s expired", strings.Join(e.Tick.Expired, ", "))
			}
		}
	case entities.LogChainResult:
		if e.Chain == nil {
			fmt.Fprintf(&b, "%s chain ends", e.Actor)
			break
		}
		fmt.Fprintf(&b, "%s chain %s (%s) after %d link(s)", e.Actor, e.Chain.Status, e.Chain.Reason, e.Chain.LinksResolved)
	default:
		fmt.Fprintf(&b, "%s %s", e.Kind, e.Actor)
	}

	if e.Narration != "" {
		fmt.Fprintf(&b, "\n    %s", e.Narration)
	}
	return b.String()
}
