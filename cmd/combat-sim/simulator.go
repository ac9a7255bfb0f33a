package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
	"github.com/KirkDiggler/combat-engine/internal/services/chain"
	"github.com/KirkDiggler/combat-engine/internal/services/encounter"
)

// maxAIChain is the longest chain an AI participant declares
const maxAIChain = 2

type simulator struct {
	encounters encounter.Service
	ui         *terminalUI
	out        io.Writer
	logger     *zap.Logger
}

// run plays rounds until one side is down or maxRounds have passed
func (s *simulator) run(ctx context.Context, encounterID string, maxRounds int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		enc, err := s.encounters.GetEncounter(ctx, encounterID)
		if err != nil {
			return err
		}
		if enc.Status != combat.EncounterStatusActive {
			s.printWinner(enc)
			return nil
		}
		if enc.Round > maxRounds {
			fmt.Fprintf(s.out, "\nNo winner after %d rounds.\n", maxRounds)
			return nil
		}

		fmt.Fprintf(s.out, "\n=== Round %d ===\n", enc.Round)
		s.printStatus(enc)

		if err := s.declarePhase(ctx, enc); err != nil {
			return err
		}
		if err := s.resolvePhase(ctx, encounterID); err != nil {
			return err
		}

		enc, err = s.encounters.GetEncounter(ctx, encounterID)
		if err != nil {
			return err
		}
		if enc.Status != combat.EncounterStatusActive {
			continue
		}
		if _, err := s.encounters.EndRound(ctx, encounterID); err != nil {
			return err
		}
	}
}

func (s *simulator) declarePhase(ctx context.Context, enc *combat.Encounter) error {
	for _, p := range enc.Participants {
		if !p.Alive() {
			continue
		}
		var err error
		if p.IsHuman() {
			err = s.declareHuman(ctx, enc, p)
		} else {
			err = s.declareAI(ctx, enc, p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// declareAI declares the first usable abilities, dropping links until the
// declaration is accepted.
func (s *simulator) declareAI(ctx context.Context, enc *combat.Encounter, p *entities.Participant) error {
	var names []string
	for _, a := range p.Abilities {
		if a.OnCooldown() || a.HasTag(entities.TagDefensiveReaction) {
			continue
		}
		names = append(names, a.Name)
		if len(names) == maxAIChain {
			break
		}
	}

	rp := enc.Meters.Value(meters.KeyOf(p), meters.RP)
	for len(names) > 0 {
		_, err := s.encounters.DeclareChain(ctx, enc.ID, p.ID, names, rp)
		if err == nil {
			return nil
		}
		if !dnderr.IsValidation(err) {
			return err
		}
		s.logger.Debug("ai declaration rejected",
			zap.String("participant", p.ID),
			zap.Strings("abilities", names),
			zap.String("reason", dnderr.Reason(err)),
		)
		names = names[:len(names)-1]
	}
	return nil
}

func (s *simulator) declareHuman(ctx context.Context, enc *combat.Encounter, p *entities.Participant) error {
	fmt.Fprintf(s.out, "%s (RP %d) abilities:\n", p.DisplayName(), enc.Meters.Value(meters.KeyOf(p), meters.RP))
	for _, a := range p.Abilities {
		line := fmt.Sprintf("  - %s %s", a.Name, a.Dice)
		if a.Cost > 0 {
			line += fmt.Sprintf(" cost %d", a.Cost)
		}
		if a.OnCooldown() {
			line += fmt.Sprintf(" (cooldown %d)", a.Cooldown.Current)
		}
		fmt.Fprintln(s.out, line)
	}

	for {
		line, err := s.ui.readLine("Chain (comma separated, blank to skip): ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "" {
			return nil
		}
		names := splitNames(line)

		spent := 0
		resolve, err := s.ui.readLine("Resolve to spend [0]: ")
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if resolve != "" {
			spent, err = strconv.Atoi(resolve)
			if err != nil {
				fmt.Fprintf(s.out, "  %q is not a number\n", resolve)
				continue
			}
		}

		_, err = s.encounters.DeclareChain(ctx, enc.ID, p.ID, names, spent)
		if err == nil {
			return nil
		}
		if !dnderr.IsValidation(err) && !dnderr.IsNotFound(err) {
			return err
		}
		fmt.Fprintf(s.out, "  rejected: %s\n", reasonOf(err))
	}
}

// resolvePhase resolves every declared chain in participant order. The
// encounter is reloaded before each chain because the previous one changed it.
func (s *simulator) resolvePhase(ctx context.Context, encounterID string) error {
	enc, err := s.encounters.GetEncounter(ctx, encounterID)
	if err != nil {
		return err
	}
	var order []string
	for _, p := range enc.Participants {
		if p.Declaration != nil {
			order = append(order, p.ID)
		}
	}

	for _, actorID := range order {
		enc, err := s.encounters.GetEncounter(ctx, encounterID)
		if err != nil {
			return err
		}
		if enc.Status != combat.EncounterStatusActive {
			return nil
		}
		actor := enc.Participant(actorID)
		if actor == nil || !actor.Alive() {
			continue
		}
		opponents := enc.Opponents(actor.Side)
		if len(opponents) == 0 {
			return nil
		}

		result, err := s.encounters.ResolveChain(ctx, encounterID, s.ui, &chain.ResolveRequest{
			AggressorID: actor.ID,
			DefenderID:  opponents[0].ID,
		})
		if err != nil {
			if dnderr.IsValidation(err) {
				fmt.Fprintf(s.out, "  %s's chain stops: %s\n", actor.DisplayName(), reasonOf(err))
				continue
			}
			return err
		}

		for result.Status == entities.ChainAwaiting {
			choice, err := s.ui.choose(result.Awaiting)
			if err != nil {
				return err
			}
			result, err = s.encounters.ResumeChain(ctx, encounterID, s.ui, choice)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *simulator) printStatus(enc *combat.Encounter) {
	for _, p := range enc.Participants {
		snap := enc.Snapshot(p)
		state := ""
		if !p.Alive() {
			state = " (down)"
		}
		fmt.Fprintf(s.out, "  %-10s %-6s hp %d/%d rp %d heat %d balance %d%s\n",
			p.DisplayName(), p.Side, snap.HP, snap.MaxHP, snap.RP, snap.Heat, snap.Balance, state)
	}
}

func (s *simulator) printWinner(enc *combat.Encounter) {
	switch {
	case len(enc.Standing(entities.SidePlayer)) > 0:
		fmt.Fprintln(s.out, "\nThe players win.")
	case len(enc.Standing(entities.SideEnemy)) > 0:
		fmt.Fprintln(s.out, "\nThe enemies win.")
	default:
		fmt.Fprintln(s.out, "\nNo one is left standing.")
	}
}

func splitNames(line string) []string {
	var names []string
	for _, part := range strings.Split(line, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func reasonOf(err error) string {
	if reason := dnderr.Reason(err); reason != "" {
		return reason
	}
	return err.Error()
}
