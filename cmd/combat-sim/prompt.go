package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KirkDiggler/combat-engine/internal/entities"
	"github.com/KirkDiggler/combat-engine/internal/services/interrupt"
)

// terminalUI answers interrupt prompts from a line-oriented reader. When
// blocking is false the engine suspends instead and the simulator asks
// through choose before resuming.
type terminalUI struct {
	in       *bufio.Reader
	out      io.Writer
	blocking bool
}

func newTerminalUI(in *bufio.Reader, out io.Writer, blocking bool) *terminalUI {
	return &terminalUI{in: in, out: out, blocking: blocking}
}

// Blocking implements interrupt.PromptUI
func (u *terminalUI) Blocking() bool {
	return u.blocking
}

// ConfirmInterrupt implements interrupt.PromptUI. End of input declines.
func (u *terminalUI) ConfirmInterrupt(ctx context.Context, prompt interrupt.Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	line, err := u.readLine(fmt.Sprintf("%s can interrupt %s %s %q (link %d). Interrupt? [y/N] ",
		prompt.DefenderID, prompt.AggressorID, phaseLabel(prompt.When), prompt.Link, prompt.LinkIndex+1))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return isYes(line), nil
}

// choose asks for one of a suspension's options. End of input passes.
func (u *terminalUI) choose(s *entities.Suspension) (string, error) {
	for {
		line, err := u.readLine(fmt.Sprintf("%s may act %s (link %d). Choose [%s]: ",
			s.DefenderID, phaseLabel(s.When), s.LinkIndex+1, strings.Join(s.Options, "/")))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return entities.OptionPass, nil
			}
			return "", err
		}

		choice := strings.ToLower(line)
		switch {
		case choice == "y" || choice == "yes":
			choice = entities.OptionInterrupt
		case choice == "" || choice == "n" || choice == "no":
			choice = entities.OptionPass
		}
		if s.Allows(choice) {
			return choice, nil
		}
		fmt.Fprintf(u.out, "  %q is not an option\n", line)
	}
}

func (u *terminalUI) readLine(prompt string) (string, error) {
	fmt.Fprint(u.out, prompt)
	line, err := u.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", entities.OptionInterrupt:
		return true
	}
	return false
}

func phaseLabel(when entities.WindowPhase) string {
	if when == entities.BeforeLink {
		return "before"
	}
	return "after"
}
