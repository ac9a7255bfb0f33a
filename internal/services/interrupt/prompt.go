package interrupt

//go:generate mockgen -destination=mock/mock_prompt.go -package=mockinterrupt -source=prompt.go

import (
	"context"

	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// Prompt is what a human defender is asked before an interrupt
type Prompt struct {
	DefenderID  string
	AggressorID string
	When        entities.WindowPhase
	LinkIndex   int
	Link        string
}

// PromptUI is the interface a player answers interrupt prompts through.
// Blocking UIs answer inline; non-blocking UIs get an awaiting suspension.
type PromptUI interface {
	Blocking() bool
	ConfirmInterrupt(ctx context.Context, prompt Prompt) (bool, error)
}
