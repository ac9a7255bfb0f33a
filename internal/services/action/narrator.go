package action

//go:generate mockgen -destination=mock/mock_narrator.go -package=mockaction -source=narrator.go

import (
	"context"

	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// Narrator turns a resolved action into prose. It never affects mechanics.
type Narrator interface {
	Narrate(ctx context.Context, entry entities.LogEntry) (string, error)
}
