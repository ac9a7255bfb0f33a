package encounters

//go:generate mockgen -destination=mock/mock_repository.go -package=mockencrepo -source=repository.go

import (
	"context"
	"time"

	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
)

// Repository defines the interface for encounter storage operations
type Repository interface {
	// Create stores a new encounter
	Create(ctx context.Context, encounter *combat.Encounter) error

	// Get retrieves an encounter by ID with its full combat log
	Get(ctx context.Context, id string) (*combat.Encounter, error)

	// Update stores the encounter's current state and any new log entries
	Update(ctx context.Context, encounter *combat.Encounter) error

	// Delete removes an encounter
	Delete(ctx context.Context, id string) error

	// ListActive retrieves every encounter still in progress, ordered by ID
	ListActive(ctx context.Context) ([]*combat.Encounter, error)
}

// TimeProvider supplies timestamps for CreatedAt and UpdatedAt
type TimeProvider interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now().UTC() }
