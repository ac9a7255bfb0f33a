package encounters

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
)

// inMemoryRepository keeps encoded snapshots rather than pointers, so a
// caller holding a loaded encounter only changes the store through Update.
type inMemoryRepository struct {
	mu           sync.RWMutex
	snapshots    map[string]stored
	timeProvider TimeProvider
}

type stored struct {
	data   []byte
	active bool
}

// InMemoryOption configures an in-memory repository
type InMemoryOption func(*inMemoryRepository)

// WithTimeProvider overrides the clock used for CreatedAt and UpdatedAt
func WithTimeProvider(tp TimeProvider) InMemoryOption {
	return func(r *inMemoryRepository) {
		if tp != nil {
			r.timeProvider = tp
		}
	}
}

// NewInMemoryRepository creates a new in-memory encounter repository
func NewInMemoryRepository(opts ...InMemoryOption) Repository {
	r := &inMemoryRepository{
		snapshots:    make(map[string]stored),
		timeProvider: systemTime{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores a new encounter
func (r *inMemoryRepository) Create(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil || encounter.ID == "" {
		return dnderr.InvalidArgument("encounter with an ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.snapshots[encounter.ID]; exists {
		return dnderr.AlreadyExistsf("encounter with ID %s already exists", encounter.ID)
	}

	now := r.timeProvider.Now()
	if encounter.CreatedAt.IsZero() {
		encounter.CreatedAt = now
	}
	encounter.UpdatedAt = now
	return r.put(encounter)
}

// Get decodes a fresh copy of the stored encounter
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	r.mu.RLock()
	snap, exists := r.snapshots[id]
	r.mu.RUnlock()

	if !exists {
		return nil, dnderr.NotFoundf("encounter not found: %s", id)
	}
	return decodeEncounter(snap.data)
}

// Update replaces the stored snapshot
func (r *inMemoryRepository) Update(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.snapshots[encounter.ID]; !exists {
		return dnderr.NotFoundf("encounter not found: %s", encounter.ID)
	}

	encounter.UpdatedAt = r.timeProvider.Now()
	return r.put(encounter)
}

// Delete removes an encounter
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.snapshots[id]; !exists {
		return dnderr.NotFoundf("encounter not found: %s", id)
	}
	delete(r.snapshots, id)
	return nil
}

// ListActive returns the encounters still in progress
func (r *inMemoryRepository) ListActive(ctx context.Context) ([]*combat.Encounter, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.snapshots))
	for id, snap := range r.snapshots {
		if snap.active {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	active := make([]*combat.Encounter, 0, len(ids))
	for _, id := range ids {
		encounter, err := r.Get(ctx, id)
		if dnderr.IsNotFound(err) {
			// deleted since the index was read
			continue
		}
		if err != nil {
			return nil, err
		}
		active = append(active, encounter)
	}
	return active, nil
}

// put must be called with the write lock held
func (r *inMemoryRepository) put(encounter *combat.Encounter) error {
	data, err := json.Marshal(encounter)
	if err != nil {
		return dnderr.Wrapf(err, "failed to encode encounter %s", encounter.ID).
			WithMeta("encounter_id", encounter.ID)
	}
	r.snapshots[encounter.ID] = stored{
		data:   data,
		active: encounter.Status == combat.EncounterStatusActive,
	}
	return nil
}

func decodeEncounter(data []byte) (*combat.Encounter, error) {
	var encounter combat.Encounter
	if err := json.Unmarshal(data, &encounter); err != nil {
		return nil, fmt.Errorf("failed to decode encounter: %w", err)
	}
	encounter.EnsureRuntime()
	return &encounter, nil
}
