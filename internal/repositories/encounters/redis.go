package encounters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/combat-engine/internal/domain/game/combat"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
)

const activeIndexKey = "encounters:active"

// RedisRepoConfig holds configuration for the redis repository
type RedisRepoConfig struct {
	Client       redis.UniversalClient
	TimeProvider TimeProvider

	// TTL expires encounter keys; zero keeps them forever
	TTL time.Duration
}

type redisRepo struct {
	client       redis.UniversalClient
	timeProvider TimeProvider
	ttl          time.Duration
}

// NewRedisRepository stores each encounter as a JSON snapshot plus an
// append-only list holding its combat log.
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil || cfg.Client == nil {
		panic("redis client is required")
	}
	tp := cfg.TimeProvider
	if tp == nil {
		tp = systemTime{}
	}
	return &redisRepo{
		client:       cfg.Client,
		timeProvider: tp,
		ttl:          cfg.TTL,
	}
}

func encounterKey(id string) string {
	return fmt.Sprintf("encounter:%s", id)
}

func logKey(id string) string {
	return fmt.Sprintf("encounter:%s:log", id)
}

// marshalSnapshot encodes everything but the log, which lives in its own list
func marshalSnapshot(encounter *combat.Encounter) (string, error) {
	snapshot := *encounter
	snapshot.Log = nil
	data, err := json.Marshal(&snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal encounter: %w", err)
	}
	return string(data), nil
}

func marshalEntries(entries []entities.LogEntry) ([]interface{}, error) {
	values := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal log entry %d: %w", entry.Seq, err)
		}
		values = append(values, string(data))
	}
	return values, nil
}

// Create stores a new encounter
func (r *redisRepo) Create(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil || encounter.ID == "" {
		return dnderr.InvalidArgument("encounter with an ID is required")
	}

	exists, err := r.client.Exists(ctx, encounterKey(encounter.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check encounter in Redis: %w", err)
	}
	if exists > 0 {
		return dnderr.AlreadyExistsf("encounter with ID %s already exists", encounter.ID)
	}

	now := r.timeProvider.Now()
	if encounter.CreatedAt.IsZero() {
		encounter.CreatedAt = now
	}
	encounter.UpdatedAt = now

	return r.save(ctx, encounter, 0)
}

// Get loads the snapshot and the log concurrently
func (r *redisRepo) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	var (
		snapshot []byte
		rawLog   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := r.client.Get(gctx, encounterKey(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return dnderr.NotFoundf("encounter not found: %s", id)
			}
			return fmt.Errorf("failed to get encounter from Redis: %w", err)
		}
		snapshot = data
		return nil
	})
	g.Go(func() error {
		values, err := r.client.LRange(gctx, logKey(id), 0, -1).Result()
		if err != nil {
			return fmt.Errorf("failed to get combat log from Redis: %w", err)
		}
		rawLog = values
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	encounter := &combat.Encounter{}
	if err := json.Unmarshal(snapshot, encounter); err != nil {
		return nil, fmt.Errorf("failed to unmarshal encounter %s: %w", id, err)
	}

	entries := make([]entities.LogEntry, 0, len(rawLog))
	for i, raw := range rawLog {
		var entry entities.LogEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log entry %d of %s: %w", i, id, err)
		}
		entries = append(entries, entry)
	}

	encounter.EnsureRuntime()
	encounter.Log.Restore(entries)
	return encounter, nil
}

// Update writes the snapshot and appends log entries the store has not seen
func (r *redisRepo) Update(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}

	exists, err := r.client.Exists(ctx, encounterKey(encounter.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check encounter in Redis: %w", err)
	}
	if exists == 0 {
		return dnderr.NotFoundf("encounter not found: %s", encounter.ID)
	}

	stored, err := r.client.LLen(ctx, logKey(encounter.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to get combat log length from Redis: %w", err)
	}
	if encounter.Log != nil && int(stored) > encounter.Log.Len() {
		return dnderr.FailedPreconditionf("encounter %s log has %d entries but store has %d",
			encounter.ID, encounter.Log.Len(), stored)
	}

	encounter.UpdatedAt = r.timeProvider.Now()
	return r.save(ctx, encounter, int(stored))
}

func (r *redisRepo) save(ctx context.Context, encounter *combat.Encounter, stored int) error {
	snapshot, err := marshalSnapshot(encounter)
	if err != nil {
		return err
	}

	var entries []interface{}
	if encounter.Log != nil {
		entries, err = marshalEntries(encounter.Log.Since(stored))
		if err != nil {
			return err
		}
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, encounterKey(encounter.ID), snapshot, r.ttl)
	if len(entries) > 0 {
		pipe.RPush(ctx, logKey(encounter.ID), entries...)
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, logKey(encounter.ID), r.ttl)
	}
	if encounter.Status == combat.EncounterStatusActive {
		pipe.SAdd(ctx, activeIndexKey, encounter.ID)
	} else {
		pipe.SRem(ctx, activeIndexKey, encounter.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save encounter %s to Redis: %w", encounter.ID, err)
	}
	return nil
}

// Delete removes an encounter and its log
func (r *redisRepo) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	deleted := pipe.Del(ctx, encounterKey(id))
	pipe.Del(ctx, logKey(id))
	pipe.SRem(ctx, activeIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete encounter from Redis: %w", err)
	}
	if deleted.Val() == 0 {
		return dnderr.NotFoundf("encounter not found: %s", id)
	}
	return nil
}

// ListActive loads every indexed encounter concurrently
func (r *redisRepo) ListActive(ctx context.Context) ([]*combat.Encounter, error) {
	ids, err := r.client.SMembers(ctx, activeIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active encounters from Redis: %w", err)
	}

	encounters := make([]*combat.Encounter, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			encounter, err := r.Get(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to get encounter %s: %w", id, err)
			}
			encounters[i] = encounter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(encounters, func(i, j int) bool { return encounters[i].ID < encounters[j].ID })
	return encounters, nil
}
