package meters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
	"github.com/KirkDiggler/combat-engine/internal/uuid"
)

// Meter names accepted by the store
const (
	Heat     = "heat"
	Balance  = "balance"
	Momentum = "momentum"
	RP       = "rp"
	RPCap    = "rp_cap"
)

var legal = map[string]bool{
	Heat:     true,
	Balance:  true,
	Momentum: true,
	RP:       true,
	RPCap:    true,
}

// aliases accepted from ability data
var aliases = map[string]string{
	"resolve":     RP,
	"resolve_cap": RPCap,
}

// Canonical returns the store's name for a meter and whether it is one
func Canonical(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[n]; ok {
		n = alias
	}
	return n, legal[n]
}

// Key identifies a participant inside one encounter's store
type Key string

// Record is one participant's meters
type Record map[string]int

// Store is the single authority for heat, balance, momentum and RP during an
// encounter. It is owned by the goroutine resolving the current step.
type Store struct {
	records map[Key]Record
	uuidGen uuid.Generator
}

// Config holds the store's collaborators
type Config struct {
	UUIDGenerator uuid.Generator
}

// NewStore creates an empty store
func NewStore(cfg *Config) *Store {
	s := &Store{records: map[Key]Record{}}
	if cfg != nil && cfg.UUIDGenerator != nil {
		s.uuidGen = cfg.UUIDGenerator
	} else {
		s.uuidGen = uuid.NewGoogleUUIDGenerator()
	}
	return s
}

// KeyOf derives the combat key for a participant
func KeyOf(p *entities.Participant) Key {
	return Key(fmt.Sprintf("%s:%s", p.Side, p.ID))
}

// Register seeds a record for p and returns its key. Participants without an
// ID are given one. Registering an already known participant keeps its record.
func (s *Store) Register(p *entities.Participant) Key {
	if p.ID == "" {
		p.ID = s.uuidGen.New()
	}
	key := KeyOf(p)
	if _, ok := s.records[key]; ok {
		return key
	}
	s.records[key] = Record{
		Heat:     p.Meters.Heat,
		Balance:  p.Meters.Balance,
		Momentum: p.Meters.Momentum,
		RP:       p.Meters.RP,
		RPCap:    p.Meters.RPCap,
	}
	return key
}

// Registered reports whether key has a record
func (s *Store) Registered(key Key) bool {
	_, ok := s.records[key]
	return ok
}

// Get reads a meter; unregistered keys read 0
func (s *Store) Get(key Key, meter string) (int, error) {
	name, err := validate(meter)
	if err != nil {
		return 0, err
	}
	return s.records[key][name], nil
}

// Set overwrites a meter
func (s *Store) Set(key Key, meter string, value int) error {
	name, err := validate(meter)
	if err != nil {
		return err
	}
	s.record(key)[name] = value
	return nil
}

// Add changes a meter by delta and returns the new value
func (s *Store) Add(key Key, meter string, delta int) (int, error) {
	name, err := validate(meter)
	if err != nil {
		return 0, err
	}
	rec := s.record(key)
	rec[name] += delta
	return rec[name], nil
}

// Value reads a meter the caller knows to be legal
func (s *Store) Value(key Key, meter string) int {
	v, _ := s.Get(key, meter)
	return v
}

// Snapshot copies every meter of key
func (s *Store) Snapshot(key Key) Record {
	out := make(Record, len(legal))
	for name := range legal {
		out[name] = s.records[key][name]
	}
	return out
}

// Keys lists registered keys in sorted order
func (s *Store) Keys() []Key {
	keys := make([]Key, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (s *Store) record(key Key) Record {
	rec, ok := s.records[key]
	if !ok {
		rec = Record{}
		s.records[key] = rec
	}
	return rec
}

func validate(meter string) (string, error) {
	name, ok := Canonical(meter)
	if !ok {
		return "", dnderr.Newf(dnderr.CodeValidation, "unknown combat meter %q", meter).
			WithMeta("meter", meter)
	}
	return name, nil
}

// MarshalJSON writes the records keyed by combat key
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.records)
}

// UnmarshalJSON restores records written by MarshalJSON
func (s *Store) UnmarshalJSON(data []byte) error {
	records := map[Key]Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	s.records = records
	if s.uuidGen == nil {
		s.uuidGen = uuid.NewGoogleUUIDGenerator()
	}
	return nil
}
