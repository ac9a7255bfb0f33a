package combat

import (
	"strings"
	"time"

	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
)

// EncounterStatus represents the current state of an encounter
type EncounterStatus string

const (
	EncounterStatusActive    EncounterStatus = "active"    // Combat in progress
	EncounterStatusCompleted EncounterStatus = "completed" // One side has no one standing
)

// Phase is the step of the round the encounter is in
type Phase string

const (
	PhaseDeclare Phase = "declare"
	PhaseResolve Phase = "resolve"
)

// Encounter is the explicit session state the engine reads and mutates.
// Collaborators read it as a snapshot; only engine entry points write it.
type Encounter struct {
	ID           string                                 `json:"id"`
	Name         string                                 `json:"name,omitempty"`
	Status       EncounterStatus                        `json:"status"`
	Phase        Phase                                  `json:"phase"`
	Round        int                                    `json:"round"`
	Participants []*entities.Participant                `json:"participants"`
	Meters       *meters.Store                          `json:"meters"`
	Pending      map[meters.Key]*entities.PendingAction `json:"pending,omitempty"`
	Log          *entities.CombatLog                    `json:"log"`

	// Awaiting is set while a chain is suspended on an external decision
	Awaiting    *entities.Suspension `json:"awaiting,omitempty"`
	ActiveChain *entities.ChainRun   `json:"active_chain,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEncounter creates an encounter in the declare phase of round 1 and
// registers every participant's meters.
func NewEncounter(id string, store *meters.Store, participants ...*entities.Participant) (*Encounter, error) {
	if store == nil {
		store = meters.NewStore(nil)
	}
	enc := &Encounter{
		ID:      id,
		Status:  EncounterStatusActive,
		Phase:   PhaseDeclare,
		Round:   1,
		Meters:  store,
		Pending: map[meters.Key]*entities.PendingAction{},
		Log:     entities.NewCombatLog(),
	}
	for _, p := range participants {
		if err := enc.AddParticipant(p); err != nil {
			return nil, err
		}
	}
	return enc, nil
}

// AddParticipant registers p with the meter store
func (e *Encounter) AddParticipant(p *entities.Participant) error {
	if p == nil {
		return dnderr.InvalidArgument("participant cannot be nil")
	}
	p.EnsureMaps()
	key := e.Meters.Register(p)
	if existing := e.ByKey(key); existing != nil && existing != p {
		return dnderr.AlreadyExistsf("participant %s already in encounter %s", key, e.ID)
	}
	if e.ByKey(key) == nil {
		e.Participants = append(e.Participants, p)
	}
	return nil
}

// Participant finds a participant by ID
func (e *Encounter) Participant(id string) *entities.Participant {
	for _, p := range e.Participants {
		if strings.EqualFold(p.ID, id) {
			return p
		}
	}
	return nil
}

// ByKey finds a participant by combat key
func (e *Encounter) ByKey(key meters.Key) *entities.Participant {
	for _, p := range e.Participants {
		if meters.KeyOf(p) == key {
			return p
		}
	}
	return nil
}

// Lookup returns the participant with id or a not found error
func (e *Encounter) Lookup(id string) (*entities.Participant, error) {
	p := e.Participant(id)
	if p == nil {
		return nil, dnderr.NotFoundf("participant %s not in encounter %s", id, e.ID).
			WithMeta("participant_id", id)
	}
	return p, nil
}

// Opponents lists the living participants not on side
func (e *Encounter) Opponents(side entities.Side) []*entities.Participant {
	var out []*entities.Participant
	for _, p := range e.Participants {
		if p.Side != side && p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

// Standing lists the living participants on side
func (e *Encounter) Standing(side entities.Side) []*entities.Participant {
	var out []*entities.Participant
	for _, p := range e.Participants {
		if p.Side == side && p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

// CheckOver marks the encounter completed when a side has no one standing
func (e *Encounter) CheckOver() bool {
	if len(e.Standing(entities.SidePlayer)) == 0 || len(e.Standing(entities.SideEnemy)) == 0 {
		e.Status = EncounterStatusCompleted
	}
	return e.Status == EncounterStatusCompleted
}

// PendingFor returns the outstanding action of a participant
func (e *Encounter) PendingFor(p *entities.Participant) *entities.PendingAction {
	if e.Pending == nil {
		return nil
	}
	return e.Pending[meters.KeyOf(p)]
}

// SetPending stores or clears a participant's pending action
func (e *Encounter) SetPending(p *entities.Participant, action *entities.PendingAction) {
	if e.Pending == nil {
		e.Pending = map[meters.Key]*entities.PendingAction{}
	}
	key := meters.KeyOf(p)
	if action == nil {
		delete(e.Pending, key)
		return
	}
	e.Pending[key] = action
}

// Snapshot returns a participant's hp and meters for a log entry
func (e *Encounter) Snapshot(p *entities.Participant) entities.MeterSnapshot {
	rec := e.Meters.Snapshot(meters.KeyOf(p))
	return entities.MeterSnapshot{
		HP:       p.HP.Current,
		MaxHP:    p.HP.Max,
		RP:       rec[meters.RP],
		RPCap:    rec[meters.RPCap],
		Heat:     rec[meters.Heat],
		Balance:  rec[meters.Balance],
		Momentum: rec[meters.Momentum],
	}
}

// EnsureRuntime fills fields a decoded snapshot may lack
func (e *Encounter) EnsureRuntime() {
	if e.Meters == nil {
		e.Meters = meters.NewStore(nil)
	}
	if e.Log == nil {
		e.Log = entities.NewCombatLog()
	}
	if e.Pending == nil {
		e.Pending = map[meters.Key]*entities.PendingAction{}
	}
	for _, p := range e.Participants {
		p.EnsureMaps()
		if !e.Meters.Registered(meters.KeyOf(p)) {
			e.Meters.Register(p)
		}
	}
}
