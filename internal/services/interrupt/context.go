package interrupt

import (
	"github.com/KirkDiggler/combat-engine/internal/domain/meters"
	"github.com/KirkDiggler/combat-engine/internal/domain/predicate"
	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// Context is the read-only view of a chain a policy decides on
type Context struct {
	When       entities.WindowPhase
	Aggressor  *entities.Participant
	Defender   *entities.Participant
	Meters     *meters.Store
	Index      int
	Length     int
	LastMissed bool
	Link       *entities.Ability
	AttackD20  int
	DefenseD20 int
}

// Facts projects the context into what predicates evaluate against
func (c *Context) Facts() *predicate.Context {
	facts := &predicate.Context{
		Chain: predicate.ChainFacts{
			Index:      c.Index,
			Length:     c.Length,
			LastMissed: c.LastMissed,
			When:       string(c.When),
		},
		Aggressor: subject(c.Meters, c.Aggressor),
		Defender:  subject(c.Meters, c.Defender),
		Rolls: predicate.RollFacts{
			AttackD20:  c.AttackD20,
			DefenseD20: c.DefenseD20,
		},
	}
	if c.Link != nil {
		facts.Link = predicate.LinkFacts{
			Name: c.Link.Name,
			Path: c.Link.Path,
			Tags: append([]string(nil), c.Link.Tags...),
		}
	}
	return facts
}

func subject(store *meters.Store, p *entities.Participant) predicate.Subject {
	if p == nil {
		return predicate.Subject{}
	}

	resources := make(map[string]int, len(p.Resources)+9)
	for name, v := range p.Resources {
		resources[name] = v
	}
	resources["hp"] = p.HP.Current
	resources["max_hp"] = p.HP.Max
	resources["idf"] = p.IDF
	resources["dv_base"] = p.DVBase
	if store != nil {
		for name, v := range store.Snapshot(meters.KeyOf(p)) {
			resources[name] = v
		}
	}

	return predicate.Subject{
		ID:        p.ID,
		Side:      string(p.Side),
		Archetype: p.Archetype,
		Resources: resources,
		Statuses:  p.Statuses.StackCounts(),
	}
}
