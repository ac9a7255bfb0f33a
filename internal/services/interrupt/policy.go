package interrupt

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/dice"
	"github.com/KirkDiggler/combat-engine/internal/domain/predicate"
	"github.com/KirkDiggler/combat-engine/internal/entities"
)

// DecisionKind is what a policy decided for one window check
type DecisionKind string

const (
	NoInterrupt DecisionKind = "no_interrupt"
	Attempt     DecisionKind = "attempt"
	Awaiting    DecisionKind = "awaiting"
)

// Decision reasons
const (
	ReasonNoWindow     = "no_window"
	ReasonWindow       = "window"
	ReasonDefaultRule  = "default_rule"
	ReasonChanceFailed = "chance_failed"
	ReasonDeclined     = "declined"
	ReasonAwaitingUser = "awaiting_user"
)

// Decision is a policy's answer. Window is the data window that opened, nil
// when the default rule did.
type Decision struct {
	Kind       DecisionKind
	Window     *entities.InterruptWindow
	Reason     string
	Suspension *entities.Suspension
}

// Policy turns a window check into a decision
type Policy interface {
	Decide(ctx context.Context, ictx *Context, ui PromptUI) (Decision, error)
}

// MatchWindows returns the defender's windows open at ictx, highest priority
// first. When the defender declares any predicate windows its legacy windows
// are ignored. Predicate errors are returned, never treated as false.
func MatchWindows(ictx *Context) ([]entities.InterruptWindow, error) {
	if ictx.Defender == nil {
		return nil, nil
	}

	var modern, legacy []entities.InterruptWindow
	for _, w := range ictx.Defender.Windows {
		if w.Schema == entities.SchemaLegacy {
			legacy = append(legacy, w)
		} else {
			modern = append(modern, w)
		}
	}

	var matched []entities.InterruptWindow
	if len(modern) > 0 {
		facts := ictx.Facts()
		for _, w := range modern {
			if w.When != ictx.When {
				continue
			}
			ok, err := predicate.Evaluate(w.If, facts)
			if err != nil {
				return nil, fmt.Errorf("interrupt window for %s: %w", ictx.Defender.ID, err)
			}
			if ok {
				matched = append(matched, w)
			}
		}
		slices.SortStableFunc(matched, func(a, b entities.InterruptWindow) int {
			return b.Priority - a.Priority
		})
		return matched, nil
	}

	if ictx.When != entities.AfterLink {
		return nil, nil
	}
	for _, w := range legacy {
		if len(w.AfterActionIndex) > 0 && !slices.Contains(w.AfterActionIndex, ictx.Index) {
			continue
		}
		if legacyTriggersMet(w.TriggerIf, ictx) {
			matched = append(matched, w)
		}
	}
	return matched, nil
}

// DefaultRuleOpen is the fallback used when no data window matched: only
// after a link, when that link missed or it was not the first link.
func DefaultRuleOpen(ictx *Context) bool {
	return ictx.When == entities.AfterLink && (ictx.LastMissed || ictx.Index >= 1)
}

// legacyTriggersMet checks every trigger_if key. Unknown keys are unmet.
func legacyTriggersMet(triggers map[string]any, ictx *Context) bool {
	for key, raw := range triggers {
		if !legacyTrigger(key, raw, ictx) {
			return false
		}
	}
	return true
}

func legacyTrigger(key string, raw any, ictx *Context) bool {
	switch strings.ToLower(key) {
	case "last_missed":
		want, ok := raw.(bool)
		return ok && want == ictx.LastMissed
	case "chain_index_gte":
		n, ok := asInt(raw)
		return ok && ictx.Index >= n
	case "chain_length_gte":
		n, ok := asInt(raw)
		return ok && ictx.Length >= n
	case "aggressor_hp_below_pct":
		n, ok := asInt(raw)
		return ok && ictx.Aggressor != nil && ictx.Aggressor.HP.BelowPercent(n)
	case "defender_hp_below_pct":
		n, ok := asInt(raw)
		return ok && ictx.Defender != nil && ictx.Defender.HP.BelowPercent(n)
	case "link_tag":
		tag, ok := raw.(string)
		return ok && ictx.Link != nil && (ictx.Link.HasTag(tag) || strings.EqualFold(ictx.Link.Path, tag))
	default:
		return false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

// sample reports whether a probability p opens. Certain outcomes never
// consume a roll.
func sample(src dice.Source, p float64) bool {
	if p >= 1 {
		return true
	}
	if p <= 0 {
		return false
	}
	return src.Float() < p
}

// EnemyWindowPolicy opens declared windows by chance and falls back to the default rule
type EnemyWindowPolicy struct {
	src           dice.Source
	defaultChance float64
	logger        *zap.Logger
}

// EnemyWindowConfig holds the enemy policy's collaborators
type EnemyWindowConfig struct {
	Source dice.Source
	// DefaultChance is the chance the default rule opens; nil means 1
	DefaultChance *float64
	Logger        *zap.Logger
}

// NewEnemyWindowPolicy creates the AI defender policy
func NewEnemyWindowPolicy(cfg *EnemyWindowConfig) *EnemyWindowPolicy {
	if cfg == nil || cfg.Source == nil {
		panic("dice source is required")
	}
	p := &EnemyWindowPolicy{src: cfg.Source, defaultChance: 1, logger: cfg.Logger}
	if cfg.DefaultChance != nil {
		p.defaultChance = *cfg.DefaultChance
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Decide samples the highest priority matching window, or the default rule
// when nothing matched.
func (p *EnemyWindowPolicy) Decide(ctx context.Context, ictx *Context, ui PromptUI) (Decision, error) {
	matched, err := MatchWindows(ictx)
	if err != nil {
		return Decision{}, err
	}

	if len(matched) > 0 {
		w := matched[0]
		if !sample(p.src, w.Probability()) {
			return Decision{Kind: NoInterrupt, Window: &w, Reason: ReasonChanceFailed}, nil
		}
		p.logger.Debug("interrupt window opened",
			zap.String("defender", ictx.Defender.ID),
			zap.String("when", string(ictx.When)),
			zap.Int("index", ictx.Index),
			zap.String("schema", string(w.Schema)))
		return Decision{Kind: Attempt, Window: &w, Reason: ReasonWindow}, nil
	}

	if !DefaultRuleOpen(ictx) {
		return Decision{Kind: NoInterrupt, Reason: ReasonNoWindow}, nil
	}
	if !sample(p.src, p.defaultChance) {
		return Decision{Kind: NoInterrupt, Reason: ReasonChanceFailed}, nil
	}
	return Decision{Kind: Attempt, Reason: ReasonDefaultRule}, nil
}

// PlayerPromptPolicy asks a human defender whether to interrupt
type PlayerPromptPolicy struct {
	logger *zap.Logger
}

// NewPlayerPromptPolicy creates the human defender policy
func NewPlayerPromptPolicy(logger *zap.Logger) *PlayerPromptPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlayerPromptPolicy{logger: logger}
}

// Decide opens on the same windows as the enemy policy without sampling.
// Blocking UIs confirm inline; anything else suspends the chain.
func (p *PlayerPromptPolicy) Decide(ctx context.Context, ictx *Context, ui PromptUI) (Decision, error) {
	matched, err := MatchWindows(ictx)
	if err != nil {
		return Decision{}, err
	}

	var window *entities.InterruptWindow
	reason := ReasonWindow
	switch {
	case len(matched) > 0:
		window = &matched[0]
	case DefaultRuleOpen(ictx):
		reason = ReasonDefaultRule
	default:
		return Decision{Kind: NoInterrupt, Reason: ReasonNoWindow}, nil
	}

	if ui != nil && ui.Blocking() {
		link := ""
		if ictx.Link != nil {
			link = ictx.Link.Name
		}
		yes, err := ui.ConfirmInterrupt(ctx, Prompt{
			DefenderID:  ictx.Defender.ID,
			AggressorID: ictx.Aggressor.ID,
			When:        ictx.When,
			LinkIndex:   ictx.Index,
			Link:        link,
		})
		if err != nil {
			return Decision{}, fmt.Errorf("confirm interrupt: %w", err)
		}
		if !yes {
			return Decision{Kind: NoInterrupt, Window: window, Reason: ReasonDeclined}, nil
		}
		return Decision{Kind: Attempt, Window: window, Reason: reason}, nil
	}

	p.logger.Debug("interrupt awaiting player",
		zap.String("defender", ictx.Defender.ID),
		zap.String("when", string(ictx.When)),
		zap.Int("index", ictx.Index))

	return Decision{
		Kind:   Awaiting,
		Window: window,
		Reason: ReasonAwaitingUser,
		Suspension: &entities.Suspension{
			Type:        entities.SuspensionInterruptDecision,
			Options:     []string{entities.OptionInterrupt, entities.OptionPass},
			When:        ictx.When,
			LinkIndex:   ictx.Index,
			AggressorID: ictx.Aggressor.ID,
			DefenderID:  ictx.Defender.ID,
			Window:      window,
		},
	}, nil
}

// SelectingPolicy routes human defenders to Player and everyone else to Enemy
type SelectingPolicy struct {
	Player Policy
	Enemy  Policy
}

// Decide implements Policy
func (s *SelectingPolicy) Decide(ctx context.Context, ictx *Context, ui PromptUI) (Decision, error) {
	if ictx.Defender != nil && ictx.Defender.IsHuman() {
		return s.Player.Decide(ctx, ictx, ui)
	}
	return s.Enemy.Decide(ctx, ictx, ui)
}
