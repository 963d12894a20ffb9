package attribution

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/codexvs/codexvs/internal/buff"
	"github.com/codexvs/codexvs/internal/combatlog"
	"github.com/codexvs/codexvs/internal/player"
)

// State is the engine lifecycle.
type State uint8

const (
	StateUninitialized State = iota // no player state yet
	StateReady                      // player state built, no power sample
	StateSampled                    // has a latest attack power reading
	StateDone                       // accumulators finalized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateSampled:
		return "sampled"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Config holds the fixed parameters of one attribution.
type Config struct {
	// TrackedAbility is the self-damage ability whose net value is isolated.
	TrackedAbility combatlog.AbilityID
	// ScalingAbilities deal damage proportional to attack power.
	ScalingAbilities []combatlog.AbilityID
	// FlatBonus is the item's Strength bonus.
	FlatBonus float64
	// TolerateUnknownRemovals turns a removal of an inactive aura into a
	// logged no-op instead of a fatal error.
	TolerateUnknownRemovals bool
}

// Accumulators are the running totals of a replay.
type Accumulators struct {
	TrackedDamage        int64
	AddedAttributeDamage float64
}

// Engine replays one player's events for one encounter.
//
// Not safe for concurrent use; run one Engine per (encounter, player).
type Engine struct {
	cfg     Config
	scaling map[combatlog.AbilityID]struct{}
	catalog *buff.Catalog

	playerID combatlog.ActorID
	player   *player.State

	state       State
	latestPower float64
	acc         Accumulators
	lastTime    int64
}

// NewEngine creates an engine in StateUninitialized.
func NewEngine(cfg Config, catalog *buff.Catalog) *Engine {
	scaling := make(map[combatlog.AbilityID]struct{}, len(cfg.ScalingAbilities))
	for _, id := range cfg.ScalingAbilities {
		scaling[id] = struct{}{}
	}
	return &Engine{
		cfg:     cfg,
		scaling: scaling,
		catalog: catalog,
	}
}

// Start attaches the player state and moves the engine to StateReady.
func (e *Engine) Start(playerID combatlog.ActorID, ps *player.State) error {
	if e.state != StateUninitialized {
		return fmt.Errorf("start in state %s: %w", e.state, ErrNotReady)
	}
	e.playerID = playerID
	e.player = ps
	e.state = StateReady
	return nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Accumulators returns the running totals.
func (e *Engine) Accumulators() Accumulators { return e.acc }

// LatestPower returns the most recent logged attack power, or 0.
func (e *Engine) LatestPower() float64 { return e.latestPower }

// Step applies one event.
func (e *Engine) Step(ev combatlog.Event) error {
	if e.state != StateReady && e.state != StateSampled {
		return fmt.Errorf("step in state %s: %w", e.state, ErrNotReady)
	}
	if ev.Timestamp < e.lastTime {
		return fmt.Errorf("timestamp %d after %d: %w", ev.Timestamp, e.lastTime, ErrEventsOutOfOrder)
	}
	e.lastTime = ev.Timestamp

	switch ev.Kind {
	case combatlog.KindApplyBuff, combatlog.KindApplyBuffStack:
		def, ok := e.catalog.Lookup(ev.AbilityID)
		if !ok {
			return nil
		}
		e.player.Ledger().Upsert(def, ev.Stacks, ev.TargetID == e.playerID)

	case combatlog.KindRemoveBuff:
		def, ok := e.catalog.Lookup(ev.AbilityID)
		if !ok || ev.TargetID != e.playerID {
			return nil
		}
		if err := e.player.Ledger().Remove(def); err != nil {
			if e.cfg.TolerateUnknownRemovals {
				slog.Warn("ignoring removal of inactive aura", "ability", ev.AbilityID, "name", def.Name, "t", ev.Timestamp)
				return nil
			}
			return err
		}

	case combatlog.KindCast:
		if ev.AttackPower > 0 {
			e.latestPower = float64(ev.AttackPower)
			e.state = StateSampled
		}

	case combatlog.KindDamage:
		return e.damage(ev)
	}
	return nil
}

func (e *Engine) damage(ev combatlog.Event) error {
	if ev.AbilityID == e.cfg.TrackedAbility {
		e.acc.TrackedDamage += ev.Dealt()
		return nil
	}
	if _, ok := e.scaling[ev.AbilityID]; !ok {
		return nil
	}
	added, err := e.Counterfactual(float64(ev.Dealt()))
	if err != nil {
		return fmt.Errorf("ability %d at t=%d: %w", ev.AbilityID, ev.Timestamp, err)
	}
	e.acc.AddedAttributeDamage += added
	return nil
}

// Counterfactual returns how much of dealt is attributable to the flat
// bonus, using the latest logged attack power as the reference.
//
//	dmgCoeff       = dealt / latestPower
//	powerCoeff     = latestPower / modeledPower
//	counterfactual = modeledPower(+bonus) × powerCoeff × dmgCoeff
//
// It fails with ErrMissingPowerSample until a cast has reported attack power.
func (e *Engine) Counterfactual(dealt float64) (float64, error) {
	if e.state != StateSampled {
		return 0, fmt.Errorf("state %s: %w", e.state, ErrMissingPowerSample)
	}

	power := e.player.CurrentPower()
	if power <= 0 {
		return 0, fmt.Errorf("power=%.2f: %w", power, ErrNonPositivePower)
	}

	dmgCoeff := dealt / e.latestPower
	powerCoeff := e.latestPower / power
	counterfactual := e.player.WithBonus(e.cfg.FlatBonus, e.player.CurrentPower) * powerCoeff * dmgCoeff

	// Negated so NaN fails too.
	if !(counterfactual >= dealt) {
		return 0, &InvariantViolation{
			Dealt:          dealt,
			Counterfactual: counterfactual,
			PowerCoeff:     powerCoeff,
			DamageCoeff:    dmgCoeff,
			Power:          e.player.CurrentPower(),
		}
	}
	return counterfactual - dealt, nil
}

// Finish truncates the added damage toward zero and moves to StateDone.
func (e *Engine) Finish() (Accumulators, error) {
	if e.state != StateReady && e.state != StateSampled {
		return e.acc, fmt.Errorf("finish in state %s: %w", e.state, ErrNotReady)
	}
	e.acc.AddedAttributeDamage = math.Trunc(e.acc.AddedAttributeDamage)
	e.state = StateDone
	return e.acc, nil
}

// Replay steps through events in order and finishes the engine.
// Any failure is returned as a *ReplayError.
func (e *Engine) Replay(events []combatlog.Event) (Accumulators, error) {
	for i, ev := range events {
		if err := e.Step(ev); err != nil {
			return e.acc, &ReplayError{
				Err:          err,
				Index:        i,
				Timestamp:    ev.Timestamp,
				Accumulators: e.acc,
			}
		}
	}

	acc, err := e.Finish()
	if err != nil {
		return acc, &ReplayError{Err: err, Index: len(events), Accumulators: acc}
	}

	slog.Debug("replay finished",
		"player", e.playerID,
		"events", len(events),
		"trackedDamage", acc.TrackedDamage,
		"addedDamage", acc.AddedAttributeDamage)
	return acc, nil
}
