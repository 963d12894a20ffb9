package buff

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/codexvs/codexvs/internal/combatlog"
)

var (
	ErrUnknownAuraRemoval = errors.New("removing aura that is not active")
	ErrAuraNotFound       = errors.New("aura not found")
)

// Keyed is anything that names a tracked ability: a raw AbilityID, a
// *Definition or an *Aura. The ledger only ever stores KeyOf(k).
type Keyed interface {
	Key() combatlog.AbilityID
}

// KeyOf returns the canonical ledger key.
func KeyOf(k Keyed) combatlog.AbilityID {
	return k.Key()
}

// ID wraps a raw ability id as a Keyed.
type ID combatlog.AbilityID

// Key implements Keyed.
func (id ID) Key() combatlog.AbilityID { return combatlog.AbilityID(id) }

// Aura is one live buff instance on the player.
type Aura struct {
	Def    *Definition
	Stacks int
}

// Key implements Keyed.
func (a *Aura) Key() combatlog.AbilityID {
	return a.Def.AbilityID
}

// Coefficient returns the definition coefficient at the current stack count.
func (a *Aura) Coefficient() float64 {
	return a.Def.Coefficient(a.Stacks)
}

// Ledger tracks the auras currently active on one player.
//
// Not safe for concurrent use: a ledger belongs to a single replay.
type Ledger struct {
	repeatStack combatlog.AbilityID
	auras       map[combatlog.AbilityID]*Aura
}

// NewLedger creates an empty ledger. repeatStack names the ability whose
// repeated applies accumulate stacks instead of replacing the instance.
func NewLedger(repeatStack combatlog.AbilityID) *Ledger {
	return &Ledger{
		repeatStack: repeatStack,
		auras:       make(map[combatlog.AbilityID]*Aura, 16),
	}
}

// Put installs an aura unconditionally, replacing any existing instance.
func (l *Ledger) Put(def *Definition, stacks int) {
	if stacks < 1 {
		stacks = 1
	}
	l.auras[KeyOf(def)] = &Aura{Def: def, Stacks: stacks}
}

// Upsert applies an apply/applystack event for def.
//
// The repeated-stack ability is checked before the target: an existing
// instance gains one stack even when the event targets someone else,
// and is never reset by a later apply on the player.
// Every other ability is replaced at the reported stack count, but only
// when the event targets the tracked player.
//
// Returns true if the ledger changed.
func (l *Ledger) Upsert(def *Definition, stacks int, onPlayer bool) bool {
	key := KeyOf(def)
	if key == l.repeatStack {
		if existing, ok := l.auras[key]; ok {
			existing.Stacks++
			return true
		}
	}
	if !onPlayer {
		return false
	}
	l.Put(def, stacks)
	return true
}

// Remove deletes the aura for k.
// Returns ErrUnknownAuraRemoval if it is not active.
func (l *Ledger) Remove(k Keyed) error {
	key := KeyOf(k)
	if _, ok := l.auras[key]; !ok {
		return fmt.Errorf("ability %d: %w", key, ErrUnknownAuraRemoval)
	}
	delete(l.auras, key)
	return nil
}

// Contains reports whether an aura for k is active.
func (l *Ledger) Contains(k Keyed) bool {
	_, ok := l.auras[KeyOf(k)]
	return ok
}

// Get returns the active aura for k or ErrAuraNotFound.
func (l *Ledger) Get(k Keyed) (*Aura, error) {
	a, ok := l.auras[KeyOf(k)]
	if !ok {
		return nil, fmt.Errorf("ability %d: %w", KeyOf(k), ErrAuraNotFound)
	}
	return a, nil
}

// Len returns the number of active auras.
func (l *Ledger) Len() int {
	return len(l.auras)
}

// Auras returns the active auras ordered by ability id, so repeated
// replays accumulate floating point terms in the same order.
func (l *Ledger) Auras() []*Aura {
	out := make([]*Aura, 0, len(l.auras))
	for _, a := range l.auras {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *Aura) int {
		return cmp.Compare(a.Key(), b.Key())
	})
	return out
}

// Mixin applies every active aura to value: additive deltas first, then
// multipliers.
func (l *Ledger) Mixin(value float64) float64 {
	total := Mixin(value, l.Auras())
	slog.Debug("mixin", "from", value, "to", total, "auras", len(l.auras))
	return total
}

// Mixout strips every active aura from value. Inverse of Mixin.
func (l *Ledger) Mixout(value float64) float64 {
	base := Mixout(value, l.Auras())
	slog.Debug("mixout", "from", value, "to", base, "auras", len(l.auras))
	return base
}

// Mixin composes auras onto value, additive layer before multiplicative.
// The order of auras inside each layer does not matter.
func Mixin(value float64, auras []*Aura) float64 {
	for _, a := range auras {
		if a.Def.Kind == KindAdditive {
			value = a.Def.Apply(value, a.Stacks)
		}
	}
	for _, a := range auras {
		if a.Def.Kind == KindMultiplicative {
			value = a.Def.Apply(value, a.Stacks)
		}
	}
	return value
}

// Mixout undoes Mixin: multipliers are divided out before deltas are
// subtracted.
func Mixout(value float64, auras []*Aura) float64 {
	for _, a := range auras {
		if a.Def.Kind == KindMultiplicative {
			value = a.Def.Revert(value, a.Stacks)
		}
	}
	for _, a := range auras {
		if a.Def.Kind == KindAdditive {
			value = a.Def.Revert(value, a.Stacks)
		}
	}
	return value
}
