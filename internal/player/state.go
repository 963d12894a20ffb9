package player

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/codexvs/codexvs/internal/buff"
	"github.com/codexvs/codexvs/internal/combatlog"
)

var (
	ErrMissingRequiredItem = errors.New("required item not equipped")
	ErrMissingWeapon       = errors.New("no item in weapon slot")
)

// WeaponConstantFunc converts a weapon item level into the weapon damage
// constant that feeds attack power.
type WeaponConstantFunc func(itemLevel int) float64

// StubWeaponConstant ignores the item level and always returns v.
// Good enough within a single item level bracket.
func StubWeaponConstant(v float64) WeaponConstantFunc {
	return func(int) float64 { return v }
}

// Options configures how a State is derived from a snapshot.
type Options struct {
	RequiredItem        int64
	WeaponSlot          int
	WeaponConstant      WeaponConstantFunc
	WeaponNormalization float64
	RepeatStack         combatlog.AbilityID
}

// DefaultOptions returns options for the Codex of the First Technique.
func DefaultOptions() Options {
	return Options{
		RequiredItem:        185836,
		WeaponSlot:          15,
		WeaponConstant:      StubWeaponConstant(99.3),
		WeaponNormalization: 6,
		RepeatStack:         buff.LeadByExample,
	}
}

// State is the modeled attack power of one player during a replay.
//
// Attack power = ledger.Mixin(baseline) + weaponConstant × normalization.
type State struct {
	baseline       float64
	ledger         *buff.Ledger
	weaponConstant float64
	weaponNorm     float64
}

// NewState builds a State from already derived parts.
func NewState(baseline float64, ledger *buff.Ledger, weaponConstant, weaponNorm float64) *State {
	return &State{
		baseline:       baseline,
		ledger:         ledger,
		weaponConstant: weaponConstant,
		weaponNorm:     weaponNorm,
	}
}

// New derives the initial State from a CombatantInfo snapshot.
//
// Snapshot auras absent from the catalog are skipped. The baseline is the
// snapshot strength with every tracked aura stripped.
func New(snap *combatlog.Snapshot, catalog *buff.Catalog, opts Options) (*State, error) {
	if _, ok := snap.FindGear(opts.RequiredItem); !ok {
		return nil, fmt.Errorf("player %d, item %d: %w", snap.PlayerID, opts.RequiredItem, ErrMissingRequiredItem)
	}

	weapon, ok := snap.GearInSlot(opts.WeaponSlot)
	if !ok {
		return nil, fmt.Errorf("player %d, slot %d: %w", snap.PlayerID, opts.WeaponSlot, ErrMissingWeapon)
	}

	ledger := buff.NewLedger(opts.RepeatStack)
	for _, a := range snap.Auras {
		def, ok := catalog.Lookup(a.AbilityID)
		if !ok {
			slog.Debug("skipping untracked aura", "ability", a.AbilityID, "name", a.Name)
			continue
		}
		ledger.Put(def, a.StackCount())
	}

	weaponFn := opts.WeaponConstant
	if weaponFn == nil {
		weaponFn = DefaultOptions().WeaponConstant
	}

	s := NewState(ledger.Mixout(snap.Strength), ledger, weaponFn(weapon.ItemLevel), opts.WeaponNormalization)

	slog.Info("derived base strength",
		"player", snap.PlayerID,
		"strength", snap.Strength,
		"baseStrength", s.baseline,
		"auras", ledger.Len(),
		"weaponItemLevel", weapon.ItemLevel)

	return s, nil
}

// Baseline returns the unbuffed attribute value.
func (s *State) Baseline() float64 { return s.baseline }

// Ledger returns the player's active aura ledger.
func (s *State) Ledger() *buff.Ledger { return s.ledger }

// WeaponConstant returns the weapon-derived constant.
func (s *State) WeaponConstant() float64 { return s.weaponConstant }

// CurrentPower returns the modeled attack power.
func (s *State) CurrentPower() float64 {
	return s.ledger.Mixin(s.baseline) + s.weaponConstant*s.weaponNorm
}

// WithBonus evaluates fn with delta temporarily added to the baseline.
// The prior baseline is restored on every path, including panics.
func (s *State) WithBonus(delta float64, fn func() float64) float64 {
	prior := s.baseline
	s.baseline += delta
	defer func() { s.baseline = prior }()
	return fn()
}
