package attribution

import (
	"time"

	"github.com/codexvs/codexvs/internal/combatlog"
)

// Report is the outcome of one attribution.
type Report struct {
	TrackedDamage        int64
	AddedAttributeDamage int64
	EffectiveDamage      int64

	// EffectiveDPS is over the whole encounter.
	EffectiveDPS float64
	// EffectiveCombatDPS is over the active-combat segments only.
	EffectiveCombatDPS float64
	// AddedAttributeDPS is over the active-combat segments only.
	AddedAttributeDPS float64

	Duration       time.Duration
	CombatDuration time.Duration
}

// NewReport computes throughput figures for finalized accumulators.
func NewReport(acc Accumulators, fight *combatlog.Fight) Report {
	added := int64(acc.AddedAttributeDamage)
	effective := acc.TrackedDamage - added

	r := Report{
		TrackedDamage:        acc.TrackedDamage,
		AddedAttributeDamage: added,
		EffectiveDamage:      effective,
		Duration:             time.Duration(fight.Duration()) * time.Millisecond,
		CombatDuration:       time.Duration(fight.CombatDuration()) * time.Millisecond,
	}
	r.EffectiveDPS = perSecond(effective, fight.Duration())
	r.EffectiveCombatDPS = perSecond(effective, fight.CombatDuration())
	r.AddedAttributeDPS = perSecond(added, fight.CombatDuration())
	return r
}

func perSecond(amount, ms int64) float64 {
	if ms <= 0 {
		return 0
	}
	return float64(amount) / float64(ms) * 1000
}

// DefaultScalingAbilities lists the Blood Death Knight abilities whose damage
// scales with attack power.
func DefaultScalingAbilities() []combatlog.AbilityID {
	return []combatlog.AbilityID{
		206930, // Heart Strike
		49998,  // Death Strike
		327574, // Sacrificial Pact
		50842,  // Blood Boil
		194182, // Marrowrend
		195212, // Death's Caress
		323798, // Abomination Limb
		311648, // Swarming Mist
		324128, // Death's Due
		312202, // Shackle the Unworthy
		47541,  // Death Coil
		352095, // Pustule Eruption
		1,      // Melee
		228645, // Heart Strike (Dancing Rune Weapon)
		91776,  // Claw (ghoul)
		91800,  // Gnaw (ghoul)
		320660, // Niya's Tools: Poison
		320659, // Niya's Tools: Burrs
	}
}

// DefaultConfig returns the configuration for the Codex of the First Technique.
func DefaultConfig() Config {
	return Config{
		TrackedAbility:   351450,
		ScalingAbilities: DefaultScalingAbilities(),
		FlatBonus:        125,
	}
}
