package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codexvs/codexvs/internal/combatlog"
)

func TestNewReport(t *testing.T) {
	fight := &combatlog.Fight{
		StartTime: 1000,
		EndTime:   101000, // 100s
		DungeonPulls: []combatlog.Interval{
			{StartTime: 1000, EndTime: 41000},   // 40s
			{StartTime: 61000, EndTime: 101000}, // 40s
		},
	}

	r := NewReport(Accumulators{TrackedDamage: 100000, AddedAttributeDamage: 20000}, fight)

	assert.Equal(t, int64(100000), r.TrackedDamage)
	assert.Equal(t, int64(20000), r.AddedAttributeDamage)
	assert.Equal(t, int64(80000), r.EffectiveDamage)
	assert.InDelta(t, 800.0, r.EffectiveDPS, 1e-9)
	assert.InDelta(t, 1000.0, r.EffectiveCombatDPS, 1e-9)
	assert.InDelta(t, 250.0, r.AddedAttributeDPS, 1e-9)
	assert.Equal(t, 100*time.Second, r.Duration)
	assert.Equal(t, 80*time.Second, r.CombatDuration)
}

func TestNewReport_NoPullsUsesWholeFight(t *testing.T) {
	fight := &combatlog.Fight{StartTime: 0, EndTime: 50000}

	r := NewReport(Accumulators{TrackedDamage: 5000}, fight)

	assert.InDelta(t, 100.0, r.EffectiveDPS, 1e-9)
	assert.InDelta(t, r.EffectiveDPS, r.EffectiveCombatDPS, 1e-9)
}

func TestNewReport_ZeroDuration(t *testing.T) {
	r := NewReport(Accumulators{TrackedDamage: 5000}, &combatlog.Fight{})

	assert.Zero(t, r.EffectiveDPS)
	assert.Zero(t, r.EffectiveCombatDPS)
}
