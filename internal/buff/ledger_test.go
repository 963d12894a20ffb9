package buff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/codexvs/codexvs/internal/combatlog"
)

var (
	testFeast  = &Definition{Name: "Feast", AbilityID: 1, Kind: KindAdditive, Base: 20}
	testUnholy = &Definition{Name: "Unholy", AbilityID: 2, Kind: KindMultiplicative, Base: 0.15}
	testLead   = &Definition{Name: "Lead", AbilityID: 3, Kind: KindMultiplicative, Base: 0.05, PerStack: 0.02}
	testWaltz  = &Definition{Name: "Waltz", AbilityID: 4, Kind: KindMultiplicative, PerStack: 0.01}
)

func TestLedger_MixoutMixin_Concrete(t *testing.T) {
	l := NewLedger(testLead.AbilityID)
	l.Put(testFeast, 1)
	l.Put(testUnholy, 1)

	base := l.Mixout(1000)
	assert.InDelta(t, 1000/1.15-20, base, 1e-9)
	assert.InDelta(t, 849.565217, base, 1e-6)

	assert.InDelta(t, 1000.0, l.Mixin(base), 1e-9)
}

func TestLedger_Mixin_AdditiveBeforeMultiplicative(t *testing.T) {
	l := NewLedger(0)
	l.Put(testFeast, 1)
	l.Put(testUnholy, 1)

	// (100 + 20) × 1.15, not 100 × 1.15 + 20
	assert.InDelta(t, 138.0, l.Mixin(100), 1e-9)
}

func TestLedger_Upsert_ReplacesOnApply(t *testing.T) {
	l := NewLedger(testLead.AbilityID)

	require.True(t, l.Upsert(testWaltz, 3, true))
	require.True(t, l.Upsert(testWaltz, 7, true))

	a, err := l.Get(testWaltz)
	require.NoError(t, err)
	assert.Equal(t, 7, a.Stacks)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_Upsert_IgnoresOtherTargets(t *testing.T) {
	l := NewLedger(testLead.AbilityID)

	assert.False(t, l.Upsert(testWaltz, 3, false))
	assert.False(t, l.Contains(testWaltz))
}

func TestLedger_Upsert_RepeatStackIncrementsAnyTarget(t *testing.T) {
	l := NewLedger(testLead.AbilityID)
	require.True(t, l.Upsert(testLead, 1, true))

	l.Upsert(testLead, 1, true)
	l.Upsert(testLead, 1, false)
	l.Upsert(testLead, 1, false)

	a, err := l.Get(ID(testLead.AbilityID))
	require.NoError(t, err)
	assert.Equal(t, 4, a.Stacks)
}

func TestLedger_Upsert_RepeatStackNotResetOnPlayer(t *testing.T) {
	l := NewLedger(testLead.AbilityID)
	l.Upsert(testLead, 2, true)

	assert.True(t, l.Upsert(testLead, 5, true))

	a, err := l.Get(ID(testLead.AbilityID))
	require.NoError(t, err)
	assert.Equal(t, 3, a.Stacks, "existing instance gains one stack, reported count ignored")
}

func TestLedger_Upsert_RepeatStackNeedsExistingInstance(t *testing.T) {
	l := NewLedger(testLead.AbilityID)

	assert.False(t, l.Upsert(testLead, 1, false), "first apply on an ally must not create an instance")
	assert.False(t, l.Contains(testLead))
}

func TestLedger_Remove(t *testing.T) {
	l := NewLedger(0)
	l.Put(testFeast, 1)

	require.NoError(t, l.Remove(testFeast))
	assert.False(t, l.Contains(testFeast))

	err := l.Remove(testFeast)
	require.ErrorIs(t, err, ErrUnknownAuraRemoval)

	err = l.Remove(ID(999))
	require.ErrorIs(t, err, ErrUnknownAuraRemoval)
}

func TestLedger_Get_NotFound(t *testing.T) {
	l := NewLedger(0)

	_, err := l.Get(ID(42))
	require.ErrorIs(t, err, ErrAuraNotFound)
}

func TestKeyOf_AllShapesAgree(t *testing.T) {
	a := &Aura{Def: testUnholy, Stacks: 1}

	assert.Equal(t, combatlog.AbilityID(2), KeyOf(ID(2)))
	assert.Equal(t, KeyOf(ID(2)), KeyOf(testUnholy))
	assert.Equal(t, KeyOf(testUnholy), KeyOf(a))

	l := NewLedger(0)
	l.Put(testUnholy, 1)
	assert.True(t, l.Contains(a))
	assert.True(t, l.Contains(ID(2)))
}

func genAuras(t *rapid.T) []*Aura {
	defs := DefaultDefinitions()
	picked := rapid.SliceOfNDistinct(rapid.IntRange(0, len(defs)-1), 0, len(defs), rapid.ID[int]).Draw(t, "defs")
	auras := make([]*Aura, 0, len(picked))
	for _, i := range picked {
		d := defs[i]
		auras = append(auras, &Aura{Def: &d, Stacks: rapid.IntRange(1, 20).Draw(t, "stacks")})
	}
	return auras
}

func TestMixinMixout_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64Range(1, 100000).Draw(t, "value")
		auras := genAuras(t)

		got := Mixin(Mixout(v, auras), auras)
		assert.InEpsilon(t, v, got, 1e-9)
	})
}

func TestMixinMixout_OrderInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64Range(1, 100000).Draw(t, "value")
		auras := genAuras(t)
		shuffled := rapid.Permutation(auras).Draw(t, "order")

		assert.InEpsilon(t, Mixin(v, auras), Mixin(v, shuffled), 1e-12)
		assert.InDelta(t, Mixout(v, auras), Mixout(v, shuffled), 1e-6)
	})
}

func TestLedger_RoundTripThroughLedger(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64Range(1, 100000).Draw(t, "value")
		l := NewLedger(LeadByExample)
		for _, a := range genAuras(t) {
			l.Put(a.Def, a.Stacks)
		}

		assert.InEpsilon(t, v, l.Mixin(l.Mixout(v)), 1e-9)
	})
}
