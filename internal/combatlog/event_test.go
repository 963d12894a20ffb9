package combatlog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_UnmarshalJSON_Defaults(t *testing.T) {
	var e Event
	err := json.Unmarshal([]byte(`{"timestamp":1200,"type":"applybuff","sourceID":3,"targetID":7,"abilityGameID":53365,"fight":4}`), &e)
	require.NoError(t, err)

	assert.Equal(t, KindApplyBuff, e.Kind)
	assert.Equal(t, AbilityID(53365), e.AbilityID)
	assert.Equal(t, ActorID(7), e.TargetID)
	assert.Equal(t, 1, e.Stacks, "stacks default to 1")
	assert.Zero(t, e.Absorbed)
	assert.Zero(t, e.AttackPower)
}

func TestEvent_UnmarshalJSON_Damage(t *testing.T) {
	var e Event
	err := json.Unmarshal([]byte(`{"timestamp":5,"type":"damage","abilityGameID":206930,"amount":1500,"absorbed":250,"hitType":2}`), &e)
	require.NoError(t, err)

	assert.Equal(t, KindDamage, e.Kind)
	assert.Equal(t, int64(1750), e.Dealt())
}

func TestEvent_UnmarshalJSON_CastPower(t *testing.T) {
	var e Event
	err := json.Unmarshal([]byte(`{"timestamp":5,"type":"cast","abilityGameID":206930,"attackPower":2431}`), &e)
	require.NoError(t, err)

	assert.Equal(t, KindCast, e.Kind)
	assert.Equal(t, int64(2431), e.AttackPower)
}

func TestEvent_UnmarshalJSON_StackEvent(t *testing.T) {
	var e Event
	err := json.Unmarshal([]byte(`{"timestamp":5,"type":"applybuffstack","abilityGameID":324165,"stacks":4}`), &e)
	require.NoError(t, err)

	assert.Equal(t, KindApplyBuffStack, e.Kind)
	assert.Equal(t, 4, e.Stacks)
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"applybuff":      KindApplyBuff,
		"applybuffstack": KindApplyBuffStack,
		"removebuff":     KindRemoveBuff,
		"damage":         KindDamage,
		"cast":           KindCast,
		"begincast":      KindOther,
		"":               KindOther,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseKind(raw), raw)
	}
}

func TestDecodeEvents_ReportsIndex(t *testing.T) {
	_, err := DecodeEvents([]json.RawMessage{
		json.RawMessage(`{"timestamp":1,"type":"cast"}`),
		json.RawMessage(`{"timestamp":"bad"}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 1")
}

func TestSortByTimestamp_Stable(t *testing.T) {
	events := []Event{
		{Timestamp: 20, AbilityID: 1},
		{Timestamp: 10, AbilityID: 2},
		{Timestamp: 20, AbilityID: 3},
		{Timestamp: 10, AbilityID: 4},
	}

	SortByTimestamp(events)

	ids := make([]AbilityID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.AbilityID)
	}
	assert.Equal(t, []AbilityID{2, 4, 1, 3}, ids)
}

func TestSnapshot_Decode(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "combatantinfo",
		"sourceID": 7,
		"strength": 1432,
		"auras": [{"source": 7, "ability": 307185, "stacks": 1, "name": "Spectral Strength"}],
		"gear": [{"id": 1, "itemLevel": 252}, {"id": 185836, "itemLevel": 252}]
	}`)

	s, err := DecodeSnapshot(raw)
	require.NoError(t, err)

	assert.Equal(t, ActorID(7), s.PlayerID)
	assert.Equal(t, 1432.0, s.Strength)
	require.Len(t, s.Auras, 1)
	assert.Equal(t, AbilityID(307185), s.Auras[0].AbilityID)

	g, ok := s.FindGear(185836)
	require.True(t, ok)
	assert.Equal(t, 252, g.ItemLevel)

	_, ok = s.FindGear(42)
	assert.False(t, ok)
	assert.True(t, s.HasItem(185836))

	_, ok = s.GearInSlot(15)
	assert.False(t, ok)
}

func TestAuraEntry_StackCount(t *testing.T) {
	assert.Equal(t, 1, AuraEntry{}.StackCount())
	assert.Equal(t, 3, AuraEntry{Stacks: 3}.StackCount())
}

func TestFight_Durations(t *testing.T) {
	f := Fight{
		ID: 3, Name: "De Other Side", KeystoneLevel: 15,
		StartTime: 0, EndTime: 1800000,
		DungeonPulls: []Interval{{StartTime: 10000, EndTime: 70000}, {StartTime: 100000, EndTime: 160000}},
	}

	assert.Equal(t, int64(1800000), f.Duration())
	assert.Equal(t, int64(120000), f.CombatDuration())
	assert.Equal(t, "+15 De Other Side", f.DisplayName())

	raid := Fight{Name: "Sylvanas Windrunner", StartTime: 100, EndTime: 600}
	assert.Equal(t, int64(500), raid.CombatDuration())
	assert.Equal(t, "Sylvanas Windrunner", raid.DisplayName())
}

func TestReport_FindFight(t *testing.T) {
	r := Report{StartTime: 1633000000000, Fights: []Fight{{ID: 1, StartTime: 5000}, {ID: 2}}}

	f, ok := r.FindFight(1)
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1633000005000), r.FightStart(f))

	_, ok = r.FindFight(9)
	assert.False(t, ok)
}
