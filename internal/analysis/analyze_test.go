package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexvs/codexvs/internal/combatlog"
	"github.com/codexvs/codexvs/internal/player"
	"github.com/codexvs/codexvs/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI()
	testutil.SeedCodexReport(api)

	settings := DefaultSettings()
	settings.Player.WeaponConstant = player.StubWeaponConstant(testutil.WeaponConstant)
	return NewService(api, settings), api
}

func TestAnalyze_ByNameAndServer(t *testing.T) {
	s, _ := newTestService(t)

	res, err := s.Analyze(testutil.Context(t), testutil.ReportCode, testutil.FightID, "Bonk-Kazzak")
	require.NoError(t, err)

	assert.Equal(t, testutil.CodexTank, res.Player.ID)
	r := res.Report
	assert.Equal(t, int64(4000), r.TrackedDamage)
	assert.Equal(t, int64(125), r.AddedAttributeDamage)
	assert.Equal(t, int64(3875), r.EffectiveDamage)
	assert.InDelta(t, 38.75, r.EffectiveDPS, 1e-9)
	assert.InDelta(t, 48.4375, r.EffectiveCombatDPS, 1e-9)
	assert.InDelta(t, 1.5625, r.AddedAttributeDPS, 1e-9)
	assert.Equal(t, 100*time.Second, r.Duration)
	assert.Equal(t, 80*time.Second, r.CombatDuration)
}

func TestAnalyze_ByID(t *testing.T) {
	s, _ := newTestService(t)

	res, err := s.Analyze(testutil.Context(t), testutil.ReportCode, testutil.FightID, "7")
	require.NoError(t, err)
	assert.Equal(t, "Bonk", res.Player.Name)
	assert.Equal(t, int64(3875), res.Report.EffectiveDamage)
}

func TestAnalyze_DuplicateNameKeepsLast(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Analyze(testutil.Context(t), testutil.ReportCode, testutil.FightID, "Bonk")
	require.ErrorIs(t, err, player.ErrMissingRequiredItem, "Bonk-Draenor is listed last and has no Codex")
}

func TestAnalyze_FightNotFound(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Analyze(testutil.Context(t), testutil.ReportCode, 42, "7")
	require.ErrorIs(t, err, ErrFightNotFound)
}

func TestResolvePlayer(t *testing.T) {
	s, _ := newTestService(t)
	ctx := testutil.Context(t)
	_, f, err := s.Fight(ctx, testutil.ReportCode, testutil.FightID)
	require.NoError(t, err)

	tests := []struct {
		arg  string
		want combatlog.ActorID
	}{
		{"Mend", testutil.Healer},
		{"Mend-Kazzak", testutil.Healer},
		{"Bonk-Draenor", testutil.NamesakeTank},
		{"8", testutil.Healer},
		{"55", 55},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			p, err := s.ResolvePlayer(ctx, testutil.ReportCode, f, tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.ID)
		})
	}

	_, err = s.ResolvePlayer(ctx, testutil.ReportCode, f, "Mend-Draenor")
	require.ErrorIs(t, err, ErrPlayerNotFound)
	_, err = s.ResolvePlayer(ctx, testutil.ReportCode, f, "Nobody")
	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestEvents_MergedInTimestampOrder(t *testing.T) {
	s, _ := newTestService(t)
	ctx := testutil.Context(t)
	_, f, err := s.Fight(ctx, testutil.ReportCode, testutil.FightID)
	require.NoError(t, err)

	events, err := s.Events(ctx, testutil.ReportCode, f, testutil.CodexTank)
	require.NoError(t, err)

	var got []combatlog.Kind
	var last int64
	for _, e := range events {
		assert.GreaterOrEqual(t, e.Timestamp, last)
		last = e.Timestamp
		got = append(got, e.Kind)
	}
	assert.Equal(t, []combatlog.Kind{
		combatlog.KindDamage,
		combatlog.KindCast,
		combatlog.KindDamage,
		combatlog.KindApplyBuff,
		combatlog.KindRemoveBuff,
	}, got)
}

func TestEvents_FetchFailure(t *testing.T) {
	s, api := newTestService(t)
	api.FailFor(testutil.CodexTank, testutil.ErrSimulated)
	ctx := testutil.Context(t)
	_, f, err := s.Fight(ctx, testutil.ReportCode, testutil.FightID)
	require.NoError(t, err)

	_, err = s.Events(ctx, testutil.ReportCode, f, testutil.CodexTank)
	require.ErrorIs(t, err, testutil.ErrSimulated)
}

func TestAnalyzeAll(t *testing.T) {
	s, _ := newTestService(t)

	outcomes, err := s.AnalyzeAll(testutil.Context(t), testutil.ReportCode, testutil.FightID)
	require.NoError(t, err)

	require.Len(t, outcomes, 2, "the healer is not a Blood Death Knight")

	assert.Equal(t, testutil.CodexTank, outcomes[0].Player.ID)
	require.NotNil(t, outcomes[0].Result)
	assert.Equal(t, int64(3875), outcomes[0].Result.Report.EffectiveDamage)
	assert.NoError(t, outcomes[0].Err)

	assert.Equal(t, testutil.NamesakeTank, outcomes[1].Player.ID)
	assert.Nil(t, outcomes[1].Result)
	assert.NotEmpty(t, outcomes[1].Skipped)
}

func TestAnalyzeAll_FailureIsolated(t *testing.T) {
	s, api := newTestService(t)
	api.FailFor(testutil.CodexTank, testutil.ErrSimulated)

	outcomes, err := s.AnalyzeAll(testutil.Context(t), testutil.ReportCode, testutil.FightID)
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.ErrorIs(t, outcomes[0].Err, testutil.ErrSimulated)
	assert.NotEmpty(t, outcomes[1].Skipped)
}

func TestAnalyzeAll_AnyClass(t *testing.T) {
	api := testutil.NewFakeAPI()
	testutil.SeedCodexReport(api)
	settings := DefaultSettings()
	settings.RequiredClass, settings.RequiredSpec = "", ""
	settings.Workers = 1
	s := NewService(api, settings)

	outcomes, err := s.AnalyzeAll(testutil.Context(t), testutil.ReportCode, testutil.FightID)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Error(t, outcomes[1].Err, "the healer has no combatant info")
}

func TestAnalyzeAll_Canceled(t *testing.T) {
	s, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AnalyzeAll(ctx, testutil.ReportCode, testutil.FightID)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCodexWearers(t *testing.T) {
	s, api := newTestService(t)
	ctx := testutil.Context(t)
	_, f, err := s.Fight(ctx, testutil.ReportCode, testutil.FightID)
	require.NoError(t, err)
	players, err := api.Players(ctx, testutil.ReportCode, f)
	require.NoError(t, err)

	wears, err := s.CodexWearers(ctx, testutil.ReportCode, f, players)
	require.NoError(t, err)
	assert.Equal(t, map[combatlog.ActorID]bool{testutil.CodexTank: true}, wears)
}
