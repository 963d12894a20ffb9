package display

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/codexvs/codexvs/internal/analysis"
	"github.com/codexvs/codexvs/internal/attribution"
	"github.com/codexvs/codexvs/internal/combatlog"
	"github.com/codexvs/codexvs/internal/testutil"
)

func newTestPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewPrinter(&buf, language.English, time.UTC), &buf
}

func TestFormatMillis(t *testing.T) {
	tests := map[int64]string{
		0:       "0:00.000",
		61234:   "1:01.234",
		1800000: "30:00.000",
		-1500:   "-0:01.500",
	}
	for ms, want := range tests {
		assert.Equal(t, want, FormatMillis(ms), ms)
	}
}

func TestPrinter_Fights(t *testing.T) {
	pr, buf := newTestPrinter()

	pr.Fights(testutil.CodexReport())

	assert.Equal(t,
		"1: +15 Plaguefall 1:40.000 (2021-09-30 11:06:40)\n"+
			"2: Sylvanas Windrunner 1:00.000 (2021-09-30 11:10:00)\n",
		buf.String())
}

func TestPrinter_Players(t *testing.T) {
	pr, buf := newTestPrinter()

	pr.Players([]combatlog.Player{
		{ID: 7, Name: "Bonk", Server: "Kazzak", Type: "DeathKnight", Role: "tank", Specs: []combatlog.Spec{{Spec: "Blood"}}},
		{ID: 8, Name: "Mend", Server: "Kazzak", Type: "Priest", Role: "healer"},
	}, map[combatlog.ActorID]bool{7: true})

	assert.Equal(t,
		"7: TANK: Bonk-Kazzak: DeathKnight (Blood) [codex]\n"+
			"8: HEALER: Mend-Kazzak: Priest\n",
		buf.String())
}

func TestPrinter_Result(t *testing.T) {
	pr, buf := newTestPrinter()

	pr.Result(&analysis.Result{Report: attribution.Report{
		TrackedDamage:        1234567,
		AddedAttributeDamage: 4321,
		EffectiveDamage:      1230246,
		EffectiveDPS:         1024.24,
		EffectiveCombatDPS:   1301.71,
		AddedAttributeDPS:    4.52,
	}})

	assert.Equal(t,
		"Codex damage: 1,234,567\n"+
			"Strength damage: 4,321\n"+
			"Effective codex damage: 1,230,246\n"+
			"Effective codex dps: 1,024.2\n"+
			"Effective codex dps (combat): 1,301.7\n"+
			"Strength dps (combat): 4.5\n",
		buf.String())
}

func TestPrinter_Outcomes(t *testing.T) {
	pr, buf := newTestPrinter()

	pr.Outcomes([]analysis.Outcome{
		{Player: combatlog.Player{ID: 7, Name: "Bonk", Server: "Kazzak"}, Result: &analysis.Result{
			Report: attribution.Report{TrackedDamage: 400, AddedAttributeDamage: 10, EffectiveDamage: 390, EffectiveDPS: 3.92, EffectiveCombatDPS: 4.88},
		}},
		{Player: combatlog.Player{ID: 9, Name: "Bonk", Server: "Draenor"}, Skipped: "required item not equipped"},
		{Player: combatlog.Player{ID: 10, Name: "Oops", Server: "Kazzak"}, Err: errors.New("boom")},
	})

	assert.Equal(t,
		"7: Bonk-Kazzak: codex 400, strength 10, effective 390 (3.9 dps, 4.9 combat dps)\n"+
			"9: Bonk-Draenor: skipped: required item not equipped\n"+
			"10: Oops-Kazzak: error: boom\n",
		buf.String())
}

func TestPrinter_EventCount(t *testing.T) {
	pr, buf := newTestPrinter()
	pr.EventCount(12345)
	assert.Equal(t, "Read 12,345 events\n", buf.String())
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, language.English, ParseLanguage(""))
	assert.Equal(t, language.English, ParseLanguage("not a tag!"))
	assert.Equal(t, "de", ParseLanguage("de").String())
}
