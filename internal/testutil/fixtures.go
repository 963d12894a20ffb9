package testutil

import (
	"github.com/codexvs/codexvs/internal/combatlog"
	"github.com/codexvs/codexvs/internal/wcl"
)

// Идентификаторы тестового отчёта.
const (
	ReportCode = "abc123"
	FightID    = 1

	// Blood DK с Codex; ожидаемые значения см. SeedCodexReport.
	CodexTank combatlog.ActorID = 7
	Healer    combatlog.ActorID = 8
	// Тёзка CodexTank с другого сервера, без Codex.
	NamesakeTank combatlog.ActorID = 9
)

// Fixture values shared by the analysis and CLI tests.
const (
	CodexItem      int64               = 185836
	CodexAttack    combatlog.AbilityID = 351450
	HeartStrike    combatlog.AbilityID = 206930
	UnholyStrength combatlog.AbilityID = 53365

	BaseStrength   = 400.0
	WeaponConstant = 100.0 // 100 * 6 = 600 attack power
)

// CodexReport возвращает свежую копию тестового отчёта:
// бой 100 секунд, из них 80 секунд в пулах.
func CodexReport() *combatlog.Report {
	return &combatlog.Report{
		Code:      ReportCode,
		StartTime: 1633000000000,
		Fights: []combatlog.Fight{
			{
				ID: FightID, Name: "Plaguefall", KeystoneLevel: 15,
				StartTime: 0, EndTime: 100000,
				DungeonPulls: []combatlog.Interval{
					{StartTime: 0, EndTime: 40000},
					{StartTime: 60000, EndTime: 100000},
				},
			},
			{ID: 2, Name: "Sylvanas Windrunner", StartTime: 200000, EndTime: 260000},
		},
	}
}

// Gear строит список из 17 предметов: оружие в слоте 15, extra в слоте 13.
func Gear(extra int64) []combatlog.GearItem {
	gear := make([]combatlog.GearItem, 17)
	for i := range gear {
		gear[i] = combatlog.GearItem{ID: int64(1000 + i), ItemLevel: 252}
	}
	if extra != 0 {
		gear[13].ID = extra
	}
	return gear
}

// SeedCodexReport наполняет api тестовым отчётом.
//
// CodexTank: сила 400 без баффов, оружие 600, итого мощь 1000.
// Heart Strike на 1000 даёт +125 урона от +125 силы; Codex наносит 4000.
// Ожидаемо: 4000 урона Codex, 125 добавленного, 3875 эффективного.
func SeedCodexReport(api *FakeAPI) {
	api.AddReport(CodexReport())
	api.SetPlayers(FightID,
		combatlog.Player{ID: CodexTank, Name: "Bonk", Server: "Kazzak", Type: "DeathKnight", Role: "tank",
			Specs: []combatlog.Spec{{Spec: "Blood", Count: 1}}},
		combatlog.Player{ID: Healer, Name: "Mend", Server: "Kazzak", Type: "Priest", Role: "healer",
			Specs: []combatlog.Spec{{Spec: "Holy", Count: 1}}},
		combatlog.Player{ID: NamesakeTank, Name: "Bonk", Server: "Draenor", Type: "DeathKnight", Role: "tank",
			Specs: []combatlog.Spec{{Spec: "Blood", Count: 1}}},
	)

	api.AddEvents(FightID, wcl.DataCombatantInfo, CodexTank, combatlog.Snapshot{
		PlayerID: CodexTank,
		Strength: BaseStrength,
		Gear:     Gear(CodexItem),
	})
	api.AddEvents(FightID, wcl.DataCombatantInfo, NamesakeTank, combatlog.Snapshot{
		PlayerID: NamesakeTank,
		Strength: BaseStrength,
		Gear:     Gear(0),
	})

	api.AddEvents(FightID, wcl.DataDamageDone, CodexTank,
		map[string]any{"timestamp": 1000, "type": "damage", "sourceID": CodexTank, "targetID": 100,
			"abilityGameID": CodexAttack, "amount": 3500, "absorbed": 500},
		map[string]any{"timestamp": 3000, "type": "damage", "sourceID": CodexTank, "targetID": 100,
			"abilityGameID": HeartStrike, "amount": 1000},
	)
	api.AddEvents(FightID, wcl.DataCasts, CodexTank,
		map[string]any{"timestamp": 2000, "type": "cast", "sourceID": CodexTank, "targetID": 100,
			"abilityGameID": HeartStrike, "attackPower": 5000},
	)
	api.AddEvents(FightID, wcl.DataBuffs, CodexTank,
		map[string]any{"timestamp": 4000, "type": "applybuff", "sourceID": CodexTank, "targetID": CodexTank,
			"abilityGameID": UnholyStrength},
		map[string]any{"timestamp": 5000, "type": "removebuff", "sourceID": CodexTank, "targetID": CodexTank,
			"abilityGameID": UnholyStrength},
	)
}
