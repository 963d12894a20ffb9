package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/codexvs/codexvs/internal/combatlog"
	"github.com/codexvs/codexvs/internal/wcl"
)

type eventKey struct {
	fight    int
	dataType wcl.DataType
	source   combatlog.ActorID
}

// FakeAPI: in-memory имплементация wcl.API для unit тестов.
// Не требует сети; хранит один отчёт на код.
type FakeAPI struct {
	mu       sync.RWMutex
	reports  map[string]*combatlog.Report
	players  map[int][]combatlog.Player
	events   map[eventKey][]json.RawMessage
	failures map[combatlog.ActorID]error

	Requests atomic.Int32
}

var _ wcl.API = (*FakeAPI)(nil)

// NewFakeAPI создаёт пустой FakeAPI.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		reports:  make(map[string]*combatlog.Report),
		players:  make(map[int][]combatlog.Player),
		events:   make(map[eventKey][]json.RawMessage),
		failures: make(map[combatlog.ActorID]error),
	}
}

// AddReport регистрирует отчёт по его Code.
func (f *FakeAPI) AddReport(r *combatlog.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[r.Code] = r
}

// SetPlayers задаёт состав боя.
func (f *FakeAPI) SetPlayers(fightID int, ps ...combatlog.Player) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players[fightID] = ps
}

// AddEvents добавляет события; каждое значение сериализуется в JSON.
func (f *FakeAPI) AddEvents(fightID int, dataType wcl.DataType, source combatlog.ActorID, events ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := eventKey{fightID, dataType, source}
	for _, e := range events {
		raw, err := json.Marshal(e)
		if err != nil {
			panic(fmt.Sprintf("marshal fake event: %v", err))
		}
		f.events[key] = append(f.events[key], raw)
	}
}

// FailFor заставляет все запросы по игроку возвращать err.
func (f *FakeAPI) FailFor(player combatlog.ActorID, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[player] = err
}

func (f *FakeAPI) Fights(_ context.Context, code string) (*combatlog.Report, error) {
	f.Requests.Add(1)
	f.mu.RLock()
	defer f.mu.RUnlock()

	r, ok := f.reports[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", wcl.ErrReportNotFound, code)
	}
	return r, nil
}

func (f *FakeAPI) Players(_ context.Context, _ string, fight *combatlog.Fight) ([]combatlog.Player, error) {
	f.Requests.Add(1)
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.players[fight.ID], nil
}

// Events возвращает события источника; при нулевом source возвращаются события всех источников.
func (f *FakeAPI) Events(ctx context.Context, _ string, fight *combatlog.Fight, dataType wcl.DataType, source combatlog.ActorID) ([]json.RawMessage, error) {
	f.Requests.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := f.failures[source]; err != nil {
		return nil, err
	}

	var out []json.RawMessage
	for k, evs := range f.events {
		if k.fight != fight.ID || k.dataType != dataType {
			continue
		}
		if source != 0 && k.source != source {
			continue
		}
		out = append(out, evs...)
	}
	return out, nil
}

func (f *FakeAPI) CombatantInfo(ctx context.Context, code string, fight *combatlog.Fight, player combatlog.ActorID) (*combatlog.Snapshot, error) {
	events, err := f.Events(ctx, code, fight, wcl.DataCombatantInfo, player)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w %d", wcl.ErrNoCombatantInfo, player)
	}
	return combatlog.DecodeSnapshot(events[0])
}
