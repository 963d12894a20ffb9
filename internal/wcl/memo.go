package wcl

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/codexvs/codexvs/internal/combatlog"
)

// API is the subset of the Warcraft Logs API the analysis needs.
type API interface {
	Fights(ctx context.Context, code string) (*combatlog.Report, error)
	Players(ctx context.Context, code string, f *combatlog.Fight) ([]combatlog.Player, error)
	Events(ctx context.Context, code string, f *combatlog.Fight, dataType DataType, source combatlog.ActorID) ([]json.RawMessage, error)
	CombatantInfo(ctx context.Context, code string, f *combatlog.Fight, player combatlog.ActorID) (*combatlog.Snapshot, error)
}

var _ API = (*Client)(nil)
var _ API = (*Memo)(nil)

// Memo caches fight and player listings for its lifetime and collapses
// concurrent identical lookups into one request. Event queries pass through.
type Memo struct {
	api   API
	group singleflight.Group

	mu      sync.RWMutex
	reports map[string]*combatlog.Report
	players map[string][]combatlog.Player
}

// NewMemo wraps api with a read-through cache.
func NewMemo(api API) *Memo {
	return &Memo{
		api:     api,
		reports: make(map[string]*combatlog.Report),
		players: make(map[string][]combatlog.Player),
	}
}

// Fights returns the cached listing or fetches it once.
func (m *Memo) Fights(ctx context.Context, code string) (*combatlog.Report, error) {
	m.mu.RLock()
	r, ok := m.reports[code]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}

	v, err, _ := m.group.Do("fights/"+code, func() (any, error) {
		m.mu.RLock()
		r, ok := m.reports[code]
		m.mu.RUnlock()
		if ok {
			return r, nil
		}

		r, err := m.api.Fights(ctx, code)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.reports[code] = r
		m.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*combatlog.Report), nil
}

// Players returns the cached roster of a fight or fetches it once.
// Callers must not modify the returned slice.
func (m *Memo) Players(ctx context.Context, code string, f *combatlog.Fight) ([]combatlog.Player, error) {
	key := "players/" + code + "/" + strconv.Itoa(f.ID)

	m.mu.RLock()
	ps, ok := m.players[key]
	m.mu.RUnlock()
	if ok {
		return ps, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		ps, ok := m.players[key]
		m.mu.RUnlock()
		if ok {
			return ps, nil
		}

		ps, err := m.api.Players(ctx, code, f)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.players[key] = ps
		m.mu.Unlock()
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]combatlog.Player), nil
}

func (m *Memo) Events(ctx context.Context, code string, f *combatlog.Fight, dataType DataType, source combatlog.ActorID) ([]json.RawMessage, error) {
	return m.api.Events(ctx, code, f, dataType, source)
}

func (m *Memo) CombatantInfo(ctx context.Context, code string, f *combatlog.Fight, player combatlog.ActorID) (*combatlog.Snapshot, error) {
	return m.api.CombatantInfo(ctx, code, f, player)
}
