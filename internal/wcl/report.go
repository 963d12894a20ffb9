package wcl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/codexvs/codexvs/internal/combatlog"
)

// DataType selects the event stream of the events query.
type DataType string

const (
	DataDamageDone    DataType = "DamageDone"
	DataBuffs         DataType = "Buffs"
	DataCasts         DataType = "Casts"
	DataCombatantInfo DataType = "CombatantInfo"
)

var (
	ErrReportNotFound   = errors.New("report not found")
	ErrNoCombatantInfo  = errors.New("no combatant info for player")
	ErrPaginationStuck  = errors.New("next page timestamp did not advance")
	errUnexpectedFormat = errors.New("unexpected response format")
)

const fightsQuery = `query getFights($report_code: String!) {
  reportData {
    report(code: $report_code) {
      startTime
      fights {
        id
        name
        startTime
        endTime
        keystoneLevel
        dungeonPulls { startTime endTime }
      }
    }
  }
}`

const playersQuery = `query getPlayers($report_code: String!, $start_time: Float!, $end_time: Float!) {
  reportData {
    report(code: $report_code) {
      playerDetails(startTime: $start_time, endTime: $end_time)
    }
  }
}`

const eventsQuery = `query getEvents(
  $report_code: String!,
  $fight_id: Int!,
  $start_time: Float!,
  $end_time: Float!,
  $limit: Int!,
  $event_type: EventDataType,
  $player_id: Int
) {
  reportData {
    report(code: $report_code) {
      events(
        fightIDs: [$fight_id],
        startTime: $start_time,
        endTime: $end_time,
        limit: $limit,
        translate: false,
        dataType: $event_type,
        sourceID: $player_id,
        includeResources: true
      ) { data nextPageTimestamp }
    }
  }
}`

// roles lists playerDetails groups in output order.
var roles = [...]struct{ key, role string }{
	{"tanks", "tank"},
	{"healers", "healer"},
	{"dps", "dps"},
}

// Fights lists the fights of a report.
func (c *Client) Fights(ctx context.Context, code string) (*combatlog.Report, error) {
	data, err := c.query(ctx, fightsQuery, map[string]any{"report_code": code})
	if err != nil {
		return nil, fmt.Errorf("listing fights of %s: %w", code, err)
	}

	raw := data.Get("reportData.report")
	if !raw.Exists() || raw.Type == gjson.Null {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, code)
	}

	var r combatlog.Report
	if err := json.Unmarshal([]byte(raw.Raw), &r); err != nil {
		return nil, fmt.Errorf("decoding fights of %s: %w", code, err)
	}
	r.Code = code
	return &r, nil
}

// Players lists the participants of a fight, tanks first, then healers, then dps.
func (c *Client) Players(ctx context.Context, code string, f *combatlog.Fight) ([]combatlog.Player, error) {
	data, err := c.query(ctx, playersQuery, map[string]any{
		"report_code": code,
		"start_time":  f.StartTime,
		"end_time":    f.EndTime,
	})
	if err != nil {
		return nil, fmt.Errorf("listing players of fight %d: %w", f.ID, err)
	}

	details := data.Get("reportData.report.playerDetails.data.playerDetails")
	if !details.IsObject() {
		return nil, fmt.Errorf("listing players of fight %d: %w", f.ID, errUnexpectedFormat)
	}

	var players []combatlog.Player
	for _, r := range roles {
		group := details.Get(r.key)
		if !group.Exists() {
			continue
		}
		var ps []combatlog.Player
		if err := json.Unmarshal([]byte(group.Raw), &ps); err != nil {
			return nil, fmt.Errorf("decoding %s of fight %d: %w", r.key, f.ID, err)
		}
		for i := range ps {
			ps[i].Role = r.role
		}
		players = append(players, ps...)
	}
	return players, nil
}

// Events fetches every event of one data type inside a fight, following
// nextPageTimestamp until the stream is exhausted. A zero source fetches
// events for all actors.
func (c *Client) Events(ctx context.Context, code string, f *combatlog.Fight, dataType DataType, source combatlog.ActorID) ([]json.RawMessage, error) {
	vars := map[string]any{
		"report_code": code,
		"fight_id":    f.ID,
		"end_time":    f.EndTime,
		"limit":       c.pageLimit,
		"event_type":  string(dataType),
	}
	if source != 0 {
		vars["player_id"] = source
	}

	var events []json.RawMessage
	start := f.StartTime
	for page := 1; ; page++ {
		vars["start_time"] = start
		data, err := c.query(ctx, eventsQuery, vars)
		if err != nil {
			return nil, fmt.Errorf("fetching %s events page %d: %w", dataType, page, err)
		}

		res := data.Get("reportData.report.events")
		items := res.Get("data")
		if !items.IsArray() {
			return nil, fmt.Errorf("fetching %s events page %d: %w", dataType, page, errUnexpectedFormat)
		}
		for _, item := range items.Array() {
			events = append(events, json.RawMessage(item.Raw))
		}

		next := res.Get("nextPageTimestamp")
		slog.Debug("fetched events page",
			"type", dataType,
			"page", page,
			"count", len(items.Array()),
			"next", next.Raw)

		if !next.Exists() || next.Type == gjson.Null {
			break
		}
		if next.Int() <= start {
			return nil, fmt.Errorf("%w: %d", ErrPaginationStuck, next.Int())
		}
		start = next.Int()
	}

	slog.Info("fetched events", "type", dataType, "fight", f.ID, "count", len(events))
	return events, nil
}

// CombatantInfo returns the fight-start snapshot of a player.
// Only the first snapshot is used when several are reported.
func (c *Client) CombatantInfo(ctx context.Context, code string, f *combatlog.Fight, player combatlog.ActorID) (*combatlog.Snapshot, error) {
	events, err := c.Events(ctx, code, f, DataCombatantInfo, player)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w %d", ErrNoCombatantInfo, player)
	}
	if len(events) > 1 {
		slog.Warn("multiple combatant info events, using the first",
			"player", player,
			"count", len(events))
	}
	return combatlog.DecodeSnapshot(events[0])
}
