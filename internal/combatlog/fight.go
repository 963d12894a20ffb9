package combatlog

import (
	"strconv"
	"time"
)

// Interval is a [StartTime, EndTime) span in report-relative milliseconds.
type Interval struct {
	StartTime int64 `json:"startTime"`
	EndTime   int64 `json:"endTime"`
}

// Duration returns the span length in milliseconds.
func (i Interval) Duration() int64 {
	return i.EndTime - i.StartTime
}

// Fight is one encounter inside a report.
type Fight struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	StartTime     int64      `json:"startTime"`
	EndTime       int64      `json:"endTime"`
	KeystoneLevel int        `json:"keystoneLevel,omitempty"`
	DungeonPulls  []Interval `json:"dungeonPulls,omitempty"`
}

// Duration returns the total encounter duration in milliseconds.
func (f *Fight) Duration() int64 {
	return f.EndTime - f.StartTime
}

// CombatDuration returns the summed duration of the active-combat segments.
// Fights without segments (raid encounters) count their whole duration.
func (f *Fight) CombatDuration() int64 {
	if len(f.DungeonPulls) == 0 {
		return f.Duration()
	}
	var total int64
	for _, p := range f.DungeonPulls {
		total += p.Duration()
	}
	return total
}

// DisplayName prefixes the keystone level for Mythic+ runs.
func (f *Fight) DisplayName() string {
	if f.KeystoneLevel > 0 {
		return "+" + strconv.Itoa(f.KeystoneLevel) + " " + f.Name
	}
	return f.Name
}

// Report is the fight listing of one uploaded log.
type Report struct {
	Code      string  `json:"code,omitempty"`
	StartTime int64   `json:"startTime"`
	Fights    []Fight `json:"fights"`
}

// FindFight returns the fight with the given id.
func (r *Report) FindFight(id int) (*Fight, bool) {
	for i := range r.Fights {
		if r.Fights[i].ID == id {
			return &r.Fights[i], true
		}
	}
	return nil, false
}

// FightStart returns the wall-clock start of a fight.
func (r *Report) FightStart(f *Fight) time.Time {
	return time.UnixMilli(r.StartTime + f.StartTime)
}

// Player is one participant of a fight.
type Player struct {
	ID     ActorID `json:"id"`
	Name   string  `json:"name"`
	Server string  `json:"server"`
	Type   string  `json:"type"`
	Role   string  `json:"role"`
	Specs  []Spec  `json:"specs,omitempty"`
}

// Spec is a specialization observed for a player during the fight.
type Spec struct {
	Spec  string `json:"spec"`
	Count int    `json:"count"`
}

// MainSpec returns the first recorded spec, or "" when none is known.
func (p *Player) MainSpec() string {
	if len(p.Specs) == 0 {
		return ""
	}
	return p.Specs[0].Spec
}
