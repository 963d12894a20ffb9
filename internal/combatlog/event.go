package combatlog

import (
	"encoding/json"
	"fmt"
	"slices"
)

// AbilityID identifies a spell or ability in the combat log (abilityGameID).
type AbilityID int64

// ActorID identifies a unit (player, pet, NPC) within one report.
type ActorID int64

// Kind discriminates the event variants the replay understands.
type Kind uint8

const (
	KindOther Kind = iota
	KindApplyBuff
	KindApplyBuffStack
	KindRemoveBuff
	KindDamage
	KindCast
)

var kindNames = map[string]Kind{
	"applybuff":      KindApplyBuff,
	"applybuffstack": KindApplyBuffStack,
	"removebuff":     KindRemoveBuff,
	"damage":         KindDamage,
	"cast":           KindCast,
}

// ParseKind maps a raw "type" discriminator to a Kind.
// Unknown discriminators map to KindOther.
func ParseKind(s string) Kind {
	if k, ok := kindNames[s]; ok {
		return k
	}
	return KindOther
}

func (k Kind) String() string {
	switch k {
	case KindApplyBuff:
		return "applybuff"
	case KindApplyBuffStack:
		return "applybuffstack"
	case KindRemoveBuff:
		return "removebuff"
	case KindDamage:
		return "damage"
	case KindCast:
		return "cast"
	default:
		return "other"
	}
}

// Event is one decoded combat log entry.
//
// Only the fields relevant to Kind are meaningful: Amount and Absorbed for
// damage, Stacks for buff application, AttackPower for casts.
type Event struct {
	Timestamp   int64
	Kind        Kind
	RawType     string
	AbilityID   AbilityID
	SourceID    ActorID
	TargetID    ActorID
	Amount      int64
	Absorbed    int64
	Stacks      int
	AttackPower int64
}

// Dealt returns amount plus absorbed damage.
func (e Event) Dealt() int64 {
	return e.Amount + e.Absorbed
}

type rawEvent struct {
	Timestamp     int64   `json:"timestamp"`
	Type          string  `json:"type"`
	AbilityGameID int64   `json:"abilityGameID"`
	SourceID      int64   `json:"sourceID"`
	TargetID      int64   `json:"targetID"`
	Amount        int64   `json:"amount"`
	Absorbed      int64   `json:"absorbed"`
	Stacks        *int    `json:"stacks"`
	AttackPower   float64 `json:"attackPower"`
}

// UnmarshalJSON decodes a Warcraft Logs v2 event, applying defaults for the
// optional fields (stacks=1, absorbed=0, attackPower=0).
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw rawEvent
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}

	stacks := 1
	if raw.Stacks != nil {
		stacks = *raw.Stacks
	}

	*e = Event{
		Timestamp:   raw.Timestamp,
		Kind:        ParseKind(raw.Type),
		RawType:     raw.Type,
		AbilityID:   AbilityID(raw.AbilityGameID),
		SourceID:    ActorID(raw.SourceID),
		TargetID:    ActorID(raw.TargetID),
		Amount:      raw.Amount,
		Absorbed:    raw.Absorbed,
		Stacks:      stacks,
		AttackPower: int64(raw.AttackPower),
	}
	return nil
}

// DecodeEvents decodes a batch of raw events.
func DecodeEvents(raw []json.RawMessage) ([]Event, error) {
	events := make([]Event, 0, len(raw))
	for i, r := range raw {
		var e Event
		if err := json.Unmarshal(r, &e); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// SortByTimestamp orders events by timestamp, keeping the relative order of
// events that share a timestamp.
func SortByTimestamp(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		default:
			return 0
		}
	})
}
