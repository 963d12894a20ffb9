package combatlog

import (
	"encoding/json"
	"fmt"
)

// AuraEntry is one aura listed in a CombatantInfo snapshot.
type AuraEntry struct {
	AbilityID AbilityID `json:"ability"`
	Name      string    `json:"name,omitempty"`
	Stacks    int       `json:"stacks,omitempty"`
}

// StackCount returns the listed stack count, defaulting to 1.
func (a AuraEntry) StackCount() int {
	if a.Stacks < 1 {
		return 1
	}
	return a.Stacks
}

// GearItem is one equipped item in a CombatantInfo snapshot.
type GearItem struct {
	ID        int64 `json:"id"`
	ItemLevel int   `json:"itemLevel"`
}

// Snapshot is the initial combatant state recorded at encounter start.
type Snapshot struct {
	PlayerID ActorID     `json:"sourceID"`
	Strength float64     `json:"strength"`
	Auras    []AuraEntry `json:"auras"`
	Gear     []GearItem  `json:"gear"`
}

// FindGear returns the first equipped item with the given id.
func (s *Snapshot) FindGear(itemID int64) (GearItem, bool) {
	for _, g := range s.Gear {
		if g.ID == itemID {
			return g, true
		}
	}
	return GearItem{}, false
}

// GearInSlot returns the item in the given paperdoll slot index.
func (s *Snapshot) GearInSlot(slot int) (GearItem, bool) {
	if slot < 0 || slot >= len(s.Gear) {
		return GearItem{}, false
	}
	return s.Gear[slot], true
}

// HasItem reports whether the snapshot lists the item as equipped.
func (s *Snapshot) HasItem(itemID int64) bool {
	_, ok := s.FindGear(itemID)
	return ok
}

// DecodeSnapshot decodes a raw CombatantInfo event.
func DecodeSnapshot(raw json.RawMessage) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding combatant info: %w", err)
	}
	return &s, nil
}
