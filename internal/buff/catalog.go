package buff

import (
	"fmt"

	"github.com/codexvs/codexvs/internal/combatlog"
)

// Catalog is a read-only registry of tracked buffs keyed by ability id.
// A Catalog is safe for concurrent use since it is never mutated after NewCatalog.
type Catalog struct {
	byID map[combatlog.AbilityID]*Definition
}

// NewCatalog validates defs and builds a Catalog.
// Duplicate ability ids are rejected.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{byID: make(map[combatlog.AbilityID]*Definition, len(defs))}
	for i := range defs {
		d := defs[i]
		if err := d.validate(); err != nil {
			return nil, err
		}
		if prev, ok := c.byID[d.AbilityID]; ok {
			return nil, fmt.Errorf("duplicate buff id %d (%q and %q)", d.AbilityID, prev.Name, d.Name)
		}
		c.byID[d.AbilityID] = &d
	}
	return c, nil
}

// MustCatalog is NewCatalog that panics on invalid definitions.
func MustCatalog(defs []Definition) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the definition for id. The second result is false when the
// ability is not tracked, which is the common case.
func (c *Catalog) Lookup(id combatlog.AbilityID) (*Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Len returns the number of tracked buffs.
func (c *Catalog) Len() int {
	return len(c.byID)
}

// Lead by Example reports one apply per affected ally instead of real stacks.
const LeadByExample combatlog.AbilityID = 342181

// DefaultDefinitions returns the built-in Strength buffs.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "Well Fed (Big Feast)", AbilityID: 327706, Kind: KindAdditive, Base: 20},
		{Name: "Flask", AbilityID: 307185, Kind: KindAdditive, Base: 70},
		{Name: "Well Fed (Small Feast)", AbilityID: 327701, Kind: KindAdditive, Base: 18},
		{Name: "Augment Rune", AbilityID: 347901, Kind: KindAdditive, Base: 18},
		{Name: "Endless Rune Waltz", AbilityID: 364197, Kind: KindMultiplicative, PerStack: 0.01},
		{Name: "Unholy Strength", AbilityID: 53365, Kind: KindMultiplicative, Base: 0.15},
		{Name: "Death's Due", AbilityID: 324165, Kind: KindMultiplicative, PerStack: 0.05},
		{Name: "Volatile Solvent (Beast)", AbilityID: 323491, Kind: KindMultiplicative, Base: 0.02},
		{Name: "The Duke's Tea", AbilityID: 353266, Kind: KindMultiplicative, Base: 0.03},
		// TODO: look up the Built for War aura id; 0 never appears in logs.
		{Name: "Built for War", AbilityID: 0, Kind: KindMultiplicative, PerStack: 0.01},
		{Name: "Lead by Example", AbilityID: LeadByExample, Kind: KindMultiplicative, Base: 0.05, PerStack: 0.02},
		{Name: "Newfound Resolve", AbilityID: 352917, Kind: KindMultiplicative, Base: 0.10},
		// TODO: scale with the fragment's item level once the tooltip formula is known.
		{Name: "Adaptive Armor Fragment", AbilityID: 357972, Kind: KindMultiplicative, Base: 0.038},
	}
}

// DefaultCatalog returns a Catalog of DefaultDefinitions.
func DefaultCatalog() *Catalog {
	return MustCatalog(DefaultDefinitions())
}
