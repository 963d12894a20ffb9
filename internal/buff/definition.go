package buff

import (
	"fmt"
	"strings"

	"github.com/codexvs/codexvs/internal/combatlog"
)

// Kind defines how a buff modifies the attribute.
type Kind int8

const (
	KindAdditive       Kind = iota + 1 // Flat delta (e.g. +70 Strength)
	KindMultiplicative                 // Percent multiplier (e.g. ×1.15 Strength)
)

func (k Kind) String() string {
	switch k {
	case KindAdditive:
		return "add"
	case KindMultiplicative:
		return "mul"
	default:
		return fmt.Sprintf("Kind(%d)", int8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Accepts "add"/"additive" and "mul"/"multiplicative".
func (k *Kind) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "add", "additive":
		*k = KindAdditive
	case "mul", "multiplicative":
		*k = KindMultiplicative
	default:
		return fmt.Errorf("unknown buff kind %q", string(b))
	}
	return nil
}

// Definition describes one tracked attribute buff.
// Definitions are immutable once registered in a Catalog.
type Definition struct {
	Name      string              `yaml:"name"`
	AbilityID combatlog.AbilityID `yaml:"ability_id"`
	Kind      Kind                `yaml:"kind"`
	Base      float64             `yaml:"base"`
	PerStack  float64             `yaml:"per_stack"`
}

// Coefficient returns the modifier for the given stack count.
//
//	Additive:       Base + stacks×PerStack        (delta)
//	Multiplicative: 1 + Base + stacks×PerStack    (multiplier)
func (d *Definition) Coefficient(stacks int) float64 {
	c := d.Base + float64(stacks)*d.PerStack
	if d.Kind == KindMultiplicative {
		return 1 + c
	}
	return c
}

// Apply composes the buff onto value.
func (d *Definition) Apply(value float64, stacks int) float64 {
	if d.Kind == KindMultiplicative {
		return value * d.Coefficient(stacks)
	}
	return value + d.Coefficient(stacks)
}

// Revert removes the buff from value. Inverse of Apply.
func (d *Definition) Revert(value float64, stacks int) float64 {
	if d.Kind == KindMultiplicative {
		return value / d.Coefficient(stacks)
	}
	return value - d.Coefficient(stacks)
}

// Key implements Keyed.
func (d *Definition) Key() combatlog.AbilityID {
	return d.AbilityID
}

func (d *Definition) validate() error {
	if d.Kind != KindAdditive && d.Kind != KindMultiplicative {
		return fmt.Errorf("buff %q (%d): invalid kind %v", d.Name, d.AbilityID, d.Kind)
	}
	if d.Kind == KindMultiplicative && d.Coefficient(1) <= 0 {
		return fmt.Errorf("buff %q (%d): multiplier must be positive", d.Name, d.AbilityID)
	}
	return nil
}
