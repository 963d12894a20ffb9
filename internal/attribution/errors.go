package attribution

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPowerSample = errors.New("scaling damage before any attack power sample")
	ErrEventsOutOfOrder   = errors.New("events are not in timestamp order")
	ErrNotReady           = errors.New("engine is not ready")
	ErrNonPositivePower   = errors.New("modeled attack power is not positive")
)

// InvariantViolation reports a counterfactual that came out below the damage
// actually dealt. Adding Strength must never reduce modeled damage, so this
// is a model fault rather than bad input.
type InvariantViolation struct {
	Dealt          float64
	Counterfactual float64
	PowerCoeff     float64
	DamageCoeff    float64
	Power          float64
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("more strength is less damage: dealt=%.2f counterfactual=%.2f powerCoeff=%.6f dmgCoeff=%.6f power=%.2f",
		e.Dealt, e.Counterfactual, e.PowerCoeff, e.DamageCoeff, e.Power)
}

// ReplayError wraps a fatal replay failure with the accumulator state at the
// time it happened.
type ReplayError struct {
	Err          error
	Index        int
	Timestamp    int64
	Accumulators Accumulators
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay failed at event %d (t=%d, tracked=%d, added=%.2f): %v",
		e.Index, e.Timestamp, e.Accumulators.TrackedDamage, e.Accumulators.AddedAttributeDamage, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}
