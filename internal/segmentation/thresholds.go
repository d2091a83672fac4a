package segmentation

import (
	"errors"
	"fmt"
	"time"
)

// Thresholds holds the timing and angle limits of the segmentation state
// machine. Angles are relative to the reference heading, clockwise, in degrees.
type Thresholds struct {
	TurnHold           time.Duration `yaml:"turn_hold" json:"turn_hold"`                     // sustained turn needed to emit a turn event
	StraightCheckpoint time.Duration `yaml:"straight_checkpoint" json:"straight_checkpoint"` // straight walking between STRAIGHT checkpoints
	RevertHold         time.Duration `yaml:"revert_hold" json:"revert_hold"`                 // straight readings needed to end a confirmed turn
	Cooldown           time.Duration `yaml:"cooldown" json:"cooldown"`                       // input ignored after a turn event

	RightMinDeg float64 `yaml:"right_min_deg" json:"right_min_deg"`
	RightMaxDeg float64 `yaml:"right_max_deg" json:"right_max_deg"`
	LeftMinDeg  float64 `yaml:"left_min_deg" json:"left_min_deg"`
	LeftMaxDeg  float64 `yaml:"left_max_deg" json:"left_max_deg"`
}

// DefaultThresholds returns the thresholds used on handheld devices.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TurnHold:           6 * time.Second,
		StraightCheckpoint: 32 * time.Second,
		RevertHold:         1500 * time.Millisecond,
		Cooldown:           1500 * time.Millisecond,
		RightMinDeg:        30,
		RightMaxDeg:        150,
		LeftMinDeg:         210,
		LeftMaxDeg:         330,
	}
}

// Validate checks that durations are positive and the turn sectors are
// ordered and disjoint within [0, 360].
func (t Thresholds) Validate() error {
	var errs []error
	if t.TurnHold <= 0 {
		errs = append(errs, fmt.Errorf("turn_hold must be positive, got %s", t.TurnHold))
	}
	if t.StraightCheckpoint <= 0 {
		errs = append(errs, fmt.Errorf("straight_checkpoint must be positive, got %s", t.StraightCheckpoint))
	}
	if t.RevertHold <= 0 {
		errs = append(errs, fmt.Errorf("revert_hold must be positive, got %s", t.RevertHold))
	}
	if t.Cooldown <= 0 {
		errs = append(errs, fmt.Errorf("cooldown must be positive, got %s", t.Cooldown))
	}
	if !(0 <= t.RightMinDeg && t.RightMinDeg < t.RightMaxDeg && t.RightMaxDeg <= t.LeftMinDeg &&
		t.LeftMinDeg < t.LeftMaxDeg && t.LeftMaxDeg <= 360) {
		errs = append(errs, fmt.Errorf("turn sectors must satisfy 0 <= right_min < right_max <= left_min < left_max <= 360, got %v/%v/%v/%v",
			t.RightMinDeg, t.RightMaxDeg, t.LeftMinDeg, t.LeftMaxDeg))
	}
	return errors.Join(errs...)
}

// Classify returns the instantaneous status for a relative heading in
// [0, 360). Sector boundaries are exclusive; everything outside the two turn
// sectors reads as straight.
func (t Thresholds) Classify(rel float64) Status {
	switch {
	case rel > t.RightMinDeg && rel < t.RightMaxDeg:
		return StatusTurningRight
	case rel > t.LeftMinDeg && rel < t.LeftMaxDeg:
		return StatusTurningLeft
	default:
		return StatusStraight
	}
}
