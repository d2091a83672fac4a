// Package segmentation turns a stream of device headings into debounced
// narration events: go straight, turn left, turn right.
//
// An Engine is owned by exactly one recording session and is not safe for
// concurrent use.
package segmentation

import (
	"errors"

	"github.com/wakana-code/station-navi-app/internal/models"
)

// Status aliases so callers of this package rarely need models directly.
type Status = models.Status

const (
	StatusStraight     = models.StatusStraight
	StatusTurningLeft  = models.StatusTurningLeft
	StatusTurningRight = models.StatusTurningRight
)

var (
	// ErrInvalidState is returned when Tick is called before Start or after Stop.
	ErrInvalidState = errors.New("segmentation: invalid state")

	// ErrInvalidInput is returned for unusable samples: negative or
	// non-increasing timestamps and non-finite angles.
	ErrInvalidInput = errors.New("segmentation: invalid input")
)

// State is the full mutable state of one recording session.
type State struct {
	ReferenceAngle float64 `json:"reference_angle"`

	// Status is the effective status: the confirmed direction after hysteresis.
	Status        Status     `json:"status"`
	StatusSinceMs int64      `json:"status_since_ms"`
	Instant       Status     `json:"instant"`
	Hysteresis    Hysteresis `json:"hysteresis"`

	TurnActive      bool  `json:"turn_active"`
	TurnSinceMs     int64 `json:"turn_since_ms"`
	StraightActive  bool  `json:"straight_active"`
	StraightSinceMs int64 `json:"straight_since_ms"`

	Resetting    bool  `json:"resetting"`
	ResetSinceMs int64 `json:"reset_since_ms"`

	HasSample       bool  `json:"has_sample"`
	LastTimestampMs int64 `json:"last_timestamp_ms"`
}

// Progress is the live feedback shown to the person recording.
type Progress struct {
	TurnFraction     float64 `json:"turn_fraction"`
	StraightFraction float64 `json:"straight_fraction"`
	Label            string  `json:"label"`
	Status           Status  `json:"status"`
	Resetting        bool    `json:"resetting"`
}
