package models

// HeadingSample is one absolute orientation reading streamed by the device
// while a route is being recorded.
type HeadingSample struct {
	AngleDegrees float64 `json:"angle_degrees"` // 0 = north, clockwise; any value is accepted and wrapped
	TimestampMs  int64   `json:"timestamp_ms"`  // device clock, Unix milliseconds
}

// Status is the direction the walker is currently heading relative to the
// reference angle.
type Status string

// Status constants
const (
	StatusStraight     Status = "STRAIGHT"
	StatusTurningLeft  Status = "TURNING_LEFT"
	StatusTurningRight Status = "TURNING_RIGHT"
)

// IsTurn reports whether s is one of the turning statuses.
func (s Status) IsTurn() bool {
	return s == StatusTurningLeft || s == StatusTurningRight
}

// EventKind is the instruction carried by a NarrationEvent.
type EventKind string

// EventKind constants
const (
	EventStraight  EventKind = "STRAIGHT"
	EventTurnLeft  EventKind = "TURN_LEFT"
	EventTurnRight EventKind = "TURN_RIGHT"
)

// Label returns the human readable instruction for the event kind.
func (k EventKind) Label() string {
	switch k {
	case EventTurnLeft:
		return "turn left"
	case EventTurnRight:
		return "turn right"
	default:
		return "go straight"
	}
}

// NarrationEvent is a confirmed navigation instruction detected during
// recording. Events are immutable and kept in emission order.
type NarrationEvent struct {
	EmittedAtMs int64     `json:"emitted_at_ms"`
	Kind        EventKind `json:"kind"`
}
