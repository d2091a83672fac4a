package models

import "time"

// Recording is a route recording session and the narration it produced.
type Recording struct {
	ID           string           `json:"id" db:"id"`
	InitialAngle float64          `json:"initial_angle" db:"initial_angle"`
	StartedAt    time.Time        `json:"started_at" db:"started_at_ms"`
	StoppedAt    *time.Time       `json:"stopped_at,omitempty" db:"stopped_at_ms"`
	RouteID      string           `json:"route_id,omitempty" db:"route_id"`
	Events       []NarrationEvent `json:"events"`
	Article      string           `json:"article,omitempty"`
}
