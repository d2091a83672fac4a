package models

import (
	"fmt"
	"strings"
)

// RouteRecord is a published route video with its crowd-sourced feedback.
type RouteRecord struct {
	ID string `json:"id" db:"id"`

	// Route identification
	Type       string `json:"type" db:"type"` // transfer, exit, stationShop, shopFromStation
	Station    string `json:"station" db:"station"`
	Title      string `json:"title" db:"title"`
	FromLine   string `json:"from_line,omitempty" db:"from_line"`
	ToLine     string `json:"to_line,omitempty" db:"to_line"`
	ExitNumber string `json:"exit_number,omitempty" db:"exit_number"`
	Tags       []Tag  `json:"tags"`

	// Station position, optional
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`

	// Content
	Article  string `json:"article" db:"article"`     // auto-generated guide text
	VideoURI string `json:"video_uri" db:"video_uri"` // opaque, owned by the video pipeline

	// Popularity and feedback
	UploadDateMs int64            `json:"upload_date_ms" db:"upload_date_ms"`
	Views        int64            `json:"views" db:"views"`
	Surveys      []SurveyResponse `json:"surveys"`
}

// HasTag reports whether the record carries tag.
func (r *RouteRecord) HasTag(tag Tag) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Route type constants
const (
	RouteTypeTransfer        = "transfer"
	RouteTypeExit            = "exit"
	RouteTypeStationShop     = "stationShop"
	RouteTypeShopFromStation = "shopFromStation"
)

// IsValidRouteType reports whether t is a known route type.
func IsValidRouteType(t string) bool {
	switch t {
	case RouteTypeTransfer, RouteTypeExit, RouteTypeStationShop, RouteTypeShopFromStation:
		return true
	}
	return false
}

// UnnamedStation is used when a route is published without a station name.
const UnnamedStation = "Unnamed station"

// RouteTitle builds the display title for a route.
func RouteTitle(station, fromLine, toLine string) string {
	if strings.TrimSpace(station) == "" {
		station = UnnamedStation
	}
	return fmt.Sprintf("%s %s→%s route", station, fromLine, toLine)
}

// SurveyResponse is a single piece of feedback submitted after watching a
// route video. Ratings are on a 1..5 scale.
type SurveyResponse struct {
	ID                 int64 `json:"id,omitempty" db:"id"`
	TimestampMs        int64 `json:"timestamp_ms" db:"timestamp_ms"`
	StillValid         bool  `json:"still_valid" db:"still_valid"`
	Watchability       int   `json:"watchability" db:"watchability"`
	RouteSatisfaction  int   `json:"route_satisfaction" db:"route_satisfaction"`
	WheelchairSuitable *int  `json:"wheelchair_suitable,omitempty" db:"wheelchair_suitable"`
	PhysicallyEasy     *int  `json:"physically_easy,omitempty" db:"physically_easy"`
}

// Validate checks that every present rating is within 1..5.
func (s *SurveyResponse) Validate() error {
	if !validRating(s.Watchability) {
		return fmt.Errorf("watchability must be between 1 and 5, got %d", s.Watchability)
	}
	if !validRating(s.RouteSatisfaction) {
		return fmt.Errorf("route_satisfaction must be between 1 and 5, got %d", s.RouteSatisfaction)
	}
	if s.WheelchairSuitable != nil && !validRating(*s.WheelchairSuitable) {
		return fmt.Errorf("wheelchair_suitable must be between 1 and 5, got %d", *s.WheelchairSuitable)
	}
	if s.PhysicallyEasy != nil && !validRating(*s.PhysicallyEasy) {
		return fmt.Errorf("physically_easy must be between 1 and 5, got %d", *s.PhysicallyEasy)
	}
	return nil
}

func validRating(v int) bool {
	return v >= 1 && v <= 5
}

// ScoreBreakdown is the ranking score of a route for a given searcher.
type ScoreBreakdown struct {
	Validity     float64 `json:"validity"`
	Watchability float64 `json:"watchability"`
	Satisfaction float64 `json:"satisfaction"`
	TagMatch     float64 `json:"tag_match"`
	Freshness    float64 `json:"freshness"`
	ViewBonus    float64 `json:"view_bonus"`
	Total        float64 `json:"total"`
}

// RankedRoute is a search result: the route, its score and whether the
// community recently reported it as outdated.
type RankedRoute struct {
	Route    *RouteRecord   `json:"route"`
	Score    ScoreBreakdown `json:"score"`
	Outdated bool           `json:"outdated"`
}
