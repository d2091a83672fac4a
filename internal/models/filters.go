package models

// RouteFilter represents filter parameters for searching routes
type RouteFilter struct {
	Type       string   `form:"type"`     // transfer, exit, stationShop, shopFromStation
	Station    string   `form:"station"`  // whitespace and case insensitive substring
	FromLine   string   `form:"fromLine"` // whitespace and case insensitive substring
	ToLine     string   `form:"toLine"`
	ExitNumber string   `form:"exit"`
	Tags       string   `form:"tags"` // comma separated tag list
	Latitude   *float64 `form:"lat"`
	Longitude  *float64 `form:"lon"`
	RadiusM    float64  `form:"radius_m"` // proximity radius, only used with lat/lon
	Limit      int      `form:"limit"`    // Max results
}

// SelectedTags returns the parsed tag set of the filter.
func (f RouteFilter) SelectedTags() TagSet {
	return ParseTagSet(f.Tags)
}

// HasProximity reports whether the filter restricts results to a radius
// around a point.
func (f RouteFilter) HasProximity() bool {
	return f.Latitude != nil && f.Longitude != nil && f.RadiusM > 0
}
