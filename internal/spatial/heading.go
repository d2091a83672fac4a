package spatial

import "math"

// NormalizeDegrees wraps an angle in degrees into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// -tiny + 360 rounds up to 360
	if d >= 360 {
		d = 0
	}
	return d
}

// RelativeHeading returns the clockwise angle from reference to heading,
// normalized into [0, 360). 90 means the heading is a quarter turn to the
// right of the reference.
func RelativeHeading(heading, reference float64) float64 {
	return NormalizeDegrees(NormalizeDegrees(heading) - NormalizeDegrees(reference))
}
