package spatial

import (
	"math"
)

// CircularMeanDegrees calculates the mean direction of angles in degrees,
// in [0, 360). Plain averaging fails across north: the mean of 350 and 10
// is 0, not 180.
func CircularMeanDegrees(angles []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	sumSin, sumCos := sums(angles)
	return NormalizeDegrees(math.Atan2(sumSin, sumCos) * 180 / math.Pi)
}

// MeanResultantLength calculates R for angles in degrees. R ranges from 0
// (directions cancel out) to 1 (all angles identical).
func MeanResultantLength(angles []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	sumSin, sumCos := sums(angles)
	return math.Sqrt(sumSin*sumSin+sumCos*sumCos) / float64(len(angles))
}

// AngularDifferenceDegrees calculates the smallest signed difference from
// angle1 to angle2, in [-180, 180).
func AngularDifferenceDegrees(angle1, angle2 float64) float64 {
	return NormalizeDegrees(angle2-angle1+180) - 180
}

func sums(angles []float64) (sumSin, sumCos float64) {
	for _, angle := range angles {
		rad := angle * math.Pi / 180
		sumSin += math.Sin(rad)
		sumCos += math.Cos(rad)
	}
	return sumSin, sumCos
}
