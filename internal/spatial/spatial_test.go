package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{725, 5},
		{-90, 270},
		{-720, 0},
		{-1e-15, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeDegrees(tt.in), 1e-9, "NormalizeDegrees(%v)", tt.in)
	}
}

func TestRelativeHeading(t *testing.T) {
	assert.Equal(t, 90.0, RelativeHeading(90, 0))
	assert.Equal(t, 270.0, RelativeHeading(0, 90))
	assert.Equal(t, 20.0, RelativeHeading(10, 350))
	assert.Equal(t, 340.0, RelativeHeading(350, 10))
	assert.Equal(t, 30.0, RelativeHeading(30, 0), "boundary values must survive exactly")
}

func TestHaversineDistance(t *testing.T) {
	// Shinjuku to Shibuya is roughly 3.4 km
	d := HaversineDistance(35.6896, 139.7006, 35.6580, 139.7016)
	assert.InDelta(t, 3500, d, 200)

	assert.True(t, WithinRadius(35.6896, 139.7006, 35.6897, 139.7007, 50))
	assert.False(t, WithinRadius(35.6896, 139.7006, 35.6580, 139.7016, 1000))
}

func TestCircularMeanDegrees(t *testing.T) {
	tests := []struct {
		name   string
		angles []float64
		want   float64
	}{
		{"across north", []float64{350, 10}, 0},
		{"quarter", []float64{80, 90, 100}, 90},
		{"wrapped inputs", []float64{-90, 270, 630}, 270},
	}
	for _, tt := range tests {
		got := CircularMeanDegrees(tt.angles)
		assert.InDelta(t, 0, AngularDifferenceDegrees(tt.want, got), 1e-9, tt.name)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, 360.0)
	}
	assert.Zero(t, CircularMeanDegrees(nil))
}

func TestMeanResultantLength(t *testing.T) {
	assert.InDelta(t, 1, MeanResultantLength([]float64{42, 42, 402}), 1e-9)
	assert.InDelta(t, 0, MeanResultantLength([]float64{0, 180}), 1e-9)
	assert.InDelta(t, 0, MeanResultantLength([]float64{0, 90, 180, 270}), 1e-9)
	assert.Zero(t, MeanResultantLength(nil))
}

func TestAngularDifferenceDegrees(t *testing.T) {
	assert.InDelta(t, 20, AngularDifferenceDegrees(350, 10), 1e-9)
	assert.InDelta(t, -20, AngularDifferenceDegrees(10, 350), 1e-9)
	assert.InDelta(t, -180, AngularDifferenceDegrees(0, 180), 1e-9)
	assert.InDelta(t, 0, AngularDifferenceDegrees(725, 5), 1e-9)
}
