package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/wakana-code/station-navi-app/internal/models"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) int64 {
	return now.Add(-time.Duration(d * float64(24*time.Hour))).UnixMilli()
}

func intp(v int) *int { return &v }

func survey(age float64, valid bool, watch, sat int) models.SurveyResponse {
	return models.SurveyResponse{
		TimestampMs:       daysAgo(age),
		StillValid:        valid,
		Watchability:      watch,
		RouteSatisfaction: sat,
	}
}

func TestScoreWithoutSurveys(t *testing.T) {
	t.Parallel()

	t.Run("brand new route", func(t *testing.T) {
		t.Parallel()
		r := &models.RouteRecord{UploadDateMs: now.UnixMilli()}
		got := Score(r, models.NewTagSet(models.TagWheelchair), now)
		want := models.ScoreBreakdown{Validity: 20, Freshness: 30, Total: 50}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("score mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ten days old", func(t *testing.T) {
		t.Parallel()
		r := &models.RouteRecord{UploadDateMs: daysAgo(10)}
		got := Score(r, nil, now)
		assert.InDelta(t, 20, got.Validity, 1e-9, "penalty floors at zero before the new-route bonus")
		assert.Zero(t, got.Watchability)
		assert.Zero(t, got.Satisfaction)
		assert.Zero(t, got.TagMatch)
		assert.InDelta(t, 30*math.Exp(-10.0/60), got.Freshness, 1e-9)
	})

	t.Run("old route", func(t *testing.T) {
		t.Parallel()
		r := &models.RouteRecord{UploadDateMs: daysAgo(40)}
		got := Score(r, nil, now)
		assert.Zero(t, got.Validity)
		assert.InDelta(t, 30*math.Exp(-40.0/60), got.Freshness, 1e-9)
	})
}

func TestValidity(t *testing.T) {
	t.Parallel()

	t.Run("ratio of recent surveys", func(t *testing.T) {
		t.Parallel()
		r := &models.RouteRecord{UploadDateMs: daysAgo(100)}
		for i := 0; i < 8; i++ {
			r.Surveys = append(r.Surveys, survey(1, true, 3, 3))
		}
		r.Surveys = append(r.Surveys, survey(2, false, 3, 3), survey(2, false, 3, 3))
		assert.InDelta(t, 80, Validity(r, now.UnixMilli()), 1e-9)
	})

	t.Run("three stale reports override a high ratio", func(t *testing.T) {
		t.Parallel()
		r := &models.RouteRecord{UploadDateMs: daysAgo(100)}
		for i := 0; i < 12; i++ {
			r.Surveys = append(r.Surveys, survey(1, true, 5, 5))
		}
		for i := 0; i < 3; i++ {
			r.Surveys = append(r.Surveys, survey(3, false, 5, 5))
		}
		assert.Zero(t, Validity(r, now.UnixMilli()))
		assert.True(t, Outdated(r, now))
		assert.Equal(t, 3, StaleReports(r, now))
	})

	t.Run("old surveys are ignored", func(t *testing.T) {
		t.Parallel()
		r := &models.RouteRecord{UploadDateMs: daysAgo(200)}
		for i := 0; i < 5; i++ {
			r.Surveys = append(r.Surveys, survey(45, false, 1, 1))
		}
		for i := 0; i < 5; i++ {
			r.Surveys = append(r.Surveys, survey(5, true, 1, 1))
		}
		assert.InDelta(t, 100, Validity(r, now.UnixMilli()), 1e-9)
		assert.False(t, Outdated(r, now))
	})

	t.Run("thirty days is no longer recent", func(t *testing.T) {
		t.Parallel()
		r := &models.RouteRecord{
			UploadDateMs: daysAgo(300),
			Surveys:      []models.SurveyResponse{survey(30, true, 1, 1)},
		}
		assert.Zero(t, Validity(r, now.UnixMilli()))
	})

	t.Run("few recent surveys get the age penalty and bonus", func(t *testing.T) {
		t.Parallel()
		r := &models.RouteRecord{
			UploadDateMs: daysAgo(10),
			Surveys:      []models.SurveyResponse{survey(1, true, 1, 1), survey(2, true, 1, 1)},
		}
		// 100 - 20 + 20, capped at 100
		assert.InDelta(t, 100, Validity(r, now.UnixMilli()), 1e-9)

		r.UploadDateMs = daysAgo(45)
		assert.InDelta(t, 10, Validity(r, now.UnixMilli()), 1e-9)
	})

	t.Run("never negative", func(t *testing.T) {
		t.Parallel()
		r := &models.RouteRecord{
			UploadDateMs: daysAgo(1000),
			Surveys:      []models.SurveyResponse{survey(1, false, 1, 1)},
		}
		assert.Zero(t, Validity(r, now.UnixMilli()))
	})
}

func TestRatingScores(t *testing.T) {
	t.Parallel()
	r := &models.RouteRecord{
		UploadDateMs: daysAgo(100),
		Surveys: []models.SurveyResponse{
			survey(1, true, 5, 5),
			survey(90, true, 3, 3),
		},
	}
	got := Score(r, nil, now)
	assert.InDelta(t, 30, got.Watchability, 1e-9, "uses all surveys, not only recent ones")
	assert.InDelta(t, 45, got.Satisfaction, 1e-9)

	r.Surveys = []models.SurveyResponse{survey(1, true, 1, 1)}
	got = Score(r, nil, now)
	assert.Zero(t, got.Watchability)
	assert.Zero(t, got.Satisfaction)
}

func TestTagMatch(t *testing.T) {
	t.Parallel()
	r := &models.RouteRecord{
		Tags: []models.Tag{models.TagWheelchair, models.TagElderly, models.TagBaby},
		Surveys: []models.SurveyResponse{
			{Watchability: 3, RouteSatisfaction: 3, WheelchairSuitable: intp(5), PhysicallyEasy: intp(3)},
			{Watchability: 3, RouteSatisfaction: 3, WheelchairSuitable: intp(4)},
			{Watchability: 3, RouteSatisfaction: 3},
		},
	}

	tests := []struct {
		name string
		tags models.TagSet
		want float64
	}{
		{"no tags selected", nil, 0},
		{"wheelchair only", models.NewTagSet(models.TagWheelchair), 35},
		{"elderly only", models.NewTagSet(models.TagElderly), 20},
		{"both are averaged", models.NewTagSet(models.TagWheelchair, models.TagElderly), 27.5},
		{"baby and shortest never score", models.NewTagSet(models.TagBaby, models.TagShortest), 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, TagMatch(r, tt.tags), 1e-9, tt.name)
	}

	t.Run("record must carry the tag", func(t *testing.T) {
		t.Parallel()
		noTags := &models.RouteRecord{Surveys: r.Surveys}
		assert.Zero(t, TagMatch(noTags, models.NewTagSet(models.TagWheelchair)))
	})

	t.Run("tag without reports does not dilute the other", func(t *testing.T) {
		t.Parallel()
		rr := &models.RouteRecord{
			Tags: []models.Tag{models.TagWheelchair, models.TagElderly},
			Surveys: []models.SurveyResponse{
				{WheelchairSuitable: intp(5)},
			},
		}
		assert.InDelta(t, 40, TagMatch(rr, models.NewTagSet(models.TagWheelchair, models.TagElderly)), 1e-9)
	})
}

func TestFreshness(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 30, Freshness(0, 0), 1e-9)
	assert.InDelta(t, 30*math.Exp(-1), Freshness(60, 80), 1e-9)
	assert.InDelta(t, 30*math.Exp(-0.5), Freshness(60, 80.5), 1e-9, "trusted routes decay slower")
	assert.GreaterOrEqual(t, Freshness(1e6, 0), 0.0)
}

func TestViewBonus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		views int64
		want  float64
	}{
		{0, 0},
		{9, 3},
		{99, 6},
		{999, 9},
		{1_000_000, 10},
		{-5, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ViewBonus(tt.views), 1e-9, "ViewBonus(%d)", tt.views)
	}
}

func TestScoreIsDeterministicAndPure(t *testing.T) {
	t.Parallel()
	r := &models.RouteRecord{
		ID:           "r1",
		Tags:         []models.Tag{models.TagWheelchair},
		UploadDateMs: daysAgo(12),
		Views:        42,
		Surveys: []models.SurveyResponse{
			{TimestampMs: daysAgo(1), StillValid: true, Watchability: 4, RouteSatisfaction: 5, WheelchairSuitable: intp(4)},
			{TimestampMs: daysAgo(3), StillValid: false, Watchability: 2, RouteSatisfaction: 3},
		},
	}
	before := *r
	before.Surveys = append([]models.SurveyResponse(nil), r.Surveys...)
	tags := models.NewTagSet(models.TagWheelchair)

	a := Score(r, tags, now)
	b := Score(r, tags, now)
	assert.Equal(t, a, b)
	if diff := cmp.Diff(&before, r); diff != "" {
		t.Fatalf("record mutated (-before +after):\n%s", diff)
	}

	sum := a.Validity + a.Watchability + a.Satisfaction + a.TagMatch + a.Freshness + a.ViewBonus
	assert.InDelta(t, sum, a.Total, 1e-9)
	assert.GreaterOrEqual(t, a.Validity, 0.0)
	assert.LessOrEqual(t, a.Validity, 100.0)
	assert.LessOrEqual(t, a.ViewBonus, 10.0)
	assert.LessOrEqual(t, a.TagMatch, 40.0)
}
