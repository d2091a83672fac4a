// Package scoring computes the trust and relevance score used to rank route
// videos for a searcher.
//
// Score is a pure function of the record, the searcher's selected tags and
// the evaluation instant. It never mutates the record and is safe for
// concurrent use.
package scoring

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wakana-code/station-navi-app/internal/models"
)

const (
	dayMs = int64(24 * time.Hour / time.Millisecond)

	// RecentWindowDays is how old a survey may be to count towards validity.
	RecentWindowDays = 30

	// StaleReportLimit is the number of recent "no longer valid" reports that
	// zeroes validity regardless of the ratio.
	StaleReportLimit = 3

	// minRecentForTrust is the number of recent surveys below which the age
	// penalty and new-route bonus apply.
	minRecentForTrust = 5

	agePenaltyPerDay = 2.0
	newRouteBonus    = 20.0
	newRouteDays     = 30.0

	watchabilityWeight = 10.0
	satisfactionWeight = 15.0
	tagWeight          = 10.0
	maxTagMatch        = 40.0

	freshnessMax        = 30.0
	freshnessDecay      = 60.0
	trustedDecay        = 120.0
	trustedValidityOver = 80.0

	viewBonusMax    = 10.0
	viewBonusFactor = 3.0
)

// accessibilityFields maps an accessibility tag to the survey rating that
// backs it. baby and shortest only filter results upstream.
var accessibilityFields = []struct {
	tag   models.Tag
	field func(models.SurveyResponse) *int
}{
	{models.TagWheelchair, func(s models.SurveyResponse) *int { return s.WheelchairSuitable }},
	{models.TagElderly, func(s models.SurveyResponse) *int { return s.PhysicallyEasy }},
}

// Score computes the score breakdown of record for a searcher who selected
// searcherTags, evaluated at now.
func Score(record *models.RouteRecord, searcherTags models.TagSet, now time.Time) models.ScoreBreakdown {
	nowMs := now.UnixMilli()
	days := daysSince(record.UploadDateMs, nowMs)

	b := models.ScoreBreakdown{
		Validity:     Validity(record, nowMs),
		Watchability: ratingScore(record.Surveys, func(s models.SurveyResponse) float64 { return float64(s.Watchability) }, watchabilityWeight),
		Satisfaction: ratingScore(record.Surveys, func(s models.SurveyResponse) float64 { return float64(s.RouteSatisfaction) }, satisfactionWeight),
		TagMatch:     TagMatch(record, searcherTags),
		ViewBonus:    ViewBonus(record.Views),
	}
	b.Freshness = Freshness(days, b.Validity)
	b.Total = b.Validity + b.Watchability + b.Satisfaction + b.TagMatch + b.Freshness + b.ViewBonus
	return b
}

// Validity is the 0..100 trust signal derived from recent surveys, with an
// age penalty and new-route floor while there is too little feedback.
func Validity(record *models.RouteRecord, nowMs int64) float64 {
	var recent, valid, invalid int
	for _, s := range record.Surveys {
		if !isRecent(s, nowMs) {
			continue
		}
		recent++
		if s.StillValid {
			valid++
		} else {
			invalid++
		}
	}

	validity := 0.0
	if recent > 0 {
		validity = float64(valid) / float64(recent) * 100
		if invalid >= StaleReportLimit {
			validity = 0
		}
	}

	if recent < minRecentForTrust {
		days := daysSince(record.UploadDateMs, nowMs)
		validity = math.Max(0, validity-days*agePenaltyPerDay)
		if days < newRouteDays {
			validity += newRouteBonus
		}
	}

	return math.Max(0, math.Min(100, validity))
}

// StaleReports counts recent surveys reporting the route as no longer valid.
func StaleReports(record *models.RouteRecord, now time.Time) int {
	nowMs := now.UnixMilli()
	n := 0
	for _, s := range record.Surveys {
		if isRecent(s, nowMs) && !s.StillValid {
			n++
		}
	}
	return n
}

// Outdated reports whether enough recent surveys flag the route as outdated
// to override its validity.
func Outdated(record *models.RouteRecord, now time.Time) bool {
	return StaleReports(record, now) >= StaleReportLimit
}

// TagMatch rewards accessibility ratings for tags both the route and the
// searcher carry. Matched contributions are averaged, capped at 40.
func TagMatch(record *models.RouteRecord, searcherTags models.TagSet) float64 {
	total := 0.0
	matched := 0
	for _, af := range accessibilityFields {
		if !record.HasTag(af.tag) || !searcherTags.Has(af.tag) {
			continue
		}
		var ratings []float64
		for _, s := range record.Surveys {
			if v := af.field(s); v != nil {
				ratings = append(ratings, float64(*v))
			}
		}
		if len(ratings) == 0 {
			continue
		}
		total += (stat.Mean(ratings, nil) - 1) * tagWeight
		matched++
	}
	if matched == 0 {
		return 0
	}
	return math.Min(maxTagMatch, total/float64(matched))
}

// Freshness is the exponentially decaying bonus for new uploads. Highly
// trusted routes decay at half the rate.
func Freshness(daysSinceUpload, validity float64) float64 {
	decay := freshnessDecay
	if validity > trustedValidityOver {
		decay = trustedDecay
	}
	return math.Max(0, freshnessMax*math.Exp(-daysSinceUpload/decay))
}

// ViewBonus is the logarithmic popularity bonus, capped at 10.
func ViewBonus(views int64) float64 {
	if views < 0 {
		views = 0
	}
	return math.Min(viewBonusMax, math.Log10(float64(views)+1)*viewBonusFactor)
}

func ratingScore(surveys []models.SurveyResponse, rating func(models.SurveyResponse) float64, weight float64) float64 {
	if len(surveys) == 0 {
		return 0
	}
	values := make([]float64, len(surveys))
	for i, s := range surveys {
		values[i] = rating(s)
	}
	return (stat.Mean(values, nil) - 1) * weight
}

func isRecent(s models.SurveyResponse, nowMs int64) bool {
	return nowMs-s.TimestampMs < RecentWindowDays*dayMs
}

func daysSince(ms, nowMs int64) float64 {
	return float64(nowMs-ms) / float64(dayMs)
}
