// Package search filters a route catalog for a searcher and orders the
// matches by score.
package search

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/wakana-code/station-navi-app/internal/models"
	"github.com/wakana-code/station-navi-app/internal/scoring"
	"github.com/wakana-code/station-navi-app/internal/spatial"
)

// Normalize lowercases s and removes all whitespace, so "Shinjuku " and
// "shin juku" compare equal.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

func containsNormalized(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(Normalize(haystack), Normalize(needle))
}

// Match reports whether r satisfies the filter's text, tag and proximity
// constraints.
func Match(r *models.RouteRecord, f models.RouteFilter, tags models.TagSet) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if !containsNormalized(r.Station, f.Station) ||
		!containsNormalized(r.FromLine, f.FromLine) ||
		!containsNormalized(r.ToLine, f.ToLine) ||
		!containsNormalized(r.ExitNumber, f.ExitNumber) {
		return false
	}

	// shortest asks for plain routes: no accessibility detours.
	if tags.Has(models.TagShortest) {
		if r.HasTag(models.TagWheelchair) || r.HasTag(models.TagElderly) || r.HasTag(models.TagBaby) {
			return false
		}
	}
	for tag := range tags {
		if tag == models.TagShortest {
			continue
		}
		if !r.HasTag(tag) {
			return false
		}
	}

	if f.HasProximity() {
		if r.Latitude == nil || r.Longitude == nil {
			return false
		}
		if !spatial.WithinRadius(*f.Latitude, *f.Longitude, *r.Latitude, *r.Longitude, f.RadiusM) {
			return false
		}
	}
	return true
}

// Rank filters candidates, scores each match at now and returns them sorted
// by total score, highest first. Equal scores keep catalog order.
func Rank(ctx context.Context, candidates []*models.RouteRecord, f models.RouteFilter, now time.Time) ([]models.RankedRoute, error) {
	tags := f.SelectedTags()

	var matches []*models.RouteRecord
	for _, r := range candidates {
		if Match(r, f, tags) {
			matches = append(matches, r)
		}
	}

	ranked := make([]models.RankedRoute, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, r := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ranked[i] = models.RankedRoute{
				Route:    r,
				Score:    scoring.Score(r, tags, now),
				Outdated: scoring.Outdated(r, now),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Total > ranked[j].Score.Total
	})

	if f.Limit > 0 && len(ranked) > f.Limit {
		ranked = ranked[:f.Limit]
	}
	return ranked, nil
}
