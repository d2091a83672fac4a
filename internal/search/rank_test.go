package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wakana-code/station-navi-app/internal/models"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

func route(id, station string, tags ...models.Tag) *models.RouteRecord {
	return &models.RouteRecord{
		ID:           id,
		Type:         models.RouteTypeTransfer,
		Station:      station,
		FromLine:     "JR Yamanote Line",
		ToLine:       "Marunouchi Line",
		Tags:         tags,
		UploadDateMs: now.Add(-100 * 24 * time.Hour).UnixMilli(),
	}
}

func ids(ranked []models.RankedRoute) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Route.ID
	}
	return out
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "shinjuku", Normalize(" Shin juku\t"))
	assert.Equal(t, "新宿駅", Normalize("新宿 駅"))
}

func TestMatchTextFilters(t *testing.T) {
	r := route("a", "Shinjuku")

	assert.True(t, Match(r, models.RouteFilter{Station: "shin JUKU"}, nil))
	assert.True(t, Match(r, models.RouteFilter{FromLine: "yamanote"}, nil))
	assert.False(t, Match(r, models.RouteFilter{Station: "shibuya"}, nil))
	assert.False(t, Match(r, models.RouteFilter{Type: models.RouteTypeExit}, nil))
	assert.True(t, Match(r, models.RouteFilter{Type: models.RouteTypeTransfer, ToLine: "marunouchi"}, nil))
}

func TestMatchTags(t *testing.T) {
	plain := route("plain", "Shinjuku")
	wheel := route("wheel", "Shinjuku", models.TagWheelchair)
	both := route("both", "Shinjuku", models.TagWheelchair, models.TagElderly)

	sel := models.NewTagSet(models.TagWheelchair)
	assert.False(t, Match(plain, models.RouteFilter{}, sel))
	assert.True(t, Match(wheel, models.RouteFilter{}, sel))
	assert.True(t, Match(both, models.RouteFilter{}, sel))

	sel = models.NewTagSet(models.TagWheelchair, models.TagElderly)
	assert.False(t, Match(wheel, models.RouteFilter{}, sel))
	assert.True(t, Match(both, models.RouteFilter{}, sel))

	shortest := models.NewTagSet(models.TagShortest)
	assert.True(t, Match(plain, models.RouteFilter{}, shortest))
	assert.False(t, Match(wheel, models.RouteFilter{}, shortest))
	assert.False(t, Match(route("baby", "Shinjuku", models.TagBaby), models.RouteFilter{}, shortest))
}

func TestMatchProximity(t *testing.T) {
	near := route("near", "Shinjuku")
	near.Latitude, near.Longitude = fp(35.6896), fp(139.7006)
	far := route("far", "Shibuya")
	far.Latitude, far.Longitude = fp(35.6580), fp(139.7016)
	unknown := route("unknown", "Somewhere")

	f := models.RouteFilter{Latitude: fp(35.6900), Longitude: fp(139.7000), RadiusM: 500}
	assert.True(t, Match(near, f, nil))
	assert.False(t, Match(far, f, nil))
	assert.False(t, Match(unknown, f, nil))

	f.RadiusM = 0
	assert.True(t, Match(unknown, f, nil), "radius 0 disables proximity")
}

func TestRankOrdersByTotalDescending(t *testing.T) {
	popular := route("popular", "Shinjuku")
	popular.Views = 1000
	quiet := route("quiet", "Shinjuku")
	fresh := route("fresh", "Shinjuku")
	fresh.UploadDateMs = now.UnixMilli()
	other := route("other", "Shibuya")

	ranked, err := Rank(context.Background(),
		[]*models.RouteRecord{quiet, popular, other, fresh},
		models.RouteFilter{Station: "shinjuku"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "popular", "quiet"}, ids(ranked))
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score.Total, ranked[i].Score.Total)
	}
}

func TestRankTiesKeepCatalogOrder(t *testing.T) {
	var catalog []*models.RouteRecord
	for _, id := range []string{"c", "a", "d", "b"} {
		catalog = append(catalog, route(id, "Ueno"))
	}
	ranked, err := Rank(context.Background(), catalog, models.RouteFilter{}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "d", "b"}, ids(ranked))

	ranked, err = Rank(context.Background(), catalog, models.RouteFilter{Limit: 2}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(ranked))
}

func TestRankFlagsOutdatedRoutes(t *testing.T) {
	r := route("stale", "Ikebukuro")
	for i := 0; i < 3; i++ {
		r.Surveys = append(r.Surveys, models.SurveyResponse{
			TimestampMs:       now.Add(-time.Hour).UnixMilli(),
			Watchability:      3,
			RouteSatisfaction: 3,
		})
	}
	ranked, err := Rank(context.Background(), []*models.RouteRecord{r}, models.RouteFilter{}, now)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.True(t, ranked[0].Outdated)
	assert.Zero(t, ranked[0].Score.Validity)
}

func TestRankCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Rank(ctx, []*models.RouteRecord{route("a", "Ueno")}, models.RouteFilter{}, now)
	assert.ErrorIs(t, err, context.Canceled)
}
