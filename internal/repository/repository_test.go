package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wakana-code/station-navi-app/internal/database"
	"github.com/wakana-code/station-navi-app/internal/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func floatp(v float64) *float64 { return &v }
func intp(v int) *int           { return &v }

func newRoute(routeType, station string, uploadMs int64, tags ...models.Tag) *models.RouteRecord {
	return &models.RouteRecord{
		ID:           uuid.New().String(),
		Type:         routeType,
		Station:      station,
		Title:        models.RouteTitle(station, "JY", "JC"),
		FromLine:     "JY",
		ToLine:       "JC",
		Tags:         tags,
		UploadDateMs: uploadMs,
		Article:      "guide",
		VideoURI:     "video://" + station,
	}
}

func TestRouteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRouteRepository(setupDB(t))

	r := newRoute(models.RouteTypeTransfer, "Shinjuku", 1000, models.TagElderly, models.TagWheelchair)
	r.Latitude = floatp(35.6896)
	r.Longitude = floatp(139.7006)
	require.NoError(t, repo.Create(ctx, r))

	s1 := &models.SurveyResponse{TimestampMs: 2000, StillValid: true, Watchability: 4, RouteSatisfaction: 5, WheelchairSuitable: intp(3)}
	s2 := &models.SurveyResponse{TimestampMs: 3000, StillValid: false, Watchability: 2, RouteSatisfaction: 1}
	require.NoError(t, repo.AddSurvey(ctx, r.ID, s1))
	require.NoError(t, repo.AddSurvey(ctx, r.ID, s2))
	assert.NotZero(t, s1.ID)
	assert.Greater(t, s2.ID, s1.ID)

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	want := *r
	want.Surveys = []models.SurveyResponse{*s1, *s2}
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Fatalf("route mismatch (-want +got):\n%s", diff)
	}
}

func TestGetByIDMissing(t *testing.T) {
	repo := NewRouteRepository(setupDB(t))
	got, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListFiltersByTypeNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRouteRepository(setupDB(t))

	older := newRoute(models.RouteTypeExit, "Ueno", 1000, models.TagBaby)
	newer := newRoute(models.RouteTypeExit, "Tokyo", 5000)
	other := newRoute(models.RouteTypeTransfer, "Shibuya", 3000, models.TagShortest)
	for _, r := range []*models.RouteRecord{older, newer, other} {
		require.NoError(t, repo.Create(ctx, r))
	}
	require.NoError(t, repo.AddSurvey(ctx, older.ID, &models.SurveyResponse{TimestampMs: 1, StillValid: true, Watchability: 5, RouteSatisfaction: 5}))

	exits, err := repo.List(ctx, models.RouteTypeExit)
	require.NoError(t, err)
	require.Len(t, exits, 2)
	assert.Equal(t, newer.ID, exits[0].ID)
	assert.Equal(t, older.ID, exits[1].ID)
	assert.Equal(t, []models.Tag{models.TagBaby}, exits[1].Tags)
	assert.Len(t, exits[1].Surveys, 1)
	assert.Empty(t, exits[0].Surveys)
	assert.Nil(t, exits[0].Latitude)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, []models.Tag{models.TagShortest}, all[1].Tags)
}

func TestIncrementViews(t *testing.T) {
	ctx := context.Background()
	repo := NewRouteRepository(setupDB(t))
	r := newRoute(models.RouteTypeExit, "Ueno", 1000)
	require.NoError(t, repo.Create(ctx, r))

	for want := int64(1); want <= 3; want++ {
		got, err := repo.IncrementViews(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := repo.IncrementViews(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddSurveyUnknownRoute(t *testing.T) {
	repo := NewRouteRepository(setupDB(t))
	err := repo.AddSurvey(context.Background(), "missing", &models.SurveyResponse{Watchability: 3, RouteSatisfaction: 3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordingSaveAndPublish(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	recs := NewRecordingRepository(db)
	routes := NewRouteRepository(db)

	started := time.UnixMilli(1_700_000_000_000)
	stopped := started.Add(20 * time.Second)
	rec := &models.Recording{
		ID:           uuid.New().String(),
		InitialAngle: 12.5,
		StartedAt:    started,
		StoppedAt:    &stopped,
		Article:      "guide text",
		Events: []models.NarrationEvent{
			{EmittedAtMs: 6000, Kind: models.EventTurnRight},
			{EmittedAtMs: 13550, Kind: models.EventTurnLeft},
		},
	}
	require.NoError(t, recs.Save(ctx, rec))

	got, err := recs.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Events, got.Events)
	assert.Equal(t, rec.Article, got.Article)
	assert.True(t, got.StartedAt.Equal(started))
	require.NotNil(t, got.StoppedAt)
	assert.True(t, got.StoppedAt.Equal(stopped))
	assert.Empty(t, got.RouteID)

	route := newRoute(models.RouteTypeTransfer, "Shinjuku", stopped.UnixMilli())
	route.Article = rec.Article
	require.NoError(t, recs.Publish(ctx, rec.ID, route))

	got, err = recs.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, route.ID, got.RouteID)

	stored, err := routes.GetByID(ctx, route.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "guide text", stored.Article)

	again := newRoute(models.RouteTypeTransfer, "Shinjuku", stopped.UnixMilli())
	assert.ErrorIs(t, recs.Publish(ctx, rec.ID, again), ErrAlreadyPublished)
	assert.ErrorIs(t, recs.Publish(ctx, "missing", again), ErrNotFound)

	missing, err := recs.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
