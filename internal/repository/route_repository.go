package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wakana-code/station-navi-app/internal/database"
	"github.com/wakana-code/station-navi-app/internal/models"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

const routeColumns = `id, type, station, title, from_line, to_line, exit_number,
	latitude, longitude, article, video_uri, upload_date_ms, views`

// RouteRepository handles database operations for route records
type RouteRepository struct {
	db *sql.DB
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create inserts a route record together with its tags. Surveys on the
// record are ignored; use AddSurvey.
func (r *RouteRepository) Create(ctx context.Context, route *models.RouteRecord) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		return insertRoute(ctx, tx, route)
	})
}

func insertRoute(ctx context.Context, tx *sql.Tx, route *models.RouteRecord) error {
	query := `
		INSERT INTO routes (` + routeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		route.ID,
		route.Type,
		route.Station,
		route.Title,
		route.FromLine,
		route.ToLine,
		route.ExitNumber,
		nullFloat(route.Latitude),
		nullFloat(route.Longitude),
		route.Article,
		route.VideoURI,
		route.UploadDateMs,
		route.Views,
	)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}

	for i, tag := range route.Tags {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO route_tags (route_id, position, tag) VALUES (?, ?, ?)`,
			route.ID, i, string(tag))
		if err != nil {
			return fmt.Errorf("failed to insert route tag: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a route with its tags and surveys. It returns nil when
// the route does not exist.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*models.RouteRecord, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = ?`

	route, err := scanRoute(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	byID := map[string]*models.RouteRecord{route.ID: route}
	if err := r.loadTags(ctx, byID, `WHERE route_id = ?`, id); err != nil {
		return nil, err
	}
	if err := r.loadSurveys(ctx, byID, `WHERE route_id = ?`, id); err != nil {
		return nil, err
	}
	return route, nil
}

// List returns the catalog, newest first, with tags and surveys loaded.
// An empty routeType returns every route.
func (r *RouteRepository) List(ctx context.Context, routeType string) ([]*models.RouteRecord, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE (? = '' OR type = ?)
		ORDER BY upload_date_ms DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query, routeType, routeType)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}

	var routes []*models.RouteRecord
	byID := make(map[string]*models.RouteRecord)
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, route)
		byID[route.ID] = route
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routes: %w", err)
	}
	if len(routes) == 0 {
		return routes, nil
	}

	scope := `WHERE route_id IN (SELECT id FROM routes WHERE (? = '' OR type = ?))`
	if err := r.loadTags(ctx, byID, scope, routeType, routeType); err != nil {
		return nil, err
	}
	if err := r.loadSurveys(ctx, byID, scope, routeType, routeType); err != nil {
		return nil, err
	}
	return routes, nil
}

// IncrementViews adds one playback view and returns the new count.
func (r *RouteRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE routes SET views = views + 1 WHERE id = ? RETURNING views`, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return views, nil
}

// AddSurvey appends a survey response to a route.
func (r *RouteRepository) AddSurvey(ctx context.Context, routeID string, s *models.SurveyResponse) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM routes WHERE id = ?`, routeID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check route: %w", err)
		}

		query := `
			INSERT INTO surveys (
				route_id, timestamp_ms, still_valid, watchability, route_satisfaction,
				wheelchair_suitable, physically_easy
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		result, err := tx.ExecContext(ctx, query,
			routeID,
			s.TimestampMs,
			s.StillValid,
			s.Watchability,
			s.RouteSatisfaction,
			nullInt(s.WheelchairSuitable),
			nullInt(s.PhysicallyEasy),
		)
		if err != nil {
			return fmt.Errorf("failed to insert survey: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		s.ID = id
		return nil
	})
}

func (r *RouteRepository) loadTags(ctx context.Context, byID map[string]*models.RouteRecord, where string, args ...any) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT route_id, tag FROM route_tags `+where+` ORDER BY route_id, position`, args...)
	if err != nil {
		return fmt.Errorf("failed to query route tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var routeID, tag string
		if err := rows.Scan(&routeID, &tag); err != nil {
			return fmt.Errorf("failed to scan route tag: %w", err)
		}
		if route, ok := byID[routeID]; ok {
			route.Tags = append(route.Tags, models.Tag(tag))
		}
	}
	return rows.Err()
}

func (r *RouteRepository) loadSurveys(ctx context.Context, byID map[string]*models.RouteRecord, where string, args ...any) error {
	query := `
		SELECT route_id, id, timestamp_ms, still_valid, watchability, route_satisfaction,
			   wheelchair_suitable, physically_easy
		FROM surveys ` + where + `
		ORDER BY route_id, id
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query surveys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			routeID          string
			s                models.SurveyResponse
			wheelchair, easy sql.NullInt64
		)
		err := rows.Scan(&routeID, &s.ID, &s.TimestampMs, &s.StillValid, &s.Watchability,
			&s.RouteSatisfaction, &wheelchair, &easy)
		if err != nil {
			return fmt.Errorf("failed to scan survey: %w", err)
		}
		s.WheelchairSuitable = intPtr(wheelchair)
		s.PhysicallyEasy = intPtr(easy)
		if route, ok := byID[routeID]; ok {
			route.Surveys = append(route.Surveys, s)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*models.RouteRecord, error) {
	route := &models.RouteRecord{}
	var lat, lon sql.NullFloat64
	err := row.Scan(
		&route.ID,
		&route.Type,
		&route.Station,
		&route.Title,
		&route.FromLine,
		&route.ToLine,
		&route.ExitNumber,
		&lat,
		&lon,
		&route.Article,
		&route.VideoURI,
		&route.UploadDateMs,
		&route.Views,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		route.Latitude = &lat.Float64
	}
	if lon.Valid {
		route.Longitude = &lon.Float64
	}
	return route, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
