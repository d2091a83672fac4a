package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wakana-code/station-navi-app/internal/models"
	"github.com/wakana-code/station-navi-app/internal/observe"
	"github.com/wakana-code/station-navi-app/internal/repository"
	"github.com/wakana-code/station-navi-app/internal/scoring"
)

// RouteInput is the metadata a route is published with.
type RouteInput struct {
	Type       string       `json:"type" binding:"required"`
	Station    string       `json:"station"`
	FromLine   string       `json:"from_line"`
	ToLine     string       `json:"to_line"`
	ExitNumber string       `json:"exit_number"`
	Tags       []models.Tag `json:"tags"`
	Latitude   *float64     `json:"latitude"`
	Longitude  *float64     `json:"longitude"`
	VideoURI   string       `json:"video_uri"`
}

// RouteScore is the score of one route for a given tag selection.
type RouteScore struct {
	RouteID      string                `json:"route_id"`
	Score        models.ScoreBreakdown `json:"score"`
	Outdated     bool                  `json:"outdated"`
	StaleReports int                   `json:"stale_reports"`
}

// RouteService handles business logic for published routes
type RouteService struct {
	repo    *repository.RouteRepository
	metrics *observe.Metrics
	now     func() time.Time
}

// NewRouteService creates a new route service
func NewRouteService(repo *repository.RouteRepository, metrics *observe.Metrics) *RouteService {
	return &RouteService{repo: repo, metrics: metrics, now: time.Now}
}

// Create stores a route uploaded directly with its guide text.
func (s *RouteService) Create(ctx context.Context, in RouteInput, article string) (*models.RouteRecord, error) {
	route, err := buildRoute(in, article, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, route); err != nil {
		return nil, err
	}
	s.metrics.RecordRoutePublished(ctx, "upload")
	slog.Info("route created", "component", "routes", "id", route.ID, "type", route.Type, "station", route.Station)
	return route, nil
}

// Get retrieves a route with its surveys.
func (s *RouteService) Get(ctx context.Context, id string) (*models.RouteRecord, error) {
	route, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, ErrRouteNotFound
	}
	return route, nil
}

// RecordView counts one playback and returns the new view count.
func (s *RouteService) RecordView(ctx context.Context, id string) (int64, error) {
	views, err := s.repo.IncrementViews(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrRouteNotFound
	}
	return views, err
}

// SubmitSurvey validates and appends a survey. The timestamp is always the
// server's clock.
func (s *RouteService) SubmitSurvey(ctx context.Context, routeID string, survey models.SurveyResponse) (*models.SurveyResponse, error) {
	if err := survey.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSurvey, err)
	}
	survey.ID = 0
	survey.TimestampMs = s.now().UnixMilli()

	err := s.repo.AddSurvey(ctx, routeID, &survey)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRouteNotFound
	}
	if err != nil {
		return nil, err
	}
	s.metrics.SurveysSubmitted.Add(ctx, 1)
	return &survey, nil
}

// Score evaluates a route for a searcher who selected tags.
func (s *RouteService) Score(ctx context.Context, id string, tags models.TagSet) (*RouteScore, error) {
	route, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &RouteScore{
		RouteID:      route.ID,
		Score:        scoring.Score(route, tags, now),
		Outdated:     scoring.Outdated(route, now),
		StaleReports: scoring.StaleReports(route, now),
	}, nil
}

// buildRoute validates in and turns it into a new record uploaded at now.
func buildRoute(in RouteInput, article string, now time.Time) (*models.RouteRecord, error) {
	if err := validateRouteInput(in); err != nil {
		return nil, err
	}

	var tags []models.Tag
	seen := models.TagSet{}
	for _, t := range in.Tags {
		if !seen.Has(t) {
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}

	return &models.RouteRecord{
		ID:           uuid.New().String(),
		Type:         in.Type,
		Station:      in.Station,
		Title:        models.RouteTitle(in.Station, in.FromLine, in.ToLine),
		FromLine:     in.FromLine,
		ToLine:       in.ToLine,
		ExitNumber:   in.ExitNumber,
		Tags:         tags,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Article:      article,
		VideoURI:     in.VideoURI,
		UploadDateMs: now.UnixMilli(),
	}, nil
}

func validateRouteInput(in RouteInput) error {
	var errs []error
	if !models.IsValidRouteType(in.Type) {
		errs = append(errs, fmt.Errorf("unknown route type %q", in.Type))
	}
	for _, t := range in.Tags {
		if !models.IsValidTag(t) {
			errs = append(errs, fmt.Errorf("unknown tag %q", t))
		}
	}
	if err := validatePosition(in.Latitude, in.Longitude); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRoute, errors.Join(errs...))
	}
	return nil
}

func validatePosition(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return errors.New("latitude and longitude must be given together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("latitude %v out of range", *lat)
	}
	if *lon < -180 || *lon > 180 {
		return fmt.Errorf("longitude %v out of range", *lon)
	}
	return nil
}
