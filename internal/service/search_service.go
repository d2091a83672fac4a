package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wakana-code/station-navi-app/internal/models"
	"github.com/wakana-code/station-navi-app/internal/observe"
	"github.com/wakana-code/station-navi-app/internal/repository"
	"github.com/wakana-code/station-navi-app/internal/search"
)

// MaxSearchLimit caps the number of results a single search returns.
const MaxSearchLimit = 100

// SearchService ranks the route catalog for a searcher
type SearchService struct {
	repo    *repository.RouteRepository
	metrics *observe.Metrics
	now     func() time.Time
}

// NewSearchService creates a new search service
func NewSearchService(repo *repository.RouteRepository, metrics *observe.Metrics) *SearchService {
	return &SearchService{repo: repo, metrics: metrics, now: time.Now}
}

// Search returns the routes matching filter, best first.
func (s *SearchService) Search(ctx context.Context, filter models.RouteFilter) ([]models.RankedRoute, error) {
	start := time.Now()
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > MaxSearchLimit {
		filter.Limit = MaxSearchLimit
	}

	candidates, err := s.repo.List(ctx, filter.Type)
	if err != nil {
		return nil, err
	}

	ranked, err := search.Rank(ctx, candidates, filter, s.now())
	if err != nil {
		return nil, err
	}
	if ranked == nil {
		ranked = []models.RankedRoute{}
	}

	s.metrics.SearchDuration.Record(ctx, time.Since(start).Seconds())
	s.metrics.SearchResults.Record(ctx, int64(len(ranked)))
	return ranked, nil
}

func validateFilter(f models.RouteFilter) error {
	var errs []error
	if f.Type != "" && !models.IsValidRouteType(f.Type) {
		errs = append(errs, fmt.Errorf("unknown route type %q", f.Type))
	}
	for tag := range f.SelectedTags() {
		if !models.IsValidTag(tag) {
			errs = append(errs, fmt.Errorf("unknown tag %q", tag))
		}
	}
	if err := validatePosition(f.Latitude, f.Longitude); err != nil {
		errs = append(errs, err)
	}
	if f.RadiusM < 0 {
		errs = append(errs, errors.New("radius_m must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidFilter, errors.Join(errs...))
	}
	return nil
}
