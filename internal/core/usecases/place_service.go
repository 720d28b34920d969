package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/core/ports"
)

const (
	geocodeTTL = 600
	venueTTL   = 3600
	reviewsTTL = 3600
)

// PlaceService handles geocoding, venue and review lookups.
type PlaceService struct {
	maps  ports.MapService
	cache ports.CacheService
}

// NewPlaceService creates a new PlaceService.
func NewPlaceService(maps ports.MapService, cache ports.CacheService) *PlaceService {
	return &PlaceService{maps: maps, cache: cache}
}

// Geocode searches for query within radiusKm of loc, falling back to the
// client locale when loc is unset.
func (s *PlaceService) Geocode(ctx context.Context, query string, loc domain.Locale, radiusKm float64) ([]domain.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Field: "q", Reason: "required"}
	}
	if loc.IsZero() {
		loc = s.maps.Locale()
	}
	center, err := loc.Resolve()
	if err != nil {
		return nil, err
	}
	if radiusKm == 0 {
		radiusKm = domain.DefaultSearchRadiusKm
	}

	key := fmt.Sprintf("geocode:%.4f:%.4f:%.1f:%s", center.Latitude, center.Longitude, radiusKm, strings.ToLower(query))
	return cached(ctx, s.cache, "geocode", key, geocodeTTL, func() ([]domain.Location, error) {
		return s.maps.GeocodeNear(ctx, domain.LocaleAt(center), query, radiusKm)
	})
}

// Venue returns venue details.
func (s *PlaceService) Venue(ctx context.Context, id string) (*domain.Venue, error) {
	id = domain.StripVenuePrefix(id)
	if id == "" {
		return nil, &domain.ValidationError{Field: "venueId", Reason: "required"}
	}
	return cached(ctx, s.cache, "venue", "venue:"+id, venueTTL, func() (*domain.Venue, error) {
		return s.maps.Venue(ctx, id)
	})
}

// Reviews returns the reviews for a Google place ID.
func (s *PlaceService) Reviews(ctx context.Context, placeID string) (*domain.Reviews, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, &domain.ValidationError{Field: "placeId", Reason: "required"}
	}
	return cached(ctx, s.cache, "reviews", "reviews:"+placeID, reviewsTTL, func() (*domain.Reviews, error) {
		return s.maps.Reviews(ctx, placeID)
	})
}

// VenueReviews resolves a venue and returns its reviews. Venues without a
// Google place ID have none.
func (s *PlaceService) VenueReviews(ctx context.Context, venueID string) (*domain.Reviews, error) {
	v, err := s.Venue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if v.GooglePlaceID == "" {
		return &domain.Reviews{Reviews: []domain.Review{}}, nil
	}
	return s.Reviews(ctx, v.GooglePlaceID)
}
