package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/core/ports"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/metrics"
)

// planTTL is short because plans carry live traffic.
const planTTL = 60

// TravelService plans routes and samples travel times for watched routes.
type TravelService struct {
	maps      ports.MapService
	cache     ports.CacheService
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewTravelService creates a new TravelService. publisher may be nil when
// samples are not broadcast.
func NewTravelService(maps ports.MapService, cache ports.CacheService, publisher ports.EventPublisher) *TravelService {
	return &TravelService{maps: maps, cache: cache, publisher: publisher, now: time.Now}
}

// Plan returns the fastest route from src to dst.
func (s *TravelService) Plan(ctx context.Context, src, dst domain.Coordinate) (*domain.TravelPlan, error) {
	req := domain.NewRoutePlanRequest(src, dst)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("plan:%.5f:%.5f:%.5f:%.5f", src.Latitude, src.Longitude, dst.Latitude, dst.Longitude)
	plan, err := cached(ctx, s.cache, "plan", key, planTTL, func() (*domain.TravelPlan, error) {
		return s.maps.PlanRoute(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	// the cache key ignores endpoint names
	plan.Src, plan.Dst = src, dst
	return plan, nil
}

// Sample plans a watched route, bypassing the cache, and publishes the
// resulting observation.
func (s *TravelService) Sample(ctx context.Context, route domain.WatchedRoute) (*domain.TravelSample, error) {
	plan, err := s.maps.PlanRoute(ctx, domain.NewRoutePlanRequest(route.From, route.To))
	if err != nil {
		metrics.SampleErrors.WithLabelValues(route.Name).Inc()
		return nil, fmt.Errorf("sample %s: %w", route.Name, err)
	}

	sample := NewSample(route, plan, s.now())
	metrics.SamplesTaken.WithLabelValues(route.Name).Inc()
	metrics.SampleTravelSeconds.WithLabelValues(route.Name).Set(float64(sample.TotalSeconds))

	if s.publisher != nil {
		if err := s.publisher.PublishSample(ctx, sample); err != nil {
			slog.WarnContext(ctx, "publish sample failed", "route", route.Name, "error", err)
		}
	}
	return sample, nil
}

// NewSample summarises plan as an observation of route taken at t.
func NewSample(route domain.WatchedRoute, plan *domain.TravelPlan, t time.Time) *domain.TravelSample {
	return &domain.TravelSample{
		ID:                uuid.NewString(),
		Route:             route.Name,
		RouteName:         plan.RouteName,
		Src:               route.From,
		Dst:               route.To,
		TotalSeconds:      plan.TotalSeconds,
		TotalLengthMeters: plan.TotalLengthMeters,
		IsToll:            plan.IsToll,
		TollPrice:         plan.TollPrice,
		AlertCount:        len(plan.Alerts),
		SampledAt:         t.UTC(),
	}
}
