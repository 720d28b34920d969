package ports

import (
	"context"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// MapService is the live-map client surface used by the use cases.
type MapService interface {
	PlanRoute(ctx context.Context, req domain.RoutePlanRequest) (*domain.TravelPlan, error)
	GeocodeNear(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error)
	Venue(ctx context.Context, id string) (*domain.Venue, error)
	Reviews(ctx context.Context, placeID string) (*domain.Reviews, error)
	Locale() domain.Locale
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSample(ctx context.Context, s *domain.TravelSample) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSamples(ctx context.Context, handler func(ctx context.Context, s *domain.TravelSample) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
