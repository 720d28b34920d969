package ports

import (
	"context"
	"time"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// SampleRepository persists travel-time samples.
type SampleRepository interface {
	Insert(ctx context.Context, s *domain.TravelSample) error
	InsertBatch(ctx context.Context, samples []domain.TravelSample) error
	// ListByRoute returns samples newest first, optionally bounded below by since.
	ListByRoute(ctx context.Context, route string, since time.Time, limit, offset int) ([]domain.TravelSample, error)
	CountByRoute(ctx context.Context, route string, since time.Time) (int, error)
	Latest(ctx context.Context) ([]domain.TravelSample, error)
}
