package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/core/ports"
)

// SampleService stores and queries recorded travel samples.
type SampleService struct {
	samples ports.SampleRepository
}

// NewSampleService creates a new SampleService.
func NewSampleService(samples ports.SampleRepository) *SampleService {
	return &SampleService{samples: samples}
}

// Record stores a sample delivered by the poller.
func (s *SampleService) Record(ctx context.Context, sample *domain.TravelSample) error {
	if sample.ID == "" || sample.Route == "" {
		return &domain.ValidationError{Field: "sample", Reason: "id and route are required"}
	}
	if err := s.samples.Insert(ctx, sample); err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// History returns a page of samples for route, newest first, and the total count.
func (s *SampleService) History(ctx context.Context, route string, since time.Time, limit, offset int) ([]domain.TravelSample, int, error) {
	route = strings.TrimSpace(route)
	if route == "" {
		return nil, 0, &domain.ValidationError{Field: "route", Reason: "required"}
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	samples, err := s.samples.ListByRoute(ctx, route, since, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.samples.CountByRoute(ctx, route, since)
	if err != nil {
		return nil, 0, err
	}
	return samples, total, nil
}

// Latest returns the most recent sample of every route.
func (s *SampleService) Latest(ctx context.Context) ([]domain.TravelSample, error) {
	return s.samples.Latest(ctx)
}
