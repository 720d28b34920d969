package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/core/usecases"
)

// SamplingActivities holds the activity implementations for the sampling workflow.
type SamplingActivities struct {
	Travel  *usecases.TravelService
	Samples *usecases.SampleService // nil leaves persistence to the recorder
}

// SampleRoute plans route against the live map and publishes the observation.
func (a *SamplingActivities) SampleRoute(ctx context.Context, route domain.WatchedRoute) (*domain.TravelSample, error) {
	return a.Travel.Sample(ctx, route)
}

// RecordSample stores a sample. Inserts are idempotent on the sample ID, so a
// sample the recorder already stored is not duplicated.
func (a *SamplingActivities) RecordSample(ctx context.Context, s *domain.TravelSample) error {
	if a.Samples == nil {
		slog.DebugContext(ctx, "no sample store, skipping record", "id", s.ID)
		return nil
	}
	if err := a.Samples.Record(ctx, s); err != nil {
		return fmt.Errorf("record sample %s: %w", s.ID, err)
	}
	return nil
}
