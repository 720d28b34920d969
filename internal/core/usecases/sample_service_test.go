package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/core/usecases"
)

func TestSampleService_Record(t *testing.T) {
	repo := &mockSampleRepo{}
	svc := usecases.NewSampleService(repo)

	err := svc.Record(context.Background(), &domain.TravelSample{ID: "s1", Route: "r", TotalSeconds: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].ID != "s1" {
		t.Errorf("unexpected inserts %+v", repo.inserted)
	}
}

func TestSampleService_Record_Invalid(t *testing.T) {
	repo := &mockSampleRepo{}
	svc := usecases.NewSampleService(repo)

	err := svc.Record(context.Background(), &domain.TravelSample{Route: "r"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Error("invalid sample inserted")
	}
}

func TestSampleService_Record_RepoError(t *testing.T) {
	boom := errors.New("boom")
	svc := usecases.NewSampleService(&mockSampleRepo{insertErr: boom})

	err := svc.Record(context.Background(), &domain.TravelSample{ID: "s1", Route: "r"})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped repo error, got %v", err)
	}
}

func TestSampleService_History_ClampLimit(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockSampleRepo{
		listFn: func(_ context.Context, route string, s time.Time, limit, offset int) ([]domain.TravelSample, error) {
			if route != "r" || !s.Equal(since) {
				t.Errorf("unexpected args %q %v", route, s)
			}
			if limit != 100 {
				t.Errorf("expected limit clamped to 100, got %d", limit)
			}
			if offset != 0 {
				t.Errorf("expected offset 0, got %d", offset)
			}
			return []domain.TravelSample{{ID: "a"}, {ID: "b"}}, nil
		},
		countFn: func(context.Context, string, time.Time) (int, error) { return 42, nil },
	}
	svc := usecases.NewSampleService(repo)

	samples, total, err := svc.History(context.Background(), " r ", since, 9999, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 || total != 42 {
		t.Errorf("unexpected result %d/%d", len(samples), total)
	}
}

func TestSampleService_History_RouteRequired(t *testing.T) {
	svc := usecases.NewSampleService(&mockSampleRepo{})
	_, _, err := svc.History(context.Background(), "", time.Time{}, 10, 0)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
