package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// --- Mock MapService ---

type mockMaps struct {
	locale     domain.Locale
	planFn     func(ctx context.Context, req domain.RoutePlanRequest) (*domain.TravelPlan, error)
	geocodeFn  func(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error)
	venueFn    func(ctx context.Context, id string) (*domain.Venue, error)
	reviewsFn  func(ctx context.Context, placeID string) (*domain.Reviews, error)
	planCalls  int
	venueCalls int
}

func (m *mockMaps) Locale() domain.Locale { return m.locale }

func (m *mockMaps) PlanRoute(ctx context.Context, req domain.RoutePlanRequest) (*domain.TravelPlan, error) {
	m.planCalls++
	if m.planFn != nil {
		return m.planFn(ctx, req)
	}
	return &domain.TravelPlan{Src: req.From, Dst: req.To}, nil
}

func (m *mockMaps) GeocodeNear(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, loc, query, radiusKm)
	}
	return nil, nil
}

func (m *mockMaps) Venue(ctx context.Context, id string) (*domain.Venue, error) {
	m.venueCalls++
	if m.venueFn != nil {
		return m.venueFn(ctx, id)
	}
	return &domain.Venue{ID: id}, nil
}

func (m *mockMaps) Reviews(ctx context.Context, placeID string) (*domain.Reviews, error) {
	if m.reviewsFn != nil {
		return m.reviewsFn(ctx, placeID)
	}
	return &domain.Reviews{}, nil
}

// --- Mock CacheService ---

var errMiss = errors.New("cache miss")

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	published []*domain.TravelSample
	err       error
}

func (m *mockPublisher) PublishSample(_ context.Context, s *domain.TravelSample) error {
	m.published = append(m.published, s)
	return m.err
}

// --- Mock SampleRepository ---

type mockSampleRepo struct {
	inserted  []domain.TravelSample
	insertErr error
	listFn    func(ctx context.Context, route string, since time.Time, limit, offset int) ([]domain.TravelSample, error)
	countFn   func(ctx context.Context, route string, since time.Time) (int, error)
	latestFn  func(ctx context.Context) ([]domain.TravelSample, error)
}

func (m *mockSampleRepo) Insert(_ context.Context, s *domain.TravelSample) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, *s)
	return nil
}

func (m *mockSampleRepo) InsertBatch(_ context.Context, samples []domain.TravelSample) error {
	m.inserted = append(m.inserted, samples...)
	return nil
}

func (m *mockSampleRepo) ListByRoute(ctx context.Context, route string, since time.Time, limit, offset int) ([]domain.TravelSample, error) {
	if m.listFn != nil {
		return m.listFn(ctx, route, since, limit, offset)
	}
	return nil, nil
}

func (m *mockSampleRepo) CountByRoute(ctx context.Context, route string, since time.Time) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, route, since)
	}
	return 0, nil
}

func (m *mockSampleRepo) Latest(ctx context.Context) ([]domain.TravelSample, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx)
	}
	return nil, nil
}
