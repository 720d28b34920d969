package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/hewliyang/waze-traffic-api/internal/adapters/http"
	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/core/usecases"
)

// ---- Mocks ----

type mockMaps struct {
	locale    domain.Locale
	planFn    func(ctx context.Context, req domain.RoutePlanRequest) (*domain.TravelPlan, error)
	geocodeFn func(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error)
	venueFn   func(ctx context.Context, id string) (*domain.Venue, error)
	reviewsFn func(ctx context.Context, placeID string) (*domain.Reviews, error)
}

func (m *mockMaps) Locale() domain.Locale { return m.locale }

func (m *mockMaps) PlanRoute(ctx context.Context, req domain.RoutePlanRequest) (*domain.TravelPlan, error) {
	if m.planFn != nil {
		return m.planFn(ctx, req)
	}
	return &domain.TravelPlan{}, nil
}

func (m *mockMaps) GeocodeNear(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, loc, query, radiusKm)
	}
	return []domain.Location{}, nil
}

func (m *mockMaps) Venue(ctx context.Context, id string) (*domain.Venue, error) {
	if m.venueFn != nil {
		return m.venueFn(ctx, id)
	}
	return &domain.Venue{ID: id}, nil
}

func (m *mockMaps) Reviews(ctx context.Context, placeID string) (*domain.Reviews, error) {
	if m.reviewsFn != nil {
		return m.reviewsFn(ctx, placeID)
	}
	return &domain.Reviews{Reviews: []domain.Review{}}, nil
}

type mockSampleRepo struct {
	listFn   func(ctx context.Context, route string, since time.Time, limit, offset int) ([]domain.TravelSample, error)
	countFn  func(ctx context.Context, route string, since time.Time) (int, error)
	latestFn func(ctx context.Context) ([]domain.TravelSample, error)
}

func (m *mockSampleRepo) Insert(ctx context.Context, s *domain.TravelSample) error { return nil }
func (m *mockSampleRepo) InsertBatch(ctx context.Context, s []domain.TravelSample) error {
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

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(maps *mockMaps, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	if maps == nil {
		maps = &mockMaps{}
	}
	d := &handler.Dependencies{
		Places: usecases.NewPlaceService(maps, nil),
		Travel: usecases.NewTravelService(maps, nil, nil),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

type apiError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func decodeError(t *testing.T, body io.Reader) apiError {
	t.Helper()
	var e apiError
	if err := json.NewDecoder(body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

// ---- Geocode ----

func TestGeocode_Success(t *testing.T) {
	var gotLoc domain.Locale
	var gotRadius float64
	maps := &mockMaps{
		geocodeFn: func(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error) {
			gotLoc, gotRadius = loc, radiusKm
			return []domain.Location{
				{Name: "The Star Vista", VenueID: "venues.123", LatLng: domain.Coordinate{Latitude: 1.3068, Longitude: 103.7884}},
			}, nil
		},
	}
	app := setupApp(makeDeps(maps))

	req := httptest.NewRequest("GET", "/v1/geocode?q=star+vista&locale=SG&radius_km=50", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var locs []struct {
		Name    string `json:"name"`
		VenueID string `json:"venue_id"`
		LatLng  struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"lat_lng"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&locs); err != nil {
		t.Fatal(err)
	}
	if len(locs) != 1 || locs[0].VenueID != "venues.123" {
		t.Fatalf("unexpected locations: %+v", locs)
	}
	if locs[0].LatLng.Y != 1.3068 || locs[0].LatLng.X != 103.7884 {
		t.Errorf("unexpected coordinate: %+v", locs[0].LatLng)
	}
	if gotLoc.Point == nil || gotLoc.Point.Latitude != 1.3521 {
		t.Errorf("expected Singapore centre, got %+v", gotLoc)
	}
	if gotRadius != 50 {
		t.Errorf("expected radius 50, got %v", gotRadius)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestGeocode_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/geocode?locale=SG", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	e := decodeError(t, resp.Body)
	if e.Code != "bad_request" {
		t.Errorf("expected bad_request, got %s", e.Code)
	}
	if e.RequestID == "" {
		t.Error("expected request_id in error body")
	}
}

func TestGeocode_LocaleRequired(t *testing.T) {
	app := setupApp(makeDeps(&mockMaps{}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/geocode?q=vista", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if e := decodeError(t, resp.Body); e.Code != "locale_required" {
		t.Errorf("expected locale_required, got %s", e.Code)
	}
}

func TestGeocode_FallsBackToClientLocale(t *testing.T) {
	called := false
	maps := &mockMaps{
		locale: domain.LocaleIn(domain.Malaysia),
		geocodeFn: func(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error) {
			called = true
			if loc.Point == nil || loc.Point.Latitude != 3.1390 {
				t.Errorf("expected Malaysia centre, got %+v", loc)
			}
			if radiusKm != domain.DefaultSearchRadiusKm {
				t.Errorf("expected default radius, got %v", radiusKm)
			}
			return []domain.Location{}, nil
		},
	}
	app := setupApp(makeDeps(maps))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/geocode?q=subang", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !called {
		t.Error("geocoder not called")
	}
}

func TestGeocode_BadInputs(t *testing.T) {
	app := setupApp(makeDeps(nil))

	for _, path := range []string{
		"/v1/geocode?q=vista&locale=XX",
		"/v1/geocode?q=vista&locale=SG&radius_km=5000",
		"/v1/geocode?q=vista&locale=91,0",
		"/v1/geocode?q=" + strings.Repeat("a", 201) + "&locale=SG",
	} {
		resp, _ := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestGeocode_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"server error", &domain.TransportError{Method: "GET", URL: "/x", StatusCode: 503, Attempts: 4}, 502, "upstream_error"},
		{"not found", &domain.TransportError{Method: "GET", URL: "/x", StatusCode: 404, Attempts: 1}, 404, "not_found"},
		{"timeout", &domain.TransportError{Method: "GET", URL: "/x", Attempts: 1, Err: context.DeadlineExceeded}, 504, "upstream_timeout"},
		{"bad payload", fmt.Errorf("%w: %w", domain.ErrInvalidResponse, &domain.ValidationError{Field: "venueId", Reason: "required"}), 502, "upstream_protocol"},
		{"unexpected", errors.New("boom"), 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maps := &mockMaps{
				geocodeFn: func(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error) {
					return nil, tt.err
				},
			}
			app := setupApp(makeDeps(maps))

			resp, _ := app.Test(httptest.NewRequest("GET", "/v1/geocode?q=vista&locale=SG", nil), -1)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if e := decodeError(t, resp.Body); e.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, e.Code)
			}
		})
	}
}

// ---- Venues & reviews ----

func TestGetVenue_StripsPrefix(t *testing.T) {
	var gotID string
	maps := &mockMaps{
		venueFn: func(ctx context.Context, id string) (*domain.Venue, error) {
			gotID = id
			return &domain.Venue{ID: id, Name: "The Star Vista"}, nil
		},
	}
	app := setupApp(makeDeps(maps))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/venues/venues.123", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotID != "123" {
		t.Errorf("expected stripped id 123, got %q", gotID)
	}

	var v domain.Venue
	json.NewDecoder(resp.Body).Decode(&v)
	if v.Name != "The Star Vista" {
		t.Errorf("unexpected venue: %+v", v)
	}
}

func TestVenueReviews_NoPlaceID(t *testing.T) {
	reviewsCalled := false
	maps := &mockMaps{
		reviewsFn: func(ctx context.Context, placeID string) (*domain.Reviews, error) {
			reviewsCalled = true
			return nil, nil
		},
	}
	app := setupApp(makeDeps(maps))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/venues/123/reviews", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if reviewsCalled {
		t.Error("reviews should not be fetched without a place ID")
	}
	if body := string(readBody(t, resp.Body)); body != `{"reviews":[]}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestVenueReviews_Success(t *testing.T) {
	maps := &mockMaps{
		venueFn: func(ctx context.Context, id string) (*domain.Venue, error) {
			return &domain.Venue{ID: id, GooglePlaceID: "ChIJ123"}, nil
		},
		reviewsFn: func(ctx context.Context, placeID string) (*domain.Reviews, error) {
			if placeID != "ChIJ123" {
				t.Errorf("unexpected place id %q", placeID)
			}
			return &domain.Reviews{
				Reviews: []domain.Review{{AuthorName: "Ann", Rating: 5, Text: "Nice"}},
				Ratings: &domain.Ratings{Average: 4.5, Counts: []int{1, 0, 0, 3, 10}},
			}, nil
		},
	}
	app := setupApp(makeDeps(maps))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/venues/123/reviews", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var r domain.Reviews
	json.NewDecoder(resp.Body).Decode(&r)
	if len(r.Reviews) != 1 || r.Ratings == nil || r.Ratings.Average != 4.5 {
		t.Errorf("unexpected reviews: %+v", r)
	}
}

func TestPlaceReviews_Success(t *testing.T) {
	maps := &mockMaps{
		reviewsFn: func(ctx context.Context, placeID string) (*domain.Reviews, error) {
			return &domain.Reviews{Reviews: []domain.Review{{AuthorName: placeID}}}, nil
		},
	}
	app := setupApp(makeDeps(maps))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places/ChIJ9/reviews", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var r domain.Reviews
	json.NewDecoder(resp.Body).Decode(&r)
	if len(r.Reviews) != 1 || r.Reviews[0].AuthorName != "ChIJ9" {
		t.Errorf("unexpected reviews: %+v", r)
	}
}

// ---- Plan ----

func samplePlan() *domain.TravelPlan {
	return &domain.TravelPlan{
		RouteName:         "AYE",
		TotalSeconds:      5430,
		TotalLengthMeters: 12345,
		IsFastest:         true,
		GeoPath:           []domain.Coordinate{{Latitude: 1.3, Longitude: 103.7}},
	}
}

func TestPlan_GetSuccess(t *testing.T) {
	var got domain.RoutePlanRequest
	maps := &mockMaps{
		planFn: func(ctx context.Context, req domain.RoutePlanRequest) (*domain.TravelPlan, error) {
			got = req
			return samplePlan(), nil
		},
	}
	app := setupApp(makeDeps(maps))

	req := httptest.NewRequest("GET", "/v1/plan?from_lat=1.3068&from_lon=103.7884&to_lat=3.0815&to_lon=101.5851", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if got.From.Latitude != 1.3068 || got.To.Longitude != 101.5851 {
		t.Errorf("unexpected request %+v", got)
	}
	if got.PathCount != 1 {
		t.Errorf("expected single path, got %d", got.PathCount)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private, max-age=60" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}

	var plan struct {
		RouteName    string `json:"route_name"`
		TotalSeconds int    `json:"total_seconds"`
		Src          struct {
			Y float64 `json:"y"`
		} `json:"src"`
	}
	json.NewDecoder(resp.Body).Decode(&plan)
	if plan.RouteName != "AYE" || plan.TotalSeconds != 5430 {
		t.Errorf("unexpected plan %+v", plan)
	}
	if plan.Src.Y != 1.3068 {
		t.Errorf("expected src latitude 1.3068, got %v", plan.Src.Y)
	}
}

func TestPlan_GetBadParams(t *testing.T) {
	app := setupApp(makeDeps(nil))

	for _, path := range []string{
		"/v1/plan",
		"/v1/plan?from_lat=1.3&from_lon=103.7",
		"/v1/plan?from_lat=abc&from_lon=103.7&to_lat=3&to_lon=101",
		"/v1/plan?from_lat=95&from_lon=103.7&to_lat=3&to_lon=101",
		"/v1/plan?from_lat=1.3&from_lon=103.7&to_lat=3&to_lon=181",
	} {
		resp, _ := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestPlan_PostAcceptsAnyCoordinateSpelling(t *testing.T) {
	var got domain.RoutePlanRequest
	maps := &mockMaps{
		planFn: func(ctx context.Context, req domain.RoutePlanRequest) (*domain.TravelPlan, error) {
			got = req
			return samplePlan(), nil
		},
	}
	app := setupApp(makeDeps(maps))

	body := `{"from":{"lat":1.3068,"lng":103.7884},"to":{"y":3.0815,"x":101.5851}}`
	req := httptest.NewRequest("POST", "/v1/plan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if got.From.Longitude != 103.7884 || got.To.Latitude != 3.0815 {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestPlan_PostMissingEndpoint(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("POST", "/v1/plan", strings.NewReader(`{"from":{"lat":1,"lng":2}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlan_UpstreamProtocolErrors(t *testing.T) {
	for _, upstreamErr := range []error{
		domain.ErrEmptyResponse,
		domain.ErrMissingPlan,
		&domain.UnexpectedAlternativeCountError{Want: 1, Got: 2},
	} {
		maps := &mockMaps{
			planFn: func(ctx context.Context, req domain.RoutePlanRequest) (*domain.TravelPlan, error) {
				return nil, upstreamErr
			},
		}
		app := setupApp(makeDeps(maps))

		req := httptest.NewRequest("GET", "/v1/plan?from_lat=1.3&from_lon=103.7&to_lat=3&to_lon=101", nil)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 502 {
			t.Errorf("%v: expected 502, got %d", upstreamErr, resp.StatusCode)
			continue
		}
		if e := decodeError(t, resp.Body); e.Code != "upstream_protocol" {
			t.Errorf("%v: expected upstream_protocol, got %s", upstreamErr, e.Code)
		}
	}
}

// ---- Samples ----

func TestListSamples_Unavailable(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/samples?route=a", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestListSamples_Pagination(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockSampleRepo{
		listFn: func(ctx context.Context, route string, s time.Time, limit, offset int) ([]domain.TravelSample, error) {
			if route != "vista-to-subang" {
				t.Errorf("unexpected route %q", route)
			}
			if !s.Equal(since) {
				t.Errorf("unexpected since %v", s)
			}
			if limit != 2 || offset != 2 {
				t.Errorf("unexpected page limit=%d offset=%d", limit, offset)
			}
			return []domain.TravelSample{{ID: "s3", Route: route}, {ID: "s4", Route: route}}, nil
		},
		countFn: func(ctx context.Context, route string, s time.Time) (int, error) { return 5, nil },
	}
	deps := makeDeps(nil, func(d *handler.Dependencies) {
		d.Samples = usecases.NewSampleService(repo)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/samples?route=vista-to-subang&since=2024-01-01T00:00:00Z&offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var result struct {
		Data       []domain.TravelSample `json:"data"`
		Pagination handler.Pagination    `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 5 || len(result.Data) != 2 {
		t.Errorf("unexpected page %+v", result.Pagination)
	}

	link := resp.Header.Get("Link")
	for _, want := range []string{`rel="first"`, `rel="prev"`, `rel="next"`, `rel="last"`, "route=vista-to-subang"} {
		if !strings.Contains(link, want) {
			t.Errorf("Link header %q missing %s", link, want)
		}
	}
}

func TestListSamples_BadSince(t *testing.T) {
	deps := makeDeps(nil, func(d *handler.Dependencies) {
		d.Samples = usecases.NewSampleService(&mockSampleRepo{})
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/samples?route=a&since=yesterday", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLatestSamples(t *testing.T) {
	repo := &mockSampleRepo{
		latestFn: func(ctx context.Context) ([]domain.TravelSample, error) {
			return []domain.TravelSample{{ID: "s1", Route: "a", TotalSeconds: 600}}, nil
		},
	}
	deps := makeDeps(nil, func(d *handler.Dependencies) {
		d.Samples = usecases.NewSampleService(repo)
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/samples/latest", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var samples []domain.TravelSample
	json.NewDecoder(resp.Body).Decode(&samples)
	if len(samples) != 1 || samples[0].TotalSeconds != 600 {
		t.Errorf("unexpected samples %+v", samples)
	}
}

// ---- Middleware ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(nil, func(d *handler.Dependencies) { d.Version = "1.2.3" }))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "healthy" || body["version"] != "1.2.3" {
		t.Errorf("unexpected health body %v", body)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header")
	}
}

func TestReady_NothingConfigured(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Checks["database"] != "not configured" {
		t.Errorf("unexpected checks %v", body.Checks)
	}
}

func TestETag_NotModified(t *testing.T) {
	maps := &mockMaps{
		venueFn: func(ctx context.Context, id string) (*domain.Venue, error) {
			return &domain.Venue{ID: id, Name: "Vista"}, nil
		},
	}
	app := setupApp(makeDeps(maps))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/venues/123", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/venues/123", nil)
	req.Header.Set("If-None-Match", `"other", `+etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
	if len(readBody(t, resp.Body)) != 0 {
		t.Error("expected empty body on 304")
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	for h, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-Api-Version":          "1.0.0",
	} {
		if got := resp.Header.Get(h); got != want {
			t.Errorf("%s: expected %q, got %q", h, want, got)
		}
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

// ---- GraphQL ----

func TestGraphQL_Geocode(t *testing.T) {
	maps := &mockMaps{
		geocodeFn: func(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error) {
			return []domain.Location{
				{Name: "Vista", VenueID: "venues.1", LatLng: domain.Coordinate{Latitude: 1.5, Longitude: 103.5}},
			}, nil
		},
	}
	app := setupApp(makeDeps(maps))

	body := `{"query":"{ geocode(query: \"vista\", locale: \"SG\") { name venue_id lat_lng { lat lon } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Geocode []struct {
				Name    string `json:"name"`
				VenueID string `json:"venue_id"`
				LatLng  struct {
					Lat float64 `json:"lat"`
					Lon float64 `json:"lon"`
				} `json:"lat_lng"`
			} `json:"geocode"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if len(result.Data.Geocode) != 1 {
		t.Fatalf("expected 1 location, got %d", len(result.Data.Geocode))
	}
	loc := result.Data.Geocode[0]
	if loc.VenueID != "venues.1" || loc.LatLng.Lat != 1.5 || loc.LatLng.Lon != 103.5 {
		t.Errorf("unexpected location %+v", loc)
	}
}

func TestGraphQL_EmptyQuery(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
