package waze

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/config"
)

// Endpoint labels used for metrics, spans and logs.
const (
	EndpointPlan    = "plan"
	EndpointGeocode = "geocode"
	EndpointVenue   = "venue"
	EndpointReviews = "reviews"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	PlannerExt string
	GeocodeExt string
	VenuesExt  string
	ReviewsExt string

	Locale  domain.Locale
	Headers Headers

	MaxRetries        int
	BackoffFactor     time.Duration
	RequestTimeout    time.Duration
	RequestsPerSecond float64

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DefaultOptions returns the public live-map endpoints with the stock retry policy.
func DefaultOptions() Options {
	return Options{
		BaseURL:        "https://www.waze.com",
		PlannerExt:     "/live-map/api/user-drive?geo_env=row",
		GeocodeExt:     "/live-map/api/autocomplete",
		VenuesExt:      "/live-map/api/venue",
		ReviewsExt:     "/live-map/api/google-place-reviews",
		Headers:        DefaultHeaders(),
		MaxRetries:     3,
		BackoffFactor:  300 * time.Millisecond,
		RequestTimeout: 15 * time.Second,
	}
}

// OptionsFromConfig builds Options from the waze config section.
func OptionsFromConfig(cfg config.WazeConfig) (Options, error) {
	loc, err := domain.ParseLocale(cfg.Locale)
	if err != nil {
		return Options{}, err
	}
	opts := DefaultOptions()
	opts.BaseURL = cfg.BaseURL
	opts.PlannerExt = cfg.PlannerExt
	opts.GeocodeExt = cfg.GeocodeExt
	opts.VenuesExt = cfg.VenuesExt
	opts.ReviewsExt = cfg.ReviewsExt
	opts.Locale = loc
	opts.MaxRetries = cfg.MaxRetries
	opts.BackoffFactor = cfg.BackoffFactor
	opts.RequestTimeout = cfg.RequestTimeout
	opts.RequestsPerSecond = cfg.RequestsPerSecond
	return opts, nil
}

// Client talks to the live map's planner, geocoder, venue and review
// endpoints. It is safe for concurrent use.
type Client struct {
	transport  *Transport
	plannerExt string
	geocodeExt string
	venuesExt  string
	reviewsExt string
	locale     domain.Locale
	logger     *slog.Logger
}

// New creates a Client. Empty endpoint fields fall back to DefaultOptions.
func New(opts Options) *Client {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.PlannerExt == "" {
		opts.PlannerExt = def.PlannerExt
	}
	if opts.GeocodeExt == "" {
		opts.GeocodeExt = def.GeocodeExt
	}
	if opts.VenuesExt == "" {
		opts.VenuesExt = def.VenuesExt
	}
	if opts.ReviewsExt == "" {
		opts.ReviewsExt = def.ReviewsExt
	}
	if opts.Headers.IsZero() {
		opts.Headers = def.Headers
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		transport: NewTransport(TransportOptions{
			BaseURL:           opts.BaseURL,
			Headers:           opts.Headers,
			MaxRetries:        opts.MaxRetries,
			BackoffFactor:     opts.BackoffFactor,
			RequestTimeout:    opts.RequestTimeout,
			RequestsPerSecond: opts.RequestsPerSecond,
			HTTPClient:        opts.HTTPClient,
			Logger:            opts.Logger,
		}),
		plannerExt: opts.PlannerExt,
		geocodeExt: opts.GeocodeExt,
		venuesExt:  strings.TrimRight(opts.VenuesExt, "/"),
		reviewsExt: strings.TrimRight(opts.ReviewsExt, "/"),
		locale:     opts.Locale,
		logger:     opts.Logger,
	}
}

// Locale returns the client's configured locale.
func (c *Client) Locale() domain.Locale { return c.locale }

// Plan returns the fastest route from src to dst with the default planner settings.
func (c *Client) Plan(ctx context.Context, src, dst domain.Coordinate) (*domain.TravelPlan, error) {
	return c.PlanRoute(ctx, domain.NewRoutePlanRequest(src, dst))
}

// PlanRoute sends req to the planner.
func (c *Client) PlanRoute(ctx context.Context, req domain.RoutePlanRequest) (*domain.TravelPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx = withCall(ctx, callOptions{endpoint: EndpointPlan})
	raw, err := c.transport.Send(ctx, http.MethodPost, c.plannerExt, nil, newPlanBody(req), nil)
	if err != nil {
		return nil, err
	}
	return parsePlanResponse(raw, req)
}

// Geocode searches for query within radiusKm of the client's locale.
func (c *Client) Geocode(ctx context.Context, query string, radiusKm float64) ([]domain.Location, error) {
	return c.GeocodeNear(ctx, c.locale, query, radiusKm)
}

// GeocodeNear is Geocode with an explicit locale.
func (c *Client) GeocodeNear(ctx context.Context, loc domain.Locale, query string, radiusKm float64) ([]domain.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Field: "q", Reason: "required"}
	}
	center, err := loc.Resolve()
	if err != nil {
		return nil, err
	}
	if radiusKm == 0 {
		radiusKm = domain.DefaultSearchRadiusKm
	}
	box, err := domain.SearchBox(center, radiusKm)
	if err != nil {
		return nil, err
	}

	ctx = withCall(ctx, callOptions{endpoint: EndpointGeocode})
	raw, err := c.transport.Send(ctx, http.MethodGet, c.geocodeExt, geocodeParams(query, box), nil, nil)
	if err != nil {
		return nil, err
	}
	return parseLocationList(raw)
}

// Venue fetches venue details. Geocoder prefixes on id are stripped.
func (c *Client) Venue(ctx context.Context, id string) (*domain.Venue, error) {
	id = domain.StripVenuePrefix(id)
	if id == "" {
		return nil, &domain.ValidationError{Field: "venueId", Reason: "required"}
	}
	ctx = withCall(ctx, callOptions{endpoint: EndpointVenue})
	raw, err := c.transport.Send(ctx, http.MethodGet, c.venuesExt+"/"+url.PathEscape(id), nil, nil, nil)
	if err != nil {
		return nil, err
	}
	return parseVenue(raw)
}

// VenueFor fetches the venue behind a geocoder hit.
func (c *Client) VenueFor(ctx context.Context, loc domain.Location) (*domain.Venue, error) {
	return c.Venue(ctx, loc.VenueID)
}

// Reviews fetches Google reviews for placeID. Upstream answers 500 for places
// without reviews; a 500 that survives every retry is reported as an empty
// result.
func (c *Client) Reviews(ctx context.Context, placeID string) (*domain.Reviews, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, &domain.ValidationError{Field: "placeId", Reason: "required"}
	}
	ctx = withCall(ctx, callOptions{endpoint: EndpointReviews})
	raw, err := c.transport.Send(ctx, http.MethodGet, c.reviewsExt+"/"+url.PathEscape(placeID), nil, nil, nil)
	if err != nil {
		if domain.IsStatus(err, http.StatusInternalServerError) {
			c.logger.DebugContext(ctx, "no reviews for place", "place_id", placeID)
			return &domain.Reviews{Reviews: []domain.Review{}}, nil
		}
		return nil, err
	}
	return parseReviewResponse(raw)
}

// ReviewsFor fetches reviews for a venue. Venues without a Google place ID
// have none.
func (c *Client) ReviewsFor(ctx context.Context, v *domain.Venue) (*domain.Reviews, error) {
	if v == nil || v.GooglePlaceID == "" {
		return &domain.Reviews{Reviews: []domain.Review{}}, nil
	}
	return c.Reviews(ctx, v.GooglePlaceID)
}
