package http

import (
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// GeocodeHandler searches for places near a locale.
//
//	GET /v1/geocode?q=star+vista&locale=SG&radius_km=50
//	GET /v1/geocode?q=star+vista&locale=1.3068,103.7884
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		loc, err := domain.ParseLocale(c.Query("locale"))
		if err != nil {
			return errFrom(c, err)
		}

		radius := c.QueryFloat("radius_km", 0)
		if radius < 0 || radius > 1000 {
			return errBadRequest(c, "radius_km must be between 0 and 1000")
		}

		locs, err := deps.Places.Geocode(c.UserContext(), query, loc, radius)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(locs)
	}
}

// GetVenueHandler returns venue details. Geocoder prefixes such as
// "venues." are accepted.
func GetVenueHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "venue id is required")
		}

		venue, err := deps.Places.Venue(c.UserContext(), id)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(venue)
	}
}

// VenueReviewsHandler returns the reviews of a venue.
func VenueReviewsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "venue id is required")
		}

		reviews, err := deps.Places.VenueReviews(c.UserContext(), id)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(reviews)
	}
}

// PlaceReviewsHandler returns reviews by Google place ID.
func PlaceReviewsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reviews, err := deps.Places.Reviews(c.UserContext(), c.Params("placeId"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(reviews)
	}
}

// PlanHandler returns the fastest route between two points.
//
//	GET /v1/plan?from_lat=1.3068&from_lon=103.7884&to_lat=3.0815&to_lon=101.5851
func PlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := queryCoordinate(c, "from")
		if err != nil {
			return errFrom(c, err)
		}
		to, err := queryCoordinate(c, "to")
		if err != nil {
			return errFrom(c, err)
		}
		return plan(c, deps, from, to)
	}
}

// planRequest accepts any coordinate spelling the live map itself accepts
// (lat/lng, y/x, latitude/longitude).
type planRequest struct {
	From *domain.Coordinate `json:"from"`
	To   *domain.Coordinate `json:"to"`
}

// PostPlanHandler is PlanHandler with a JSON body.
func PostPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req planRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if req.From == nil || req.To == nil {
			return errBadRequest(c, "from and to are required")
		}
		return plan(c, deps, *req.From, *req.To)
	}
}

func plan(c *fiber.Ctx, deps *Dependencies, from, to domain.Coordinate) error {
	p, err := deps.Travel.Plan(c.UserContext(), from, to)
	if err != nil {
		return errFrom(c, err)
	}
	c.Set("Cache-Control", "private, max-age=60")
	return c.JSON(p)
}

var nan = math.NaN()

func queryCoordinate(c *fiber.Ctx, prefix string) (domain.Coordinate, error) {
	latKey, lonKey := prefix+"_lat", prefix+"_lon"
	if c.Query(latKey) == "" || c.Query(lonKey) == "" {
		return domain.Coordinate{}, &domain.ValidationError{Field: latKey + "/" + lonKey, Reason: "required"}
	}
	// QueryFloat yields the default on parse failure; NaN is rejected by NewCoordinate
	lat := c.QueryFloat(latKey, nan)
	lon := c.QueryFloat(lonKey, nan)
	return domain.NewCoordinate(lat, lon)
}

// ListSamplesHandler pages through recorded samples of a watched route.
//
//	GET /v1/samples?route=vista-to-subang&since=2024-01-01T00:00:00Z&offset=0&limit=100
func ListSamplesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Samples == nil {
			return newError(c, 503, "unavailable", "sample store not configured")
		}

		route := c.Query("route")
		if route == "" {
			return errBadRequest(c, "route query parameter is required")
		}

		var since time.Time
		if s := c.Query("since"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return errBadRequest(c, "since must be RFC 3339")
			}
			since = t
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		samples, total, err := deps.Samples.History(c.UserContext(), route, since, limit, offset)
		if err != nil {
			return errFrom(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: samples, Pagination: pg})
	}
}

// LatestSamplesHandler returns the newest sample of every watched route.
func LatestSamplesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Samples == nil {
			return newError(c, 503, "unavailable", "sample store not configured")
		}
		samples, err := deps.Samples.Latest(c.UserContext())
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(samples)
	}
}
