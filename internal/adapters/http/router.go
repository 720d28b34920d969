package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/hewliyang/waze-traffic-api/internal/pkg/metrics"
)

const (
	// upstreamTimeout bounds a request that may retry against the live map.
	upstreamTimeout = 60 * time.Second
	storeTimeout    = 15 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	useMiddleware(app)

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	upstream := func(h fiber.Handler) fiber.Handler { return timeout.NewWithContext(h, upstreamTimeout) }
	store := func(h fiber.Handler) fiber.Handler { return timeout.NewWithContext(h, storeTimeout) }

	v1 := app.Group("/v1")

	// Live map lookups
	v1.Get("/geocode", upstream(GeocodeHandler(deps)))
	v1.Get("/venues/:id", upstream(GetVenueHandler(deps)))
	v1.Get("/venues/:id/reviews", upstream(VenueReviewsHandler(deps)))
	v1.Get("/places/:placeId/reviews", upstream(PlaceReviewsHandler(deps)))
	v1.Get("/plan", upstream(PlanHandler(deps)))
	v1.Post("/plan", upstream(PostPlanHandler(deps)))

	// Recorded history
	v1.Get("/samples", store(ListSamplesHandler(deps)))
	v1.Get("/samples/latest", store(LatestSamplesHandler(deps)))

	app.Post("/graphql", upstream(GraphQLHandler(deps)))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

func isProbe(path string) bool {
	return path == "/metrics" || path == "/v1/health" || path == "/v1/ready"
}

func useMiddleware(app *fiber.App) {
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Each request may fan out to the live map, which throttles aggressively.
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next:       func(c *fiber.Ctx) bool { return isProbe(c.Path()) },
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
}
