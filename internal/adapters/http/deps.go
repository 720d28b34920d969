package http

import (
	"github.com/nats-io/nats.go"

	"github.com/hewliyang/waze-traffic-api/internal/adapters/postgres"
	"github.com/hewliyang/waze-traffic-api/internal/adapters/valkey"
	"github.com/hewliyang/waze-traffic-api/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Places  *usecases.PlaceService
	Travel  *usecases.TravelService
	Samples *usecases.SampleService // nil when no database is configured
	NATS    *nats.Conn
	DB      *postgres.DB
	Cache   *valkey.Cache
	Version string
}
