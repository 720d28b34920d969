package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness. It never touches a dependency.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

type probe struct {
	name  string
	check func(ctx context.Context) error // nil when not configured
}

var errDisconnected = errors.New("disconnected")

func (d *Dependencies) probes() []probe {
	ps := []probe{{name: "database"}, {name: "nats"}, {name: "cache"}}
	if d.DB != nil {
		ps[0].check = d.DB.Ping
	}
	if d.NATS != nil {
		nc := d.NATS
		ps[1].check = func(context.Context) error {
			if !nc.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}
	if d.Cache != nil {
		ps[2].check = d.Cache.Ping
	}
	return ps
}

// ReadyHandler probes the backing stores. Every store is optional; only a
// configured store that fails makes the service unready. The live map is not
// probed so readiness checks never spend upstream quota.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	probes := deps.probes()

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, len(probes))
		ready := true
		for _, p := range probes {
			if p.check == nil {
				checks[p.name] = "not configured"
				continue
			}
			if err := p.check(ctx); err != nil {
				checks[p.name] = "error: " + err.Error()
				ready = false
				continue
			}
			checks[p.name] = "ok"
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
