package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	natsadapter "github.com/hewliyang/waze-traffic-api/internal/adapters/nats"
	"github.com/hewliyang/waze-traffic-api/internal/adapters/waze"
	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/core/ports"
	"github.com/hewliyang/waze-traffic-api/internal/core/usecases"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/config"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/logging"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/telemetry"
)

// maxConcurrent bounds parallel planner calls per tick.
const maxConcurrent = 4

func main() {
	cfg, err := config.Load("waze-poller")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	routesPath := cfg.Poller.RoutesFile
	if len(os.Args) > 1 {
		routesPath = os.Args[1]
	}
	routes, err := config.LoadRoutes(routesPath)
	if err != nil {
		log.Fatalf("routes: %v", err)
	}

	opts, err := waze.OptionsFromConfig(cfg.Waze)
	if err != nil {
		log.Fatalf("waze config: %v", err)
	}
	maps := waze.New(opts)

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, samples will only be logged", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	travel := usecases.NewTravelService(maps, nil, publisher)

	slog.Info("poller started", "routes", len(routes), "interval", cfg.Poller.Interval.String())

	ticker := time.NewTicker(cfg.Poller.Interval)
	defer ticker.Stop()

	// Run once immediately
	pollAll(ctx, travel, routes)

	for {
		select {
		case <-ticker.C:
			pollAll(ctx, travel, routes)
		case <-ctx.Done():
			slog.Info("shutting down poller")
			return
		}
	}
}

type sampler interface {
	Sample(ctx context.Context, route domain.WatchedRoute) (*domain.TravelSample, error)
}

// pollAll samples every route, at most maxConcurrent at a time. Routes not yet
// started when ctx is cancelled are skipped; returns the number of failures.
func pollAll(ctx context.Context, travel sampler, routes []domain.WatchedRoute) int {
	start := time.Now()
	sem := make(chan struct{}, maxConcurrent)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	skipped := 0
	for i, r := range routes {
		if !acquire(ctx, sem) {
			skipped = len(routes) - i
			break
		}
		wg.Add(1)
		go func(route domain.WatchedRoute) {
			defer wg.Done()
			defer func() { <-sem }()

			s, err := travel.Sample(ctx, route)
			if err != nil {
				slog.ErrorContext(ctx, "sample failed", "route", route.Name, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			slog.InfoContext(ctx, "sampled",
				"route", route.Name,
				"via", s.RouteName,
				"seconds", s.TotalSeconds,
				"meters", s.TotalLengthMeters,
				"alerts", s.AlertCount,
			)
		}(r)
	}
	wg.Wait()

	slog.Info("poll finished", "routes", len(routes), "failed", failed, "skipped", skipped, "took", time.Since(start).String())
	return failed + skipped
}

func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}
