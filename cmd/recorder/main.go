package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/hewliyang/waze-traffic-api/internal/adapters/nats"
	"github.com/hewliyang/waze-traffic-api/internal/adapters/postgres"
	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/core/usecases"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/config"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("waze-recorder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	samples := usecases.NewSampleService(postgres.NewSampleRepo(db))

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeSamples(ctx, func(ctx context.Context, s *domain.TravelSample) error {
		if err := samples.Record(ctx, s); err != nil {
			return err
		}
		slog.Debug("recorded sample", "id", s.ID, "route", s.Route)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("recorder started", "stream", natsadapter.SampleStream)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutting down recorder", "signal", sig.String())
}
