package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/hewliyang/waze-traffic-api/internal/adapters/nats"
	"github.com/hewliyang/waze-traffic-api/internal/adapters/postgres"
	"github.com/hewliyang/waze-traffic-api/internal/adapters/waze"
	"github.com/hewliyang/waze-traffic-api/internal/core/ports"
	"github.com/hewliyang/waze-traffic-api/internal/core/usecases"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/config"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/logging"
	"github.com/hewliyang/waze-traffic-api/internal/workflows"
)

const scheduleID = "travel-samples"

func main() {
	cfg, err := config.Load("waze-watcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	routes, err := config.LoadRoutes(cfg.Poller.RoutesFile)
	if err != nil {
		log.Fatalf("routes: %v", err)
	}

	opts, err := waze.OptionsFromConfig(cfg.Waze)
	if err != nil {
		log.Fatalf("waze config: %v", err)
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, samples will not be broadcast", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	activities := &workflows.SamplingActivities{
		Travel: usecases.NewTravelService(waze.New(opts), nil, publisher),
	}
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, leaving persistence to the recorder", "error", err)
	} else {
		defer db.Close()
		activities.Samples = usecases.NewSampleService(postgres.NewSampleRepo(db))
	}

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	// An existing schedule keeps its interval; delete it to pick up a new one.
	_, err = c.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: scheduleID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: cfg.Poller.Interval}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        scheduleID,
			Workflow:  workflows.TravelSampleWorkflow,
			Args:      []interface{}{workflows.TravelSampleInput{Routes: routes}},
			TaskQueue: cfg.Temporal.TaskQueue,
		},
	})
	if err != nil {
		slog.Warn("schedule not created", "id", scheduleID, "error", err)
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.TravelSampleWorkflow)
	w.RegisterActivity(activities)

	slog.Info("watcher worker started", "task_queue", cfg.Temporal.TaskQueue, "routes", len(routes))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
