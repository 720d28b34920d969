package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// TravelSampleInput is the input for the sampling workflow.
type TravelSampleInput struct {
	Routes []domain.WatchedRoute
}

// TravelSampleResult summarises one sampling run.
type TravelSampleResult struct {
	Sampled int
	Failed  []string // route names
}

// TravelSampleWorkflow samples every watched route and records the results.
// A failing route does not stop the others.
func TravelSampleWorkflow(ctx workflow.Context, input TravelSampleInput) (TravelSampleResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting travel sample workflow", "routes", len(input.Routes))

	// The client already retries transient upstream failures; the activity
	// retry covers worker crashes and broker hiccups.
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	})

	futures := make([]workflow.Future, len(input.Routes))
	for i, route := range input.Routes {
		futures[i] = workflow.ExecuteActivity(ctx, "SampleRoute", route)
	}

	var result TravelSampleResult
	for i, f := range futures {
		route := input.Routes[i].Name

		var sample domain.TravelSample
		if err := f.Get(ctx, &sample); err != nil {
			logger.Warn("sampling failed", "route", route, "error", err)
			result.Failed = append(result.Failed, route)
			continue
		}

		if err := workflow.ExecuteActivity(ctx, "RecordSample", &sample).Get(ctx, nil); err != nil {
			logger.Warn("recording failed", "route", route, "id", sample.ID, "error", err)
			result.Failed = append(result.Failed, route)
			continue
		}
		result.Sampled++
	}

	logger.Info("Travel sample workflow finished", "sampled", result.Sampled, "failed", len(result.Failed))
	return result, nil
}
