package telemetry

// Span attribute keys shared by the upstream client.
const (
	AttrEndpoint = "waze.endpoint"
	AttrAttempt  = "waze.attempt"
	AttrAttempts = "waze.attempts"
)

// TracerName is the instrumentation scope for upstream spans.
const TracerName = "github.com/hewliyang/waze-traffic-api/internal/adapters/waze"
