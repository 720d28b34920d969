package waze

import (
	"net/url"
	"strconv"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// planBody is the planner's POST payload. The origin goes out as "from".
type planBody struct {
	Origin   domain.Coordinate `json:"from"`
	To       domain.Coordinate `json:"to"`
	NPaths   int               `json:"nPaths"`
	UseCase  string            `json:"useCase"`
	Interval int               `json:"interval"`
	ArriveAt bool              `json:"arriveAt"`
}

func newPlanBody(req domain.RoutePlanRequest) planBody {
	return planBody{
		Origin:   req.From,
		To:       req.To,
		NPaths:   req.PathCount,
		UseCase:  req.UseCase,
		Interval: req.SampleIntervalMeters,
		ArriveAt: req.ArriveAt,
	}
}

// geocodeParams scopes query to box. The box travels as "minLat,minLon;maxLat,maxLon".
func geocodeParams(query string, box domain.ViewBox) url.Values {
	return url.Values{
		"q":       {query},
		"v":       {formatViewBox(box)},
		"exp":     {"8,10,12"},
		"geo-env": {"row"},
		"lang":    {"en"},
	}
}

func formatViewBox(b domain.ViewBox) string {
	return formatDeg(b.MinLat) + "," + formatDeg(b.MinLon) + ";" + formatDeg(b.MaxLat) + "," + formatDeg(b.MaxLon)
}

func formatDeg(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
