package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// RoutesManifest lists the routes the poller and watcher sample.
//
//	{"routes": [{"name": "vista-to-subang",
//	             "from": {"lat": 1.3068, "lng": 103.7884},
//	             "to":   {"lat": 3.0815, "lng": 101.5851}}]}
type RoutesManifest struct {
	Routes []domain.WatchedRoute `json:"routes"`
}

// minRouteMeters rejects routes the planner cannot produce anything useful for.
const minRouteMeters = 50

// LoadRoutes reads and validates a routes manifest.
func LoadRoutes(path string) ([]domain.WatchedRoute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	return ParseRoutes(data)
}

// ParseRoutes decodes a manifest. Names must be unique and both endpoints
// valid coordinates.
func ParseRoutes(data []byte) ([]domain.WatchedRoute, error) {
	var m RoutesManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	if len(m.Routes) == 0 {
		return nil, fmt.Errorf("routes manifest is empty")
	}

	seen := make(map[string]bool, len(m.Routes))
	for i, r := range m.Routes {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("routes[%d]: name is required", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("routes[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
		if err := r.From.Validate(); err != nil {
			return nil, fmt.Errorf("routes[%d].from: %w", i, err)
		}
		if err := r.To.Validate(); err != nil {
			return nil, fmt.Errorf("routes[%d].to: %w", i, err)
		}
		if r.From.DistanceMeters(r.To) < minRouteMeters {
			return nil, fmt.Errorf("routes[%d]: endpoints are less than %d m apart", i, minRouteMeters)
		}
		m.Routes[i].Name = name
	}
	return m.Routes, nil
}
