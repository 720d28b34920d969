package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/hewliyang/waze-traffic-api/internal/pkg/geospatial"
)

// Coordinate represents a WGS 84 position as the live map understands it.
// On the wire longitude is "x" and latitude is "y".
type Coordinate struct {
	Name      *string
	Latitude  float64
	Longitude float64
}

// Keys accepted when decoding, tried in order.
var (
	latitudeKeys  = []string{"lat", "y", "latitude"}
	longitudeKeys = []string{"lng", "lon", "x", "longitude"}
)

// NewCoordinate builds a validated coordinate.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Named returns a copy of c carrying a display name.
func (c Coordinate) Named(name string) Coordinate {
	c.Name = &name
	return c
}

// Validate checks latitude and longitude ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of [-90, 90]", ErrInvalidCoordinate, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of [-180, 180]", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// DistanceMeters is the great-circle distance to o.
func (c Coordinate) DistanceMeters(o Coordinate) float64 {
	return geospatial.Haversine(c.Latitude, c.Longitude, o.Latitude, o.Longitude)
}

func (c Coordinate) String() string {
	if c.Name != nil {
		return fmt.Sprintf("%s (%.6f, %.6f)", *c.Name, c.Latitude, c.Longitude)
	}
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

type coordinateWire struct {
	Name *string `json:"name,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// MarshalJSON emits the compact x/y form.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal(coordinateWire{Name: c.Name, X: c.Longitude, Y: c.Latitude})
}

// UnmarshalJSON accepts any of the known key spellings and rejects values
// outside the valid latitude and longitude ranges.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}

	lat, err := firstFloat(raw, latitudeKeys)
	if err != nil {
		return err
	}
	lon, err := firstFloat(raw, longitudeKeys)
	if err != nil {
		return err
	}

	out := Coordinate{Latitude: lat, Longitude: lon}
	if err := out.Validate(); err != nil {
		return err
	}
	if v, ok := raw["name"]; ok && string(v) != "null" {
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			return fmt.Errorf("coordinate name: %w", err)
		}
		out.Name = &name
	}
	*c = out
	return nil
}

func firstFloat(raw map[string]json.RawMessage, keys []string) (float64, error) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || string(v) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return 0, fmt.Errorf("coordinate %q: %w", k, err)
		}
		return f, nil
	}
	return 0, &ValidationError{Field: keys[len(keys)-1], Reason: "required"}
}

// ViewBox is the rectangle used to scope a geocode search.
type ViewBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Contains reports whether c lies inside the box.
func (b ViewBox) Contains(c Coordinate) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLon && c.Longitude <= b.MaxLon
}

// SearchBox returns the box spanning radiusKm around center.
// Poles are rejected since the longitude span diverges there.
func SearchBox(center Coordinate, radiusKm float64) (ViewBox, error) {
	if err := center.Validate(); err != nil {
		return ViewBox{}, err
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		return ViewBox{}, &ValidationError{Field: "radius", Reason: fmt.Sprintf("must be positive, got %v", radiusKm)}
	}
	if math.Abs(center.Latitude) >= 90 {
		return ViewBox{}, ErrPoleUnsupported
	}

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(center.Latitude, center.Longitude, radiusKm)
	return ViewBox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}, nil
}

// DefaultSearchRadiusKm is the geocode search radius used when none is given.
const DefaultSearchRadiusKm = 100.0
