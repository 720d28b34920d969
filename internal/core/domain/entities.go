package domain

import (
	"strings"
	"time"
)

// RoutePlanRequest describes a single planner call.
type RoutePlanRequest struct {
	From                 Coordinate
	To                   Coordinate
	PathCount            int
	UseCase              string
	SampleIntervalMeters int
	ArriveAt             bool
}

// NewRoutePlanRequest returns a request with the live-map defaults.
func NewRoutePlanRequest(from, to Coordinate) RoutePlanRequest {
	return RoutePlanRequest{
		From:                 from,
		To:                   to,
		PathCount:            1,
		UseCase:              "LIVEMAP_PLANNING",
		SampleIntervalMeters: 100,
		ArriveAt:             true,
	}
}

// Validate checks both endpoints and the path count.
func (r RoutePlanRequest) Validate() error {
	if err := r.From.Validate(); err != nil {
		return err
	}
	if err := r.To.Validate(); err != nil {
		return err
	}
	if r.PathCount > 1 {
		return ErrUnsupportedPathCount
	}
	if r.PathCount < 1 {
		return &ValidationError{Field: "nPaths", Reason: "must be 1"}
	}
	return nil
}

// TravelPlan is the fastest route between two points.
type TravelPlan struct {
	Src               Coordinate         `json:"src"`
	Dst               Coordinate         `json:"dst"`
	RouteName         string             `json:"route_name"`
	GeoPath           []Coordinate       `json:"geo_path"`
	Alerts            []Alert            `json:"alerts"`
	TotalSeconds      int                `json:"total_seconds"`
	TotalLengthMeters int                `json:"total_length_meters"`
	IsToll            bool               `json:"is_toll"`
	IsFastest         bool               `json:"is_fastest"`
	TollPrice         *float64           `json:"toll_price,omitempty"`
	ETAHistogram      []ETAHistogramItem `json:"eta_histogram"`
}

// Duration is the estimated journey time.
func (p *TravelPlan) Duration() time.Duration {
	return time.Duration(p.TotalSeconds) * time.Second
}

// DistanceKm is the route length in kilometres.
func (p *TravelPlan) DistanceKm() float64 {
	return float64(p.TotalLengthMeters) / 1000
}

// Alert is a traffic report attached to a route.
type Alert struct {
	ID       int64      `json:"id"`
	Type     string     `json:"type"`
	Subtype  string     `json:"subtype"`
	Location Coordinate `json:"location"`
}

// ETAHistogramItem is one bucket of the arrival-time distribution.
type ETAHistogramItem struct {
	ETA                  int64  `json:"eta"` // unix seconds
	RouteLengthInMinutes int    `json:"route_length_minutes"`
	Text                 string `json:"text"`
}

// ETATime returns the bucket's arrival time.
func (h ETAHistogramItem) ETATime() time.Time {
	return time.Unix(h.ETA, 0)
}

// Location is a geocoder hit.
type Location struct {
	Address   string     `json:"address"`
	CleanName string     `json:"clean_name"`
	LatLng    Coordinate `json:"lat_lng"`
	Name      string     `json:"name"`
	VenueID   string     `json:"venue_id"`
}

// Venue is the detail record behind a geocoder hit. Upstream omits fields
// unpredictably so nearly everything is optional.
type Venue struct {
	GeoEnv          string        `json:"geo_env,omitempty"`
	LatLng          *Coordinate   `json:"lat_lng,omitempty"`
	ID              string        `json:"id,omitempty"`
	Address         *VenueAddress `json:"address,omitempty"`
	Name            string        `json:"name,omitempty"`
	Phone           *VenueLink    `json:"phone,omitempty"`
	URL             *VenueLink    `json:"url,omitempty"`
	Services        []string      `json:"services,omitempty"`
	LastUpdateDate  *int64        `json:"last_update_date,omitempty"`
	CreationDate    *int64        `json:"creation_date,omitempty"`
	Images          []VenueImage  `json:"images,omitempty"`
	Hours           []VenueHours  `json:"hours,omitempty"`
	GooglePlaceID   string        `json:"google_place_id,omitempty"`
	AlternativeName string        `json:"alternative_name,omitempty"`
}

type VenueAddress struct {
	CountryCode *string `json:"country_code,omitempty"`
	CountryName *string `json:"country_name,omitempty"`
	State       *string `json:"state,omitempty"`
	City        *string `json:"city,omitempty"`
	CityID      *int64  `json:"city_id,omitempty"`
	Street      *string `json:"street,omitempty"`
	StreetID    *int64  `json:"street_id,omitempty"`
	SegmentID   *int64  `json:"segment_id,omitempty"`
	HouseNumber *int    `json:"house_number,omitempty"`
}

type VenueLink struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

type VenueImage struct {
	ID    string `json:"id"`
	Small string `json:"small"`
	Large string `json:"large"`
}

// VenueHours is an opening window on a weekday (0 = Sunday).
type VenueHours struct {
	Day  int      `json:"day"`
	From TimeUnit `json:"from"`
	To   TimeUnit `json:"to"`
}

type TimeUnit struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Review is a single Google review proxied by the live map.
type Review struct {
	AuthorName              string `json:"author_name"`
	AuthorURL               string `json:"author_url"`
	ProfilePhotoURL         string `json:"profile_photo_url"`
	Rating                  int    `json:"rating"`
	RelativeTimeDescription string `json:"relative_time_description"`
	Text                    string `json:"text"`
	Time                    int64  `json:"time"` // unix seconds
}

type Ratings struct {
	Average float64 `json:"average"`
	Counts  []int   `json:"counts"`
}

// Reviews groups a venue's reviews with its rating summary.
type Reviews struct {
	Reviews []Review `json:"reviews"`
	Ratings *Ratings `json:"ratings,omitempty"`
}

// Empty reports whether there is nothing to show.
func (r *Reviews) Empty() bool {
	return r == nil || (len(r.Reviews) == 0 && r.Ratings == nil)
}

// WatchedRoute is a source/destination pair sampled on a schedule.
type WatchedRoute struct {
	Name string     `json:"name"`
	From Coordinate `json:"from"`
	To   Coordinate `json:"to"`
}

// TravelSample is one observation of a watched route's travel time.
type TravelSample struct {
	ID                string     `json:"id"`
	Route             string     `json:"route"`
	RouteName         string     `json:"route_name"`
	Src               Coordinate `json:"src"`
	Dst               Coordinate `json:"dst"`
	TotalSeconds      int        `json:"total_seconds"`
	TotalLengthMeters int        `json:"total_length_meters"`
	IsToll            bool       `json:"is_toll"`
	TollPrice         *float64   `json:"toll_price,omitempty"`
	AlertCount        int        `json:"alert_count"`
	SampledAt         time.Time  `json:"sampled_at"`
}

// venuePrefixes are namespace markers the geocoder puts in front of venue IDs.
var venuePrefixes = []string{"venues.", "googlePlaces."}

// StripVenuePrefix removes the geocoder's namespace from a venue ID.
func StripVenuePrefix(id string) string {
	id = strings.TrimSpace(id)
	for _, p := range venuePrefixes {
		id = strings.TrimPrefix(id, p)
	}
	return id
}
