package waze

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report upstream field names rather than Go names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ---------------------------------------------------------------------------
// Planner
// ---------------------------------------------------------------------------

type planEnvelope struct {
	Alternatives []alternativeWire `json:"alternatives"`
}

type alternativeWire struct {
	Response json.RawMessage     `json:"response"`
	Coords   []domain.Coordinate `json:"coords"`
}

type planWire struct {
	RouteName     *string     `json:"routeName" validate:"required"`
	TotalSeconds  *int        `json:"totalSeconds" validate:"required"`
	TotalLength   *int        `json:"totalLength" validate:"required"`
	IsToll        *bool       `json:"isToll" validate:"required"`
	IsFastest     bool        `json:"isFastest"`
	Alerts        []alertWire `json:"alerts" validate:"omitempty,dive"`
	TollPriceInfo *struct {
		TollPrice *float64 `json:"tollPrice"`
	} `json:"tollPriceInfo"`
	ETAHistograms []etaWire `json:"etaHistograms" validate:"omitempty,dive"`
}

type alertWire struct {
	ID       *int64             `json:"id" validate:"required"`
	Type     *string            `json:"type" validate:"required"`
	Subtype  *string            `json:"subtype" validate:"required"`
	Location *domain.Coordinate `json:"location" validate:"required"`
}

type etaWire struct {
	ETA                  *int64  `json:"eta" validate:"required"`
	RouteLengthInMinutes *int    `json:"routeLengthInMinutes" validate:"required"`
	Text                 *string `json:"text" validate:"required"`
}

// parsePlanResponse converts a planner reply for req into a TravelPlan.
func parsePlanResponse(raw json.RawMessage, req domain.RoutePlanRequest) (*domain.TravelPlan, error) {
	var env planEnvelope
	if err := decode(raw, &env, "plan"); err != nil {
		return nil, err
	}
	if len(env.Alternatives) == 0 {
		return nil, domain.ErrEmptyResponse
	}
	if len(env.Alternatives) != req.PathCount {
		return nil, &domain.UnexpectedAlternativeCountError{Want: req.PathCount, Got: len(env.Alternatives)}
	}

	route := env.Alternatives[0]
	if isEmptyObject(route.Response) {
		return nil, domain.ErrMissingPlan
	}
	if route.Coords == nil {
		return nil, invalid(&domain.ValidationError{Field: "alternatives[0].coords", Reason: "required"})
	}

	var w planWire
	if err := decode(route.Response, &w, "alternatives[0].response"); err != nil {
		return nil, err
	}
	if err := check(&w, "response"); err != nil {
		return nil, err
	}

	plan := &domain.TravelPlan{
		Src:               req.From,
		Dst:               req.To,
		RouteName:         *w.RouteName,
		GeoPath:           route.Coords,
		Alerts:            make([]domain.Alert, 0, len(w.Alerts)),
		TotalSeconds:      *w.TotalSeconds,
		TotalLengthMeters: *w.TotalLength,
		IsToll:            *w.IsToll,
		IsFastest:         w.IsFastest,
	}
	for _, a := range w.Alerts {
		plan.Alerts = append(plan.Alerts, domain.Alert{
			ID:       *a.ID,
			Type:     *a.Type,
			Subtype:  *a.Subtype,
			Location: *a.Location,
		})
	}
	if w.TollPriceInfo != nil && w.TollPriceInfo.TollPrice != nil {
		price := *w.TollPriceInfo.TollPrice
		plan.TollPrice = &price
	}
	if w.ETAHistograms != nil {
		plan.ETAHistogram = make([]domain.ETAHistogramItem, 0, len(w.ETAHistograms))
		for _, h := range w.ETAHistograms {
			plan.ETAHistogram = append(plan.ETAHistogram, domain.ETAHistogramItem{
				ETA:                  *h.ETA,
				RouteLengthInMinutes: *h.RouteLengthInMinutes,
				Text:                 *h.Text,
			})
		}
	}
	return plan, nil
}

// ---------------------------------------------------------------------------
// Geocoder
// ---------------------------------------------------------------------------

type locationWire struct {
	Address   *string            `json:"address" validate:"required"`
	CleanName *string            `json:"cleanName" validate:"required"`
	LatLng    *domain.Coordinate `json:"latLng" validate:"required"`
	Name      *string            `json:"name" validate:"required"`
	VenueID   *string            `json:"venueId" validate:"required"`
}

func parseLocationList(raw json.RawMessage) ([]domain.Location, error) {
	var ws []locationWire
	if err := decode(raw, &ws, "locations"); err != nil {
		return nil, err
	}

	out := make([]domain.Location, 0, len(ws))
	for i := range ws {
		if err := check(&ws[i], "locations"); err != nil {
			return nil, err
		}
		w := ws[i]
		out = append(out, domain.Location{
			Address:   *w.Address,
			CleanName: *w.CleanName,
			LatLng:    *w.LatLng,
			Name:      *w.Name,
			VenueID:   *w.VenueID,
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Venues
// ---------------------------------------------------------------------------

type venueWire struct {
	GeoEnv          *string            `json:"geoEnv"`
	LatLng          *domain.Coordinate `json:"latLng"`
	ID              *string            `json:"id"`
	Address         *venueAddressWire  `json:"address"`
	Name            *string            `json:"name"`
	Phone           *venueLinkWire     `json:"phone"`
	URL             *venueLinkWire     `json:"url"`
	Services        []string           `json:"services"`
	LastUpdateDate  *int64             `json:"lastUpdateDate"`
	CreationDate    *int64             `json:"creationDate"`
	Images          []venueImageWire   `json:"images" validate:"omitempty,dive"`
	Hours           []venueHoursWire   `json:"hours" validate:"omitempty,dive"`
	GooglePlaceID   *string            `json:"googlePlaceId"`
	AlternativeName *string            `json:"alternativeName"`
}

type venueAddressWire struct {
	CountryCode *string `json:"countryCode"`
	CountryName *string `json:"countryName"`
	State       *string `json:"state"`
	City        *string `json:"city"`
	CityID      *int64  `json:"cityId"`
	Street      *string `json:"street"`
	StreetID    *int64  `json:"streetId"`
	SegmentID   *int64  `json:"segmentId"`
	HouseNumber *int    `json:"houseNumber"`
}

type venueLinkWire struct {
	Href *string `json:"href" validate:"required"`
	Text *string `json:"text" validate:"required"`
}

type venueImageWire struct {
	ID  *string `json:"id" validate:"required"`
	Src *struct {
		Small *string `json:"small" validate:"required"`
		Large *string `json:"large" validate:"required"`
	} `json:"src" validate:"required"`
}

type timeUnitWire struct {
	Hours   *int `json:"hours" validate:"required"`
	Minutes *int `json:"minutes" validate:"required"`
}

type venueHoursWire struct {
	Day  *int          `json:"day" validate:"required"`
	From *timeUnitWire `json:"from" validate:"required"`
	To   *timeUnitWire `json:"to" validate:"required"`
}

func parseVenue(raw json.RawMessage) (*domain.Venue, error) {
	var w venueWire
	if err := decode(raw, &w, "venue"); err != nil {
		return nil, err
	}
	if err := check(&w, "venue"); err != nil {
		return nil, err
	}

	v := &domain.Venue{
		GeoEnv:          deref(w.GeoEnv),
		LatLng:          w.LatLng,
		ID:              deref(w.ID),
		Name:            deref(w.Name),
		Services:        w.Services,
		LastUpdateDate:  w.LastUpdateDate,
		CreationDate:    w.CreationDate,
		GooglePlaceID:   deref(w.GooglePlaceID),
		AlternativeName: deref(w.AlternativeName),
		Phone:           w.Phone.toDomain(),
		URL:             w.URL.toDomain(),
	}
	if a := w.Address; a != nil {
		v.Address = &domain.VenueAddress{
			CountryCode: a.CountryCode,
			CountryName: a.CountryName,
			State:       a.State,
			City:        a.City,
			CityID:      a.CityID,
			Street:      a.Street,
			StreetID:    a.StreetID,
			SegmentID:   a.SegmentID,
			HouseNumber: a.HouseNumber,
		}
	}
	for _, img := range w.Images {
		v.Images = append(v.Images, domain.VenueImage{ID: *img.ID, Small: *img.Src.Small, Large: *img.Src.Large})
	}
	for _, h := range w.Hours {
		v.Hours = append(v.Hours, domain.VenueHours{
			Day:  *h.Day,
			From: domain.TimeUnit{Hours: *h.From.Hours, Minutes: *h.From.Minutes},
			To:   domain.TimeUnit{Hours: *h.To.Hours, Minutes: *h.To.Minutes},
		})
	}
	return v, nil
}

func (l *venueLinkWire) toDomain() *domain.VenueLink {
	if l == nil {
		return nil
	}
	return &domain.VenueLink{Href: *l.Href, Text: *l.Text}
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

type reviewsWire struct {
	Reviews []reviewWire `json:"reviews" validate:"required,dive"`
	Ratings *struct {
		Average *float64 `json:"average" validate:"required"`
		Counts  []int    `json:"counts" validate:"required"`
	} `json:"ratings" validate:"required"`
}

type reviewWire struct {
	AuthorName              *string `json:"author_name" validate:"required"`
	AuthorURL               *string `json:"author_url" validate:"required"`
	ProfilePhotoURL         *string `json:"profile_photo_url" validate:"required"`
	Rating                  *int    `json:"rating" validate:"required"`
	RelativeTimeDescription *string `json:"relative_time_description" validate:"required"`
	Text                    *string `json:"text" validate:"required"`
	Time                    *int64  `json:"time" validate:"required"`
}

func parseReviewResponse(raw json.RawMessage) (*domain.Reviews, error) {
	var w reviewsWire
	if err := decode(raw, &w, "reviews"); err != nil {
		return nil, err
	}
	if err := check(&w, "reviews"); err != nil {
		return nil, err
	}

	out := &domain.Reviews{
		Reviews: make([]domain.Review, 0, len(w.Reviews)),
		Ratings: &domain.Ratings{Average: *w.Ratings.Average, Counts: w.Ratings.Counts},
	}
	for _, r := range w.Reviews {
		out.Reviews = append(out.Reviews, domain.Review{
			AuthorName:              *r.AuthorName,
			AuthorURL:               *r.AuthorURL,
			ProfilePhotoURL:         *r.ProfilePhotoURL,
			Rating:                  *r.Rating,
			RelativeTimeDescription: *r.RelativeTimeDescription,
			Text:                    *r.Text,
			Time:                    *r.Time,
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// decode unmarshals raw into v, reporting failures as validation errors.
func decode(raw json.RawMessage, v any, what string) error {
	if err := json.Unmarshal(raw, v); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return invalid(&domain.ValidationError{Field: what + "." + ve.Field, Reason: ve.Reason})
		}
		return invalid(&domain.ValidationError{Field: what, Reason: err.Error()})
	}
	return nil
}

// check enforces the validate tags on a decoded wire struct.
func check(v any, what string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fe.Namespace()
		// drop the wire struct's own name
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		return invalid(&domain.ValidationError{Field: what + "." + field, Reason: fe.Tag()})
	}
	return invalid(&domain.ValidationError{Field: what, Reason: err.Error()})
}

func invalid(ve *domain.ValidationError) error {
	return fmt.Errorf("%w: %w", domain.ErrInvalidResponse, ve)
}

func isEmptyObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return true
	}
	var m map[string]json.RawMessage
	return json.Unmarshal(t, &m) == nil && len(m) == 0
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
