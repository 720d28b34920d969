package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Country is a named locale resolving to a reference coordinate.
type Country string

const (
	Singapore Country = "SG"
	Malaysia  Country = "MY"
	Indonesia Country = "ID"
	Thailand  Country = "TH"
	Israel    Country = "IL"
	France    Country = "FR"
	UK        Country = "GB"
	US        Country = "US"
)

var countryCenters = map[Country]Coordinate{
	Singapore: {Latitude: 1.3521, Longitude: 103.8198},
	Malaysia:  {Latitude: 3.1390, Longitude: 101.6869},
	Indonesia: {Latitude: -6.2088, Longitude: 106.8456},
	Thailand:  {Latitude: 13.7563, Longitude: 100.5018},
	Israel:    {Latitude: 32.0853, Longitude: 34.7818},
	France:    {Latitude: 48.8566, Longitude: 2.3522},
	UK:        {Latitude: 51.5074, Longitude: -0.1278},
	US:        {Latitude: 39.8283, Longitude: -98.5795},
}

// Center returns the country's reference coordinate.
func (c Country) Center() (Coordinate, error) {
	center, ok := countryCenters[Country(strings.ToUpper(string(c)))]
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrUnknownLocale, string(c))
	}
	return center.Named(string(c)), nil
}

// Locale is the reference point for proximity geocoding: either an explicit
// coordinate or a named country. The zero value means "unset".
type Locale struct {
	Point   *Coordinate
	Country Country
}

// LocaleAt pins the locale to a coordinate.
func LocaleAt(c Coordinate) Locale { return Locale{Point: &c} }

// LocaleIn pins the locale to a country.
func LocaleIn(country Country) Locale { return Locale{Country: country} }

// ParseLocale accepts a country code or a "lat,lon" pair. Empty input yields
// the unset locale.
func ParseLocale(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Locale{}, nil
	}
	if latStr, lonStr, ok := strings.Cut(s, ","); ok {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if errLat != nil || errLon != nil {
			return Locale{}, &ValidationError{Field: "locale", Reason: fmt.Sprintf("%q is not a lat,lon pair", s)}
		}
		c, err := NewCoordinate(lat, lon)
		if err != nil {
			return Locale{}, err
		}
		return LocaleAt(c), nil
	}
	country := Country(strings.ToUpper(s))
	if _, err := country.Center(); err != nil {
		return Locale{}, err
	}
	return LocaleIn(country), nil
}

// IsZero reports whether the locale is unset.
func (l Locale) IsZero() bool { return l.Point == nil && l.Country == "" }

// Resolve returns the coordinate to search around.
func (l Locale) Resolve() (Coordinate, error) {
	switch {
	case l.Point != nil:
		return *l.Point, nil
	case l.Country != "":
		return l.Country.Center()
	default:
		return Coordinate{}, ErrLocaleRequired
	}
}
