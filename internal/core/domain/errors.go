package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse means the planner returned no alternatives at all.
	ErrEmptyResponse = errors.New("empty planner response")
	// ErrMissingPlan means the selected alternative has no response section.
	ErrMissingPlan = errors.New("alternative has no plan")
	// ErrLocaleRequired is returned by locale-scoped lookups when no locale is set.
	ErrLocaleRequired = errors.New("no locale specified, cannot geocode without a locale")
	// ErrUnsupportedPathCount is returned for requests asking for more than one route.
	ErrUnsupportedPathCount = errors.New("only a single route alternative is supported")
	// ErrInvalidCoordinate wraps out-of-range latitude/longitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrPoleUnsupported is returned when a search box is centred on a pole.
	ErrPoleUnsupported = errors.New("search box undefined at the poles")
	// ErrUnknownLocale is returned for country codes without a known centre.
	ErrUnknownLocale = errors.New("unknown locale")
	// ErrInvalidResponse marks upstream payloads that failed validation. It is
	// joined with a *ValidationError naming the field.
	ErrInvalidResponse = errors.New("invalid upstream response")
)

// UnexpectedAlternativeCountError is a planner reply whose alternative count
// differs from the requested path count.
type UnexpectedAlternativeCountError struct {
	Want int
	Got  int
}

func (e *UnexpectedAlternativeCountError) Error() string {
	return fmt.Sprintf("planner returned %d alternatives, requested %d", e.Got, e.Want)
}

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError is a network failure or a non-2xx status that survived retries.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Attempts   int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d after %d attempt(s)", e.Method, e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("%s %s: %v after %d attempt(s)", e.Method, e.URL, e.Err, e.Attempts)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a TransportError carrying the given status.
func IsStatus(err error, status int) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == status
}
