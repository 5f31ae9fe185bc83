package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the pipeline. Adapters classify every failure
// into one of these; the router's fallback decisions key off them.
var (
	ErrInvalidDateFormat   = errors.New("invalid date format")
	ErrUnsupportedSymbol   = errors.New("unsupported symbol")
	ErrRateLimited         = errors.New("provider rate limited")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrMalformedResponse   = errors.New("malformed provider response")
	ErrMissingBaseline     = errors.New("baseline price not set")
)

// ErrorKind is the wire/summary form of the taxonomy.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindInvalidDateFormat  ErrorKind = "invalid_date_format"
	KindUnsupportedSymbol  ErrorKind = "unsupported_symbol"
	KindRateLimited        ErrorKind = "rate_limited"
	KindUnavailable        ErrorKind = "unavailable"
	KindMalformed          ErrorKind = "malformed"
	KindAllProvidersFailed ErrorKind = "all_providers_failed"
	KindMissingBaseline    ErrorKind = "missing_baseline"
	KindCanceled           ErrorKind = "canceled"
	KindStorage            ErrorKind = "storage"
)

// KindOf maps an error to its taxonomy kind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidDateFormat):
		return KindInvalidDateFormat
	case errors.Is(err, ErrUnsupportedSymbol):
		return KindUnsupportedSymbol
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrProviderUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrMissingBaseline):
		return KindMissingBaseline
	}
	var apf *AllProvidersFailedError
	if errors.As(err, &apf) {
		return KindAllProvidersFailed
	}
	return KindUnavailable
}

// Attempt records one provider try inside a router fallback chain.
type Attempt struct {
	Provider ProviderKind
	Kind     ErrorKind
	Err      error
}

// AllProvidersFailedError is the terminal per-instrument error: every
// candidate in the chain was tried and failed. It enumerates each
// attempt in chain order.
type AllProvidersFailedError struct {
	Code     string
	Attempts []Attempt
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.Kind))
	}
	return fmt.Sprintf("all providers failed for %s [%s]", e.Code, strings.Join(parts, ", "))
}

func (e *AllProvidersFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}
