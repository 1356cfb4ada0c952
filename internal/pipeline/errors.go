package pipeline

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies why a fetch failed.
type FetchErrorKind string

// Fetch failure kinds.
const (
	FetchTimeout    FetchErrorKind = "timeout"
	FetchHTTPStatus FetchErrorKind = "http_status"
	FetchNetwork    FetchErrorKind = "network"
)

// FetchError is returned by Fetcher implementations.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == FetchHTTPStatus:
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchKind reports whether err wraps a FetchError of the given kind.
func IsFetchKind(err error, kind FetchErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

// FetchKindOf returns the FetchError kind wrapped by err, or "" when err is not a fetch failure.
func FetchKindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Extraction error codes surfaced to clients.
const (
	CodeHeadingNotFound = "heading_not_found"
	CodeTableNotFound   = "table_not_found"
	CodeTableEmpty      = "table_empty"
	CodePayloadNotFound = "payload_not_found"
	CodePayloadInvalid  = "payload_invalid"
	CodeStationNotFound = "station_not_found"
	CodeFeedInvalid     = "feed_invalid"
	CodeFetchFailed     = "fetch_failed"
	CodeUnexpected      = "unexpected"
)

// ExtractionError reports that a document did not contain the expected structure.
type ExtractionError struct {
	Code string
	Hint string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Hint)
	}
	return e.Code
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError builds an ExtractionError with a human hint.
func NewExtractionError(code, hint string) *ExtractionError {
	return &ExtractionError{Code: code, Hint: hint}
}
