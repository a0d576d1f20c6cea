package ingest

import "errors"

var (
	// ErrMalformed indicates a payload that is not a valid reading.
	ErrMalformed = errors.New("ingest: malformed payload")

	// ErrUnaddressable indicates a topic that does not resolve to a
	// provisioned tenant and series.
	ErrUnaddressable = errors.New("ingest: unaddressable topic")
)
