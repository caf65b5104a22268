package viewsync

import (
	"errors"
	"fmt"
)

// LayerInitError reports a failed Initialize. The layer that already exists
// is left as it was.
type LayerInitError struct {
	Layer string
	Err   error
}

func (e *LayerInitError) Error() string {
	return fmt.Sprintf("viewsync: init layer %q: %v", e.Layer, e.Err)
}

func (e *LayerInitError) Unwrap() error { return e.Err }

// FetchError reports a refresh that did not produce data: a network failure,
// a non-success status or an undecodable body.
type FetchError struct {
	Epoch Epoch
	BBox  BoundingBox
	// Superseded is set when a newer settle was issued before this failure
	// arrived.
	Superseded bool
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("viewsync: fetch epoch %d %s: %v", e.Epoch, e.BBox, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from the data service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// DecodeError wraps a response body that is not a GeoJSON FeatureCollection.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode feature collection: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrorKind classifies a fetch failure for metrics and logs.
func ErrorKind(err error) string {
	var se *StatusError
	var de *DecodeError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		return "status"
	case errors.As(err, &de):
		return "decode"
	default:
		return "network"
	}
}
