package mcc

import "errors"

var (
	// ErrInvalidInput is returned for malformed shapes, non-positive radii
	// or cell sizes, and mismatched lengths between points, batch ids and
	// features.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateGeometry is returned when a batch item holds zero
	// points, leaving its bounding box undefined.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)
