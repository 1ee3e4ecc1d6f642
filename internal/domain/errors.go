package domain

import "errors"

var (
	// ErrInvalidWindow is returned for a non-positive window or one longer
	// than the price series.
	ErrInvalidWindow = errors.New("invalid window")
	// ErrEmptySeries is returned when a zero-length price series is supplied.
	ErrEmptySeries = errors.New("empty series")
	// ErrMisalignedSeries is returned when series lengths or timestamps
	// diverge between pipeline stages.
	ErrMisalignedSeries = errors.New("misaligned series")
)
