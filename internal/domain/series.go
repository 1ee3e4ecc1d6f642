package domain

import (
	"fmt"
	"math"
	"time"
)

// Point is one timestamped value of a Series.
type Point[T any] struct {
	Time  time.Time `json:"time"`
	Value T         `json:"value"`
}

// Series is an ordered sequence of timestamped values.
type Series[T any] []Point[T]

// PriceSeries holds adjusted close prices with strictly increasing
// timestamps.
type PriceSeries = Series[float64]

// NewPriceSeries validates points and returns them as a PriceSeries. The
// input slice is copied.
func NewPriceSeries(points []Point[float64]) (PriceSeries, error) {
	if err := ValidatePrices(points); err != nil {
		return nil, err
	}
	return PriceSeries(points).Clone(), nil
}

// ValidatePrices checks that s is non-empty, that its timestamps strictly
// increase and that every price is finite and positive. It returns
// ErrEmptySeries or a wrapped ErrMisalignedSeries.
func ValidatePrices(s PriceSeries) error {
	if len(s) == 0 {
		return ErrEmptySeries
	}
	for i, p := range s {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) || p.Value <= 0 {
			return fmt.Errorf("price %v at %s: %w", p.Value, p.Time.Format(time.DateOnly), ErrMisalignedSeries)
		}
		if i > 0 && !p.Time.After(s[i-1].Time) {
			return fmt.Errorf("timestamp %s not after %s: %w",
				p.Time.Format(time.RFC3339), s[i-1].Time.Format(time.RFC3339), ErrMisalignedSeries)
		}
	}
	return nil
}

// Len returns the number of points.
func (s Series[T]) Len() int { return len(s) }

// Clone returns an independent copy of s.
func (s Series[T]) Clone() Series[T] {
	if s == nil {
		return nil
	}
	out := make(Series[T], len(s))
	copy(out, s)
	return out
}

// Times returns the timestamps of s in order.
func (s Series[T]) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Time
	}
	return out
}

// Values returns the values of s in order.
func (s Series[T]) Values() []T {
	out := make([]T, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Last returns the final point of s. The second return value is false when s
// is empty.
func (s Series[T]) Last() (Point[T], bool) {
	if len(s) == 0 {
		return Point[T]{}, false
	}
	return s[len(s)-1], true
}

// Aligned returns ErrMisalignedSeries unless a and b share the same length
// and timestamps.
func Aligned[A, B any](a Series[A], b Series[B]) error {
	if len(a) != len(b) {
		return fmt.Errorf("length %d != %d: %w", len(a), len(b), ErrMisalignedSeries)
	}
	for i := range a {
		if !a[i].Time.Equal(b[i].Time) {
			return fmt.Errorf("index %d: %s != %s: %w", i,
				a[i].Time.Format(time.RFC3339), b[i].Time.Format(time.RFC3339), ErrMisalignedSeries)
		}
	}
	return nil
}
