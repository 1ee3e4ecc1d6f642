// Package domain defines the core types shared across the crossover
// backtester: bars, timestamped series, tri-state measures and signals.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bar represents a single OHLCV bar for a symbol.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Market identifies the market a symbol trades on.
type Market string

const (
	MarketUS Market = "us"
	MarketCN Market = "cn"
)

// ---------------------------------------------------------------------------
// Signals
// ---------------------------------------------------------------------------

// Signal is a directional trading intent.
type Signal int8

const (
	Short Signal = -1
	Flat  Signal = 0
	Long  Signal = 1
)

// String returns "long", "short" or "flat".
func (s Signal) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// ---------------------------------------------------------------------------
// Measures
// ---------------------------------------------------------------------------

// State tells whether a Measure carries a value and, if not, why.
type State uint8

const (
	// Defined marks a computed value.
	Defined State = iota
	// InsufficientHistory marks a rolling value before its window is full.
	InsufficientHistory
	// NoPriorPeriod marks a change value at the first period.
	NoPriorPeriod
)

// String returns a short label for the state.
func (s State) String() string {
	switch s {
	case Defined:
		return "defined"
	case InsufficientHistory:
		return "insufficient-history"
	case NoPriorPeriod:
		return "no-prior-period"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Measure is a numeric value that may be undefined. Undefined measures never
// carry a computed number; Value is zero for them.
type Measure struct {
	Value float64
	State State
}

// Of returns a defined Measure.
func Of(v float64) Measure { return Measure{Value: v, State: Defined} }

// Undefined returns an undefined Measure in the given state.
func Undefined(s State) Measure { return Measure{State: s} }

// Defined reports whether m carries a value.
func (m Measure) Defined() bool { return m.State == Defined }

// OrZero returns the value, or zero when m is undefined. Running sums use it
// so that undefined entries contribute nothing.
func (m Measure) OrZero() float64 {
	if m.State != Defined {
		return 0
	}
	return m.Value
}

// MarshalJSON encodes undefined measures as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if m.State != Defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}
