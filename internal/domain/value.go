package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a percentage that is either a finite number or explicitly unknown.
// The zero Value is unknown.
type Value struct {
	v     float64
	known bool
}

// Unknown returns the "not measured" marker.
func Unknown() Value { return Value{} }

// Known wraps x. NaN and ±Inf collapse to Unknown so a Value is never non-finite.
func Known(x float64) Value {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Value{}
	}
	return Value{v: x, known: true}
}

// Get returns the number and whether it is known.
func (v Value) Get() (float64, bool) { return v.v, v.known }

// IsKnown reports whether the value was measured.
func (v Value) IsKnown() bool { return v.known }

// String renders the value for logs and fixtures: "unknown" or the number.
func (v Value) String() string {
	if !v.known {
		return "unknown"
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// Percent formats the value for display, e.g. "0.80%", or "—" when unknown.
func (v Value) Percent() string {
	if !v.known {
		return "—"
	}
	return strconv.FormatFloat(v.v, 'f', 2, 64) + "%"
}

// MarshalJSON encodes a known value as a JSON number and Unknown as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.known {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON accepts a number or null. Anything else decodes as Unknown.
func (v *Value) UnmarshalJSON(data []byte) error {
	if x, ok := decodeNumber(data); ok {
		*v = Known(x)
		return nil
	}
	*v = Unknown()
	return nil
}
