package dto

import (
	"encoding/json"
	"math"
)

// Number is a float64 that encodes NaN and ±Inf as JSON null instead of
// failing the whole response.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Float64 returns the underlying value.
func (n Number) Float64() float64 {
	return float64(n)
}
