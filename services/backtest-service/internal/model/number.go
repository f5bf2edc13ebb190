package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric JSON value that tolerates malformed input.
// Producers occasionally emit strings or nulls where a number is expected;
// decoding keeps the raw bytes so the document survives and the value can be
// excluded from computations instead of failing the whole record.
type Number struct {
	value float64
	valid bool
	raw   json.RawMessage
}

// NewNumber returns a valid Number holding v.
func NewNumber(v float64) Number {
	return Number{value: v, valid: true}
}

// Float returns the value and whether it is a usable finite number.
func (n Number) Float() (float64, bool) {
	return n.value, n.valid
}

// Valid reports whether the value is numeric.
func (n Number) Valid() bool {
	return n.valid
}

// Value returns the numeric value, or 0 when invalid.
func (n Number) Value() float64 {
	if !n.valid {
		return 0
	}
	return n.value
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{raw: append(json.RawMessage(nil), data...)}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var text string
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(trimmed)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	n.value = v
	n.valid = true
	n.raw = nil
	return nil
}

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	if n.valid {
		return json.Marshal(n.value)
	}
	if len(n.raw) > 0 {
		return n.raw, nil
	}
	return []byte("null"), nil
}
