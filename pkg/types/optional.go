// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"strconv"
)

// Optional is a float that may be undefined. Statistics that cannot be
// computed (a year with no predecessor, a percentage over an empty
// partition) are reported as undefined rather than as zero or NaN.
//
// Optional marshals to a JSON number when valid and to null otherwise.
type Optional struct {
	Value  float64
	Valid  bool
	Reason string
}

// Defined returns a valid Optional holding v.
func Defined(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// Undefined returns an invalid Optional carrying the reason it could not be computed.
func Undefined(reason string) Optional {
	return Optional{Reason: reason}
}

// Get returns the value and whether it is defined.
func (o Optional) Get() (float64, bool) {
	return o.Value, o.Valid
}

func (o Optional) String() string {
	if !o.Valid {
		return "undefined"
	}
	return strconv.FormatFloat(o.Value, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Defined(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (o Optional) MarshalYAML() (any, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.Value, nil
}
