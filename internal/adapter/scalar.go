package adapter

import (
	"fmt"
	"strconv"

	"redis3/internal/resp3"
)

// ToString converts a leaf Value to a string. Aggregates are rejected.
func (v Value) ToString() (string, error) {
	if v.Type.IsAggregate() {
		return "", fmt.Errorf("%w: got %s", ErrExpectsSimpleType, v.Type)
	}
	if v.Type == resp3.Null {
		return "", nil
	}
	return string(v.Bytes), nil
}

// ToInt64 parses a leaf Value as a base-10 integer.
func (v Value) ToInt64() (int64, error) {
	if v.Type.IsAggregate() {
		return 0, fmt.Errorf("%w: got %s", ErrExpectsSimpleType, v.Type)
	}
	if v.Type == resp3.Null {
		return 0, ErrNull
	}
	return strconv.ParseInt(string(v.Bytes), 10, 64)
}

// ToFloat64 parses a leaf Value as a RESP3 double.
func (v Value) ToFloat64() (float64, error) {
	if v.Type.IsAggregate() {
		return 0, fmt.Errorf("%w: got %s", ErrExpectsSimpleType, v.Type)
	}
	if v.Type == resp3.Null {
		return 0, ErrNull
	}
	return strconv.ParseFloat(string(v.Bytes), 64)
}

// ToStringSlice flattens an aggregate Value's direct children into strings.
func (v Value) ToStringSlice() ([]string, error) {
	if !v.Type.IsAggregate() {
		return nil, fmt.Errorf("%w: got %s", ErrExpectsAggregate, v.Type)
	}
	out := make([]string, 0, len(v.Children))
	for _, c := range v.Children {
		s, err := c.ToString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ToStringMap flattens a map-typed Value's key/value children into a
// map[string]string.
func (v Value) ToStringMap() (map[string]string, error) {
	if v.Type != resp3.Map {
		return nil, fmt.Errorf("%w: got %s", ErrExpectsMap, v.Type)
	}
	out := make(map[string]string, len(v.Children)/2)
	for i := 0; i+1 < len(v.Children); i += 2 {
		k, err := v.Children[i].ToString()
		if err != nil {
			return nil, err
		}
		val, err := v.Children[i+1].ToString()
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}
