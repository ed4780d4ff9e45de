package task

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Params is the flat parameter mapping of one task instance. Values are strings or ints.
type Params map[string]any

func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a copy of p overlaid with other.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", &MissingParameterError{Key: key}
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return "", &InvalidParameterError{Key: key, Value: v, Reason: "expected a string"}
	}
}

// Int accepts the integer shapes produced by Go code, YAML and JSON decoding.
func (p Params) Int(key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, &MissingParameterError{Key: key}
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, nil
		}
	}
	return 0, &InvalidParameterError{Key: key, Value: v, Reason: "expected an integer"}
}

// OneOf reads a string parameter and checks it against allowed.
func (p Params) OneOf(key string, allowed ...string) (string, error) {
	s, err := p.String(key)
	if err != nil {
		return "", err
	}
	if !slices.Contains(allowed, s) {
		return "", &InvalidParameterError{Key: key, Value: s, Reason: fmt.Sprintf("must be one of %v", allowed)}
	}
	return s, nil
}
