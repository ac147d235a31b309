package chain

import "math"

// Payload is the decoded `data` object of a request body. Numbers are float64,
// as produced by encoding/json.
type Payload map[string]any

// Has reports whether field is present and truthy.
func (p Payload) Has(field string) bool {
	return Truthy(p[field])
}

// Value returns the raw value of field, nil when absent.
func (p Payload) Value(field string) any {
	return p[field]
}

// Truthy reports whether a decoded JSON value counts as set: nil, false, 0
// and the empty string do not.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}

// MaxInteger is the largest accepted integer value, 2^53-1. Beyond it a JSON
// number can no longer be told apart from its neighbours.
const MaxInteger = 1<<53 - 1

// PositiveInteger reports whether v is a JSON number with no fractional part
// in [1, MaxInteger] that also fits in an int.
func PositiveInteger(v any) bool {
	f, ok := v.(float64)
	if !ok {
		return false
	}
	return f > 0 && f <= MaxInteger && f <= float64(math.MaxInt) && f == math.Trunc(f)
}
