// Package assoc holds helpers for nested string-keyed maps, the shape decoded
// JSON, BSON documents and Redis hashes share once they reach Go.
package assoc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AggregateType selects how Aggregate resolves a key present on both sides.
type AggregateType int

const (
	// AggregateSum adds numeric leaves together.
	AggregateSum AggregateType = iota + 1
)

func (t AggregateType) String() string {
	switch t {
	case AggregateSum:
		return "sum"
	default:
		return fmt.Sprintf("AggregateType(%d)", int(t))
	}
}

// KeyChainExists reports whether every key in the chain resolves, descending
// through nested maps. An empty chain is trivially present.
func KeyChainExists(m map[string]interface{}, keys ...string) bool {
	cur := m
	for i, k := range keys {
		v, ok := cur[k]
		if !ok {
			return false
		}
		if i == len(keys)-1 {
			return true
		}
		next, ok := v.(map[string]interface{})
		if !ok {
			return false
		}
		cur = next
	}
	return true
}

// HasStringKeys reports whether v is a non-empty string-keyed map.
func HasStringKeys(v interface{}) bool {
	m, ok := v.(map[string]interface{})
	return ok && len(m) > 0
}

// Aggregate merges lhs and then rhs into dst. Keys missing from dst are copied
// in. For keys already present, numeric values are summed, two non-empty
// string-keyed maps are merged recursively, and any other conflict keeps the
// value that arrived first.
func Aggregate(dst, lhs, rhs map[string]interface{}, t AggregateType) error {
	if dst == nil {
		return fmt.Errorf("aggregate: destination map is nil")
	}
	switch t {
	case AggregateSum:
		aggregateSum(dst, lhs)
		aggregateSum(dst, rhs)
		return nil
	default:
		return fmt.Errorf("aggregate: unsupported aggregation %s", t)
	}
}

func aggregateSum(dst, src map[string]interface{}) {
	for k, v := range src {
		existing, ok := dst[k]
		if !ok {
			dst[k] = clone(v)
			continue
		}
		if a, aok := toNumber(existing); aok {
			if b, bok := toNumber(v); bok {
				dst[k] = a.add(b).value()
				continue
			}
		}
		if HasStringKeys(existing) && HasStringKeys(v) {
			aggregateSum(existing.(map[string]interface{}), v.(map[string]interface{}))
		}
	}
}

// clone deep-copies nested maps and slices so later sums never write through
// into the caller's inputs.
func clone(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = clone(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = clone(e)
		}
		return out
	default:
		return v
	}
}

type number struct {
	i       int64
	f       float64
	isFloat bool
}

func (n number) add(o number) number {
	if n.isFloat || o.isFloat {
		return number{f: n.float() + o.float(), isFloat: true}
	}
	sum := n.i + o.i
	if (o.i > 0 && sum < n.i) || (o.i < 0 && sum > n.i) {
		// int64 overflow continues in float64
		return number{f: float64(n.i) + float64(o.i), isFloat: true}
	}
	return number{i: sum}
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n number) value() interface{} {
	if n.isFloat {
		return n.f
	}
	return n.i
}

// toNumber accepts Go numeric kinds and numeric strings, which is how counters
// come back from Redis and form input.
func toNumber(v interface{}) (number, bool) {
	switch t := v.(type) {
	case int:
		return number{i: int64(t)}, true
	case int8:
		return number{i: int64(t)}, true
	case int16:
		return number{i: int64(t)}, true
	case int32:
		return number{i: int64(t)}, true
	case int64:
		return number{i: t}, true
	case uint:
		return fromUint(uint64(t)), true
	case uint8:
		return number{i: int64(t)}, true
	case uint16:
		return number{i: int64(t)}, true
	case uint32:
		return number{i: int64(t)}, true
	case uint64:
		return fromUint(t), true
	case float32:
		return number{f: float64(t), isFloat: true}, true
	case float64:
		return number{f: t, isFloat: true}, true
	case string:
		return parseNumber(t)
	case json.Number:
		return parseNumber(t.String())
	}
	return number{}, false
}

func fromUint(u uint64) number {
	if u > math.MaxInt64 {
		return number{f: float64(u), isFloat: true}
	}
	return number{i: int64(u)}
}

func parseNumber(s string) (number, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return number{}, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return number{i: i}, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return number{f: f, isFloat: true}, true
	}
	return number{}, false
}
