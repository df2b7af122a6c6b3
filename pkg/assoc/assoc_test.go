package assoc

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyChainExists(t *testing.T) {
	m := map[string]interface{}{
		"stats": map[string]interface{}{
			"hero": map[string]interface{}{
				"wins": 3,
			},
			"flat": "x",
		},
	}

	tests := []struct {
		name string
		keys []string
		want bool
	}{
		{"empty chain", nil, true},
		{"top level", []string{"stats"}, true},
		{"full chain", []string{"stats", "hero", "wins"}, true},
		{"missing leaf", []string{"stats", "hero", "losses"}, false},
		{"missing top", []string{"nope"}, false},
		{"through scalar", []string{"stats", "flat", "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyChainExists(m, tt.keys...))
		})
	}
}

func TestHasStringKeys(t *testing.T) {
	assert.True(t, HasStringKeys(map[string]interface{}{"a": 1}))
	assert.False(t, HasStringKeys(map[string]interface{}{}))
	assert.False(t, HasStringKeys([]interface{}{1, 2}))
	assert.False(t, HasStringKeys("a"))
	assert.False(t, HasStringKeys(nil))
}

func TestAggregateSum(t *testing.T) {
	lhs := map[string]interface{}{
		"played": 2,
		"time":   1.5,
		"name":   "first",
		"nested": map[string]interface{}{"kills": 4, "deep": map[string]interface{}{"n": 1}},
		"only":   "lhs",
	}
	rhs := map[string]interface{}{
		"played": int64(3),
		"time":   "2.5",
		"name":   "second",
		"nested": map[string]interface{}{"kills": 6, "assists": 1, "deep": map[string]interface{}{"n": 2}},
		"extra":  json.Number("7"),
	}

	dst := map[string]interface{}{}
	require.NoError(t, Aggregate(dst, lhs, rhs, AggregateSum))

	assert.Equal(t, int64(5), dst["played"])
	assert.Equal(t, 4.0, dst["time"])
	assert.Equal(t, "first", dst["name"])
	assert.Equal(t, "lhs", dst["only"])
	assert.Equal(t, json.Number("7"), dst["extra"])

	nested := dst["nested"].(map[string]interface{})
	assert.Equal(t, int64(10), nested["kills"])
	assert.Equal(t, 1, nested["assists"])
	assert.Equal(t, int64(3), nested["deep"].(map[string]interface{})["n"])

	// inputs are untouched
	assert.Equal(t, 4, lhs["nested"].(map[string]interface{})["kills"])
	assert.Equal(t, 1, lhs["nested"].(map[string]interface{})["deep"].(map[string]interface{})["n"])
}

func TestAggregateOverflowPromotesToFloat(t *testing.T) {
	dst := map[string]interface{}{}
	require.NoError(t, Aggregate(dst,
		map[string]interface{}{"big": int64(math.MaxInt64), "neg": int64(math.MinInt64), "huge": uint64(math.MaxUint64)},
		map[string]interface{}{"big": 1, "neg": -1, "huge": uint(1)},
		AggregateSum))

	assert.IsType(t, float64(0), dst["big"])
	assert.InDelta(t, float64(math.MaxInt64)+1, dst["big"], 1e4)
	assert.IsType(t, float64(0), dst["neg"])
	assert.Less(t, dst["neg"].(float64), 0.0)
	assert.InDelta(t, float64(math.MaxUint64)+1, dst["huge"], 1e5)

	dst = map[string]interface{}{}
	require.NoError(t, Aggregate(dst,
		map[string]interface{}{"n": uint64(5)},
		map[string]interface{}{"n": uint(7)},
		AggregateSum))
	assert.Equal(t, int64(12), dst["n"])
}

func TestAggregateIntoExisting(t *testing.T) {
	dst := map[string]interface{}{"total": 10}
	require.NoError(t, Aggregate(dst, map[string]interface{}{"total": 1}, nil, AggregateSum))
	assert.Equal(t, int64(11), dst["total"])
}

func TestAggregateConflicts(t *testing.T) {
	tests := []struct {
		name string
		lhs  interface{}
		rhs  interface{}
		want interface{}
	}{
		{"map vs scalar", map[string]interface{}{"a": 1}, 5, map[string]interface{}{"a": 1}},
		{"scalar vs map", 5, map[string]interface{}{"a": 1}, 5},
		{"non numeric string", "abc", 2, "abc"},
		{"list vs list", []interface{}{1}, []interface{}{2}, []interface{}{1}},
		{"inf string not numeric", "inf", 1, "inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := map[string]interface{}{}
			err := Aggregate(dst,
				map[string]interface{}{"k": tt.lhs},
				map[string]interface{}{"k": tt.rhs},
				AggregateSum)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dst["k"])
		})
	}
}

func TestAggregateErrors(t *testing.T) {
	err := Aggregate(nil, nil, nil, AggregateSum)
	assert.Error(t, err)

	err = Aggregate(map[string]interface{}{}, nil, nil, AggregateType(42))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AggregateType(42)")
	assert.Equal(t, "sum", AggregateSum.String())
}
