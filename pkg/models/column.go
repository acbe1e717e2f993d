package models

import (
	"encoding/json"
	"math"
)

// Column is a 1-based column anchor. Producers emit either a single number or
// a list of numbers, and the distinction survives round-trips: a record with
// column 3 and one with column [3] remain different values.
type Column struct {
	Values []int
	Scalar bool
}

// ColumnAt builds a scalar column anchor.
func ColumnAt(n int) Column {
	return Column{Values: []int{n}, Scalar: true}
}

// ColumnList builds an array-form column anchor.
func ColumnList(ns ...int) Column {
	return Column{Values: ns}
}

// IsZero reports whether the column carries no position at all.
func (c Column) IsZero() bool {
	return len(c.Values) == 0 && !c.Scalar
}

// First returns the leading column value, or 0 when there is none.
func (c Column) First() int {
	if len(c.Values) == 0 {
		return 0
	}
	return c.Values[0]
}

// MarshalJSON emits a number for scalar anchors, an array for list anchors,
// and null when empty.
func (c Column) MarshalJSON() ([]byte, error) {
	if c.Scalar && len(c.Values) > 0 {
		return json.Marshal(c.Values[0])
	}
	if len(c.Values) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(c.Values)
}

// UnmarshalJSON accepts a number, an array of numbers, or null. Non-numeric
// entries are ignored rather than rejected.
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = ColumnFromValue(raw)
	return nil
}

// ColumnFromValue lowers a decoded JSON value into a Column. Unusable values
// yield the zero Column.
func ColumnFromValue(v interface{}) Column {
	switch t := v.(type) {
	case nil:
		return Column{}
	case float64:
		return ColumnAt(roundToInt(t))
	case int:
		return ColumnAt(t)
	case []interface{}:
		vals := make([]int, 0, len(t))
		for _, item := range t {
			if f, ok := item.(float64); ok {
				vals = append(vals, roundToInt(f))
			}
		}
		return Column{Values: vals}
	default:
		return Column{}
	}
}

func roundToInt(f float64) int {
	return int(math.Round(f))
}
