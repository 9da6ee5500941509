package node

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// FlagSet is the set of flags of a command packed by the client and sent to
// the daemon. The daemon decodes the numbers as json.Number so that amounts
// keep their exact value, but values of the native Go types are accepted too
// for the actions executed in-process.
//
// A flag missing or of an unexpected type reads as the zero value.
//
// - implements cli.Flags
type FlagSet map[string]interface{}

// String implements cli.Flags.
func (fset FlagSet) String(name string) string {
	str, _ := fset[name].(string)
	return str
}

// StringSlice implements cli.Flags. Non-string elements are skipped.
func (fset FlagSet) StringSlice(name string) []string {
	switch v := fset[name].(type) {
	case []string:
		return v
	case []interface{}:
		values := make([]string, 0, len(v))
		for _, e := range v {
			str, ok := e.(string)
			if ok {
				values = append(values, str)
			}
		}

		return values
	default:
		return nil
	}
}

// Duration implements cli.Flags. The client sends the duration as a number of
// nanoseconds.
func (fset FlagSet) Duration(name string) time.Duration {
	if d, ok := fset[name].(time.Duration); ok {
		return d
	}

	ns, ok := fset.integer(name)
	if !ok {
		return 0
	}

	return time.Duration(ns)
}

// Path implements cli.Flags.
func (fset FlagSet) Path(name string) string {
	return fset.String(name)
}

// Int implements cli.Flags. A number with a fractional part reads as zero.
func (fset FlagSet) Int(name string) int {
	if i, ok := fset[name].(int); ok {
		return i
	}

	i, ok := fset.integer(name)
	if !ok || i < math.MinInt || i > math.MaxInt {
		return 0
	}

	return int(i)
}

// Uint64 implements cli.Flags. Negative or fractional numbers read as zero.
func (fset FlagSet) Uint64(name string) uint64 {
	switch v := fset[name].(type) {
	case uint64:
		return v
	case json.Number:
		value, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return 0
		}

		return value
	case float64:
		if v < 0 || v != math.Trunc(v) || v >= math.MaxUint64 {
			return 0
		}

		return uint64(v)
	default:
		return 0
	}
}

// Bool implements cli.Flags.
func (fset FlagSet) Bool(name string) bool {
	v, _ := fset[name].(bool)
	return v
}

// integer returns the signed integer stored under the name, either as a JSON
// number or a float64 without a fractional part.
func (fset FlagSet) integer(name string) (int64, bool) {
	switch v := fset[name].(type) {
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, false
		}

		return int64(v), true
	default:
		return 0, false
	}
}
