package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNotNumeric = errors.New("not a number")

// ParseLenient parses a numeric string the way spreadsheet users write them:
// group separators and a trailing percent sign are ignored and a decimal
// comma is accepted. It reports false for blank, non-numeric or non-finite
// input.
func ParseLenient(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = cleanNumeric(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toNumber converts a decoded JSON value to a Number. Nil and blank strings
// are absent.
func toNumber(v any) (Number, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return None, nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return None, errNotNumeric
		}
		f = parsed
	case string:
		s := cleanNumeric(x)
		if s == "" {
			return None, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return None, errNotNumeric
		}
		f = parsed
	default:
		return None, errNotNumeric
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return None, errNotNumeric
	}
	return Some(f), nil
}
