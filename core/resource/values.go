package resource

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Number returns v as float64 if v has a numeric Go type. Strings are not
// numbers.
func Number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case decimal.Decimal:
		return n.InexactFloat64(), true
	}
	return 0, false
}

// Integer returns v as integer id. It accepts integral numbers and strings of
// digits.
func Integer(v interface{}) (int64, bool) {
	if s, ok := v.(string); ok {
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return i, err == nil
	}
	f, ok := Number(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// Amount returns v as money amount. Numbers and numeric strings are accepted,
// anything else counts as zero.
func Amount(v interface{}) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	if f, ok := Number(v); ok {
		return decimal.NewFromFloat(f)
	}
	return decimal.Zero
}

// AmountOf returns the money amount stored in a record property
func (r Record) AmountOf(property string) decimal.Decimal {
	v, _ := r.Get(property)
	return Amount(v)
}
