package resource

import (
	"net/url"
	"strconv"
	"strings"
)

// ReservedParameters are query parameters which control pagination and
// sorting. They never become filter predicates.
var ReservedParameters = []string{"page", "pageSize", "limit", "offset", "sort", "order"}

func isReserved(key string) bool {
	for _, r := range ReservedParameters {
		if r == key {
			return true
		}
	}
	return false
}

// Filter is a conjunction of property predicates
type Filter map[string]interface{}

// MergeParameters merges query values with extra parameters. Extra parameters
// win on collision unless their value is nil. For repeated query keys the
// last value counts.
func MergeParameters(query url.Values, extra map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(query)+len(extra))
	for k, values := range query {
		if len(values) > 0 {
			merged[k] = values[len(values)-1]
		}
	}
	for k, v := range extra {
		if v != nil {
			merged[k] = v
		}
	}
	return merged
}

// BuildFilter builds the filter for a request from its query and extra
// parameters. Reserved parameters as well as nil and empty string values are
// dropped.
func BuildFilter(query url.Values, extra map[string]interface{}) Filter {
	filter := Filter{}
	for k, v := range MergeParameters(query, extra) {
		if isReserved(k) || v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		filter[k] = v
	}
	return filter
}

// Match returns true if r satisfies every predicate of the filter
func (f Filter) Match(r Record) bool {
	for property, predicate := range f {
		value, ok := r.Get(property)
		if !ok || !matches(predicate, value) {
			return false
		}
	}
	return true
}

// Apply returns the records which match the filter, in their original order.
// An empty filter returns records unchanged.
func (f Filter) Apply(records []Record) []Record {
	if len(f) == 0 {
		return records
	}
	result := []Record{}
	for _, r := range records {
		if f.Match(r) {
			result = append(result, r)
		}
	}
	return result
}

// matches compares a predicate with a property value. A string predicate is a
// case-insensitive substring match on string values and a numeric equality on
// numeric values. Everything else is strict equality.
func matches(predicate, value interface{}) bool {
	if p, ok := predicate.(string); ok {
		switch v := value.(type) {
		case string:
			return strings.Contains(strings.ToLower(v), strings.ToLower(p))
		default:
			n, isNumber := Number(v)
			if !isNumber {
				return false
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			return err == nil && f == n
		}
	}
	return equal(predicate, value)
}

func equal(a, b interface{}) bool {
	if na, ok := Number(a); ok {
		nb, ok := Number(b)
		return ok && na == nb
	}
	switch x := a.(type) {
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	}
	return false
}
