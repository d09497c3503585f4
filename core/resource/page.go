// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package resource

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Page describes sorting and pagination of a list request. A zero Page
// returns records unchanged.
type Page struct {
	Sort   string
	Desc   bool
	Limit  int
	Offset int
}

// ParsePage extracts sorting and pagination from the query and extra
// parameters. "limit" and "offset" take precedence over "page" and
// "pageSize"; pages are 1-based.
func ParsePage(query url.Values, extra map[string]interface{}) (Page, error) {
	var p Page
	params := MergeParameters(query, extra)

	p.Sort = stringParameter(params["sort"])
	switch order := strings.ToLower(stringParameter(params["order"])); order {
	case "", "asc":
	case "desc":
		p.Desc = true
	default:
		return p, fmt.Errorf("invalid order '%s', expected asc or desc", order)
	}

	limit, hasLimit, err := intParameter(params, "limit")
	if err != nil {
		return p, err
	}
	offset, hasOffset, err := intParameter(params, "offset")
	if err != nil {
		return p, err
	}
	if hasLimit || hasOffset {
		p.Limit, p.Offset = limit, offset
		return p, nil
	}

	pageSize, hasPageSize, err := intParameter(params, "pageSize")
	if err != nil {
		return p, err
	}
	page, hasPage, err := intParameter(params, "page")
	if err != nil {
		return p, err
	}
	if hasPageSize {
		if hasPage && page < 1 {
			return p, fmt.Errorf("invalid page %d, pages start at 1", page)
		}
		if !hasPage {
			page = 1
		}
		p.Limit = pageSize
		p.Offset = (page - 1) * pageSize
	}
	return p, nil
}

func stringParameter(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func intParameter(params map[string]interface{}, key string) (int, bool, error) {
	v, ok := params[key]
	if !ok || v == nil || v == "" {
		return 0, false, nil
	}
	var i int64
	switch x := v.(type) {
	case string:
		var err error
		if i, err = strconv.ParseInt(strings.TrimSpace(x), 10, 0); err != nil {
			return 0, false, fmt.Errorf("invalid %s '%s'", key, x)
		}
	default:
		if i, ok = Integer(x); !ok {
			return 0, false, fmt.Errorf("invalid %s '%v'", key, x)
		}
	}
	if i < 0 {
		return 0, false, fmt.Errorf("invalid %s %d, must not be negative", key, i)
	}
	return int(i), true, nil
}

// Apply sorts and slices records. The input slice is not modified.
func (p Page) Apply(records []Record) []Record {
	if p.Sort == "" && p.Limit == 0 && p.Offset == 0 {
		return records
	}
	result := make([]Record, len(records))
	copy(result, records)
	if p.Sort != "" {
		sort.SliceStable(result, func(i, j int) bool {
			a, aok := result[i].Get(p.Sort)
			b, bok := result[j].Get(p.Sort)
			if !aok || !bok {
				// missing values last, regardless of order
				return aok && !bok
			}
			c := compare(a, b)
			if p.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if p.Offset >= len(result) {
		return []Record{}
	}
	result = result[p.Offset:]
	if p.Limit > 0 && p.Limit < len(result) {
		result = result[:p.Limit]
	}
	return result
}

// compare orders numbers before booleans before strings
func compare(a, b interface{}) int {
	rank := func(v interface{}) int {
		if _, ok := Number(v); ok {
			return 0
		}
		if _, ok := v.(bool); ok {
			return 1
		}
		return 2
	}
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 0:
		x, _ := Number(a)
		y, _ := Number(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case 1:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
