package resource

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Path is a parsed request target
type Path struct {
	Collection  string
	ID          *int64
	SubSegments []string
}

// HasID returns true if the path carries a numeric id
func (p Path) HasID() bool {
	return p.ID != nil
}

// Last returns the last segment of the path, or "" for an empty path
func (p Path) Last() string {
	if len(p.SubSegments) > 0 {
		return p.SubSegments[len(p.SubSegments)-1]
	}
	if p.ID != nil {
		return strconv.FormatInt(*p.ID, 10)
	}
	return p.Collection
}

// String returns the canonical form of the path without query
func (p Path) String() string {
	segments := []string{}
	if p.Collection != "" {
		segments = append(segments, p.Collection)
	}
	if p.ID != nil {
		segments = append(segments, strconv.FormatInt(*p.ID, 10))
	}
	segments = append(segments, p.SubSegments...)
	return "/" + strings.Join(segments, "/")
}

// ParsePath parses a REST style path, optionally followed by "?query", into a
// Path and its query values. An empty path yields a Path with an empty
// collection and no error; callers must treat that as an invalid path.
//
// The only errors are a malformed query string and an all-digit id which does
// not fit into an int64.
func ParsePath(raw string) (Path, url.Values, error) {
	var p Path
	rawPath, rawQuery, _ := strings.Cut(raw, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return p, nil, fmt.Errorf("malformed query: %w", err)
	}

	var segments []string
	for _, s := range strings.Split(strings.Trim(rawPath, "/"), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return p, query, nil
	}
	p.Collection = segments[0]
	rest := segments[1:]
	if len(rest) > 0 && isDigits(rest[0]) {
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return p, query, fmt.Errorf("malformed id '%s'", rest[0])
		}
		p.ID = &id
		rest = rest[1:]
	}
	if len(rest) > 0 {
		p.SubSegments = rest
	}
	return p, query, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
