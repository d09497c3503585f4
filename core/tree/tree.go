/*
Package tree provides the document tree: a schemaless, hierarchical store
addressed by slash separated paths.

A path yields either a scalar, an object keyed by child keys, or "does not
exist". The top level segments are collections, the second level segments are
the storage keys of the records in a collection:

	rooms/room_7            -> {"id":7,"room_number":"A-101"}
	rooms/room_7/photos     -> nested value inside record room_7
	rooms                   -> {"room_7":{...},"room_8":{...}}

Physically the tree is kept by a Driver that only knows rows, one row per
record. The Tree translates arbitrary paths into row operations. There are
drivers for memory, a local filesystem, Postgres, Redis and AWS S3.

The tree gives no transactional guarantees. Writes below record level are
read-modify-write on the record row.
*/
package tree

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// ErrInvalidPath is returned for paths the tree cannot address
var ErrInvalidPath = errors.New("invalid tree path")

// Client is the document tree as seen by its users.
type Client interface {
	// Get reads the value at path. exists is false if there is nothing at path.
	Get(ctx context.Context, path string) (value interface{}, exists bool, err error)
	// Set replaces the value at path. Setting nil deletes the path.
	Set(ctx context.Context, path string, value interface{}) error
	// Delete removes path and everything below it. Deleting a non existing path is not an error.
	Delete(ctx context.Context, path string) error
}

// Driver stores the rows of a tree. A row key always has the form
// "{collection}/{child}", and the row value is the JSON encoding of the child.
type Driver interface {
	// Read returns the raw row for key.
	Read(ctx context.Context, key string) (raw []byte, exists bool, err error)
	// List returns all rows whose key starts with prefix, keyed by the full row key.
	// An empty prefix lists the entire tree.
	List(ctx context.Context, prefix string) (map[string][]byte, error)
	// Write creates or replaces the row for key.
	Write(ctx context.Context, key string, raw []byte) error
	// Delete removes the row for key.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes all rows whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Tree implements Client on top of a Driver
type Tree struct {
	driver Driver
}

// New returns a new Tree backed by driver
func New(driver Driver) *Tree {
	return &Tree{driver: driver}
}

// Driver returns the underlying driver
func (t *Tree) Driver() Driver {
	return t.driver
}

// SplitPath splits a tree path into its segments. Leading, trailing and
// duplicate slashes are ignored.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// JoinPath joins segments into a tree path.
func JoinPath(segments ...string) string {
	return strings.Join(SplitPath(strings.Join(segments, "/")), "/")
}

func validSegments(segments []string) error {
	for _, s := range segments {
		if s == "." || s == ".." || strings.ContainsAny(s, "\\\x00") {
			return fmt.Errorf("%w: illegal segment '%s'", ErrInvalidPath, s)
		}
	}
	return nil
}

// Get implements Client
func (t *Tree) Get(ctx context.Context, path string) (interface{}, bool, error) {
	segments := SplitPath(path)
	if err := validSegments(segments); err != nil {
		return nil, false, err
	}

	switch len(segments) {
	case 0:
		rows, err := t.driver.List(ctx, "")
		if err != nil {
			return nil, false, err
		}
		root := map[string]interface{}{}
		for key, raw := range rows {
			collection, child, ok := strings.Cut(key, "/")
			if !ok {
				continue
			}
			value, err := decode(raw)
			if err != nil {
				return nil, false, fmt.Errorf("cannot decode row %s: %w", key, err)
			}
			c, _ := root[collection].(map[string]interface{})
			if c == nil {
				c = map[string]interface{}{}
				root[collection] = c
			}
			c[child] = value
		}
		return root, len(root) > 0, nil
	case 1:
		prefix := segments[0] + "/"
		rows, err := t.driver.List(ctx, prefix)
		if err != nil {
			return nil, false, err
		}
		if len(rows) == 0 {
			return nil, false, nil
		}
		collection := make(map[string]interface{}, len(rows))
		for key, raw := range rows {
			value, err := decode(raw)
			if err != nil {
				return nil, false, fmt.Errorf("cannot decode row %s: %w", key, err)
			}
			collection[strings.TrimPrefix(key, prefix)] = value
		}
		return collection, true, nil
	}

	key := segments[0] + "/" + segments[1]
	raw, exists, err := t.driver.Read(ctx, key)
	if err != nil || !exists {
		return nil, false, err
	}
	value, err := decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("cannot decode row %s: %w", key, err)
	}
	for _, s := range segments[2:] {
		switch v := value.(type) {
		case map[string]interface{}:
			child, ok := v[s]
			if !ok {
				return nil, false, nil
			}
			value = child
		case []interface{}:
			i, ok := arrayIndex(s, len(v))
			if !ok || v[i] == nil {
				return nil, false, nil
			}
			value = v[i]
		default:
			return nil, false, nil
		}
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

// Set implements Client
func (t *Tree) Set(ctx context.Context, path string, value interface{}) error {
	if value == nil {
		return t.Delete(ctx, path)
	}
	segments := SplitPath(path)
	if err := validSegments(segments); err != nil {
		return err
	}

	switch len(segments) {
	case 0:
		return fmt.Errorf("%w: cannot set the root of the tree", ErrInvalidPath)
	case 1:
		children, err := toObject(value)
		if err != nil {
			return fmt.Errorf("%w: collection %s must be an object", ErrInvalidPath, segments[0])
		}
		prefix := segments[0] + "/"
		if err := t.driver.DeletePrefix(ctx, prefix); err != nil {
			return err
		}
		keys := make([]string, 0, len(children))
		for k := range children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if children[k] == nil {
				continue
			}
			raw, err := json.Marshal(children[k])
			if err != nil {
				return err
			}
			if err := t.driver.Write(ctx, prefix+k, raw); err != nil {
				return err
			}
		}
		return nil
	case 2:
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return t.driver.Write(ctx, segments[0]+"/"+segments[1], raw)
	}

	key := segments[0] + "/" + segments[1]
	var row interface{}
	raw, exists, err := t.driver.Read(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		if row, err = decode(raw); err != nil {
			return fmt.Errorf("cannot decode row %s: %w", key, err)
		}
	}
	encoded, err := normalize(value)
	if err != nil {
		return err
	}
	row = setIn(row, segments[2:], encoded)
	raw, err = json.Marshal(row)
	if err != nil {
		return err
	}
	return t.driver.Write(ctx, key, raw)
}

// Delete implements Client
func (t *Tree) Delete(ctx context.Context, path string) error {
	segments := SplitPath(path)
	if err := validSegments(segments); err != nil {
		return err
	}
	switch len(segments) {
	case 0:
		return t.driver.DeletePrefix(ctx, "")
	case 1:
		return t.driver.DeletePrefix(ctx, segments[0]+"/")
	case 2:
		return t.driver.Delete(ctx, segments[0]+"/"+segments[1])
	}

	key := segments[0] + "/" + segments[1]
	raw, exists, err := t.driver.Read(ctx, key)
	if err != nil || !exists {
		return err
	}
	row, err := decode(raw)
	if err != nil {
		return fmt.Errorf("cannot decode row %s: %w", key, err)
	}
	row, empty := deleteIn(row, segments[2:])
	if empty {
		return t.driver.Delete(ctx, key)
	}
	raw, err = json.Marshal(row)
	if err != nil {
		return err
	}
	return t.driver.Write(ctx, key, raw)
}

func decode(raw []byte) (interface{}, error) {
	var value interface{}
	err := json.Unmarshal(raw, &value)
	return value, err
}

// normalize converts value into its generic JSON representation
func normalize(value interface{}) (interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func toObject(value interface{}) (map[string]interface{}, error) {
	v, err := normalize(value)
	if err != nil {
		return nil, err
	}
	object, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("not an object")
	}
	return object, nil
}

func arrayIndex(s string, n int) (int, bool) {
	if s == "" {
		return 0, false
	}
	i := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		i = i*10 + int(r-'0')
		if i >= n {
			return 0, false
		}
	}
	return i, true
}

// setIn sets value below node at segments. Scalars on the way are replaced by
// objects, arrays are promoted to objects keyed by index.
func setIn(node interface{}, segments []string, value interface{}) interface{} {
	if len(segments) == 0 {
		return value
	}
	object, ok := node.(map[string]interface{})
	if !ok {
		object = map[string]interface{}{}
		if array, isArray := node.([]interface{}); isArray {
			for i, v := range array {
				if v != nil {
					object[fmt.Sprint(i)] = v
				}
			}
		}
	}
	object[segments[0]] = setIn(object[segments[0]], segments[1:], value)
	return object
}

// deleteIn removes segments below node and prunes objects which become empty.
// The second return value reports whether node itself is empty afterwards.
func deleteIn(node interface{}, segments []string) (interface{}, bool) {
	if len(segments) == 0 {
		return nil, true
	}
	object, ok := node.(map[string]interface{})
	if !ok {
		return node, false
	}
	child, ok := object[segments[0]]
	if !ok {
		return node, false
	}
	child, empty := deleteIn(child, segments[1:])
	if empty {
		delete(object, segments[0])
	} else {
		object[segments[0]] = child
	}
	return object, len(object) == 0
}
