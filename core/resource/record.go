package resource

import (
	"sort"

	"github.com/goccy/go-json"
)

// Reserved property names of a record
const (
	PropertyID         = "id"
	PropertyStorageKey = "storage_key"
)

// Record is a single JSON object of a collection. The id and the storage key
// are typed, every other property lives in Fields.
//
// HasID is false for legacy records without a numeric id. Such records are
// listed, but they are never found by id and do not take part in id
// generation.
type Record struct {
	Key    string
	ID     int64
	HasID  bool
	Fields map[string]interface{}
}

// NewRecord creates a record from a stored object. The object's "id" becomes
// the typed ID if it is numeric, "storage_key" is dropped since the key is
// authoritative.
func NewRecord(key string, object map[string]interface{}) Record {
	r := Record{Key: key, Fields: make(map[string]interface{}, len(object))}
	for k, v := range object {
		switch k {
		case PropertyStorageKey:
			continue
		case PropertyID:
			if id, ok := Integer(v); ok {
				r.ID = id
				r.HasID = true
				continue
			}
		}
		r.Fields[k] = v
	}
	return r
}

// Get returns a property of the record, including "id" and "storage_key"
func (r Record) Get(property string) (interface{}, bool) {
	switch property {
	case PropertyID:
		if r.HasID {
			return r.ID, true
		}
	case PropertyStorageKey:
		if r.Key != "" {
			return r.Key, true
		}
		return nil, false
	}
	v, ok := r.Fields[property]
	if ok && v == nil {
		return nil, false
	}
	return v, ok
}

// String returns a property as string. Non-string values yield "".
func (r Record) String(property string) string {
	v, _ := r.Get(property)
	s, _ := v.(string)
	return s
}

// Int returns a property as integer id, accepting numbers and numeric strings
func (r Record) Int(property string) (int64, bool) {
	v, ok := r.Get(property)
	if !ok {
		return 0, false
	}
	return Integer(v)
}

// Bool returns a property as boolean. ok is false if the property is missing
// or not a boolean.
func (r Record) Bool(property string) (value bool, ok bool) {
	v, _ := r.Get(property)
	value, ok = v.(bool)
	return
}

// Object returns the record in its storage form: all fields plus the id, but
// without the storage key.
func (r Record) Object() map[string]interface{} {
	object := make(map[string]interface{}, len(r.Fields)+1)
	for k, v := range r.Fields {
		object[k] = v
	}
	if r.HasID {
		object[PropertyID] = r.ID
	}
	return object
}

// MarshalJSON renders the record as one flat object including "storage_key"
func (r Record) MarshalJSON() ([]byte, error) {
	object := r.Object()
	if r.Key != "" {
		object[PropertyStorageKey] = r.Key
	}
	return json.Marshal(object)
}

// FindByID scans records for id. Records are located by their id property,
// not by their storage key.
func FindByID(records []Record, id int64) (Record, bool) {
	for _, r := range records {
		if r.HasID && r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Index builds a lookup table by id. Records without id are left out.
func Index(records []Record) map[int64]Record {
	index := make(map[int64]Record, len(records))
	for _, r := range records {
		if r.HasID {
			index[r.ID] = r
		}
	}
	return index
}

// SortByKey sorts records by storage key
func SortByKey(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Key < records[j].Key
	})
}
