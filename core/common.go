package core

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Verb is one of the request verbs understood by the document-tree backend.
type Verb string

// all supported verbs
const (
	VerbRead    Verb = "read"
	VerbCreate  Verb = "create"
	VerbReplace Verb = "replace"
	VerbUpdate  Verb = "update"
	VerbDelete  Verb = "delete"
)

// UnmarshalJSON is a custom JSON unmarshaller
func (v *Verb) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Verb(s)
	switch *v {
	case VerbRead, VerbCreate, VerbReplace, VerbUpdate, VerbDelete:
		return nil
	default:
		return fmt.Errorf("%s is not a valid verb", s)
	}
}

// VerbFromMethod maps an HTTP method to its verb. The second return value is
// false for methods the backend does not serve.
func VerbFromMethod(method string) (Verb, bool) {
	switch method {
	case http.MethodGet:
		return VerbRead, true
	case http.MethodPost:
		return VerbCreate, true
	case http.MethodPut:
		return VerbReplace, true
	case http.MethodPatch:
		return VerbUpdate, true
	case http.MethodDelete:
		return VerbDelete, true
	}
	return "", false
}

// Plural returns the plural form of the passed singular string.
//
// This is the algorithm used to create idiomatic collection names
func Plural(singular string) string {
	if strings.HasSuffix(singular, "y") {
		return strings.TrimSuffix(singular, "y") + "ies"
	}
	if strings.HasSuffix(singular, "child") {
		return strings.TrimSuffix(singular, "child") + "children"
	}
	return singular + "s"
}

// Singular returns the naive singular form of a collection name: exactly one
// trailing "s" is removed, anything else is returned unchanged. "invoices"
// becomes "invoice", "staff" stays "staff".
//
// This is not the inverse of Plural. Storage keys depend on this exact rule,
// so irregular plurals must not be special-cased here.
func Singular(plural string) string {
	return strings.TrimSuffix(plural, "s")
}
