package schema_test

import (
	"errors"
	"testing"

	"github.com/relabs-tech/rentdesk/core/schema"
)

const (
	ref1 = `{ "type" : "string" ,
		      "$id" : "http://some_host.com/string.json"}`
	ref2 = `{ "$id" : "http://some_host.com/maxlength.json",
	 		  "maxLength" : 5 }`

	top_level1 = `
	{ "$id" : "http://some_host.com/top1.json",
	  "allOf" : [
		{ "$ref" : "http://some_host.com/string.json" },
		{ "$ref" : "http://some_host.com/maxlength.json" }
		]
	}`
	top_level2 = `
	{ "$id" : "http://some_host.com/top2.json",
	  "allOf" : [
 		{ "$ref" : "http://some_host.com/string.json" },
 		{ "type": "string", "minlength": 3 }
	  ]
	}`

	roomSchemaID = "https://rentdesk.dev/schemas/room.json"
)

func TestValidateString(t *testing.T) {
	v, err := schema.NewValidator([]string{top_level1, top_level2}, []string{ref1, ref2})
	if err != nil {
		t.Fatalf("No error expected when creating validator, got %v", err)
	}

	schemaID1 := "http://some_host.com/top1.json"
	schemaID2 := "http://some_host.com/top2.json"
	jsonShortString := `"short"`
	jsonLongString := `"a very long string"`

	// Valid json
	if err := v.ValidateString(jsonShortString, schemaID1); err != nil {
		t.Fatalf("%s is expected to be valid with schema %s. Reported error was: %v", jsonShortString, schemaID1, err)
	}

	// Invalid json
	if err := v.ValidateString(jsonLongString, schemaID1); err == nil {
		t.Fatalf("%s is expected to be invalid with schema %s", jsonLongString, schemaID1)
	}

	// Valid json
	if err := v.ValidateString(jsonLongString, schemaID2); err != nil {
		t.Fatalf("%s is expected to be valid with schema %s. Reported error was: %v", jsonLongString, schemaID2, err)
	}
}

func TestHasSchema(t *testing.T) {
	v, err := schema.NewValidator([]string{top_level1, top_level2}, []string{ref1, ref2})
	if err != nil {
		t.Fatalf("No error expected when creating validator, got %v", err)
	}

	schemaID := "http://some_host.com/top1.json"
	if !v.HasSchema(schemaID) {
		t.Fatalf("%s schemaID is expected to be available", schemaID)
	}
	schemaID = "http://some_host.com/unknownscehma.json"
	if v.HasSchema(schemaID) {
		t.Fatalf("%s schemaID is not expected to be available", schemaID)
	}

	var none *schema.Validator
	if none.HasSchema(schemaID) {
		t.Fatal("nil validator has no schemas")
	}
}

func TestBuiltinRoom(t *testing.T) {
	v, err := schema.Builtin()
	if err != nil {
		t.Fatalf("cannot load builtin schemas: %v", err)
	}
	if !v.HasSchema(roomSchemaID) {
		t.Fatalf("expected builtin schema %s, have %v", roomSchemaID, v.SchemaIDs())
	}

	for _, valid := range []map[string]interface{}{
		{"room_number": "A-101", "status": "available", "price": "1500000"},
		{"status": "cleaning", "floor": 3},
		{},
	} {
		if err := v.ValidateObject(valid, roomSchemaID); err != nil {
			t.Fatalf("expected valid room %v, got %v", valid, err)
		}
	}

	invalid := map[string]interface{}{"room_number": 101, "status": true, "price": []interface{}{}}
	err = v.ValidateObject(invalid, roomSchemaID)
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Violations) < 3 {
		t.Fatalf("expected violations for room_number, status and price, got %v", verr.Violations)
	}
}

func TestBuiltinTransaction(t *testing.T) {
	v, err := schema.Builtin()
	if err != nil {
		t.Fatalf("cannot load builtin schemas: %v", err)
	}
	id := "https://rentdesk.dev/schemas/transaction.json"
	if err := v.ValidateObject(map[string]interface{}{"type": "income", "amount": 100}, id); err != nil {
		t.Fatalf("expected valid transaction, got %v", err)
	}
	if err := v.ValidateObject(map[string]interface{}{"type": "refund"}, id); err != nil {
		t.Fatalf("types and required properties are not enforced, got %v", err)
	}
	if err := v.ValidateObject(map[string]interface{}{"type": "income", "amount": true}, id); err == nil {
		t.Fatal("expected invalid amount")
	}
}
