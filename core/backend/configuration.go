// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Configuration holds a complete backend configuration
type Configuration struct {
	Collections []collectionConfiguration `json:"collections"`
	Singletons  []singletonConfiguration  `json:"singletons"`
	Relations   []relationConfiguration   `json:"relations"`
}

// collectionConfiguration attaches optional behaviour to a collection. Collections
// which are not configured work all the same, they are schemaless.
type collectionConfiguration struct {
	Resource    string `json:"resource"`
	Description string `json:"description"`
	SchemaID    string `json:"schema_id"`
}

// singletonConfiguration describes a singleton resource. A singleton lives in a
// collection of its own name and always has id 1.
type singletonConfiguration struct {
	Resource    string          `json:"resource"`
	Description string          `json:"description"`
	SchemaID    string          `json:"schema_id"`
	Default     json.RawMessage `json:"default"`
}

// relationConfiguration is a n:m join collection whose rows for one left id
// can be replaced as a whole with PUT /{left}/{id}/{right}.
type relationConfiguration struct {
	Resource    string `json:"resource"`
	Left        string `json:"left"`
	Right       string `json:"right"`
	SchemaID    string `json:"schema_id"`
	Description string `json:"description"`
}

// DefaultConfiguration is used when the builder has no configuration
const DefaultConfiguration = `{
  "collections": [
    {"resource": "rooms", "schema_id": "https://rentdesk.dev/schemas/room.json"},
    {"resource": "invoices", "schema_id": "https://rentdesk.dev/schemas/invoice.json"},
    {"resource": "transactions", "schema_id": "https://rentdesk.dev/schemas/transaction.json"}
  ],
  "singletons": [
    {
      "resource": "settings",
      "default": {
        "company_name": "",
        "currency": "VND",
        "language": "vi",
        "timezone": "Asia/Ho_Chi_Minh",
        "invoice_prefix": "INV",
        "invoice_due_days": 5
      }
    }
  ],
  "relations": [
    {
      "resource": "role_permissions",
      "left": "roles",
      "right": "permissions",
      "schema_id": "https://rentdesk.dev/schemas/role_permissions.json"
    }
  ]
}`

func parseConfiguration(data string) (Configuration, error) {
	var config Configuration
	if data == "" {
		data = DefaultConfiguration
	}
	if err := json.Unmarshal([]byte(data), &config); err != nil {
		return config, fmt.Errorf("parse error in backend configuration: %w", err)
	}
	seen := map[string]bool{}
	check := func(resource string) error {
		if resource == "" {
			return fmt.Errorf("resource without name in backend configuration")
		}
		if seen[resource] {
			return fmt.Errorf("resource %s configured twice", resource)
		}
		seen[resource] = true
		return nil
	}
	for _, c := range config.Collections {
		if err := check(c.Resource); err != nil {
			return config, err
		}
	}
	for _, s := range config.Singletons {
		if err := check(s.Resource); err != nil {
			return config, err
		}
		if len(s.Default) > 0 {
			var object map[string]interface{}
			if err := json.Unmarshal(s.Default, &object); err != nil {
				return config, fmt.Errorf("default of singleton %s is not an object: %w", s.Resource, err)
			}
		}
	}
	for _, r := range config.Relations {
		if err := check(r.Resource); err != nil {
			return config, err
		}
		if r.Left == "" || r.Right == "" {
			return config, fmt.Errorf("relation %s needs left and right", r.Resource)
		}
	}
	return config, nil
}
