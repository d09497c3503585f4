// Package csql opens the Postgres database which backs the Postgres document-tree driver
package csql

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/lib/pq" // load database driver for postgres

	"github.com/relabs-tech/rentdesk/core/logger"
)

// DB encapsulates a standard sql.DB with a schema
type DB struct {
	*sql.DB
	Schema string
}

// ErrNoRows is returned by Scan when QueryRow doesn't return a
// row. In such a case, QueryRow returns a placeholder *Row value that
// defers this error until a Scan.
var ErrNoRows = sql.ErrNoRows

var validSchema = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// OpenWithSchema opens a postgres database with a schema.
// The schema gets created if it does not exist yet.
func OpenWithSchema(dataSourceName, schema string) (*DB, error) {
	if len(schema) == 0 {
		schema = "public"
	}
	if !validSchema.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name '%s'", schema)
	}
	logger.Default().Infoln("connecting to postgres database, schema:", schema)
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if schema != "public" {
		if _, err = db.Exec(`CREATE schema IF NOT EXISTS ` + schema + `;`); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &DB{DB: db, Schema: schema}, nil
}

// ClearSchema clears all the data contained in the database's schema
// Technically this is done by dropping the schema and then recreating it
func (db *DB) ClearSchema() error {
	if db.Schema == "public" {
		return fmt.Errorf("refuse to drop public schema")
	}
	_, err := db.Exec(`DROP SCHEMA ` + db.Schema + ` CASCADE;
	CREATE schema IF NOT EXISTS ` + db.Schema + `;`)
	return err
}
