package tree

import (
	"context"
	"fmt"
	"time"

	"github.com/relabs-tech/rentdesk/core/csql"
)

// Postgres is a Driver which keeps the rows in a single key/value table
//
//	"_tree_"(key varchar PRIMARY KEY, value json, timestamp timestamp)
//
// Postgres is used as a plain row store here, the tree does not use any of
// its query or transaction capabilities.
type Postgres struct {
	db    *csql.DB
	table string
}

// NewPostgres creates the tree table if it does not exist and returns the driver
func NewPostgres(db *csql.DB) (*Postgres, error) {
	table := db.Schema + `."_tree_"`
	_, err := db.Exec(`CREATE table IF NOT EXISTS ` + table + `
(key varchar NOT NULL,
value json NOT NULL,
timestamp timestamp NOT NULL,
PRIMARY KEY(key)
);`)
	if err != nil {
		return nil, fmt.Errorf("cannot create tree table: %w", err)
	}
	return &Postgres{db: db, table: table}, nil
}

// Read implements Driver
func (p *Postgres) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT value FROM `+p.table+` WHERE key=$1;`, key).Scan(&raw)
	if err == csql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cannot read key '%s': %w", key, err)
	}
	return raw, true, nil
}

// List implements Driver
func (p *Postgres) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT key, value FROM `+p.table+` WHERE left(key, length($1)) = $1;`, prefix)
	if err != nil {
		return nil, fmt.Errorf("cannot list prefix '%s': %w", prefix, err)
	}
	defer rows.Close()
	result := map[string][]byte{}
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		result[key] = raw
	}
	return result, rows.Err()
}

// Write implements Driver
func (p *Postgres) Write(ctx context.Context, key string, raw []byte) error {
	now := time.Now().UTC()
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO `+p.table+`(key,value,timestamp)
VALUES($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET value=$2,timestamp=$3;`,
		key, string(raw), now)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("could not write key %s", key)
	}
	return nil
}

// Delete implements Driver
func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM `+p.table+` WHERE key=$1;`, key)
	return err
}

// DeletePrefix implements Driver
func (p *Postgres) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM `+p.table+` WHERE left(key, length($1)) = $1;`, prefix)
	return err
}
