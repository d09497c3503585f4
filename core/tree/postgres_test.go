package tree_test

import (
	"os"
	"testing"

	"github.com/joeshaw/envdecode"
	"github.com/relabs-tech/rentdesk/core/csql"
	"github.com/relabs-tech/rentdesk/core/tree"
	"github.com/stretchr/testify/require"
)

// postgresTestService holds the configuration for the Postgres driver test
//
// use POSTGRES="host=localhost port=5432 user=postgres password=docker dbname=postgres sslmode=disable"
type postgresTestService struct {
	Postgres string `env:"POSTGRES,required" description:"the connection string for the Postgres DB"`
}

func TestPostgresDriver(t *testing.T) {
	if os.Getenv("POSTGRES") == "" {
		t.Skip("POSTGRES is not set")
	}
	var service postgresTestService
	require.NoError(t, envdecode.Decode(&service))

	db, err := csql.OpenWithSchema(service.Postgres, "_tree_unit_test_")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.ClearSchema())

	driver, err := tree.NewPostgres(db)
	require.NoError(t, err)
	testDriver(t, driver)
}
