package tree_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rentdesk/core/tree"
)

func TestRedisDriver(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	require.NoError(t, rdb.Ping(context.Background()).Err())

	namespace := "rentdesk-tree-test-" + time.Now().Format("150405.000")
	driver := tree.NewRedis(rdb, namespace)
	defer driver.DeletePrefix(context.Background(), "")
	testDriver(t, driver)
}
