package backend

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rentdesk/core"
	"github.com/relabs-tech/rentdesk/core/tree"
)

func TestLookup(t *testing.T) {
	b := New(&Builder{Tree: tree.NewMemoryTree()})

	_, id, ok := b.lookup(core.VerbUpdate, "/notifications/42/read")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, _, ok = b.lookup(core.VerbRead, "/notifications/42/read")
	assert.False(t, ok, "verbs must match")

	_, _, ok = b.lookup(core.VerbUpdate, "/notifications/abc/read")
	assert.False(t, ok)

	_, _, ok = b.lookup(core.VerbRead, "/reports/profit-loss?startDate=2024-01-01")
	assert.True(t, ok, "the query is ignored")

	_, _, ok = b.lookup(core.VerbRead, "/reports/unknown")
	assert.False(t, ok)

	_, _, ok = b.lookup(core.VerbRead, "/settings")
	assert.True(t, ok)
	_, _, ok = b.lookup(core.VerbDelete, "/settings")
	assert.False(t, ok)

	_, id, ok = b.lookup(core.VerbReplace, "/roles/3/permissions")
	require.True(t, ok)
	assert.Equal(t, int64(3), id)
}

func TestToRecords(t *testing.T) {
	records, ok := toRecords(map[string]interface{}{
		"room_2": map[string]interface{}{"id": 2.0},
		"room_1": map[string]interface{}{"id": 1.0},
		"note":   "scalar children are skipped",
	})
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, "room_1", records[0].Key)
	assert.Equal(t, int64(2), records[1].ID)

	records, ok = toRecords([]interface{}{nil, map[string]interface{}{"a": "b"}, 3.0})
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0].Key)
	assert.False(t, records[0].HasID)

	_, ok = toRecords("scalar")
	assert.False(t, ok)
}

func TestConfiguration(t *testing.T) {
	_, err := parseConfiguration(`{"collections":[{"resource":"rooms"},{"resource":"rooms"}]}`)
	assert.Error(t, err)

	_, err = parseConfiguration(`{"singletons":[{"resource":"settings","default":[1]}]}`)
	assert.Error(t, err)

	assert.Panics(t, func() {
		New(&Builder{Tree: tree.NewMemoryTree(), Config: `{"collections":[{"resource":"rooms","schema_id":"https://unknown.dev/x.json"}]}`})
	})
	assert.Panics(t, func() { New(&Builder{}) })

	at := time.Date(2024, 6, 15, 8, 30, 0, 123000000, time.FixedZone("ICT", 7*3600))
	b := New(&Builder{Tree: tree.NewMemoryTree(), Now: func() time.Time { return at }})
	assert.Equal(t, "2024-06-15T01:30:00.123Z", b.timestamp())
}

func testLocker(t *testing.T, locker Locker) {
	ctx := context.Background()
	var mutex sync.Mutex
	inside := 0
	maxInside := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "rooms")
			if !assert.NoError(t, err) {
				return
			}
			mutex.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mutex.Unlock()
			time.Sleep(time.Millisecond)
			mutex.Lock()
			inside--
			mutex.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)

	// different names do not block each other
	unlock, err := locker.Lock(ctx, "rooms")
	require.NoError(t, err)
	other, err := locker.Lock(ctx, "tenants")
	require.NoError(t, err)
	other()

	// a held lock honours the context
	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(timeout, "rooms")
	assert.Error(t, err)
	unlock()
}

func TestLocalLocker(t *testing.T) {
	testLocker(t, NewLocalLocker())
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	testLocker(t, NewRedisLocker(rdb, "rentdesk-test-"+time.Now().Format("150405.000"), 5*time.Second))
}

func TestParseLockerType(t *testing.T) {
	for s, expected := range map[string]LockerType{"": LockerNone, "none": LockerNone, "local": LockerLocal, "redis": LockerRedis} {
		lt, err := ParseLockerType(s)
		require.NoError(t, err)
		assert.Equal(t, expected, lt)
	}
	_, err := ParseLockerType("zookeeper")
	assert.Error(t, err)
}
