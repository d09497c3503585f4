package tree

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis is a Driver which keeps every row as a plain string key. Redis has no
// cheap prefix scan, so the driver maintains a set of child keys per collection
// and a set of collection names:
//
//	{namespace}:row:{collection}/{child}   the row
//	{namespace}:children:{collection}      set of child keys
//	{namespace}:collections                set of collection names
type Redis struct {
	rdb       redis.UniversalClient
	namespace string
}

// NewRedis returns a Redis driver. The namespace isolates several trees in one
// Redis database, it defaults to "tree".
func NewRedis(rdb redis.UniversalClient, namespace string) *Redis {
	if namespace == "" {
		namespace = "tree"
	}
	return &Redis{rdb: rdb, namespace: namespace}
}

func (r *Redis) rowKey(key string) string {
	return r.namespace + ":row:" + key
}

func (r *Redis) childrenKey(collection string) string {
	return r.namespace + ":children:" + collection
}

func (r *Redis) collectionsKey() string {
	return r.namespace + ":collections"
}

// Read implements Driver
func (r *Redis) Read(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.rdb.Get(ctx, r.rowKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// List implements Driver
func (r *Redis) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	var collections []string
	if collection, _, ok := strings.Cut(prefix, "/"); ok {
		collections = []string{collection}
	} else {
		all, err := r.rdb.SMembers(ctx, r.collectionsKey()).Result()
		if err != nil {
			return nil, err
		}
		for _, c := range all {
			if strings.HasPrefix(c, prefix) {
				collections = append(collections, c)
			}
		}
	}

	rows := map[string][]byte{}
	for _, collection := range collections {
		children, err := r.rdb.SMembers(ctx, r.childrenKey(collection)).Result()
		if err != nil {
			return nil, err
		}
		var keys, redisKeys []string
		for _, child := range children {
			key := collection + "/" + child
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
				redisKeys = append(redisKeys, r.rowKey(key))
			}
		}
		if len(redisKeys) == 0 {
			continue
		}
		values, err := r.rdb.MGet(ctx, redisKeys...).Result()
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if s, ok := v.(string); ok {
				rows[keys[i]] = []byte(s)
			}
		}
	}
	return rows, nil
}

// Write implements Driver
func (r *Redis) Write(ctx context.Context, key string, raw []byte) error {
	collection, child, _ := strings.Cut(key, "/")
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.rowKey(key), raw, 0)
		pipe.SAdd(ctx, r.childrenKey(collection), child)
		pipe.SAdd(ctx, r.collectionsKey(), collection)
		return nil
	})
	return err
}

// Delete implements Driver
func (r *Redis) Delete(ctx context.Context, key string) error {
	collection, child, _ := strings.Cut(key, "/")
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.rowKey(key))
		pipe.SRem(ctx, r.childrenKey(collection), child)
		return nil
	})
	return err
}

// DeletePrefix implements Driver
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	rows, err := r.List(ctx, prefix)
	if err != nil {
		return err
	}
	for key := range rows {
		if err := r.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
