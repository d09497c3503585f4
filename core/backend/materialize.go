package backend

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/rentdesk/core/resource"
	"github.com/relabs-tech/rentdesk/core/tree"
)

// toRecords turns the value of a tree path into records. Object children
// become records keyed by their child key, sorted by key. Array children, as
// left behind by sparse legacy arrays, are keyed by index and nulls are
// skipped. Scalar children are not records and are skipped.
//
// ok is false if value itself is a scalar.
func toRecords(value interface{}) (records []resource.Record, ok bool) {
	records = []resource.Record{}
	switch v := value.(type) {
	case map[string]interface{}:
		for key, child := range v {
			if object, isObject := child.(map[string]interface{}); isObject {
				records = append(records, resource.NewRecord(key, object))
			}
		}
		resource.SortByKey(records)
	case []interface{}:
		for i, child := range v {
			if object, isObject := child.(map[string]interface{}); isObject {
				records = append(records, resource.NewRecord(strconv.Itoa(i), object))
			}
		}
	default:
		return nil, false
	}
	return records, true
}

// materialize reads all records at path. exists is false if there is nothing
// at path, or if path holds a scalar.
func (b *Backend) materialize(ctx context.Context, path string) (records []resource.Record, exists bool, err error) {
	value, exists, err := b.tree.Get(ctx, path)
	if err != nil || !exists {
		return nil, false, err
	}
	records, ok := toRecords(value)
	if !ok {
		return nil, false, nil
	}
	return records, true, nil
}

// collection reads a whole collection. A missing collection is empty.
func (b *Backend) collection(ctx context.Context, name string) ([]resource.Record, error) {
	records, _, err := b.materialize(ctx, name)
	if records == nil {
		records = []resource.Record{}
	}
	return records, err
}

// collections reads several collections concurrently. The result is keyed by
// collection name.
func (b *Backend) collections(ctx context.Context, names ...string) (map[string][]resource.Record, error) {
	results := make([][]resource.Record, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i := range names {
		i := i
		g.Go(func() error {
			records, err := b.collection(gctx, names[i])
			results[i] = records
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	byName := make(map[string][]resource.Record, len(names))
	for i, name := range names {
		byName[name] = results[i]
	}
	return byName, nil
}

// group runs reads concurrently. The first error cancels the context of the
// other reads.
type group struct {
	g   *errgroup.Group
	ctx context.Context
}

func newGroup(ctx context.Context) *group {
	g, gctx := errgroup.WithContext(ctx)
	return &group{g: g, ctx: gctx}
}

// Go runs f in its own goroutine
func (g *group) Go(f func(ctx context.Context) error) {
	g.g.Go(func() error { return f(g.ctx) })
}

// Wait waits for all reads and returns the first error
func (g *group) Wait() error {
	return g.g.Wait()
}

// find locates the record with id in collection. found is false if the
// collection or the record does not exist.
func (b *Backend) find(ctx context.Context, collection string, id int64) (record resource.Record, found bool, err error) {
	records, exists, err := b.materialize(ctx, collection)
	if err != nil || !exists {
		return record, false, err
	}
	record, found = resource.FindByID(records, id)
	return record, found, nil
}

// write stores record under its key
func (b *Backend) write(ctx context.Context, collection string, record resource.Record) error {
	return b.tree.Set(ctx, tree.JoinPath(collection, record.Key), record.Object())
}

// remove deletes the record stored under key
func (b *Backend) remove(ctx context.Context, collection, key string) error {
	return b.tree.Delete(ctx, tree.JoinPath(collection, key))
}
