package resource

import (
	"strconv"

	"github.com/relabs-tech/rentdesk/core"
)

// KeyPrefix returns the storage key prefix of a collection
func KeyPrefix(collection string) string {
	return core.Singular(collection)
}

// KeyFor returns the storage key of the record with id in collection
func KeyFor(collection string, id int64) string {
	return KeyPrefix(collection) + "_" + strconv.FormatInt(id, 10)
}

// NextID returns the id of the next record in a collection, the highest
// existing id plus one. An empty collection starts at 1.
func NextID(records []Record) int64 {
	var max int64
	for _, r := range records {
		if r.HasID && r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}
