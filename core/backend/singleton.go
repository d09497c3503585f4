package backend

import (
	"context"

	"github.com/relabs-tech/rentdesk/core/logger"
	"github.com/relabs-tech/rentdesk/core/resource"
)

// singletonID is the id of every singleton record
const singletonID int64 = 1

// upserted is the response of a singleton upsert. Message is "created" or
// "updated".
type upserted struct {
	Message string          `json:"message"`
	Data    resource.Record `json:"data"`
}

// readSingleton returns the singleton record of collection. If there are
// several records, which can only happen through direct tree writes, the one
// with the highest id wins.
func (b *Backend) readSingleton(ctx context.Context, collection string) (record resource.Record, found bool, err error) {
	records, _, err := b.materialize(ctx, collection)
	if err != nil {
		return record, false, err
	}
	for _, r := range records {
		if r.HasID && (!found || r.ID > record.ID) {
			record, found = r, true
		}
	}
	return record, found, nil
}

// DefaultFor returns the configured default of a singleton. The result is a
// fresh copy.
func (b *Backend) DefaultFor(collection string) map[string]interface{} {
	s, ok := b.singletons[collection]
	if !ok {
		return map[string]interface{}{}
	}
	return decodeDefault(s.Default)
}

// readSingletonOrDefault is GET /{singleton}. A missing singleton reads as its
// configured default, which is never written to the tree.
func (b *Backend) readSingletonOrDefault(ctx context.Context, collection string) (interface{}, error) {
	record, found, err := b.readSingleton(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !found {
		return b.DefaultFor(collection), nil
	}
	return record, nil
}

// upsertSingleton is POST and PUT /{singleton}. An existing record is merged
// with the payload in place, otherwise a record with id 1 is created.
func (b *Backend) upsertSingleton(ctx context.Context, c *call, collection string) (interface{}, bool, error) {
	payload, err := b.interceptPayload(ctx, c, c.Verb)
	if err != nil {
		return nil, false, err
	}
	if payload == nil {
		return nil, false, invalidParameter("payload must be a JSON object")
	}

	unlock, err := b.locker.Lock(ctx, collection)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	existing, found, err := b.readSingleton(ctx, collection)
	if err != nil {
		return nil, false, err
	}

	var merged map[string]interface{}
	key := resource.KeyFor(collection, singletonID)
	id := singletonID
	now := b.timestamp()
	if found {
		merged = existing.Object()
		key, id = existing.Key, existing.ID
	} else {
		merged = map[string]interface{}{"created_at": now}
	}
	for k, v := range payload {
		merged[k] = v
	}
	if found {
		merged["updated_at"] = now
	}
	if err := b.validate(collection, merged); err != nil {
		return nil, false, err
	}

	record := resource.NewRecord(key, merged)
	record.ID, record.HasID = id, true
	if err := b.write(ctx, collection, record); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("Error 4713: cannot write singleton", collection)
		return nil, false, err
	}
	message := "created"
	if found {
		message = "updated"
	}
	logger.FromContext(ctx).Debugln(collection, message)
	return upserted{Message: message, Data: record}, !found, nil
}
