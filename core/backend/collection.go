// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"errors"

	"github.com/relabs-tech/rentdesk/core"
	"github.com/relabs-tech/rentdesk/core/logger"
	"github.com/relabs-tech/rentdesk/core/resource"
	"github.com/relabs-tech/rentdesk/core/schema"
	"github.com/relabs-tech/rentdesk/core/tree"
)

// deleted is the response of a delete
type deleted struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// filterAndPage applies the request's filter and pagination to records
func (c *call) filterAndPage(records []resource.Record) ([]resource.Record, error) {
	page, err := resource.ParsePage(c.query, c.Params)
	if err != nil {
		return nil, invalidParameter("%s", err.Error())
	}
	return page.Apply(resource.BuildFilter(c.query, c.Params).Apply(records)), nil
}

// readPath reads a collection or a nested path. A scalar is returned as is, a
// missing path is an empty list.
func (b *Backend) readPath(ctx context.Context, c *call, path string) (interface{}, error) {
	value, exists, err := b.tree.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []resource.Record{}, nil
	}
	records, ok := toRecords(value)
	if !ok {
		return value, nil
	}
	records, err = c.filterAndPage(records)
	if err != nil {
		return nil, err
	}
	return b.interceptList(ctx, c, records)
}

// list is GET /{collection}[/{sub...}] where the second segment is not an id
func (b *Backend) list(ctx context.Context, c *call) (interface{}, error) {
	segments := append([]string{c.path.Collection}, c.path.SubSegments...)
	return b.readPath(ctx, c, tree.JoinPath(segments...))
}

// readOne is GET /{collection}/{id}[/{sub...}]
func (b *Backend) readOne(ctx context.Context, c *call) (interface{}, error) {
	record, found, err := b.find(ctx, c.path.Collection, *c.path.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound("%s %d not found", resource.KeyPrefix(c.path.Collection), *c.path.ID)
	}
	if len(c.path.SubSegments) > 0 {
		segments := append([]string{c.path.Collection, record.Key}, c.path.SubSegments...)
		return b.readPath(ctx, c, tree.JoinPath(segments...))
	}
	return b.interceptOne(ctx, c, record)
}

// validate checks payload against the schema of collection, if there is one
func (b *Backend) validate(collection string, payload map[string]interface{}) error {
	if payload == nil {
		return invalidParameter("payload must be a JSON object")
	}
	return b.validateSchema(b.schemaIDs[collection], payload)
}

// validateSchema checks payload against schemaID. An empty schemaID accepts everything.
func (b *Backend) validateSchema(schemaID string, payload map[string]interface{}) error {
	if schemaID == "" {
		return nil
	}
	err := b.validator.ValidateObject(payload, schemaID)
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return invalidParameter("%s", verr.Error())
	}
	return err
}

// create is POST /{collection}
func (b *Backend) create(ctx context.Context, c *call) (interface{}, error) {
	collection := c.path.Collection
	if c.path.HasID() || len(c.path.SubSegments) > 0 {
		return nil, invalidPath("cannot create at %s, post to /%s", c.path.String(), collection)
	}
	payload, err := b.interceptPayload(ctx, c, core.VerbCreate)
	if err != nil {
		return nil, err
	}
	if err := b.validate(collection, payload); err != nil {
		return nil, err
	}

	unlock, err := b.locker.Lock(ctx, collection)
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, _, err := b.materialize(ctx, collection)
	if err != nil {
		return nil, err
	}
	id := resource.NextID(records)
	record := resource.NewRecord(resource.KeyFor(collection, id), payload)
	record.ID, record.HasID = id, true
	if _, ok := record.Get("created_at"); !ok {
		record.Fields["created_at"] = b.timestamp()
	}
	if err := b.write(ctx, collection, record); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("Error 4710: cannot write", record.Key)
		return nil, err
	}
	return record, nil
}

// replace is PUT and PATCH /{collection}/{id}. Properties of the payload
// replace those of the stored record, all others are kept.
func (b *Backend) replace(ctx context.Context, c *call) (interface{}, error) {
	collection := c.path.Collection
	if !c.path.HasID() {
		return nil, invalidPath("missing id in %s", c.path.String())
	}
	if len(c.path.SubSegments) > 0 {
		return nil, invalidPath("cannot update nested path %s", c.path.String())
	}
	payload, err := b.interceptPayload(ctx, c, c.Verb)
	if err != nil {
		return nil, err
	}
	if err := b.validate(collection, payload); err != nil {
		return nil, err
	}

	existing, found, err := b.find(ctx, collection, *c.path.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound("%s %d not found", resource.KeyPrefix(collection), *c.path.ID)
	}
	merged := existing.Object()
	for k, v := range payload {
		merged[k] = v
	}
	record := resource.NewRecord(existing.Key, merged)
	record.ID, record.HasID = existing.ID, true
	record.Fields["updated_at"] = b.timestamp()
	if err := b.write(ctx, collection, record); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("Error 4711: cannot write", record.Key)
		return nil, err
	}
	return record, nil
}

// delete is DELETE /{collection}/{id}
func (b *Backend) delete(ctx context.Context, c *call) (interface{}, error) {
	collection := c.path.Collection
	if !c.path.HasID() {
		return nil, invalidPath("missing id in %s", c.path.String())
	}
	if len(c.path.SubSegments) > 0 {
		return nil, invalidPath("cannot delete nested path %s", c.path.String())
	}
	existing, found, err := b.find(ctx, collection, *c.path.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound("%s %d not found", resource.KeyPrefix(collection), *c.path.ID)
	}
	if err := b.remove(ctx, collection, existing.Key); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("Error 4712: cannot delete", existing.Key)
		return nil, err
	}
	return deleted{Message: "deleted successfully", ID: existing.ID}, nil
}
