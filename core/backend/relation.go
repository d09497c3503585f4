// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"

	"github.com/relabs-tech/rentdesk/core"
	"github.com/relabs-tech/rentdesk/core/logger"
	"github.com/relabs-tech/rentdesk/core/resource"
)

func (r *relationConfiguration) leftProperty() string {
	return core.Singular(r.Left) + "_id"
}

func (r *relationConfiguration) rightProperty() string {
	return core.Singular(r.Right) + "_id"
}

// payloadProperty is the list of right ids in a replace payload, e.g. "permission_ids"
func (r *relationConfiguration) payloadProperty() string {
	return core.Singular(r.Right) + "_ids"
}

// relatedIDs returns the right ids related to leftID
func (b *Backend) relatedIDs(ctx context.Context, r *relationConfiguration, leftID int64) (map[int64]bool, error) {
	rows, err := b.collection(ctx, r.Resource)
	if err != nil {
		return nil, err
	}
	ids := map[int64]bool{}
	for _, row := range rows {
		if left, ok := row.Int(r.leftProperty()); ok && left == leftID {
			if right, ok := row.Int(r.rightProperty()); ok {
				ids[right] = true
			}
		}
	}
	return ids, nil
}

// replaceRelation is PUT /{left}/{id}/{right}, for example
// PUT /roles/3/permissions with {"permission_ids":[1,2]}.
//
// All rows of the left id are deleted, then one row per right id is inserted
// with fresh ids. The writes are sequential and not atomic, a failure in
// between leaves the left id with fewer rows.
func (b *Backend) replaceRelation(ctx context.Context, c *call, r *relationConfiguration) (interface{}, error) {
	rlog := logger.FromContext(ctx)
	if c.Payload == nil {
		return nil, invalidParameter("payload must be a JSON object")
	}
	if err := b.validateSchema(r.SchemaID, c.Payload); err != nil {
		return nil, err
	}
	raw, ok := c.Payload[r.payloadProperty()].([]interface{})
	if !ok {
		return nil, invalidParameter("%s must be an array", r.payloadProperty())
	}
	rightIDs := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, ok := resource.Integer(v)
		if !ok {
			return nil, invalidParameter("%s contains invalid id '%v'", r.payloadProperty(), v)
		}
		rightIDs = append(rightIDs, id)
	}

	if _, found, err := b.find(ctx, r.Left, c.id); err != nil || !found {
		if err != nil {
			return nil, err
		}
		return nil, notFound("%s %d not found", resource.KeyPrefix(r.Left), c.id)
	}

	unlock, err := b.locker.Lock(ctx, r.Resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rows, err := b.collection(ctx, r.Resource)
	if err != nil {
		return nil, err
	}
	next := resource.NextID(rows)
	for _, row := range rows {
		if left, ok := row.Int(r.leftProperty()); ok && left == c.id {
			if err := b.remove(ctx, r.Resource, row.Key); err != nil {
				rlog.WithError(err).Errorln("Error 4720: cannot delete relation row", row.Key)
				return nil, err
			}
		}
	}

	now := b.timestamp()
	for _, rightID := range rightIDs {
		row := resource.NewRecord(resource.KeyFor(r.Resource, next), map[string]interface{}{
			r.leftProperty():  c.id,
			r.rightProperty(): rightID,
			"created_at":      now,
		})
		row.ID, row.HasID = next, true
		if err := b.write(ctx, r.Resource, row); err != nil {
			rlog.WithError(err).Errorln("Error 4721: cannot write relation row", row.Key)
			return nil, err
		}
		next++
	}
	return map[string]interface{}{
		"message":           "updated successfully",
		r.leftProperty():    c.id,
		r.payloadProperty(): rightIDs,
		"count":             len(rightIDs),
	}, nil
}
