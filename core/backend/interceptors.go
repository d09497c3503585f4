package backend

import (
	"context"

	"github.com/relabs-tech/rentdesk/core"
	"github.com/relabs-tech/rentdesk/core/logger"
	"github.com/relabs-tech/rentdesk/core/resource"
)

// Intercepted describes the request an interceptor is called for
type Intercepted struct {
	// Collection for which this request is made
	Collection string
	// ID of the record, 0 for create
	ID int64
	// Verb of this request
	Verb core.Verb
	// Parameters are the query and extra parameters of the request
	Parameters map[string]interface{}
}

// Interceptor is an in-band hook on collection requests. See HandleResourceRequest.
type Interceptor func(ctx context.Context, request Intercepted, data map[string]interface{}) (map[string]interface{}, error)

// HandleResourceRequest installs an in-band interceptor for a given collection and a set of verbs.
// If no verbs are specified, the interceptor will be installed for the read verb only.
//
// Any returned non-nil error will abort the operation. For write verbs the error is reported
// as invalid parameter (400), for reads it is returned unchanged (500).
//
// If the interceptor returns a non-nil map, this will replace the original data. In case of read,
// the caller will see the interceptor's version of every record. In case of create, replace or
// update, the interceptor's version of the payload will be written to the tree. Delete cannot be
// intercepted.
func (b *Backend) HandleResourceRequest(collection string, interceptor Interceptor, verbs ...core.Verb) {
	if len(verbs) == 0 {
		verbs = []core.Verb{core.VerbRead}
	}
	for _, verb := range verbs {
		if verb == core.VerbDelete {
			logger.Default().Fatalf("resource request handler for %s: delete cannot be intercepted", collection)
		}
		key := requestKey(collection, verb)
		if _, ok := b.interceptors[key]; ok {
			logger.Default().Fatalf("resource request handler for %s already installed", key)
		}
		logger.Default().Debugf("install resource request handler for %s", key)
		b.interceptors[key] = interceptor
	}
}

func requestKey(collection string, verb core.Verb) string {
	return collection + "(" + string(verb) + ")"
}

func (c *call) intercepted(verb core.Verb) Intercepted {
	request := Intercepted{Collection: c.path.Collection, Verb: verb, Parameters: c.params()}
	if c.path.ID != nil {
		request.ID = *c.path.ID
	}
	return request
}

// interceptPayload runs the write interceptor on the request payload
func (b *Backend) interceptPayload(ctx context.Context, c *call, verb core.Verb) (map[string]interface{}, error) {
	interceptor, ok := b.interceptors[requestKey(c.path.Collection, verb)]
	if !ok || c.Payload == nil {
		return c.Payload, nil
	}
	data, err := interceptor(ctx, c.intercepted(verb), c.Payload)
	if err != nil {
		return nil, invalidParameter("%s", err.Error())
	}
	if data != nil {
		return data, nil
	}
	return c.Payload, nil
}

// interceptOne runs the read interceptor on a single record
func (b *Backend) interceptOne(ctx context.Context, c *call, record resource.Record) (interface{}, error) {
	interceptor, ok := b.interceptors[requestKey(c.path.Collection, core.VerbRead)]
	if !ok {
		return record, nil
	}
	request := c.intercepted(core.VerbRead)
	request.ID = record.ID
	data, err := interceptor(ctx, request, record.Object())
	if err != nil {
		return nil, err
	}
	if data != nil {
		intercepted := resource.NewRecord(record.Key, data)
		intercepted.ID, intercepted.HasID = record.ID, record.HasID
		return intercepted, nil
	}
	return record, nil
}

// interceptList runs the read interceptor on every record of a top level list
func (b *Backend) interceptList(ctx context.Context, c *call, records []resource.Record) (interface{}, error) {
	if _, ok := b.interceptors[requestKey(c.path.Collection, core.VerbRead)]; !ok || len(c.path.SubSegments) > 0 || c.path.HasID() {
		return records, nil
	}
	result := make([]resource.Record, 0, len(records))
	for _, r := range records {
		intercepted, err := b.interceptOne(ctx, c, r)
		if err != nil {
			return nil, err
		}
		result = append(result, intercepted.(resource.Record))
	}
	return result, nil
}
