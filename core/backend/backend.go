package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/rentdesk/core"
	"github.com/relabs-tech/rentdesk/core/access"
	"github.com/relabs-tech/rentdesk/core/logger"
	"github.com/relabs-tech/rentdesk/core/resource"
	"github.com/relabs-tech/rentdesk/core/schema"
	"github.com/relabs-tech/rentdesk/core/tree"
)

// Backend is the generic rest backend on top of a document tree
type Backend struct {
	config       Configuration
	tree         tree.Client
	router       *mux.Router
	validator    *schema.Validator
	params       *validator.Validate
	locker       Locker
	now          func() time.Time
	schemaIDs    map[string]string
	singletons   map[string]*singletonConfiguration
	relations    map[string]*relationConfiguration
	routes       []route
	interceptors map[string]Interceptor
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Config is the JSON description of collections, singletons and relations.
	// If empty, DefaultConfiguration is used.
	Config string
	// Tree is the document tree. This is mandatory.
	Tree tree.Client
	// Router is a mux router. If set, the backend installs its HTTP routes.
	Router *mux.Router
	// Validator validates payloads of collections with a schema_id. If nil,
	// the builtin schemas are used.
	Validator *schema.Validator
	// Locker serializes id generation. Defaults to NoLocker.
	Locker Locker
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Request is a single call into the backend
type Request struct {
	// Verb of this request
	Verb core.Verb
	// Path is "/collection[/id][/sub/segments][?query]"
	Path string
	// Payload is the request body of create, replace and update
	Payload map[string]interface{}
	// Params are extra parameters. They win over query parameters of the same
	// name unless they are nil.
	Params map[string]interface{}
	// Session is the actor. Only required by actor scoped routes.
	Session *access.Session
}

// call is a request with its path resolved
type call struct {
	Request
	path  resource.Path
	query url.Values
	// id is the {id} of a dispatch pattern
	id int64
}

// params returns query and extra parameters merged
func (c *call) params() map[string]interface{} {
	return resource.MergeParameters(c.query, c.Params)
}

// New realizes the actual backend. It panics on configuration errors.
func New(bb *Builder) *Backend {
	config, err := parseConfiguration(bb.Config)
	if err != nil {
		panic(err)
	}
	if bb.Tree == nil {
		panic("Tree is missing")
	}

	b := &Backend{
		config:       config,
		tree:         bb.Tree,
		router:       bb.Router,
		validator:    bb.Validator,
		params:       validator.New(),
		locker:       bb.Locker,
		now:          bb.Now,
		schemaIDs:    map[string]string{},
		singletons:   map[string]*singletonConfiguration{},
		relations:    map[string]*relationConfiguration{},
		interceptors: map[string]Interceptor{},
	}
	if b.locker == nil {
		b.locker = NoLocker{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.validator == nil {
		if b.validator, err = schema.Builtin(); err != nil {
			panic(err)
		}
	}

	for i := range config.Collections {
		c := &config.Collections[i]
		b.registerSchema(c.Resource, c.SchemaID)
	}
	for i := range config.Singletons {
		s := &config.Singletons[i]
		b.singletons[s.Resource] = s
		b.registerSchema(s.Resource, s.SchemaID)
	}
	for i := range config.Relations {
		r := &config.Relations[i]
		b.relations[r.Resource] = r
		if r.SchemaID != "" && !b.validator.HasSchema(r.SchemaID) {
			panic(fmt.Errorf("relation %s: unknown schema %s", r.Resource, r.SchemaID))
		}
	}

	b.routes = b.dispatchTable()
	if b.router != nil {
		b.handleRoutes(b.router)
	}
	return b
}

func (b *Backend) registerSchema(resource, schemaID string) {
	if schemaID == "" {
		return
	}
	if !b.validator.HasSchema(schemaID) {
		panic(fmt.Errorf("resource %s: unknown schema %s", resource, schemaID))
	}
	b.schemaIDs[resource] = schemaID
}

// Tree returns the document tree of the backend
func (b *Backend) Tree() tree.Client {
	return b.tree
}

// Do executes a request. Fixed routes like reports are served first, all other
// paths are generic collection CRUD.
//
// Errors are either an *Error or an unchanged error of the document tree.
func (b *Backend) Do(ctx context.Context, req Request) (interface{}, error) {
	rlog := logger.FromContext(ctx)
	p, query, err := resource.ParsePath(req.Path)
	if err != nil {
		return nil, invalidPath("%s", err.Error())
	}
	c := &call{Request: req, path: p, query: query}

	result, err := b.do(ctx, c)
	if errors.Is(err, tree.ErrInvalidPath) {
		return nil, invalidPath("%s", err.Error())
	}
	if err != nil && StatusOf(err) == http.StatusInternalServerError {
		rlog.WithError(err).Errorln("Error 4700: request failed", req.Verb, req.Path)
	}
	return result, err
}

func (b *Backend) do(ctx context.Context, c *call) (interface{}, error) {
	if handler, id, ok := b.lookup(c.Verb, c.Path); ok {
		c.id = id
		logger.FromContext(ctx).Debugln("dispatch", c.Verb, c.Path)
		return handler(ctx, c)
	}

	p := c.path
	if p.Collection == "" {
		return nil, invalidPath("missing collection")
	}

	switch c.Verb {
	case core.VerbRead:
		if p.HasID() {
			return b.readOne(ctx, c)
		}
		return b.list(ctx, c)
	case core.VerbCreate:
		return b.create(ctx, c)
	case core.VerbReplace, core.VerbUpdate:
		return b.replace(ctx, c)
	case core.VerbDelete:
		return b.delete(ctx, c)
	}
	return nil, invalidPath("unsupported verb '%s'", c.Verb)
}

// timestamp returns the current time in the format of created_at and updated_at
func (b *Backend) timestamp() string {
	return b.now().UTC().Format(timestampLayout)
}

// timestampLayout renders milliseconds in UTC, like "2024-06-15T08:30:00.000Z"
const timestampLayout = "2006-01-02T15:04:05.000Z"

// decodeDefault decodes a configured default object
func decodeDefault(raw json.RawMessage) map[string]interface{} {
	object := map[string]interface{}{}
	if len(raw) > 0 {
		json.Unmarshal(raw, &object)
	}
	return object
}
