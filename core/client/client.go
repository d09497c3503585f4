// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package client provides easy and fast in-process access to the REST api

Instead of marshalling HTTP, the client talks directly to the mux router. The client
is the tool of choice if one request handler needs to call other handlers to fulfill
its task. It is also perfectly suited for unit tests.

Responses are unwrapped from their {"data": ...} envelope. Failures carry the
message of the {"error": ...} envelope.
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/rentdesk/core/access"
	"github.com/relabs-tech/rentdesk/core/resource"
)

// Client provides easy access to the REST API.
type Client struct {
	router     *mux.Router
	httpClient *http.Client
	url        string
	token      string
	session    *access.Session
	ctx        context.Context

	defaultHeaders map[string]string
}

// Error is returned for responses with an unexpected status code
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("handler returned status %d: %s", e.Status, e.Message)
}

// NewWithRouter creates a client to make pseudo-REST requests to the backend,
// through the mux router
//
// WithSession() adds a session to the request context.
// WithContext() specifies a different base context all together.
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router:         router,
		defaultHeaders: map[string]string{},
	}
}

// NewWithURL creates a client to make REST requests to the backend
//
// WithToken adds an authorization token to the request header.
func NewWithURL(url string) Client {
	return Client{
		url:            strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// WithHeader returns a new client with a default header added
func (c Client) WithHeader(key string, value string) Client {
	headers := make(map[string]string, len(c.defaultHeaders)+1)
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}
	headers[key] = value
	c.defaultHeaders = headers
	return c
}

// WithToken returns a new client which sends token as bearer token
func (c Client) WithToken(token string) Client {
	c.token = token
	return c
}

// WithSession returns a new client acting as session. Against the mux
// router the session is put into the request context, against a URL it is
// sent in the access headers.
func (c Client) WithSession(session *access.Session) Client {
	c.session = session
	return c
}

// WithUser returns a new client acting as userID with roles
func (c Client) WithUser(userID int64, roles ...string) Client {
	return c.WithSession(&access.Session{UserID: userID, Roles: roles})
}

// WithAdminAuthorization returns a new client acting as admin user 1
func (c Client) WithAdminAuthorization() Client {
	return c.WithUser(1, "admin")
}

// WithContext returns a new client with specific request context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the base context of requests
func (c Client) Context() context.Context {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if c.session != nil && c.router != nil {
		ctx = access.ContextWithSession(ctx, c.session)
	}
	return ctx
}

// do executes a request and returns status, header and raw body
func (c Client) do(method, path string, header map[string]string, body interface{}) (int, http.Header, []byte, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return http.StatusInternalServerError, nil, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	r, err := http.NewRequestWithContext(c.Context(), method, c.url+path, reader)
	if err != nil {
		return http.StatusInternalServerError, nil, nil, err
	}
	if reader != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.defaultHeaders {
		r.Header.Add(key, value)
	}
	for key, value := range header {
		r.Header.Add(key, value)
	}

	if c.router != nil {
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		res := rec.Result()
		return res.StatusCode, res.Header, rec.Body.Bytes(), nil
	}

	if c.token != "" {
		r.Header.Add("Authorization", "Bearer "+c.token)
	}
	if c.session != nil {
		r.Header.Set(access.UserIDHeader, strconv.FormatInt(c.session.UserID, 10))
		if len(c.session.Roles) > 0 {
			r.Header.Set(access.RolesHeader, strings.Join(c.session.Roles, ","))
		}
	}
	res, err := c.httpClient.Do(r)
	if err != nil {
		return http.StatusInternalServerError, nil, nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	return res.StatusCode, res.Header, resBody, err
}

// unwrap checks status against expected and decodes the response into
// result. Bodies with a "data" or "error" member are envelopes, everything
// else, like the body of /version, is decoded as it is. result can be a raw
// *[]byte or nil.
func unwrap(status, expected int, body []byte, result interface{}) error {
	var members map[string]json.RawMessage
	data := body
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &members); err == nil {
		if raw, ok := members["error"]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil {
				message = s
			}
		}
		if raw, ok := members["data"]; ok {
			data = raw
		} else if _, ok := members["error"]; ok {
			data = nil
		}
	}
	if status != expected {
		return &Error{Status: status, Message: message}
	}
	if result == nil || len(data) == 0 {
		return nil
	}
	if raw, ok := result.(*[]byte); ok {
		*raw = data
		return nil
	}
	return json.Unmarshal(data, result)
}

// RawGet gets the resource from path. Expects http.StatusOK as response, otherwise it will
// flag an error. Returns the actual http status code.
//
// The path can be extend with query strings.
//
// result can be map[string]interface{} or a raw *[]byte.
// result can be nil.
func (c Client) RawGet(path string, result interface{}) (int, error) {
	status, _, err := c.RawGetWithHeader(path, nil, result)
	return status, err
}

// RawGetWithHeader gets the resource from path with additional request headers.
// Returns the actual http status code and the response header.
func (c Client) RawGetWithHeader(path string, header map[string]string, result interface{}) (int, http.Header, error) {
	status, h, body, err := c.do(http.MethodGet, path, header, nil)
	if err != nil {
		return status, h, err
	}
	if status == http.StatusNoContent || status == http.StatusNotModified {
		return status, h, nil
	}
	return status, h, unwrap(status, http.StatusOK, body, result)
}

// RawPost posts body to path. Expects http.StatusCreated as response, otherwise it will
// flag an error. Returns the actual http status code.
//
// body can also be a []byte, result can also be raw *[]byte.
// result can be nil.
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	status, _, resBody, err := c.do(http.MethodPost, path, nil, body)
	if err != nil {
		return status, err
	}
	return status, unwrap(status, http.StatusCreated, resBody, result)
}

// RawPut puts body to path. Expects http.StatusOK as response, otherwise it will
// flag an error. Returns the actual http status code.
func (c Client) RawPut(path string, body interface{}, result interface{}) (int, error) {
	status, _, resBody, err := c.do(http.MethodPut, path, nil, body)
	if err != nil {
		return status, err
	}
	return status, unwrap(status, http.StatusOK, resBody, result)
}

// RawPatch patches the resource at path. Expects http.StatusOK as response, otherwise it will
// flag an error. Returns the actual http status code.
func (c Client) RawPatch(path string, body interface{}, result interface{}) (int, error) {
	status, _, resBody, err := c.do(http.MethodPatch, path, nil, body)
	if err != nil {
		return status, err
	}
	return status, unwrap(status, http.StatusOK, resBody, result)
}

// RawDelete deletes the resource at path. Expects http.StatusOK as response, otherwise it will
// flag an error. Returns the actual http status code.
//
// result can be nil.
func (c Client) RawDelete(path string, result interface{}) (int, error) {
	status, _, resBody, err := c.do(http.MethodDelete, path, nil, nil)
	if err != nil {
		return status, err
	}
	return status, unwrap(status, http.StatusOK, resBody, result)
}

// Collection represents a collection of particular resource
type Collection struct {
	client     *Client
	resource   string
	parameters []string
}

// Collection returns a new collection client
func (c Client) Collection(resource string) Collection {
	return Collection{
		client:   &c,
		resource: strings.Trim(resource, "/"),
	}
}

// WithParameter returns a new collection client with a URL parameter added.
func (r Collection) WithParameter(key string, value string) Collection {
	parameter := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	// we want a true copy to avoid side effects
	r.parameters = append(append([]string{}, r.parameters...), parameter)
	return r
}

// WithParameters returns a new collection client with all URL parameters added.
func (r Collection) WithParameters(keyValues map[string]string) Collection {
	for key, value := range keyValues {
		r = r.WithParameter(key, value)
	}
	return r
}

// WithFilter returns a new collection client with a property filter. Filters
// are plain query parameters.
func (r Collection) WithFilter(key string, value string) Collection {
	return r.WithParameter(key, value)
}

// WithPage returns a new collection client which requests page of size pageSize
func (r Collection) WithPage(page, pageSize int) Collection {
	return r.WithParameter("page", strconv.Itoa(page)).WithParameter("pageSize", strconv.Itoa(pageSize))
}

// CollectionPath returns the path of the collection including parameters
func (r Collection) CollectionPath() string {
	path := "/" + r.resource
	if len(r.parameters) > 0 {
		path += "?" + strings.Join(r.parameters, "&")
	}
	return path
}

// Create creates a new item. The operation corresponds to a POST request.
//
// Expects http.StatusCreated as response, otherwise it will
// flag an error. Returns the actual http status code.
//
// body can also be a []byte, result can also be raw *[]byte.
// result can be nil.
func (r Collection) Create(body interface{}, result interface{}) (int, error) {
	return r.client.RawPost(r.CollectionPath(), body, result)
}

// List lists all items of the collection matching the parameters
func (r Collection) List(result interface{}) (int, error) {
	return r.client.RawGet(r.CollectionPath(), result)
}

// Item represents a single item in a collection
type Item struct {
	col         Collection
	id          int64
	isSingleton bool
}

// Item gets an item from a collection
func (r Collection) Item(id int64) Item {
	return Item{col: r, id: id}
}

// Singleton treats the collection as singleton resource
func (r Collection) Singleton() Item {
	return Item{col: r, isSingleton: true}
}

// Path returns the path of this item, optionally extended by children
func (r Item) Path(children ...string) string {
	path := "/" + r.col.resource
	if !r.isSingleton {
		path += "/" + strconv.FormatInt(r.id, 10)
	}
	for _, child := range children {
		path += "/" + url.PathEscape(child)
	}
	if len(r.col.parameters) > 0 {
		path += "?" + strings.Join(r.col.parameters, "&")
	}
	return path
}

// Read reads the item, or a nested value of it with children. The operation
// corresponds to a GET request.
//
// result can also be map[string]interface{} or a raw *[]byte.
func (r Item) Read(result interface{}, children ...string) (int, error) {
	return r.col.client.RawGet(r.Path(children...), result)
}

// Upsert merges body into the item. Singletons are created if they do not
// exist yet. The operation corresponds to a PUT request.
func (r Item) Upsert(body interface{}, result interface{}) (int, error) {
	return r.col.client.RawPut(r.Path(), body, result)
}

// Patch corresponds to a PATCH request
func (r Item) Patch(body interface{}, result interface{}) (int, error) {
	return r.col.client.RawPatch(r.Path(), body, result)
}

// Delete deletes the item
func (r Item) Delete(result interface{}) (int, error) {
	return r.col.client.RawDelete(r.Path(), result)
}

// Relate replaces the items of a related collection with ids. This
// corresponds to PUT /{collection}/{id}/{related}.
func (r Item) Relate(related string, ids []int64, result interface{}) (int, error) {
	body := map[string]interface{}{relationProperty(related): ids}
	return r.col.client.RawPut(r.Path(related), body, result)
}

// relationProperty returns the payload property of a relation, e.g.
// "permission_ids" for "permissions"
func relationProperty(related string) string {
	return resource.KeyPrefix(related) + "_ids"
}
