/*Package access provides the session of the requesting actor.

A session carries the user id of the actor and their roles. Sessions are added
to a request context with

	ctx = access.ContextWithSession(ctx, session)

and retrieved with

	session := access.SessionFromContext(ctx)

Sessions are put into the context by middleware, depending on the request
headers. Rentdesk supports HS256 JWT bearer tokens and, for trusted internal
deployments without JWT secret, a plain Rentdesk-User-Id header.

The backend never reads the session from the context on its own. Handlers pass
it explicitly with every request.
*/
package access

import (
	"context"
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/rentdesk/core/logger"
)

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

// the predefined context key
const (
	contextKeySession contextKey = "_session_"
)

// Session identifies the actor of a request
type Session struct {
	UserID int64    `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
}

// HasRole returns true if the session contains the requested role;
// otherwise it returns false.
func (s *Session) HasRole(role string) bool {
	if s == nil {
		return false
	}
	for _, hasRole := range s.Roles {
		if role == hasRole {
			return true
		}
	}
	return false
}

// Actor returns the user id of the session. ok is false for a nil session.
func (s *Session) Actor() (userID int64, ok bool) {
	if s == nil {
		return 0, false
	}
	return s.UserID, true
}

// ContextWithSession returns a new context with the session added to it
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKeySession, s)
}

// SessionFromContext retrieves a session from the context
func SessionFromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(contextKeySession).(*Session)
	if ok {
		return s
	}
	return nil
}

// SessionCache is an in-memory cache for sessions. It is used by the jwt
// middleware to avoid parsing and verifying the same bearer token over and
// over again.
type SessionCache struct {
	mutex sync.RWMutex
	cache map[string]*Session
}

// NewSessionCache creates a new session cache
func NewSessionCache() *SessionCache {
	return &SessionCache{cache: make(map[string]*Session)}
}

// Read returns a session from the in-process cache.
// This function is go-route safe
func (c *SessionCache) Read(token string) *Session {
	c.mutex.RLock()
	s, ok := c.cache[token]
	c.mutex.RUnlock()
	if ok {
		return s
	}
	return nil
}

// Write stores a session in the in-memory cache.
// This function is go-route safe
func (c *SessionCache) Write(token string, s *Session) {
	c.mutex.Lock()
	c.cache[token] = s
	c.mutex.Unlock()
}

// HandleSessionRoute adds a route /session GET to the router
//
// The route returns the session of the current request, or 204 if there is
// none.
func HandleSessionRoute(router *mux.Router) {
	logger.Default().Debugln("session")
	logger.Default().Debugln("  handle route: /session GET")
	router.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		s := SessionFromContext(r.Context())
		if s == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		jsonData, _ := json.MarshalIndent(s, "", " ")
		w.Header().Set("Content-Type", "application/json")
		w.Write(jsonData)
	}).Methods(http.MethodGet)
}
