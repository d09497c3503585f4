package access

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/rentdesk/core/logger"
)

// UserIDHeader carries the actor for deployments behind a trusted gateway
const UserIDHeader = "Rentdesk-User-Id"

// RolesHeader optionally carries a comma separated list of roles
const RolesHeader = "Rentdesk-Roles"

// NewHeaderMiddleware returns a middleware handler which takes the session
// from the Rentdesk-User-Id and Rentdesk-Roles headers.
//
// There is no verification of any kind. Only use this behind a gateway which
// strips these headers from external requests.
func NewHeaderMiddleware() mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFromContext(r.Context()) != nil { // already authenticated?
				h.ServeHTTP(w, r)
				return
			}
			header := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if header == "" {
				h.ServeHTTP(w, r)
				return
			}
			userID, err := strconv.ParseInt(header, 10, 64)
			if err != nil {
				http.Error(w, "invalid "+UserIDHeader, http.StatusUnauthorized)
				return
			}
			session := &Session{UserID: userID}
			for _, role := range strings.Split(r.Header.Get(RolesHeader), ",") {
				if role = strings.TrimSpace(role); role != "" {
					session.Roles = append(session.Roles, role)
				}
			}
			ctx := ContextWithSession(r.Context(), session)
			ctx, _ = logger.ContextWithLoggerIdentity(ctx, header)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
