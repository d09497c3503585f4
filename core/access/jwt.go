package access

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/rentdesk/core/logger"
)

// Claims are the claims of a rentdesk bearer token. The subject is the
// numeric user id.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.StandardClaims
}

// JwtMiddlewareBuilder is a helper builder for JwtMiddelware
type JwtMiddlewareBuilder struct {
	// Secret is the HS256 signing secret
	Secret []byte
	// Issuer is the accepted issuer for the token. If empty, any issuer is accepted.
	Issuer string
}

// NewJwtMiddelware returns a middleware handler to validate HS256 JWT bearer
// tokens, passed as "Authorization: Bearer" header.
//
// Requests without token pass through without session. This is a final
// handler with regards to the bearer token: it returns http.StatusUnauthorized
// when a token is present but invalid.
func NewJwtMiddelware(jmb *JwtMiddlewareBuilder) mux.MiddlewareFunc {
	if len(jmb.Secret) == 0 {
		panic("jwt middleware requires a secret")
	}
	cache := NewSessionCache()

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return jmb.Secret, nil
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFromContext(r.Context()) != nil { // already authenticated?
				h.ServeHTTP(w, r)
				return
			}
			tokenString := bearerToken(r)
			if len(tokenString) == 0 {
				h.ServeHTTP(w, r) // no token no session, moving on
				return
			}
			rlog := logger.FromContext(r.Context())

			session := cache.Read(tokenString)
			if session == nil {
				claims := &Claims{}
				token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc)
				if err == nil && !token.Valid {
					err = errors.New("token not valid")
				}
				if err == nil && jmb.Issuer != "" && claims.Issuer != jmb.Issuer {
					err = fmt.Errorf("unexpected issuer %s", claims.Issuer)
				}
				var userID int64
				if err == nil {
					userID, err = strconv.ParseInt(claims.Subject, 10, 64)
				}
				if err != nil {
					rlog.WithError(err).Infoln("rejected bearer token")
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				session = &Session{UserID: userID, Roles: claims.Roles}
				// expiring tokens must be verified again
				if claims.ExpiresAt == 0 {
					cache.Write(tokenString, session)
				}
			}

			ctx := ContextWithSession(r.Context(), session)
			ctx, _ = logger.ContextWithLoggerIdentity(ctx, strconv.FormatInt(session.UserID, 10))
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewToken returns a signed HS256 token for userID. It is used by tests and
// by operators to mint service tokens.
func NewToken(secret []byte, userID int64, roles ...string) (string, error) {
	claims := Claims{
		Roles: roles,
		StandardClaims: jwt.StandardClaims{
			Subject: strconv.FormatInt(userID, 10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func bearerToken(r *http.Request) string {
	bearer := r.Header.Get("Authorization")
	if len(bearer) == 0 || bearer == "null" {
		return ""
	}
	if len(bearer) >= 8 && strings.ToLower(bearer[:7]) == "bearer " {
		return bearer[7:]
	}
	return bearer
}
