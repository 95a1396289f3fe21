package rpc

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// AdminCookie carries the admin token for browser sessions.
	AdminCookie = "racedash_admin"
	// AdminQueryParam carries the admin token on first page load.
	AdminQueryParam = "token"
)

// ErrAdminRequired is returned when a request lacks a valid admin token.
var ErrAdminRequired = errors.New("admin token required")

// AdminAuth checks requests against the configured admin token. An empty
// token disables every admin surface.
type AdminAuth struct {
	token string
}

// NewAdminAuth creates an AdminAuth for token.
func NewAdminAuth(token string) AdminAuth {
	return AdminAuth{token: strings.TrimSpace(token)}
}

// Enabled reports whether an admin token is configured.
func (a AdminAuth) Enabled() bool {
	return a.token != ""
}

// Check reports whether presented matches the admin token.
func (a AdminAuth) Check(presented string) bool {
	if !a.Enabled() || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) == 1
}

// Authorized reports whether r presents the admin token as a bearer
// header, the admin cookie or the token query parameter.
func (a AdminAuth) Authorized(r *http.Request) bool {
	if a.authorizedHeader(r.Header) {
		return true
	}
	return a.Check(r.URL.Query().Get(AdminQueryParam))
}

func (a AdminAuth) authorizedHeader(h http.Header) bool {
	if a.Check(bearer(h.Get("Authorization"))) {
		return true
	}
	// browser pages call the service with the session cookie
	r := http.Request{Header: h}
	if c, err := r.Cookie(AdminCookie); err == nil && a.Check(c.Value) {
		return true
	}
	return false
}

// Interceptor rejects admin procedures called without the admin token.
func (a AdminAuth) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient || !RequiresAdmin(req.Spec().Procedure) {
				return next(ctx, req)
			}
			if !a.authorizedHeader(req.Header()) {
				return nil, connect.NewError(connect.CodeUnauthenticated, ErrAdminRequired)
			}
			return next(ctx, req)
		}
	}
}

// BearerToken returns a client interceptor that sends token on every call.
func BearerToken(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient && token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// SessionCookie returns the cookie that keeps a browser admin session.
func (a AdminAuth) SessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     AdminCookie,
		Value:    a.token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
