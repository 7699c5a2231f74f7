package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	backoffice "github.com/omjyotish/backoffice"
)

// DefaultCookieName is the session cookie read when no bearer token is
// present.
const DefaultCookieName = "bo_access"

type sessionContextKey struct{}

// SessionFromContext returns the admin session the guard attached to
// the request.
func SessionFromContext(ctx context.Context) (*backoffice.AdminSession, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*backoffice.AdminSession)
	return sess, ok
}

// Guard authenticates the request and checks the caller against the
// required capability set before the wrapped handler sees the request.
func Guard(engine *backoffice.Engine, cookieName string, required ...string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, backoffice.ErrEngineNotReady)
				return
			}

			token, ok := tokenFromRequest(r, cookieName)
			if !ok {
				writeError(w, backoffice.ErrUnauthenticated)
				return
			}

			sess, err := engine.Authorize(r.Context(), token, required...)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP stamps the caller's address into the request context so the
// engine's rate limiting and audit trail see it.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		next.ServeHTTP(w, r.WithContext(backoffice.WithClientIP(r.Context(), ip)))
	})
}

// tokenFromRequest prefers the Authorization bearer header and falls
// back to the session cookie.
func tokenFromRequest(r *http.Request, cookieName string) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
