package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/nossahistoria/romantic/auth"
)

type contextKey int

const sessionKey contextKey = iota

// RequireSession rejects requests without a valid admin session with 401
// and stores the session on the request context otherwise.
func (a *API) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := a.guard.RequireSession(r)
		if err != nil {
			a.audit.logFailure(AuditUnauthorized, r, "no valid session")
			mapError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) (auth.Session, bool) {
	s, ok := ctx.Value(sessionKey).(auth.Session)
	return s, ok
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
