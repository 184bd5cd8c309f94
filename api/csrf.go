package api

import (
	"net/http"
	"time"

	"github.com/nossahistoria/romantic/auth"
	"github.com/nossahistoria/romantic/internal/util"
	"github.com/nossahistoria/romantic/internal/uuid"
)

const (
	csrfCookieName = "romantic_csrf"
	csrfHeaderName = "X-CSRF-Token"
)

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CSRFMiddleware checks the double-submit token on admin writes: the
// romantic_csrf cookie issued at login must be echoed in X-CSRF-Token.
// Requests without the admin session cookie are left to RequireSession.
func (a *API) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := r.Cookie(auth.SessionCookieName); err != nil {
			next.ServeHTTP(w, r)
			return
		}

		reason := ""
		cookie, err := r.Cookie(csrfCookieName)
		switch {
		case err != nil || cookie.Value == "":
			reason = "missing CSRF token"
		case !util.ConstantTimeEqual([]byte(cookie.Value), []byte(r.Header.Get(csrfHeaderName))):
			reason = "invalid CSRF token"
		}
		if reason != "" {
			a.audit.logFailure(AuditCSRFRejected, r, reason)
			writeError(w, http.StatusForbidden, reason)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfCookie builds the token cookie. It is readable by page scripts so the
// admin UI can copy it into the header. secure follows the auth cookies.
func csrfCookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     csrfCookieName,
		Value:    value,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// writeCSRFCookie issues a fresh token that lives as long as the session.
func writeCSRFCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, csrfCookie(uuid.New(), int(auth.SessionTTL/time.Second), secure))
}

func clearCSRFCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, csrfCookie("", -1, secure))
}
