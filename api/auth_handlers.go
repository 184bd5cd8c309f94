package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
)

// Login handles POST /admin/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}

	res, err := a.guard.Login(w, r, req.Password)
	if err != nil {
		writeInternalError(w, "failed to sign admin cookie", err)
		return
	}

	switch {
	case res.OK:
		writeCSRFCookie(w, a.secure)
		a.audit.log(AuditLoginSuccess, r)
		writeResult(w, http.StatusOK, "")
		return
	case res.WrongPassword:
		a.audit.logFailure(AuditLoginFailure, r, "wrong password")
		if res.LockStarted {
			a.audit.logFailure(AuditLoginLocked, r, "lock started",
				slog.Duration("retry_after", res.RetryAfter))
		}
	case res.Locked:
		a.audit.logFailure(AuditLoginRefused, r, "client is locked",
			slog.Duration("retry_after", res.RetryAfter))
	}

	if res.Locked {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
		writeResult(w, http.StatusTooManyRequests, res.Message)
		return
	}
	writeResult(w, http.StatusUnauthorized, res.Message)
}

// Logout handles POST /admin/logout. It always succeeds.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	a.guard.Logout(w)
	clearCSRFCookie(w, a.secure)
	a.audit.log(AuditLogout, r)
	writeResult(w, http.StatusOK, "")
}

// SessionStatus handles GET /admin/session.
func (a *API) SessionStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := a.guard.Session(r)
	if !ok {
		writeJSON(w, http.StatusOK, SessionResponse{})
		return
	}
	exp := session.Expires().UTC()
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: true, ExpiresAt: &exp})
}
