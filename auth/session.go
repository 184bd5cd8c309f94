package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nossahistoria/romantic/internal/util"
)

// ErrUnauthorized is returned by Require when the request carries no valid
// admin session.
var ErrUnauthorized = errors.New("unauthorized")

const (
	SessionCookieName = "admin_session"
	// SessionTTL is the fixed lifetime of an admin session.
	SessionTTL = 12 * time.Hour

	nonceBytes = 16
)

// Session is the signed payload carried by the session cookie. Timestamps
// are Unix milliseconds.
type Session struct {
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Nonce     string `json:"nonce"`
}

// Expires returns the session expiry as a time.Time.
func (s Session) Expires() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

func (s Session) expiredAt(now time.Time) bool {
	return s.ExpiresAt < now.UnixMilli()
}

// SessionManager issues, validates and revokes admin session cookies.
type SessionManager struct {
	codec   *Codec
	cookies cookieWriter
	now     func() time.Time
}

// NewSessionManager returns a manager signing with codec. now may be nil.
func NewSessionManager(codec *Codec, secure bool, now func() time.Time) *SessionManager {
	if now == nil {
		now = time.Now
	}
	return &SessionManager{codec: codec, cookies: cookieWriter{secure: secure}, now: now}
}

// Issue creates a fresh session and writes it as the session cookie.
// Call it only after the credentials were verified.
func (m *SessionManager) Issue(w http.ResponseWriter) (Session, error) {
	nonce, err := util.RandomHex(nonceBytes)
	if err != nil {
		return Session{}, fmt.Errorf("generating session nonce: %w", err)
	}
	issued := m.now()
	s := Session{
		IssuedAt:  issued.UnixMilli(),
		ExpiresAt: issued.Add(SessionTTL).UnixMilli(),
		Nonce:     nonce,
	}
	token, err := m.codec.Encode(s)
	if err != nil {
		return Session{}, err
	}
	m.cookies.set(w, SessionCookieName, token, SessionTTL)
	return s, nil
}

// Check returns the request's session. Missing, tampered and expired
// tokens all report false.
func (m *SessionManager) Check(r *http.Request) (Session, bool) {
	token := cookieValue(r, SessionCookieName)
	if token == "" {
		return Session{}, false
	}
	var s Session
	if !m.codec.Decode(token, &s) {
		return Session{}, false
	}
	if s.expiredAt(m.now()) {
		return Session{}, false
	}
	return s, true
}

// Require is Check with ErrUnauthorized for the no-session case.
func (m *SessionManager) Require(r *http.Request) (Session, error) {
	s, ok := m.Check(r)
	if !ok {
		return Session{}, ErrUnauthorized
	}
	return s, nil
}

// Revoke deletes the session cookie on the client. It does not look at the
// current cookie, so revoking without a session is a no-op.
func (m *SessionManager) Revoke(w http.ResponseWriter) {
	m.cookies.clear(w, SessionCookieName)
}
