package auth

import (
	"fmt"
	"net/http"
	"time"
)

const (
	AttemptCookieName = "admin_attempts"
	// LockThreshold is the failed-attempt count that triggers a lockout.
	LockThreshold = 5
	// LockDuration is how long a lockout lasts.
	LockDuration = 15 * time.Minute

	delayStep = 1500 * time.Millisecond
	maxDelay  = 5 * time.Second
)

// AttemptState is the failed-login state of one client.
type AttemptState struct {
	Count       int
	LockedUntil *time.Time
}

// LockedAt reports whether the state is locked at now.
func (s AttemptState) LockedAt(now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}

// attemptPayload is the wire form of AttemptState; lockedUntil is Unix
// milliseconds or null.
type attemptPayload struct {
	Count       int    `json:"count"`
	LockedUntil *int64 `json:"lockedUntil"`
}

func (p attemptPayload) state() AttemptState {
	s := AttemptState{Count: p.Count}
	if p.LockedUntil != nil {
		t := time.UnixMilli(*p.LockedUntil)
		s.LockedUntil = &t
	}
	return s
}

// Throttle counts failed logins in a signed cookie and locks the client out
// after LockThreshold consecutive failures.
type Throttle struct {
	codec   *Codec
	cookies cookieWriter
	now     func() time.Time
}

// NewThrottle returns a throttle signing with codec. now may be nil.
func NewThrottle(codec *Codec, secure bool, now func() time.Time) *Throttle {
	if now == nil {
		now = time.Now
	}
	return &Throttle{codec: codec, cookies: cookieWriter{secure: secure}, now: now}
}

// State reads the attempts cookie. A missing or invalid cookie, or one
// whose lock has already expired, reads as the zero state. The stale cookie
// is left in place.
func (t *Throttle) State(r *http.Request) AttemptState {
	token := cookieValue(r, AttemptCookieName)
	if token == "" {
		return AttemptState{}
	}
	var p attemptPayload
	if !t.codec.Decode(token, &p) {
		return AttemptState{}
	}
	if p.LockedUntil != nil && *p.LockedUntil < t.now().UnixMilli() {
		return AttemptState{}
	}
	return p.state()
}

// RegisterFailure records one more failed attempt, locking the client once
// the count reaches LockThreshold, and writes the re-signed cookie.
func (t *Throttle) RegisterFailure(w http.ResponseWriter, r *http.Request) (AttemptState, error) {
	current := t.State(r)
	p := attemptPayload{Count: current.Count + 1}
	if p.Count >= LockThreshold {
		until := t.now().Add(LockDuration).UnixMilli()
		p.LockedUntil = &until
	}
	token, err := t.codec.Encode(p)
	if err != nil {
		return AttemptState{}, fmt.Errorf("encoding attempt state: %w", err)
	}
	t.cookies.set(w, AttemptCookieName, token, LockDuration)
	return p.state(), nil
}

// Reset deletes the attempts cookie.
func (t *Throttle) Reset(w http.ResponseWriter) {
	t.cookies.clear(w, AttemptCookieName)
}

// DelayFor is the pause applied before answering a failed login:
// 1.5s per attempt, capped at 5s.
func DelayFor(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	d := time.Duration(attempts) * delayStep
	if d > maxDelay {
		return maxDelay
	}
	return d
}
