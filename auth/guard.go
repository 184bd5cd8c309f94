package auth

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/awnumar/memguard"

	"github.com/nossahistoria/romantic/internal/util"
)

const (
	sessionPurpose = "admin_session"
	attemptPurpose = "admin_attempts"

	// MessageWrongPassword is returned for a failed, unlocked login.
	MessageWrongPassword = "Senha incorreta."
)

// Config configures a Guard.
type Config struct {
	// Password is the admin password. It is also the signing secret.
	Password string
	// Secure sets the Secure attribute on both auth cookies.
	Secure bool
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// Sleep pauses the current request after a failed login. Defaults to
	// time.Sleep, which only parks the goroutine serving that request.
	Sleep func(time.Duration)
}

func (c *Config) normalize() {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
}

// LoginResult is the outcome of a login attempt as shown to the user.
type LoginResult struct {
	OK      bool
	Message string
	// Locked is set when the client is locked out; RetryAfter is the
	// remaining lock time.
	Locked     bool
	RetryAfter time.Duration
	// WrongPassword is set when the password was compared and did not
	// match. It stays false for a client refused because it was already
	// locked. LockStarted marks the failure that set the lock.
	WrongPassword bool
	LockStarted   bool
}

// Guard composes the session manager and the attempt throttle into the
// login, logout and session-check entry points.
type Guard struct {
	sessions *SessionManager
	throttle *Throttle
	password *memguard.Enclave
	now      func() time.Time
	sleep    func(time.Duration)
	secure   bool
}

// NewGuard fails with ErrSecretNotConfigured when cfg.Password is empty.
func NewGuard(cfg Config) (*Guard, error) {
	cfg.normalize()
	if cfg.Password == "" {
		return nil, ErrSecretNotConfigured
	}
	sessionCodec, err := NewCodec([]byte(cfg.Password), sessionPurpose)
	if err != nil {
		return nil, err
	}
	attemptCodec, err := NewCodec([]byte(cfg.Password), attemptPurpose)
	if err != nil {
		return nil, err
	}
	return &Guard{
		sessions: NewSessionManager(sessionCodec, cfg.Secure, cfg.Now),
		throttle: NewThrottle(attemptCodec, cfg.Secure, cfg.Now),
		password: memguard.NewEnclave([]byte(cfg.Password)),
		now:      cfg.Now,
		sleep:    cfg.Sleep,
		secure:   cfg.Secure,
	}, nil
}

// Login runs the login protocol for password. While the client is locked
// the password is not examined at all. The returned error is reserved for
// failures to sign cookies.
func (g *Guard) Login(w http.ResponseWriter, r *http.Request, password string) (LoginResult, error) {
	state := g.throttle.State(r)
	if state.LockedAt(g.now()) {
		return g.lockedResult(*state.LockedUntil), nil
	}

	ok, err := g.passwordMatches(password)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		next, err := g.throttle.RegisterFailure(w, r)
		if err != nil {
			return LoginResult{}, err
		}
		g.sleep(DelayFor(next.Count))
		if next.LockedUntil != nil {
			res := g.lockedResult(*next.LockedUntil)
			res.WrongPassword = true
			res.LockStarted = true
			return res, nil
		}
		return LoginResult{Message: MessageWrongPassword, WrongPassword: true}, nil
	}

	g.throttle.Reset(w)
	if _, err := g.sessions.Issue(w); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{OK: true}, nil
}

// Logout revokes the client's session cookie.
func (g *Guard) Logout(w http.ResponseWriter) {
	g.sessions.Revoke(w)
}

// Session reports the request's valid session, if any.
func (g *Guard) Session(r *http.Request) (Session, bool) {
	return g.sessions.Check(r)
}

// RequireSession returns ErrUnauthorized unless r carries a valid session.
// Privileged actions must stop on error before any side effect.
func (g *Guard) RequireSession(r *http.Request) (Session, error) {
	return g.sessions.Require(r)
}

// Secure reports whether the guard's cookies carry the Secure flag.
// Companion cookies set next to them should follow it.
func (g *Guard) Secure() bool {
	return g.secure
}

// Attempts exposes the client's current attempt state.
func (g *Guard) Attempts(r *http.Request) AttemptState {
	return g.throttle.State(r)
}

func (g *Guard) passwordMatches(candidate string) (bool, error) {
	buf, err := g.password.Open()
	if err != nil {
		return false, fmt.Errorf("opening admin password: %w", err)
	}
	defer buf.Destroy()
	return util.ConstantTimeEqual([]byte(candidate), buf.Bytes()), nil
}

func (g *Guard) lockedResult(until time.Time) LoginResult {
	remaining := until.Sub(g.now())
	if remaining < 0 {
		remaining = 0
	}
	return LoginResult{
		Message:    LockedMessage(remaining),
		Locked:     true,
		RetryAfter: remaining,
	}
}

// LockedMessage tells a locked-out user how many minutes remain, rounded up.
func LockedMessage(remaining time.Duration) string {
	minutes := int(math.Ceil(remaining.Minutes()))
	return fmt.Sprintf("Muitas tentativas. Tente novamente em %d min.", minutes)
}
