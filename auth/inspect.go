package auth

// TokenKind names the cookie a token was issued for.
type TokenKind string

const (
	KindSession  TokenKind = "session"
	KindAttempts TokenKind = "attempts"
)

// Inspection is the verified content of an auth cookie value.
type Inspection struct {
	Kind     TokenKind
	Session  *Session
	Attempts *AttemptState
}

// Inspect verifies token against both purposes derived from password and
// returns its payload. It reports false when neither signature matches.
func Inspect(password, token string) (Inspection, bool, error) {
	sessionCodec, err := NewCodec([]byte(password), sessionPurpose)
	if err != nil {
		return Inspection{}, false, err
	}
	var s Session
	if sessionCodec.Decode(token, &s) {
		return Inspection{Kind: KindSession, Session: &s}, true, nil
	}

	attemptCodec, err := NewCodec([]byte(password), attemptPurpose)
	if err != nil {
		return Inspection{}, false, err
	}
	var p attemptPayload
	if attemptCodec.Decode(token, &p) {
		st := p.state()
		return Inspection{Kind: KindAttempts, Attempts: &st}, true, nil
	}
	return Inspection{}, false, nil
}
