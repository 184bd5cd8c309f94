package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/nossahistoria/romantic/internal/util"
)

// ErrSecretNotConfigured is returned when a token would be signed without a
// secret. An empty secret would make every signature forgeable.
var ErrSecretNotConfigured = errors.New("auth: signing secret not configured")

const tokenSeparator = "."

var tokenEncoding = base64.RawURLEncoding

// Codec turns JSON-serialisable payloads into tamper-evident tokens of the
// form base64url(json) "." base64url(hmac-sha256(base64url(json))).
// Payloads are encoded, not encrypted.
type Codec struct {
	key *memguard.Enclave
}

// NewCodec derives the HMAC key for purpose from secret. Tokens signed for
// one purpose never verify under another.
func NewCodec(secret []byte, purpose string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrSecretNotConfigured
	}
	key, err := util.HKDF(secret, nil, []byte("romantic/"+purpose))
	if err != nil {
		return nil, fmt.Errorf("deriving %s signing key: %w", purpose, err)
	}
	// NewEnclave wipes key after sealing it.
	return &Codec{key: memguard.NewEnclave(key)}, nil
}

// Encode signs payload. It fails with ErrSecretNotConfigured on a codec
// that was not built by NewCodec.
func (c *Codec) Encode(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding token payload: %w", err)
	}
	body := tokenEncoding.EncodeToString(data)
	sig, err := c.sign(body)
	if err != nil {
		return "", err
	}
	return body + tokenSeparator + sig, nil
}

// Decode verifies token and unmarshals its payload into dst. Any defect
// (missing half, bad signature, malformed body) reports false.
func (c *Codec) Decode(token string, dst any) bool {
	body, sig, ok := strings.Cut(token, tokenSeparator)
	if !ok || body == "" || sig == "" {
		return false
	}
	expected, err := c.sign(body)
	if err != nil {
		return false
	}
	if !util.ConstantTimeEqual([]byte(sig), []byte(expected)) {
		return false
	}
	data, err := tokenEncoding.DecodeString(body)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (c *Codec) sign(body string) (string, error) {
	if c == nil || c.key == nil {
		return "", ErrSecretNotConfigured
	}
	buf, err := c.key.Open()
	if err != nil {
		return "", fmt.Errorf("opening signing key: %w", err)
	}
	defer buf.Destroy()

	mac := hmac.New(sha256.New, buf.Bytes())
	mac.Write([]byte(body))
	return tokenEncoding.EncodeToString(mac.Sum(nil)), nil
}
