package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
	Flag  *bool    `json:"flag"`
}

func newTestCodec(t *testing.T, purpose string) *Codec {
	t.Helper()
	c, err := NewCodec([]byte("amor-da-minha-vida"), purpose)
	require.NoError(t, err)
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t, "test")
	yes := true
	payloads := []samplePayload{
		{},
		{Name: "coração", Count: 7},
		{Name: "x", Count: -1, Tags: []string{"a", "b"}, Flag: &yes},
		{Name: strings.Repeat("z", 4096)},
	}
	for _, p := range payloads {
		token, err := c.Encode(p)
		require.NoError(t, err)

		var got samplePayload
		require.True(t, c.Decode(token, &got), "token %q should decode", token)
		assert.Equal(t, p, got)
	}
}

func TestCodec_TokenShape(t *testing.T) {
	c := newTestCodec(t, "test")
	token, err := c.Encode(samplePayload{Name: "a"})
	require.NoError(t, err)

	body, sig, ok := strings.Cut(token, ".")
	require.True(t, ok)
	assert.NotContains(t, body, "=")
	assert.NotContains(t, sig, "=")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	// HMAC-SHA256 is 32 bytes: 43 unpadded base64 characters.
	assert.Len(t, sig, 43)
}

func TestCodec_Deterministic(t *testing.T) {
	c := newTestCodec(t, "test")
	a, err := c.Encode(samplePayload{Name: "same"})
	require.NoError(t, err)
	b, err := c.Encode(samplePayload{Name: "same"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCodec_FlippedSignatureBitFails(t *testing.T) {
	c := newTestCodec(t, "test")
	token, err := c.Encode(samplePayload{Name: "tamper"})
	require.NoError(t, err)

	sigStart := strings.Index(token, ".") + 1
	for i := sigStart; i < len(token); i++ {
		for bit := 0; bit < 8; bit++ {
			tampered := []byte(token)
			tampered[i] ^= 1 << bit
			var got samplePayload
			assert.False(t, c.Decode(string(tampered), &got), "flip at %d bit %d must fail", i, bit)
		}
	}
}

func TestCodec_TamperedBodyFails(t *testing.T) {
	c := newTestCodec(t, "test")
	token, err := c.Encode(samplePayload{Name: "a", Count: 1})
	require.NoError(t, err)
	_, sig, _ := strings.Cut(token, ".")

	forged, err := c.Encode(samplePayload{Name: "a", Count: 0})
	require.NoError(t, err)
	forgedBody, _, _ := strings.Cut(forged, ".")

	var got samplePayload
	assert.False(t, c.Decode(forgedBody+"."+sig, &got))
}

func TestCodec_MalformedTokens(t *testing.T) {
	c := newTestCodec(t, "test")
	valid, err := c.Encode(samplePayload{Name: "a"})
	require.NoError(t, err)
	body, sig, _ := strings.Cut(valid, ".")

	// A correctly signed body that is not JSON.
	notJSON := tokenEncoding.EncodeToString([]byte("{not json"))
	notJSONSig, err := c.sign(notJSON)
	require.NoError(t, err)

	// A correctly signed body that is not base64.
	notB64 := "!!!"
	notB64Sig, err := c.sign(notB64)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":         "",
		"noSeparator":   body + sig,
		"emptyBody":     "." + sig,
		"emptySig":      body + ".",
		"shortSig":      body + "." + sig[:10],
		"longSig":       body + "." + sig + "AAAA",
		"extraSegment":  valid + ".extra",
		"badJSON":       notJSON + "." + notJSONSig,
		"badBase64Body": notB64 + "." + notB64Sig,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			var got samplePayload
			assert.False(t, c.Decode(token, &got))
		})
	}
}

func TestCodec_PurposesAreSeparated(t *testing.T) {
	a := newTestCodec(t, "admin_session")
	b := newTestCodec(t, "admin_attempts")

	token, err := a.Encode(samplePayload{Name: "x"})
	require.NoError(t, err)

	var got samplePayload
	assert.False(t, b.Decode(token, &got))
	assert.True(t, a.Decode(token, &got))
}

func TestCodec_DifferentSecretsFail(t *testing.T) {
	a := newTestCodec(t, "test")
	b, err := NewCodec([]byte("outra-senha"), "test")
	require.NoError(t, err)

	token, err := a.Encode(samplePayload{Name: "x"})
	require.NoError(t, err)
	var got samplePayload
	assert.False(t, b.Decode(token, &got))
}

func TestCodec_SecretRequired(t *testing.T) {
	_, err := NewCodec(nil, "test")
	assert.ErrorIs(t, err, ErrSecretNotConfigured)

	_, err = NewCodec([]byte{}, "test")
	assert.ErrorIs(t, err, ErrSecretNotConfigured)

	var unset Codec
	_, err = unset.Encode(samplePayload{})
	assert.ErrorIs(t, err, ErrSecretNotConfigured)

	var nilCodec *Codec
	_, err = nilCodec.Encode(samplePayload{})
	assert.ErrorIs(t, err, ErrSecretNotConfigured)

	var got samplePayload
	assert.False(t, unset.Decode("a.b", &got))
}
