package util

import (
	"bytes"
	"testing"
)

func TestHKDF(t *testing.T) {
	seed := []byte("correct horse battery staple")

	t.Run("Deterministic", func(t *testing.T) {
		k1, err := HKDF(seed, nil, []byte("purpose-a"))
		if err != nil {
			t.Fatalf("HKDF failed: %v", err)
		}
		k2, _ := HKDF(seed, nil, []byte("purpose-a"))
		if !bytes.Equal(k1, k2) {
			t.Error("expected identical keys for identical inputs")
		}
		if len(k1) != HKDFKeyLength {
			t.Errorf("expected %d bytes, got %d", HKDFKeyLength, len(k1))
		}
	})

	t.Run("InfoSeparatesKeys", func(t *testing.T) {
		k1, _ := HKDF(seed, nil, []byte("purpose-a"))
		k2, _ := HKDF(seed, nil, []byte("purpose-b"))
		if bytes.Equal(k1, k2) {
			t.Error("different info must derive different keys")
		}
	})

	t.Run("RejectEmptySeed", func(t *testing.T) {
		if _, err := HKDF(nil, nil, []byte("x")); err == nil {
			t.Error("expected error for empty seed")
		}
	})
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(16)
	if err != nil {
		t.Fatalf("RandomHex failed: %v", err)
	}
	b, _ := RandomHex(16)
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("random values should differ")
	}
}

func TestConstantTimeEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "secret", "secret", true},
		{"differentLastByte", "secret", "secreT", false},
		{"differentLength", "secret", "secret1", false},
		{"bothEmpty", "", "", true},
		{"oneEmpty", "", "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConstantTimeEqual([]byte(tt.a), []byte(tt.b)); got != tt.want {
				t.Errorf("ConstantTimeEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCopyBytes(t *testing.T) {
	b := []byte{1, 2, 3}
	c := CopyBytes(b)
	b[0] = 9
	if !bytes.Equal(c, []byte{1, 2, 3}) {
		t.Errorf("copy should be unaffected, got %v", c)
	}
}

func TestStripMarks(t *testing.T) {
	if got := StripMarks("Coração São João"); got != "Coracao Sao Joao" {
		t.Errorf("unexpected result %q", got)
	}
}
