package uuid

import (
	"testing"
)

func TestNew(t *testing.T) {
	id1 := New()
	id2 := New()

	if len(id1) == 0 {
		t.Error("UUID should not be empty")
	}

	if id1 == id2 {
		t.Error("UUIDs should be unique")
	}

	if !Valid(id1) {
		t.Errorf("generated UUID %q should be valid", id1)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"3f2504e0-4f89-41d3-9a0c-0305e82c3301":   true,
		"":                                       false,
		"not-a-uuid":                             false,
		"{3f2504e0-4f89-41d3-9a0c-0305e82c3301}": false,
		"urn:uuid:3f2504e0-4f89-41d3-9a0c-0305e82c3301": false,
	}
	for in, want := range cases {
		if got := Valid(in); got != want {
			t.Errorf("Valid(%q) = %v, want %v", in, got, want)
		}
	}
}
