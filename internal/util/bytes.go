package util

import "crypto/subtle"

func CopyBytes(src []byte) []byte {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

// ConstantTimeEqual reports whether a and b hold the same bytes. Inputs of
// different length are rejected before any byte is compared; equal-length
// inputs are compared in time independent of their contents.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
