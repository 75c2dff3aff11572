// Package id generates the identifiers used across the framework:
// ULIDs and a shorter variant for user-facing IDs, both
// lexicographically sortable by creation time, plus UUID helpers.
package id

import "crypto/rand"

// Crockford's base32. No I, L, O or U, so IDs survive being read
// aloud or retyped.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// encode32 fills dst with consecutive 5-bit groups of src, most
// significant bits first. Groups that run past the end of src are
// zero-padded.
func encode32(dst, src []byte) {
	for i := range dst {
		off := 5 * i
		v := uint16(src[off/8]) << 8
		if off/8+1 < len(src) {
			v |= uint16(src[off/8+1])
		}
		dst[i] = alphabet[(v>>(11-off%8))&0x1F]
	}
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	// crypto/rand.Read cannot fail as of Go 1.24; a broken entropy
	// source panics instead of returning an error.
	_, _ = rand.Read(b)
	return b
}
