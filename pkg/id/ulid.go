package id

import "time"

// NewULID returns a 26-character ULID: 48 bits of millisecond
// timestamp followed by 80 bits of entropy. IDs created later sort
// later as plain strings, which keeps index pages hot when they are
// used as database keys.
func NewULID() string {
	ms := uint64(time.Now().UnixMilli())

	var out [26]byte
	for i := range 10 {
		out[i] = alphabet[(ms>>(45-5*i))&0x1F]
	}
	encode32(out[10:], randomBytes(10))
	return string(out[:])
}
