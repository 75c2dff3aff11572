package id

import "time"

// shortTimeMask keeps the low 30 bits of the millisecond clock,
// which repeat roughly every 12 days. Within that window ShortIDs
// sort by creation time; the 48 random bits keep them unique across
// windows.
const shortTimeMask = 1<<30 - 1

// NewShortID returns a 16-character ID in the same alphabet as
// NewULID: 6 characters of truncated timestamp and 10 of entropy.
// Use it where a 26-character ULID is unwieldy, such as IDs that end
// up in URLs users see.
func NewShortID() string {
	ts := uint64(time.Now().UnixMilli()) & shortTimeMask

	var out [16]byte
	for i := range 6 {
		out[i] = alphabet[(ts>>(25-5*i))&0x1F]
	}
	encode32(out[6:], randomBytes(6))
	return string(out[:])
}
