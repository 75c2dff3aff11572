package id

import "github.com/google/uuid"

// NewUUID generates a random UUIDv4 string.
// Use NewULID or NewUUIDv7 when IDs should sort by creation time.
func NewUUID() string {
	return uuid.NewString()
}

// NewUUIDv7 generates a time-ordered UUIDv7 string.
// Falls back to a random v4 when entropy is unavailable.
func NewUUIDv7() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}
