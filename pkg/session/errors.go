package session

import "errors"

var (
	// ErrNotConfigured means session methods were called on an app
	// built without loom.WithSession.
	ErrNotConfigured = errors.New("session: not configured")

	// ErrNotFound means no session exists for the given token, ID
	// or value key.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired means the session existed but its lifetime has
	// passed.
	ErrExpired = errors.New("session: expired")

	// ErrInvalidToken means the presented cookie value is not a
	// token this application could have issued.
	ErrInvalidToken = errors.New("session: invalid token")

	// ErrWrongType means a session value exists but is not of the
	// requested type.
	ErrWrongType = errors.New("session: value has a different type")
)
