package redis

import "errors"

var (
	// ErrInvalidURL reports a connection string go-redis could not
	// parse. Accepted schemes are redis:// and rediss://.
	ErrInvalidURL = errors.New("redis: invalid connection url")

	// ErrConnect reports that no connection could be established
	// within the configured retry budget.
	ErrConnect = errors.New("redis: connect failed")

	// ErrUnhealthy reports a failed connectivity probe.
	ErrUnhealthy = errors.New("redis: unhealthy")
)
