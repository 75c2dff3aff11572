package db

import "errors"

var (
	// ErrInvalidURL reports a connection string pgx could not parse.
	ErrInvalidURL = errors.New("db: invalid connection url")

	// ErrConnect reports that no connection could be established
	// within the configured retry budget.
	ErrConnect = errors.New("db: connect failed")

	// ErrUnhealthy reports a failed connectivity probe.
	ErrUnhealthy = errors.New("db: unhealthy")

	// ErrMigrate reports a failed schema migration.
	ErrMigrate = errors.New("db: migrations failed")
)
