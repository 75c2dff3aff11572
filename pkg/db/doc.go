// Package db opens PostgreSQL connection pools with retrying dials,
// embedded goose migrations, and lifecycle glue for loom apps.
//
// Open parses a connection URL, dials with a doubling backoff, and
// optionally brings the schema up to date before returning the pool:
//
//	//go:embed migrations/*.sql
//	var migrationsDir embed.FS
//
//	migrationsFS, _ := fs.Sub(migrationsDir, "migrations")
//	pool := db.MustOpen(ctx, os.Getenv("DATABASE_URL"),
//	    db.WithMigrations(migrationsFS),
//	)
//
// Wire the pool into an app for sessions, readiness, and shutdown:
//
//	app := loom.New(
//	    loom.WithSession(postgres.New(pool)),
//	    loom.WithHealthChecks(
//	        loom.WithReadinessCheck("db", db.Healthcheck(pool)),
//	    ),
//	)
//	err := app.Run(":8080", loom.ShutdownHook(db.Shutdown(pool)))
//
// Deployments that configure through the environment parse Config
// instead and call Connect, which maps the parsed values onto the same
// options.
//
// Tx wraps a function in a transaction that commits on nil and rolls
// back on error or panic:
//
//	err := db.Tx(ctx, pool, func(tx pgx.Tx) error {
//	    if _, err := tx.Exec(ctx, debitSQL, from, amount); err != nil {
//	        return err
//	    }
//	    _, err := tx.Exec(ctx, creditSQL, to, amount)
//	    return err
//	})
package db
