package db

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending goose migration found at the root of
// fsys. Open calls it when WithMigrations is set; call it directly
// from migrate-on-deploy jobs that run apart from the serving process.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, table string, log *slog.Logger) error {
	// goose speaks database/sql. The stdlib bridge shares the pool's
	// connections, so it must not be closed here.
	conn := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLog{log})
	if table != "" {
		goose.SetTableName(table)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrate, err)
	}

	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrate, err)
	}
	return nil
}

// gooseLog adapts slog to goose's printf-style logger. goose messages
// arrive with trailing newlines that slog would render literally.
type gooseLog struct {
	log *slog.Logger
}

func (g gooseLog) Printf(format string, args ...any) {
	g.log.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Fatalf logs at error level without exiting; goose surfaces the
// failure as a returned error.
func (g gooseLog) Fatalf(format string, args ...any) {
	g.log.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
