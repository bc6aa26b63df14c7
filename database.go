package members

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewSQLiteDB opens a bun handle over sqlite. Use ":memory:" as the dsn for
// throwaway databases.
func NewSQLiteDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// RunMigrations applies the embedded schema migrations in filename order.
// Statements are idempotent, so re-running against an existing database is
// safe.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	root := "data/sql/migrations"

	entries, err := fs.ReadDir(migrationsFS, root)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read migrations")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		contents, err := fs.ReadFile(migrationsFS, root+"/"+name)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read migration").
				WithMetadata(map[string]any{"migration": name})
		}

		if _, err := db.ExecContext(ctx, string(contents)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to apply migration").
				WithMetadata(map[string]any{"migration": name})
		}
	}

	return nil
}
