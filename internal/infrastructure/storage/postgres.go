package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"EdgarWatcher/internal/domain"
)

var postgresDialect = dialect{
	name:        "postgres",
	placeholder: sq.Dollar,
	schema: `CREATE TABLE IF NOT EXISTS entries (
    guid       TEXT PRIMARY KEY,
    feed       TEXT NOT NULL,
    title      TEXT NOT NULL,
    link       TEXT NOT NULL,
    date       TIMESTAMPTZ NOT NULL,
    categories TEXT[] NOT NULL DEFAULT '{}',
    feed_title TEXT
);
CREATE INDEX IF NOT EXISTS entries_feed_date_idx ON entries (feed, date DESC);`,
	upsert: `ON CONFLICT (guid) DO UPDATE
              SET title = EXCLUDED.title,
                  link = EXCLUDED.link,
                  date = EXCLUDED.date,
                  categories = EXCLUDED.categories,
                  feed_title = EXCLUDED.feed_title`,

	encodeCategories: func(c []string) (any, error) {
		if c == nil {
			c = []string{}
		}
		return pq.StringArray(c), nil
	},
	categoriesDest: func(c *[]string) any { return pq.Array(c) },
	encodeDate:     func(t time.Time) any { return t.UTC() },
	dateDest:       func(t *time.Time) any { return t },
}

// OpenPostgres connects to the shared feed store.
func OpenPostgres(ctx context.Context, dsn string, maxOpenConns int) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", domain.ErrStoreUnavailable, err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", domain.ErrStoreUnavailable, err)
	}

	return newRepository(db, postgresDialect), nil
}
