package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"EdgarWatcher/internal/domain"
)

var sqliteDialect = dialect{
	name:        "sqlite",
	placeholder: sq.Question,
	schema: `CREATE TABLE IF NOT EXISTS entries (
    guid       TEXT PRIMARY KEY,
    feed       TEXT NOT NULL,
    title      TEXT NOT NULL,
    link       TEXT NOT NULL,
    date       INTEGER NOT NULL,
    categories TEXT NOT NULL DEFAULT '[]',
    feed_title TEXT
);
CREATE INDEX IF NOT EXISTS entries_feed_date_idx ON entries (feed, date DESC);`,
	upsert: `ON CONFLICT (guid) DO UPDATE
              SET title = excluded.title,
                  link = excluded.link,
                  date = excluded.date,
                  categories = excluded.categories,
                  feed_title = excluded.feed_title`,

	encodeCategories: func(c []string) (any, error) {
		if c == nil {
			c = []string{}
		}
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	},
	categoriesDest: func(c *[]string) any { return &jsonStrings{dest: c} },
	encodeDate:     func(t time.Time) any { return t.UTC().UnixNano() },
	dateDest:       func(t *time.Time) any { return &unixNano{dest: t} },
}

// OpenSQLite opens a local database file with WAL enabled.
func OpenSQLite(ctx context.Context, path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", domain.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: enable wal: %w", domain.ErrStoreUnavailable, err)
	}

	return newRepository(db, sqliteDialect), nil
}

type unixNano struct{ dest *time.Time }

func (u *unixNano) Scan(src any) error {
	n, ok := src.(int64)
	if !ok {
		return fmt.Errorf("date: unexpected %T", src)
	}
	*u.dest = time.Unix(0, n).UTC()
	return nil
}

type jsonStrings struct{ dest *[]string }

func (j *jsonStrings) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*j.dest = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("categories: unexpected %T", src)
	}
	return json.Unmarshal(raw, j.dest)
}

var (
	_ sql.Scanner = (*unixNano)(nil)
	_ sql.Scanner = (*jsonStrings)(nil)
)
