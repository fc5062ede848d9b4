package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

const entriesTable = "entries"

// dialect isolates the column encodings that differ between drivers.
type dialect struct {
	name        string
	placeholder sq.PlaceholderFormat
	schema      string
	upsert      string

	encodeCategories func([]string) (any, error)
	categoriesDest   func(*[]string) any
	encodeDate       func(time.Time) any
	dateDest         func(*time.Time) any
}

// Repository keeps previously observed filing entries for lineage lookups.
type Repository struct {
	db      *sql.DB
	dialect dialect
	builder sq.StatementBuilderType
}

var _ ports.EntryStore = (*Repository)(nil)

func newRepository(db *sql.DB, d dialect) *Repository {
	return &Repository{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
	}
}

// Migrate creates the entries table when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.schema); err != nil {
		return fmt.Errorf("%w: %s schema: %w", domain.ErrStoreUnavailable, r.dialect.name, err)
	}
	return nil
}

// QueryByFeed returns every entry stored for the feed, most recent first.
func (r *Repository) QueryByFeed(ctx context.Context, feed domain.Feed) ([]domain.FilingEntry, error) {
	query, args, err := r.builder.
		Select("guid", "title", "link", "date", "categories", "feed_title").
		From(entriesTable).
		Where(sq.Eq{"feed": feed.URL}).
		OrderBy("date DESC", "guid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var result []domain.FilingEntry
	for rows.Next() {
		var entry domain.FilingEntry
		var feedTitle sql.NullString
		if err := rows.Scan(
			&entry.GUID,
			&entry.Title,
			&entry.Link,
			r.dialect.dateDest(&entry.Date),
			r.dialect.categoriesDest(&entry.Categories),
			&feedTitle,
		); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %w", domain.ErrStoreUnavailable, err)
		}
		entry.FeedTitle = feedTitle.String
		result = append(result, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows iteration: %w", domain.ErrStoreUnavailable, err)
	}

	return result, nil
}

// SaveEntry upserts an entry by guid.
func (r *Repository) SaveEntry(ctx context.Context, feed domain.Feed, entry domain.FilingEntry) error {
	categories, err := r.dialect.encodeCategories(entry.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	query, args, err := r.builder.
		Insert(entriesTable).
		Columns("guid", "feed", "title", "link", "date", "categories", "feed_title").
		Values(entry.GUID, feed.URL, entry.Title, entry.Link, r.dialect.encodeDate(entry.Date), categories, entry.FeedTitle).
		Suffix(r.dialect.upsert).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: upsert entry: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the underlying pool.
func (r *Repository) Close() error {
	return r.db.Close()
}
