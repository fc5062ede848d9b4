package usecase

import (
	"context"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// LineageResolver finds the filing an entry revises.
type LineageResolver struct {
	store ports.EntryStore
}

// NewLineageResolver wires the entry store used for lookups.
func NewLineageResolver(store ports.EntryStore) *LineageResolver {
	return &LineageResolver{store: store}
}

// FindPrevious returns the most recent entry of feed that has the same filing type,
// is strictly older than entry and points at a different document.
// The boolean is false when entry is the first filing of its kind.
func (r *LineageResolver) FindPrevious(ctx context.Context, entry domain.FilingEntry, feed domain.Feed) (domain.FilingEntry, bool, error) {
	rows, err := r.store.QueryByFeed(ctx, feed)
	if err != nil {
		return domain.FilingEntry{}, false, asKind(domain.ErrStoreUnavailable, err, "query feed %s", feed.URL)
	}

	entryType := entry.Type()
	for _, row := range rows {
		if row.Type() != entryType {
			continue
		}
		if !row.Date.Before(entry.Date) {
			continue
		}
		// duplicate ingestion of the same filing
		if domain.SameDocument(row.Link, entry.Link) {
			continue
		}
		return row, true, nil
	}

	return domain.FilingEntry{}, false, nil
}
