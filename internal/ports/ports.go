package ports

import (
	"context"
	"errors"
	"time"

	"EdgarWatcher/internal/domain"
)

// Delivery is one event handed out by an EntrySource. Ack marks it consumed.
type Delivery struct {
	Event domain.Event
	Ack   func(ctx context.Context) error
}

// ErrSourceBroken marks an EntrySource error that retrying cannot clear.
var ErrSourceBroken = errors.New("entry source broken")

// EntrySource delivers newly observed filings. It returns io.EOF once exhausted
// and an error wrapping ErrSourceBroken when it can deliver nothing more.
type EntrySource interface {
	Receive(ctx context.Context) (Delivery, error)
	Close() error
}

// EntryStore answers lineage lookups over previously seen entries.
type EntryStore interface {
	// QueryByFeed returns every entry stored for feed, most recent first.
	QueryByFeed(ctx context.Context, feed domain.Feed) ([]domain.FilingEntry, error)
}

// DocumentLinkResolver finds the filing document behind an entry's index page.
type DocumentLinkResolver interface {
	ResolveDocument(ctx context.Context, entry domain.FilingEntry) (string, error)
}

// DocumentRenderer turns a web document into whitespace-comparable plain text.
type DocumentRenderer interface {
	RenderToText(ctx context.Context, url string) (string, error)
}

// DiffEngine compares two text files line by line, ignoring whitespace changes.
type DiffEngine interface {
	Diff(ctx context.Context, basePath, targetPath string) (domain.DiffResult, error)
}

// ArtifactRenderer turns unified diff text into a standalone markup document.
type ArtifactRenderer interface {
	Render(title, diffText string) ([]byte, error)
}

// PutOptions carries object metadata for BlobStore.Put.
type PutOptions struct {
	ACL         string
	ContentType string
}

// BlobStore persists artifacts and hands out retrieval references.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, opts PutOptions) (string, error)
	SignedURL(ctx context.Context, handle string, ttl time.Duration) (string, error)
}

// MessageTransport delivers a composed notification (email, chat, ...).
type MessageTransport interface {
	Send(ctx context.Context, msg domain.NotificationMessage) error
}

// ErrorReporter observes per-entry failures.
type ErrorReporter interface {
	Report(ctx context.Context, entry domain.FilingEntry, err error)
}
