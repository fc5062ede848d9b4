package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// DispatcherOptions configures who receives notifications and what they end with.
type DispatcherOptions struct {
	Recipients []string
	Footer     string
}

// NotificationDispatcher composes and sends filing notifications.
type NotificationDispatcher struct {
	transports []ports.MessageTransport
	recipients []string
	footer     string
}

// NewNotificationDispatcher registers the transports every message goes through.
func NewNotificationDispatcher(transports []ports.MessageTransport, opts DispatcherOptions) *NotificationDispatcher {
	return &NotificationDispatcher{
		transports: transports,
		recipients: slices.Clone(opts.Recipients),
		footer:     strings.TrimSpace(opts.Footer),
	}
}

// Compose builds the message for entry; diffRef may be empty.
func (d *NotificationDispatcher) Compose(entry domain.FilingEntry, feed domain.Feed, diffRef string) domain.NotificationMessage {
	feedTitle := entry.FeedTitle
	if feedTitle == "" {
		feedTitle = feed.URL
	}

	var b strings.Builder
	b.WriteString(feedTitle + "\n\n")
	b.WriteString(entry.Title + "\n\n")
	b.WriteString(entry.Date.Format(time.RFC1123) + "\n\n")
	b.WriteString("Link to filing: " + entry.Link + "\n\n")
	if diffRef != "" {
		b.WriteString("Link to diff: " + diffRef + "\n\n")
	}
	b.WriteString(entry.GUID + "\n")
	b.WriteString(strings.Join(entry.Categories, ",") + "\n")
	if d.footer != "" {
		b.WriteString("\n" + d.footer + "\n")
	}

	return domain.NotificationMessage{
		Subject:    feedTitle + ": " + entry.Title,
		BodyText:   b.String(),
		Recipients: slices.Clone(d.recipients),
	}
}

// Notify sends the composed message through every transport. A failing
// transport does not keep the message from the others; all failures are joined.
func (d *NotificationDispatcher) Notify(ctx context.Context, entry domain.FilingEntry, feed domain.Feed, diffRef string) error {
	if len(d.transports) == 0 {
		return fmt.Errorf("%w: no transports configured", domain.ErrDispatch)
	}

	msg := d.Compose(entry, feed, diffRef)
	var errs []error
	for _, t := range d.transports {
		if err := t.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return asKind(domain.ErrDispatch, err, "send %q", msg.Subject)
	}
	return nil
}
