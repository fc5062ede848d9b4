package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

type fakeStore struct {
	rows  []domain.FilingEntry
	err   error
	calls atomic.Int32
}

func (s *fakeStore) QueryByFeed(_ context.Context, _ domain.Feed) ([]domain.FilingEntry, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

type fakeLinks struct {
	docs  map[string]string
	errs  map[string]error
	calls atomic.Int32
}

func (l *fakeLinks) ResolveDocument(_ context.Context, entry domain.FilingEntry) (string, error) {
	l.calls.Add(1)
	if err := l.errs[entry.GUID]; err != nil {
		return "", err
	}
	doc, ok := l.docs[entry.GUID]
	if !ok {
		return "", fmt.Errorf("%w: no document for %s", domain.ErrParse, entry.GUID)
	}
	return doc, nil
}

type fakeRenderer struct {
	texts map[string]string
	errs  map[string]error
	calls atomic.Int32
}

func (r *fakeRenderer) RenderToText(_ context.Context, url string) (string, error) {
	r.calls.Add(1)
	if err := r.errs[url]; err != nil {
		return "", err
	}
	return r.texts[url], nil
}

type fakeArtifactRenderer struct {
	err error
}

func (a fakeArtifactRenderer) Render(title, diffText string) ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}
	return []byte("<h1>" + title + "</h1>\n" + diffText), nil
}

type failingEngine struct {
	seen []string
}

func (e *failingEngine) Diff(_ context.Context, basePath, targetPath string) (domain.DiffResult, error) {
	e.seen = append(e.seen, basePath, targetPath)
	return domain.DiffResult{}, errors.New("exit status 2")
}

type storedBlob struct {
	body []byte
	opts ports.PutOptions
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string]storedBlob
	ttls    []time.Duration
	putErr  error
	signErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string]storedBlob{}}
}

func (b *fakeBlobs) Put(_ context.Context, key string, body []byte, opts ports.PutOptions) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = storedBlob{body: body, opts: opts}
	return "handle/" + key, nil
}

func (b *fakeBlobs) SignedURL(_ context.Context, handle string, ttl time.Duration) (string, error) {
	if b.signErr != nil {
		return "", b.signErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ttls = append(b.ttls, ttl)
	return "https://blobs.example.org/" + handle + "?expires=" + ttl.String(), nil
}

func (b *fakeBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

type fakeTransport struct {
	mu   sync.Mutex
	msgs []domain.NotificationMessage
	err  error
	send func(domain.NotificationMessage)
}

func (t *fakeTransport) Send(_ context.Context, msg domain.NotificationMessage) error {
	if t.send != nil {
		t.send(msg)
	}
	if t.err != nil {
		return t.err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, msg)
	return nil
}

func (t *fakeTransport) messages() []domain.NotificationMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.NotificationMessage(nil), t.msgs...)
}

type reported struct {
	guid string
	err  error
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []reported
}

func (r *fakeReporter) Report(_ context.Context, entry domain.FilingEntry, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, reported{guid: entry.GUID, err: err})
}

func (r *fakeReporter) all() []reported {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reported(nil), r.reports...)
}

// sliceSource hands out events in order, then io.EOF (or broken, when set).
type sliceSource struct {
	mu     sync.Mutex
	events []domain.Event
	errs   []error
	broken error
	acked  []string
}

func (s *sliceSource) Receive(ctx context.Context) (ports.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return ports.Delivery{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return ports.Delivery{}, err
	}
	if len(s.events) == 0 {
		if s.broken != nil {
			return ports.Delivery{}, s.broken
		}
		return ports.Delivery{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ports.Delivery{
		Event: ev,
		Ack: func(context.Context) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.acked = append(s.acked, ev.Entry.GUID)
			return nil
		},
	}, nil
}

func (s *sliceSource) Close() error { return nil }

func (s *sliceSource) ackedGUIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.acked...)
}

// blockingSource blocks until ctx is cancelled.
type blockingSource struct{}

func (blockingSource) Receive(ctx context.Context) (ports.Delivery, error) {
	<-ctx.Done()
	return ports.Delivery{}, ctx.Err()
}

func (blockingSource) Close() error { return nil }

var (
	_ ports.EntryStore           = (*fakeStore)(nil)
	_ ports.DocumentLinkResolver = (*fakeLinks)(nil)
	_ ports.DocumentRenderer     = (*fakeRenderer)(nil)
	_ ports.ArtifactRenderer     = fakeArtifactRenderer{}
	_ ports.DiffEngine           = (*failingEngine)(nil)
	_ ports.BlobStore            = (*fakeBlobs)(nil)
	_ ports.MessageTransport     = (*fakeTransport)(nil)
	_ ports.ErrorReporter        = (*fakeReporter)(nil)
	_ ports.EntrySource          = (*sliceSource)(nil)
	_ ports.EntrySource          = blockingSource{}
)
