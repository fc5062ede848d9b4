package jsonl

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"EdgarWatcher/internal/ports"
)

const events = `{"feed":{"url":"https://www.sec.gov/feed/1"},"entry":{"guid":"g-1","title":"S-1 - ACME","link":"https://www.sec.gov/a-index.htm","date":"2024-03-01T12:00:00Z"}}

# comments and broken lines are skipped
{"feed":
{"feed":{"url":"https://www.sec.gov/feed/1"},"entry":{"guid":"g-2","title":"8-K - ACME","categories":["form type"]}}
`

func TestSourceReadsUntilEOF(t *testing.T) {
	t.Parallel()

	source := NewSource(strings.NewReader(events), nil, nil)
	ctx := context.Background()

	first, err := source.Receive(ctx)
	if err != nil {
		t.Fatalf("receive first: %v", err)
	}
	if first.Event.Entry.GUID != "g-1" || !first.Event.Entry.Date.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first event %+v", first.Event)
	}
	if first.Ack != nil {
		t.Fatalf("replayed events need no ack")
	}

	second, err := source.Receive(ctx)
	if err != nil {
		t.Fatalf("receive second: %v", err)
	}
	if second.Event.Entry.GUID != "g-2" || len(second.Event.Entry.Categories) != 1 {
		t.Fatalf("unexpected second event %+v", second.Event)
	}

	if _, err := source.Receive(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestSourceOversizedLineBreaksSource(t *testing.T) {
	t.Parallel()

	input := `{"feed":{"url":"f"},"entry":{"guid":"g-1"}}` + "\n" + strings.Repeat("x", maxLineBytes+1) + "\n"
	source := NewSource(strings.NewReader(input), nil, nil)
	ctx := context.Background()

	if _, err := source.Receive(ctx); err != nil {
		t.Fatalf("receive first: %v", err)
	}
	for range 2 {
		if _, err := source.Receive(ctx); !errors.Is(err, ports.ErrSourceBroken) {
			t.Fatalf("expected broken source, got %v", err)
		}
	}
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte(events), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	source, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := source.Receive(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.jsonl"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
