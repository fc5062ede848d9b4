package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"EdgarWatcher/internal/domain"
)

func TestHTMLToText(t *testing.T) {
	t.Parallel()

	markup := `<html><head><title>x</title><style>p{}</style></head><body>
<h1>Title</h1><p>Hello   <b>world</b></p><script>var x;</script>
<table><tr><td>A</td><td>B</td></tr></table>line<br>break<!-- note --></body></html>`

	got, err := HTMLToText([]byte(markup), 200)
	if err != nil {
		t.Fatalf("HTMLToText error: %v", err)
	}
	want := "Title\nHello world\nA B\nline\nbreak\n"
	if got != want {
		t.Fatalf("unexpected text:\n%q\nwant\n%q", got, want)
	}
}

func TestHTMLToTextEmpty(t *testing.T) {
	t.Parallel()

	got, err := HTMLToText([]byte(`<html><body>   </body></html>`), 80)
	if err != nil {
		t.Fatalf("HTMLToText error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	got := wrap("aaa bbb ccc", 7)
	if len(got) != 2 || got[0] != "aaa bbb" || got[1] != "ccc" {
		t.Fatalf("unexpected wrap: %q", got)
	}

	long := wrap("abcdefghij", 4)
	if len(long) != 1 || long[0] != "abcdefghij" {
		t.Fatalf("a single long word must stay whole: %q", long)
	}
}

type staticFetcher struct {
	body []byte
	err  error
}

func (s staticFetcher) Get(context.Context, string) ([]byte, error) {
	return s.body, s.err
}

func TestPlainTextRenderToText(t *testing.T) {
	t.Parallel()

	r := NewPlainText(staticFetcher{body: []byte(`<p>one</p><p>two</p>`)}, 0)
	got, err := r.RenderToText(context.Background(), "https://www.sec.gov/doc.htm")
	if err != nil {
		t.Fatalf("RenderToText error: %v", err)
	}
	if got != "one\ntwo\n" {
		t.Fatalf("unexpected text: %q", got)
	}

	failing := NewPlainText(staticFetcher{err: domain.ErrFetch}, 0)
	_, err = failing.RenderToText(context.Background(), "https://www.sec.gov/doc.htm")
	if !errors.Is(err, domain.ErrRender) || !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected render error wrapping fetch error, got %v", err)
	}
}

func TestW3MFailureIsRenderError(t *testing.T) {
	t.Parallel()

	r := NewW3M(filepath.Join(t.TempDir(), "missing-w3m"), 0)
	_, err := r.RenderToText(context.Background(), "https://www.sec.gov/doc.htm")
	if !errors.Is(err, domain.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestW3MPassesArguments(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	t.Parallel()

	script := filepath.Join(t.TempDir(), "w3m")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$1 $2 $3 $4\"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	got, err := NewW3M(script, 120).RenderToText(context.Background(), "https://www.sec.gov/a b.htm")
	if err != nil {
		t.Fatalf("RenderToText error: %v", err)
	}
	if got != "-dump -cols 120 https://www.sec.gov/a b.htm\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}
