package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"EdgarWatcher/internal/domain"
)

func TestClientGetSendsUserAgent(t *testing.T) {
	t.Parallel()

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	c := NewClient(server.Client(), Options{UserAgent: "Tester test@example.org", RequestsPerSecond: 100})
	body, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("unexpected body: %s", body)
	}
	if gotUA != "Tester test@example.org" {
		t.Fatalf("unexpected user agent: %q", gotUA)
	}
}

func TestClientGetStatusIsFetchError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.Client(), Options{})
	_, err := c.Get(context.Background(), server.URL)
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestClientGetCancelled(t *testing.T) {
	t.Parallel()

	c := NewClient(nil, Options{RequestsPerSecond: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Get(ctx, "http://127.0.0.1:1/unused"); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}
