package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"EdgarWatcher/internal/config"
	"EdgarWatcher/internal/domain"
)

func edgarServer(t *testing.T) *httptest.Server {
	t.Helper()

	index := func(doc, filingType string) string {
		return `<html><body><table class="tableFile">
<tr><th>Seq</th><th>Description</th><th>Document</th><th>Type</th><th>Size</th></tr>
<tr><td>1</td><td>REGISTRATION</td><td><a href="/Archives/` + doc + `">` + doc + `</a></td><td>` + filingType + `</td><td>1</td></tr>
</table></body></html>`
	}
	pages := map[string]string{
		"/v1-index.htm":     index("v1.htm", "S-1"),
		"/v2-index.htm":     index("v2.htm", "S-1/A"),
		"/Archives/v1.htm":  "<html><body><p>Offering of 100 shares</p><p>Risk   factors</p></body></html>",
		"/Archives/v2.htm":  "<html><body><p>Offering of 200 shares</p><p>Risk factors</p></body></html>",
		"/Archives/v2b.htm": "<html><body><p>Offering of 200 shares</p>\n<p>Risk factors</p></body></html>",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "entries.db")}
	cfg.Edgar.BaseURL = baseURL
	cfg.Edgar.RequestsPerSecond = 0
	cfg.Render.Kind = "html"
	cfg.Diff = config.DiffConfig{Engine: "native", WorkDir: t.TempDir()}
	cfg.Artifacts.Backend = "filesystem"
	cfg.Artifacts.Dir = t.TempDir()
	cfg.Artifacts.PublicBaseURL = "https://diffs.example.org"
	cfg.Artifacts.UploadStaticAssets = true
	require.NoError(t, cfg.Validate())
	return cfg
}

func notifications(t *testing.T, logs *bytes.Buffer) []string {
	t.Helper()

	var bodies []string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		if record["msg"] == "notification" {
			bodies = append(bodies, record["body"].(string))
		}
	}
	return bodies
}

func TestReplayRecordsLineageAndPublishesDiff(t *testing.T) {
	t.Parallel()

	srv := edgarServer(t)
	cfg := testConfig(t, srv.URL)

	events := strings.Join([]string{
		`{"feed":{"url":"acme"},"entry":{"guid":"g-1","title":"S-1 - ACME Corp","link":"` + srv.URL + `/v1-index.htm","date":"2024-03-01T12:00:00Z","feedTitle":"ACME Corp"}}`,
		`{"feed":{"url":"acme"},"entry":{"guid":"g-2","title":"S-1/A - ACME Corp","link":"` + srv.URL + `/v2-index.htm","date":"2024-03-05T12:00:00Z","feedTitle":"ACME Corp"}}`,
		`{"feed":{"url":"acme"},"entry":{"guid":"g-3","title":"10-K - ACME Corp","link":"` + srv.URL + `/missing","date":"2024-03-06T12:00:00Z"}}`,
	}, "\n")
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(events), 0o600))

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := context.Background()
	application, err := New(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	require.NoError(t, application.Replay(ctx, path, true))

	artifact, err := os.ReadFile(filepath.Join(cfg.Artifacts.Dir, "g-2.html"))
	require.NoError(t, err)
	require.Contains(t, string(artifact), "Offering of 200 shares")
	require.Contains(t, string(artifact), "ACME Corp: S-1/A - ACME Corp")
	require.FileExists(t, filepath.Join(cfg.Artifacts.Dir, "diff-static", "edgar-diff.css"))
	require.NoFileExists(t, filepath.Join(cfg.Artifacts.Dir, "g-1.html"))

	bodies := notifications(t, &logs)
	require.Len(t, bodies, 2)
	require.NotContains(t, bodies[0], "Link to diff:")
	require.Contains(t, bodies[1], "Link to diff: https://diffs.example.org/g-2.html")
	require.Contains(t, bodies[1], "g-2")

	stored, err := application.store.QueryByFeed(ctx, domain.Feed{URL: "acme"})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	scratch, err := os.ReadDir(cfg.Diff.WorkDir)
	require.NoError(t, err)
	require.Empty(t, scratch)
}

func TestDiffWritesArtifact(t *testing.T) {
	t.Parallel()

	srv := edgarServer(t)
	cfg := testConfig(t, srv.URL)
	out := filepath.Join(t.TempDir(), "out", "diff.html")

	err := Diff(context.Background(), cfg, slog.New(slog.DiscardHandler), srv.URL+"/Archives/v2.htm", srv.URL+"/Archives/v2b.htm", out)
	require.NoError(t, err)

	page, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(page), "No differences.")
}
