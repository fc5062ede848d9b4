package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// DefaultWidth is the column width documents are dumped at.
const DefaultWidth = 200

// W3M renders documents by running `w3m -dump`.
type W3M struct {
	path  string
	width int
}

var _ ports.DocumentRenderer = (*W3M)(nil)

// NewW3M uses the w3m binary at path ("w3m" from PATH when empty).
func NewW3M(path string, width int) *W3M {
	if path == "" {
		path = "w3m"
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return &W3M{path: path, width: width}
}

// RenderToText dumps the document at url as plain text. The url is passed as a
// single argument; no shell is involved.
func (w *W3M) RenderToText(ctx context.Context, url string) (string, error) {
	cmd := exec.CommandContext(ctx, w.path, "-dump", "-cols", strconv.Itoa(w.width), url)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", fmt.Errorf("%w: w3m %s: %w (%s)", domain.ErrRender, url, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
