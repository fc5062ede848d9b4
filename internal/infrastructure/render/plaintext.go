package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// PageFetcher returns the raw body of a page.
type PageFetcher interface {
	Get(ctx context.Context, pageURL string) ([]byte, error)
}

// PlainText fetches a document and converts its HTML to wrapped plain text in process.
type PlainText struct {
	fetcher PageFetcher
	width   int
}

var _ ports.DocumentRenderer = (*PlainText)(nil)

// NewPlainText wires a fetcher; width defaults to DefaultWidth.
func NewPlainText(fetcher PageFetcher, width int) *PlainText {
	if width <= 0 {
		width = DefaultWidth
	}
	return &PlainText{fetcher: fetcher, width: width}
}

// RenderToText fetches url and renders it.
func (p *PlainText) RenderToText(ctx context.Context, url string) (string, error) {
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRender, err)
	}
	text, err := HTMLToText(body, p.width)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrRender, url, err)
	}
	return text, nil
}

// HTMLToText extracts readable text: one line per block element, runs of whitespace
// collapsed, lines wrapped at width.
func HTMLToText(markup []byte, width int) (string, error) {
	root, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var (
		lines   []string
		current strings.Builder
	)
	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		current.Reset()
		if line == "" {
			return
		}
		lines = append(lines, wrap(line, width)...)
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.CommentNode, html.DoctypeNode:
			return
		case html.ElementNode:
			if skipped[n.DataAtom] || n.Data == "ix:header" {
				return
			}
			if n.DataAtom == atom.Br {
				flush()
				return
			}
		}

		block := n.Type == html.ElementNode && blocks[n.DataAtom]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
		// keep adjacent table cells apart
		if n.DataAtom == atom.Td || n.DataAtom == atom.Th {
			current.WriteString(" ")
		}
	}
	walk(root)
	flush()

	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

var blocks = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Table:      true,
	atom.Tr:         true,
	atom.Li:         true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Pre:        true,
	atom.Blockquote: true,
	atom.Hr:         true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Center:     true,
}

// wrap breaks line on spaces so no piece exceeds width runes, unless a single word does.
func wrap(line string, width int) []string {
	if width <= 0 || len([]rune(line)) <= width {
		return []string{line}
	}

	var (
		out []string
		cur []string
		n   int
	)
	for _, word := range strings.Fields(line) {
		wl := len([]rune(word))
		if n > 0 && n+1+wl > width {
			out = append(out, strings.Join(cur, " "))
			cur, n = nil, 0
		}
		if n > 0 {
			n++
		}
		cur = append(cur, word)
		n += wl
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}
