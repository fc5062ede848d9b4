package parser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

const (
	edgarBaseURL = "https://www.sec.gov"

	// Columns of the "Document Format Files" table: Seq, Description, Document, Type, Size.
	documentColumn = 2
	typeColumn     = 3

	inlineViewerPath = "/ix"
)

// PageFetcher returns the raw body of a page.
type PageFetcher interface {
	Get(ctx context.Context, pageURL string) ([]byte, error)
}

// IndexResolver reads a filing index page and finds the primary document of the filing's type.
type IndexResolver struct {
	fetcher PageFetcher
	base    *url.URL
}

var _ ports.DocumentLinkResolver = (*IndexResolver)(nil)

// NewIndexResolver wires a fetcher; relative document links resolve against baseURL
// (https://www.sec.gov when empty).
func NewIndexResolver(fetcher PageFetcher, baseURL string) (*IndexResolver, error) {
	if baseURL == "" {
		baseURL = edgarBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", baseURL, err)
	}
	return &IndexResolver{fetcher: fetcher, base: base}, nil
}

// ResolveDocument fetches entry.Link and returns the absolute URL of its document.
func (r *IndexResolver) ResolveDocument(ctx context.Context, entry domain.FilingEntry) (string, error) {
	body, err := r.fetcher.Get(ctx, entry.Link)
	if err != nil {
		return "", fmt.Errorf("index page %s: %w", entry.Link, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: index page %s: %w", domain.ErrParse, entry.Link, err)
	}

	href, err := findDocumentHref(doc, entry.Type())
	if err != nil {
		return "", fmt.Errorf("index page %s: %w", entry.Link, err)
	}

	return r.absolute(href)
}

func findDocumentHref(doc *goquery.Document, filingType domain.FilingType) (string, error) {
	rows := doc.Find(".tableFile tr")
	if rows.Length() == 0 {
		return "", fmt.Errorf("%w: no filing documents table", domain.ErrParse)
	}

	var (
		href  string
		found bool
	)
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.ChildrenFiltered("td")
		if cells.Length() <= typeColumn {
			return true
		}
		if !strings.Contains(strings.TrimSpace(cells.Eq(typeColumn).Text()), string(filingType)) {
			return true
		}
		found = true
		href, _ = cells.Eq(documentColumn).Find("a").First().Attr("href")
		return false
	})

	if !found {
		return "", fmt.Errorf("%w: no document of type %s", domain.ErrParse, filingType)
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("%w: %s row has no document link", domain.ErrParse, filingType)
	}
	return href, nil
}

func (r *IndexResolver) absolute(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: document link %q: %w", domain.ErrParse, href, err)
	}

	// Inline XBRL documents are linked through the viewer: /ix?doc=/Archives/...
	if ref.Path == inlineViewerPath {
		if inner := ref.Query().Get("doc"); inner != "" {
			if ref, err = url.Parse(inner); err != nil {
				return "", fmt.Errorf("%w: inline document link %q: %w", domain.ErrParse, inner, err)
			}
		}
	}

	return r.base.ResolveReference(ref).String(), nil
}
