package domain

import (
	"strings"
	"time"
)

// FilingEntry is one occurrence of a filing as listed in an issuer feed.
type FilingEntry struct {
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	Date       time.Time `json:"date"`
	GUID       string    `json:"guid"`
	Categories []string  `json:"categories,omitempty"`
	FeedTitle  string    `json:"feedTitle"`
}

// Feed identifies an issuer feed by its canonical URL. Lineage never crosses feeds.
type Feed struct {
	URL string `json:"url"`
}

// Event is a newly observed entry together with the feed it was observed on.
type Event struct {
	Entry FilingEntry `json:"entry"`
	Feed  Feed        `json:"feed"`
}

// FilingType is a classification tag derived from a filing title.
type FilingType string

const (
	FilingS1      FilingType = "S-1"
	FilingCTOrder FilingType = "CT ORDER"
	FilingS8      FilingType = "S-8"
	FilingEffect  FilingType = "EFFECT"
	FilingCertNYS FilingType = "CERTNYS"
	FilingFWP     FilingType = "FWP"
	Filing8A12B   FilingType = "8-A12B"
	FilingDRS     FilingType = "DRS"
	FilingD       FilingType = "D"
	FilingUnknown FilingType = "UNKNOWN"
)

// filingTypes is matched first-to-last; a tag must appear before any tag it is a prefix of.
// "D" is last because "DRS" starts with it.
var filingTypes = []FilingType{
	FilingS1,
	FilingCTOrder,
	FilingS8,
	FilingEffect,
	FilingCertNYS,
	FilingFWP,
	Filing8A12B,
	FilingDRS,
	FilingD,
}

// FilingTypes returns the recognised tags in match order.
func FilingTypes() []FilingType {
	out := make([]FilingType, len(filingTypes))
	copy(out, filingTypes)
	return out
}

// ParseFilingType accepts a recognised tag (case-insensitive) including UNKNOWN.
func ParseFilingType(value string) (FilingType, bool) {
	v := FilingType(strings.ToUpper(strings.TrimSpace(value)))
	if v == FilingUnknown {
		return v, true
	}
	for _, t := range filingTypes {
		if t == v {
			return t, true
		}
	}
	return FilingUnknown, false
}

// Classify maps a free-text filing title to the first tag the normalised title starts with.
func Classify(title string) FilingType {
	norm := strings.ToUpper(strings.TrimSpace(title))
	for _, t := range filingTypes {
		if strings.HasPrefix(norm, string(t)) {
			return t
		}
	}
	return FilingUnknown
}

// Type classifies the entry's title.
func (e FilingEntry) Type() FilingType {
	return Classify(e.Title)
}

// NormalizeLink drops the scheme and a leading "www." so links can be compared
// across transport variants. Path and query are left alone.
func NormalizeLink(link string) string {
	if rest, ok := strings.CutPrefix(link, "https://"); ok {
		link = rest
	} else {
		link = strings.TrimPrefix(link, "http://")
	}
	return strings.TrimPrefix(link, "www.")
}

// SameDocument reports whether two links point at the same document after normalisation.
func SameDocument(a, b string) bool {
	return NormalizeLink(a) == NormalizeLink(b)
}
