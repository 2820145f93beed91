// Package sources implements the EU document fetchers used by ingestion:
// EURACTIV (RSS), the European Parliament press feed (RSS) and EUR-Lex
// (SPARQL endpoint).
package sources

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// matchesTopic reports whether a feed item is about the topic: a category
// match or a case-insensitive occurrence in title/description.
func matchesTopic(item *gofeed.Item, topic string) bool {
	needle := strings.ToLower(strings.TrimSpace(topic))
	if needle == "" {
		return true
	}
	for _, cat := range item.Categories {
		if strings.Contains(strings.ToLower(cat), needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Description), needle)
}

// itemPublished resolves the publication time of a feed item, preferring
// the parsed published date and falling back to the updated date.
func itemPublished(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// itemID resolves a stable document ID: GUID first, link as fallback.
// An empty result is handled by ingestion (ULID assignment).
func itemID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}

// stripHTML renders feed HTML fragments down to plain text. Feeds routinely
// embed markup in descriptions.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

// recencyCutoff returns the publication cutoff for a days window.
func recencyCutoff(now time.Time, days int) time.Time {
	return now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days)
}
