package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/domain/document"
)

// userAgent avoids 403s from feed hosts that reject default Go clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// Euractiv fetches news articles from the EURACTIV RSS feed. When fulltext
// is enabled, each article page is fetched and its body extracted with
// readability.
type Euractiv struct {
	feedURL  string
	parser   *gofeed.Parser
	client   *http.Client
	fulltext bool
	logger   *zap.Logger
	now      func() time.Time
}

// EuractivConfig holds EURACTIV source settings.
type EuractivConfig struct {
	FeedURL       string
	Timeout       time.Duration
	FetchFullText bool
	Logger        *zap.Logger
}

// NewEuractiv creates the EURACTIV source.
func NewEuractiv(cfg EuractivConfig) *Euractiv {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent

	return &Euractiv{
		feedURL:  cfg.FeedURL,
		parser:   parser,
		client:   &http.Client{Timeout: cfg.Timeout},
		fulltext: cfg.FetchFullText,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// Name implements ingest.Source.
func (e *Euractiv) Name() string { return "euractiv" }

// Fetch implements ingest.Source.
func (e *Euractiv) Fetch(ctx context.Context, topic string, days, limit int) ([]document.Document, error) {
	feed, err := e.parser.ParseURLWithContext(e.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse euractiv feed: %w", err)
	}

	cutoff := recencyCutoff(e.now(), days)
	docs := make([]document.Document, 0, limit)
	for _, item := range feed.Items {
		if len(docs) >= limit {
			break
		}
		if !matchesTopic(item, topic) {
			continue
		}
		published := itemPublished(item)
		if !published.IsZero() && published.Before(cutoff) {
			continue
		}

		summary := stripHTML(item.Description)
		d := document.Document{
			ID:        itemID(item),
			Title:     item.Title,
			Summary:   summary,
			Source:    "EURACTIV",
			DocType:   "news",
			Topic:     topic,
			URL:       item.Link,
			Language:  "en",
			Published: published,
		}
		if e.fulltext && item.Link != "" {
			d.Body = e.fetchBody(ctx, item.Link)
		}
		docs = append(docs, d)
	}

	e.logger.Debug("euractiv feed parsed",
		zap.Int("feed_items", len(feed.Items)),
		zap.Int("matched", len(docs)),
	)
	return docs, nil
}

// fetchBody downloads an article page and extracts its readable text.
// Extraction failures degrade to an empty body; the RSS summary remains.
func (e *Euractiv) fetchBody(ctx context.Context, link string) string {
	pageURL, err := url.Parse(link)
	if err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug("article fetch failed", zap.String("url", link), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		e.logger.Debug("article extraction failed", zap.String("url", link), zap.Error(err))
		return ""
	}
	return article.TextContent
}
