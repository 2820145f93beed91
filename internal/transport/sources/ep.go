package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/domain/document"
)

// EP fetches European Parliament press releases from the EP open-data RSS
// feed.
type EP struct {
	feedURL string
	parser  *gofeed.Parser
	logger  *zap.Logger
	now     func() time.Time
}

// EPConfig holds European Parliament source settings.
type EPConfig struct {
	FeedURL string
	Logger  *zap.Logger
}

// NewEP creates the European Parliament source.
func NewEP(cfg EPConfig) *EP {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent

	return &EP{
		feedURL: cfg.FeedURL,
		parser:  parser,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// Name implements ingest.Source.
func (e *EP) Name() string { return "ep" }

// Fetch implements ingest.Source.
func (e *EP) Fetch(ctx context.Context, topic string, days, limit int) ([]document.Document, error) {
	feed, err := e.parser.ParseURLWithContext(e.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse ep feed: %w", err)
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

		docs = append(docs, document.Document{
			ID:        itemID(item),
			Title:     item.Title,
			Summary:   stripHTML(item.Description),
			Source:    "EP Open Data",
			DocType:   epDocType(item),
			Topic:     topic,
			URL:       item.Link,
			Language:  "en",
			Published: published,
		})
	}

	e.logger.Debug("ep feed parsed",
		zap.Int("feed_items", len(feed.Items)),
		zap.Int("matched", len(docs)),
	)
	return docs, nil
}

// epDocType classifies EP feed items by title conventions; the press feed
// mixes resolutions and plain press releases.
func epDocType(item *gofeed.Item) string {
	title := strings.ToLower(item.Title)
	switch {
	case strings.Contains(title, "resolution"):
		return "resolution"
	case strings.Contains(title, "parliamentary question"):
		return "parliamentary_question"
	default:
		return "press_release"
	}
}
