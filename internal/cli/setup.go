package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/config"
	"github.com/policyradar/policyradar/internal/domain/document"
	"github.com/policyradar/policyradar/internal/repository/snapshot"
	"github.com/policyradar/policyradar/internal/store"
	"github.com/policyradar/policyradar/internal/transport/sources"
	ingestuc "github.com/policyradar/policyradar/internal/usecase/ingest"
)

// persistedCorpus is the persistence contract shared by all drivers.
type persistedCorpus interface {
	Load(ctx context.Context) ([]document.Document, error)
	Save(ctx context.Context, docs []document.Document) error
}

// newSnapshotRepository builds the persistence driver selected in config.
// The returned close func may be nil.
func newSnapshotRepository(cfg config.StoreConfig) (repo persistedCorpus, closeFn func(), err error) {
	switch cfg.Driver {
	case "file":
		return snapshot.NewFileStore(cfg.File.Path), nil, nil
	case "redis":
		rs, err := snapshot.NewRedisStore(snapshot.RedisConfig{
			Addrs:     cfg.Redis.Addrs,
			Password:  cfg.Redis.Password,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := rs.WaitForReady(context.Background(), 10*time.Second); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		return rs, rs.Close, nil
	case "sqlite":
		ss, err := snapshot.NewSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("create sqlite store: %w", err)
		}
		return ss, func() { _ = ss.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// loadCorpus initializes the in-memory store from persistence. A load
// failure leaves the store uninitialized: the read API answers 503 until
// the first successful ingestion, rather than silently serving nothing.
// With seed enabled, an empty persistence layer gets the demo corpus so a
// fresh deployment has something to serve. The samples stay in memory only;
// the first real ingestion replaces them and persists its own documents.
func loadCorpus(repo persistedCorpus, st *store.Store, logger *zap.Logger, seed bool) {
	docs, err := repo.Load(context.Background())
	if err != nil {
		logger.Error("failed to load persisted corpus, store stays uninitialized", zap.Error(err))
		return
	}
	if len(docs) == 0 && seed {
		docs = sampleDocuments(time.Now().UTC())
		logger.Info("persisted corpus empty, seeding sample documents", zap.Int("documents", len(docs)))
	}
	snap := st.Replace(docs)
	logger.Info("corpus loaded", zap.Int("documents", snap.Len()))
}

// sampleDocuments returns the demo corpus. Publication dates are relative
// to now so the samples stay inside the default recency windows.
func sampleDocuments(now time.Time) []document.Document {
	return []document.Document{
		{
			ID:       "sample-1",
			Title:    "EU Hydrogen Strategy for a Climate-Neutral Europe",
			Summary:  "The European Commission's strategy to scale up renewable hydrogen production and deployment across the EU, targeting climate neutrality by 2050.",
			Source:   "EUR-Lex",
			DocType:  "strategy",
			Topic:    "hydrogen",
			URL:      "https://eur-lex.europa.eu/legal-content/EN/TXT/?uri=CELEX:52020DC0301",
			Language: "en",
			Published: now.AddDate(0, 0, -1),
		},
		{
			ID:       "sample-2",
			Title:    "Clean Energy Package Implementation in Transport",
			Summary:  "Member states report progress on implementing clean energy directives in the transport sector, with a focus on electric vehicle infrastructure.",
			Source:   "EURACTIV",
			DocType:  "news",
			Topic:    "transport",
			URL:      "https://www.euractiv.com/section/transport/news/clean-energy-package/",
			Language: "en",
			Published: now.AddDate(0, 0, -2),
		},
		{
			ID:       "sample-3",
			Title:    "European Parliament Resolution on Sustainable Transport",
			Summary:  "Parliament calls for accelerated investment in sustainable transport infrastructure and binding emission reduction targets for the sector.",
			Source:   "EP Open Data",
			DocType:  "resolution",
			Topic:    "transport",
			URL:      "https://www.europarl.europa.eu/doceo/document/TA-9-2025-0301_EN.html",
			Language: "en",
			Published: now.AddDate(0, 0, -3),
		},
	}
}

// buildSources constructs the registered ingestion sources.
func buildSources(cfg config.IngestionConfig, logger *zap.Logger) []ingestuc.Source {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	return []ingestuc.Source{
		sources.NewEuractiv(sources.EuractivConfig{
			FeedURL:       cfg.EuractivRSSURL,
			Timeout:       timeout,
			FetchFullText: cfg.FetchFullText,
			Logger:        logger,
		}),
		sources.NewEurLex(sources.EurLexConfig{
			Endpoint: cfg.EurLexSPARQLEndpoint,
			Timeout:  timeout,
			Logger:   logger,
		}),
		sources.NewEP(sources.EPConfig{
			FeedURL: cfg.EPNewsRSSURL,
			Logger:  logger,
		}),
	}
}
