package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/config"
	logpkg "github.com/policyradar/policyradar/internal/logger"
	"github.com/policyradar/policyradar/internal/metrics"
	"github.com/policyradar/policyradar/internal/store"
	ingestuc "github.com/policyradar/policyradar/internal/usecase/ingest"
)

var (
	ingestDays    int
	ingestLimit   int
	ingestSources string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <topic>",
	Short: "Run a one-off ingestion pass and persist the corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args[0])
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestDays, "days", 0, "recency window in days (default from config)")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "total document budget (default from config)")
	ingestCmd.Flags().StringVar(&ingestSources, "sources", "", "comma-separated sources (default all)")
}

func runIngest(ctx context.Context, topic string) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	repo, closeRepo, err := newSnapshotRepository(cfg.Store)
	if err != nil {
		return fmt.Errorf("create snapshot repository: %w", err)
	}
	if closeRepo != nil {
		defer closeRepo()
	}

	// No sample seeding here: an ingestion run must persist only what the
	// sources returned, merged with whatever was already stored.
	corpus := store.New()
	loadCorpus(repo, corpus, logger, false)

	metrics.RegisterPipelineMetrics()

	svc := ingestuc.New(corpus, repo, logger, buildSources(cfg.Ingestion, logger)...).
		WithDefaults(cfg.Ingestion.DefaultDays, cfg.Ingestion.DefaultLimit)

	var srcNames []string
	if ingestSources != "" {
		for _, s := range strings.Split(ingestSources, ",") {
			srcNames = append(srcNames, strings.TrimSpace(s))
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	report, err := svc.Run(runCtx, ingestuc.Request{
		Topic:   topic,
		Days:    ingestDays,
		Sources: srcNames,
		Limit:   ingestLimit,
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	logger.Info("ingestion finished",
		zap.Int("new_documents", report.NewDocuments),
		zap.Int("total_documents", report.TotalDocuments),
	)
	return nil
}
