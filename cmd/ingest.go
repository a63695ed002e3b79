package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/dima1799/jobradar-ai/internal/filtering"
	"github.com/dima1799/jobradar-ai/internal/headhunter"
	"github.com/dima1799/jobradar-ai/internal/logger"
	"github.com/dima1799/jobradar-ai/internal/qdrant"
	"github.com/dima1799/jobradar-ai/internal/secrets"
	"github.com/dima1799/jobradar-ai/internal/utils"
	"github.com/dima1799/jobradar-ai/internal/vacancy"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// Pause between hh.ru detail requests. The API bans impatient clients.
	defaultIngestDelay = 250 * time.Millisecond

	upsertBatchSize = 128
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Search hh.ru and index the found vacancies",
	Run: func(_ *cobra.Command, _ []string) {
		ingest()
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func ingest() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Search == nil {
		logger.Fatal("search section is required for ingest")
	}

	svc, err := buildServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building services", zap.Error(err))
	}

	hh := newHHClient(ctx, config, logger)

	logger.Info("starting the search", zap.String("search", config.Search.Text))

	found, err := hh.Search(config.Search)
	if err != nil {
		logger.Fatal("searching vacancies", zap.Error(err))
	}
	logger.Info("got vacancies", zap.Int("count", found.Len()))

	filterCfg := &filtering.Config{}
	if config.Ingest != nil {
		filterCfg.Employers = config.Ingest.ExcludedEmployers
	}

	filtered, err := filtering.Run(ctx, filterCfg, filtering.Deps{Logger: logger}, filtering.DefaultSteps(), found)
	if err != nil {
		logger.Fatal("filtering vacancies", zap.Error(err))
	}

	if filtered.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no vacancies left after filters"))
		return
	}

	docs := fetchDocuments(ctx, hh, filtered, ingestDelay(config), logger)
	if len(docs) == 0 {
		logger.Info("exiting", zap.String("reason", "no indexable vacancies"))
		return
	}

	if err := svc.qdrant.EnsureCollection(ctx, svc.encoder.Dimension()); err != nil {
		logger.Fatal("ensuring collection", zap.Error(err))
	}

	if err := indexDocuments(ctx, svc, docs, logger); err != nil {
		logger.Fatal("indexing vacancies", zap.Error(err))
	}

	logger.Info("ingest finished", zap.Int("indexed", len(docs)))
}

func newHHClient(ctx context.Context, config *Config, logger *zap.Logger) *headhunter.Client {
	var token string
	if strings.TrimSpace(config.TokenFile) != "" {
		loaded, err := secrets.Load(secrets.Source{
			Name: "headhunter token",
			File: config.TokenFile,
		})
		if err != nil {
			logger.Warn("proceeding without hh.ru token", zap.Error(err))
		} else {
			token = loaded
		}
	}

	hh := headhunter.New(ctx, logger, token)
	if config.UserAgent != "" {
		hh.UserAgent = config.UserAgent
	}
	return hh
}

func ingestDelay(config *Config) time.Duration {
	if config.Ingest != nil && config.Ingest.Delay > 0 {
		return config.Ingest.Delay
	}
	return defaultIngestDelay
}

// fetchDocuments pulls the full posting for each search hit. Search listings
// only carry snippets; the description lives behind a per-vacancy request.
func fetchDocuments(ctx context.Context, hh *headhunter.Client, found *headhunter.Vacancies, delay time.Duration, logger *zap.Logger) []*vacancy.Vacancy {
	docs := make([]*vacancy.Vacancy, 0, found.Len())
	for _, item := range found.Items {
		full, err := hh.GetVacancy(item.ID)
		if err != nil {
			logger.Warn("fetching vacancy details failed, indexing the listing snippet",
				zap.String("vacancy_id", item.ID),
				zap.Error(err),
			)
			full = item
		}

		doc := full.ToDocument()
		if doc.Text() == "" {
			logger.Warn("skipping vacancy without text", zap.String("vacancy_id", item.ID))
			continue
		}
		docs = append(docs, doc)

		if err := utils.WaitFor(ctx, delay); err != nil {
			logger.Warn("ingest interrupted", zap.Error(err))
			break
		}
	}
	return docs
}

func indexDocuments(ctx context.Context, svc *services, docs []*vacancy.Vacancy, logger *zap.Logger) error {
	// The title carries a lot of ranking signal, so it is embedded together
	// with the body text.
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = strings.TrimSpace(doc.Title + ". " + doc.Text())
	}

	vectors, err := svc.encoder.Encode(ctx, texts, true)
	if err != nil {
		return fmt.Errorf("embedding vacancies: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedding vacancies: expected %d vectors, got %d", len(docs), len(vectors))
	}

	points := make([]qdrant.Point, 0, len(docs))
	for i, doc := range docs {
		id, err := strconv.Atoi(doc.ID)
		if err != nil {
			logger.Warn("skipping vacancy with non-numeric id", zap.String("vacancy_id", doc.ID))
			continue
		}

		points = append(points, qdrant.Point{
			ID:      id,
			Vector:  vectors[i],
			Payload: doc.Payload(),
		})
	}

	for start := 0; start < len(points); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}

		if err := svc.qdrant.Upsert(ctx, points[start:end]); err != nil {
			return fmt.Errorf("upserting points: %w", err)
		}

		logger.Debug("upserted batch", zap.Int("from", start), zap.Int("to", end))
	}

	return nil
}
