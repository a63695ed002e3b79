package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dima1799/jobradar-ai/internal/ai"
	aigemini "github.com/dima1799/jobradar-ai/internal/ai/gemini"
	"github.com/dima1799/jobradar-ai/internal/embedding"
	embgemini "github.com/dima1799/jobradar-ai/internal/embedding/gemini"
	"github.com/dima1799/jobradar-ai/internal/logger"
	"github.com/dima1799/jobradar-ai/internal/qdrant"
	"github.com/dima1799/jobradar-ai/internal/retrieval"
	"github.com/dima1799/jobradar-ai/internal/secrets"
	"github.com/dima1799/jobradar-ai/internal/summary"
	"go.uber.org/zap"
)

const (
	defaultCollection = "vacancies"
	defaultDimension  = 768
	defaultK          = 5
	defaultFetchWidth = 50
)

// services holds everything the commands share: the vector index client,
// the embedding encoder and the components built on top of them.
type services struct {
	qdrant      *qdrant.Client
	encoder     embedding.Encoder
	engine      *retrieval.Engine
	facets      *retrieval.FacetCache
	synthesizer *summary.Synthesizer

	// assistant is nil when the ai section is disabled.
	assistant ai.Assistant
}

func buildServices(ctx context.Context, config *Config, log *zap.Logger) (*services, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Qdrant == nil || strings.TrimSpace(config.Qdrant.URL) == "" {
		return nil, errors.New("qdrant.url is required (or set QDRANT_URL)")
	}

	collection := strings.TrimSpace(config.Qdrant.Collection)
	if collection == "" {
		collection = defaultCollection
	}

	var qdrantKey string
	if strings.TrimSpace(config.Qdrant.APIKeyFile) != "" {
		key, err := secrets.Load(secrets.Source{
			Name: "qdrant api key",
			File: config.Qdrant.APIKeyFile,
		})
		if err != nil {
			return nil, err
		}
		qdrantKey = key
	}

	index := qdrant.New(qdrant.Config{
		URL:        config.Qdrant.URL,
		Collection: collection,
		APIKey:     qdrantKey,
		Timeout:    config.Qdrant.Timeout,
	}, log)

	encoder, err := buildEncoder(ctx, config.Embedding)
	if err != nil {
		return nil, fmt.Errorf("building embedding encoder: %w", err)
	}

	var retrievalTimeout time.Duration
	if config.Retrieval != nil {
		retrievalTimeout = config.Retrieval.Timeout
	}

	engine := retrieval.NewEngine(index, encoder, log, retrievalTimeout)
	facets := retrieval.NewFacetCache(index, log)

	anchors := summary.DefaultAnchors()
	if config.Summary != nil && len(config.Summary.Sections) > 0 {
		anchors = summary.OrderAnchors(anchors, config.Summary.Sections)
	}
	synthesizer := summary.NewSynthesizer(encoder, anchors, log)

	svc := &services{
		qdrant:      index,
		encoder:     encoder,
		engine:      engine,
		facets:      facets,
		synthesizer: synthesizer,
	}

	if config.AI != nil && config.AI.Enabled {
		assistant, err := buildAssistant(ctx, config.AI, log)
		if err != nil {
			return nil, fmt.Errorf("building ai assistant: %w", err)
		}
		svc.assistant = assistant
	}

	return svc, nil
}

func buildEncoder(ctx context.Context, cfg *EmbeddingConfig) (embedding.Encoder, error) {
	if cfg == nil {
		return nil, errors.New("embedding section is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set embedding.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = defaultDimension
	}

	return embgemini.NewEncoder(ctx, apiKey, cfg.Model, dimension)
}

func buildAssistant(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Assistant, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("ai.gemini section is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := aigemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	answererLogger := logger.WithCommonFields(log, "gemini", generator.Model())

	return aigemini.NewAnswerer(generator, answererLogger, cfg.Gemini.MaxLogLength), nil
}

func retrievalLimits(cfg *RetrievalConfig) (k, fetchWidth int) {
	k = defaultK
	fetchWidth = defaultFetchWidth
	if cfg != nil {
		if cfg.K > 0 {
			k = cfg.K
		}
		if cfg.FetchWidth > 0 {
			fetchWidth = cfg.FetchWidth
		}
	}
	return k, fetchWidth
}
