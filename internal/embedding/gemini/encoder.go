package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dima1799/jobradar-ai/internal/embedding"
	"google.golang.org/genai"
)

const (
	defaultModel = "gemini-embedding-001"

	// The embed API caps the number of contents per request.
	maxBatchSize = 100
)

// contentEmbedder is the slice of the genai client the encoder needs.
// Kept as an interface so tests can run without the real API.
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

var _ embedding.Encoder = (*Encoder)(nil)

// Encoder produces text embeddings through the Gemini API.
type Encoder struct {
	embedder  contentEmbedder
	modelName string
	dimension int
}

// NewEncoder creates an Encoder backed by the Gemini API. The dimension is
// fixed per deployment and must match the vector size of the index
// collection.
func NewEncoder(ctx context.Context, apiKey, model string, dimension int) (*Encoder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension: %d", dimension)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Encoder{embedder: client.Models, modelName: model, dimension: dimension}, nil
}

// Dimension returns the configured output dimensionality.
func (e *Encoder) Dimension() int {
	return e.dimension
}

// Encode embeds the texts in request-sized batches, preserving input order.
// The provider is not trusted to return unit vectors, so normalization is
// done locally when requested.
func (e *Encoder) Encode(ctx context.Context, texts []string, normalize bool) ([][]float32, error) {
	if e == nil || e.embedder == nil {
		return nil, errors.New("gemini encoder is not initialized")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	config := &genai.EmbedContentConfig{
		TaskType:             "SEMANTIC_SIMILARITY",
		OutputDimensionality: genai.Ptr(int32(e.dimension)),
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		resp, err := e.embedder.EmbedContent(ctx, e.modelName, contents, config)
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
		if resp == nil || len(resp.Embeddings) != len(contents) {
			return nil, fmt.Errorf("embed content: expected %d embeddings, got %d", len(contents), embeddingCount(resp))
		}

		for _, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, errors.New("embed content: empty embedding in response")
			}

			vector := make([]float32, len(emb.Values))
			copy(vector, emb.Values)
			vectors = append(vectors, vector)
		}
	}

	if normalize {
		for _, vector := range vectors {
			embedding.Normalize(vector)
		}
	}

	return vectors, nil
}

func embeddingCount(resp *genai.EmbedContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}
