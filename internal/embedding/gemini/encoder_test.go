package gemini

import (
	"context"
	"errors"
	"math"
	"testing"

	"google.golang.org/genai"
)

type fakeEmbedder struct {
	calls     [][]string
	responses []*genai.EmbedContentResponse
	err       error
}

func (f *fakeEmbedder) EmbedContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	texts := make([]string, 0, len(contents))
	for _, content := range contents {
		for _, part := range content.Parts {
			texts = append(texts, part.Text)
		}
	}
	f.calls = append(f.calls, texts)

	if f.err != nil {
		return nil, f.err
	}

	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func embeddingsOf(vectors ...[]float32) *genai.EmbedContentResponse {
	resp := &genai.EmbedContentResponse{}
	for _, vector := range vectors {
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: vector})
	}
	return resp
}

func TestEncodePreservesOrderAndNormalizes(t *testing.T) {
	fake := &fakeEmbedder{responses: []*genai.EmbedContentResponse{
		embeddingsOf([]float32{3, 4}, []float32{0, 2}),
	}}
	encoder := &Encoder{embedder: fake, modelName: "test-model", dimension: 2}

	vectors, err := encoder.Encode(context.Background(), []string{"first", "second"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}

	if len(fake.calls) != 1 || fake.calls[0][0] != "first" || fake.calls[0][1] != "second" {
		t.Fatalf("unexpected request texts: %v", fake.calls)
	}

	if math.Abs(float64(vectors[0][0])-0.6) > 1e-6 || math.Abs(float64(vectors[0][1])-0.8) > 1e-6 {
		t.Fatalf("expected normalized first vector, got %v", vectors[0])
	}
	if vectors[1][1] != 1 {
		t.Fatalf("expected normalized second vector, got %v", vectors[1])
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	encoder := &Encoder{embedder: &fakeEmbedder{}, modelName: "test-model", dimension: 2}

	vectors, err := encoder.Encode(context.Background(), nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors != nil {
		t.Fatalf("expected nil vectors, got %v", vectors)
	}
}

func TestEncodePropagatesAPIError(t *testing.T) {
	fake := &fakeEmbedder{err: errors.New("quota exceeded")}
	encoder := &Encoder{embedder: fake, modelName: "test-model", dimension: 2}

	if _, err := encoder.Encode(context.Background(), []string{"text"}, false); err == nil {
		t.Fatalf("expected error from api failure")
	}
}

func TestEncodeRejectsShortResponse(t *testing.T) {
	fake := &fakeEmbedder{responses: []*genai.EmbedContentResponse{
		embeddingsOf([]float32{1, 0}),
	}}
	encoder := &Encoder{embedder: fake, modelName: "test-model", dimension: 2}

	if _, err := encoder.Encode(context.Background(), []string{"a", "b"}, false); err == nil {
		t.Fatalf("expected error for embedding count mismatch")
	}
}
