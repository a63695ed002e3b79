package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dima1799/jobradar-ai/internal/metrics"
	"go.uber.org/zap"
)

const contentType = "application/json"

// Query runs a nearest-neighbor search and returns up to limit scored
// points with payloads, best first.
func (c *Client) Query(ctx context.Context, vector []float32, limit int, filter *Filter) ([]ScoredPoint, error) {
	body := map[string]any{
		"query":        vector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil {
		body["filter"] = filter
	}

	var resp struct {
		Result struct {
			Points []ScoredPoint `json:"points"`
		} `json:"result"`
	}

	if err := c.post(ctx, "query", c.pointsURL("query"), body, &resp); err != nil {
		return nil, err
	}

	return resp.Result.Points, nil
}

// Scroll pages through stored points matching the filter. The returned
// offset is opaque; pass it back verbatim to continue, nil means the end.
func (c *Client) Scroll(ctx context.Context, filter *Filter, limit int, offset any) ([]Point, any, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil {
		body["filter"] = filter
	}
	if offset != nil {
		body["offset"] = offset
	}

	var resp struct {
		Result struct {
			Points         []Point `json:"points"`
			NextPageOffset any     `json:"next_page_offset"`
		} `json:"result"`
	}

	if err := c.post(ctx, "scroll", c.pointsURL("scroll"), body, &resp); err != nil {
		return nil, nil, err
	}

	return resp.Result.Points, resp.Result.NextPageOffset, nil
}

// Upsert writes points and waits for the operation to be applied.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.APIURL, c.collection)
	return c.send(ctx, "upsert", http.MethodPut, url, map[string]any{"points": points}, nil)
}

// SetPayload merges the given payload into every listed point.
func (c *Client) SetPayload(ctx context.Context, payload map[string]any, ids []any) error {
	if len(ids) == 0 {
		return nil
	}

	body := map[string]any{
		"payload": payload,
		"points":  ids,
	}
	return c.post(ctx, "set_payload", c.pointsURL("payload"), body, nil)
}

// EnsureCollection creates the collection with cosine distance when it does
// not exist yet. Qdrant answers 200 for an existing collection with the
// same schema, so the call is safe to repeat on startup.
func (c *Client) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}

	url := fmt.Sprintf("%s/collections/%s", c.APIURL, c.collection)
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return c.send(ctx, "ensure_collection", http.MethodPut, url, body, nil)
}

func (c *Client) pointsURL(action string) string {
	return fmt.Sprintf("%s/collections/%s/points/%s", c.APIURL, c.collection, action)
}

func (c *Client) post(ctx context.Context, op, url string, body, target any) error {
	return c.send(ctx, op, http.MethodPost, url, body, target)
}

func (c *Client) send(ctx context.Context, op, method, url string, body, target any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.UserAgent)
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	c.logger.Debug("qdrant request", zap.String("op", op), zap.String("url", url))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.QdrantRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.QdrantRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%w: %s %s: bad status %s", ErrUnavailable, method, url, resp.Status)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			metrics.QdrantRequests.WithLabelValues(op, "error").Inc()
			return fmt.Errorf("%w: decode %s response: %v", ErrUnavailable, op, err)
		}
	}

	metrics.QdrantRequests.WithLabelValues(op, "ok").Inc()
	return nil
}
