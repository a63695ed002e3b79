package qdrant

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "dima1799/jobradar-ai"
)

// ErrUnavailable marks any failure to get a well-formed answer from the
// vector index: connection errors, non-2xx statuses and undecodable bodies
// all wrap it. Callers match with errors.Is.
var ErrUnavailable = errors.New("qdrant unavailable")

// Client is a minimal typed REST client for the Qdrant points API. It only
// covers the calls the service actually makes: query, scroll, upsert and
// payload updates on a single collection.
type Client struct {
	apiKey     string
	collection string
	logger     *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

type Config struct {
	URL        string
	Collection string
	APIKey     string
	Timeout    time.Duration
}

func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		logger:     logger,
		APIURL:     cfg.URL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Collection() string {
	return c.collection
}

// Filter is the conjunctive equality filter Qdrant applies server-side.
type Filter struct {
	Must []FieldCondition `json:"must,omitempty"`
}

// FieldCondition matches a single payload field against an exact value.
type FieldCondition struct {
	Key   string     `json:"key"`
	Match MatchValue `json:"match"`
}

type MatchValue struct {
	Value any `json:"value"`
}

// MustMatch builds an exact-match condition for the given payload field.
func MustMatch(key string, value any) FieldCondition {
	return FieldCondition{Key: key, Match: MatchValue{Value: value}}
}

// ActiveOnly returns a filter with the mandatory is_active clause plus any
// extra conditions.
func ActiveOnly(extra ...FieldCondition) *Filter {
	must := append([]FieldCondition{MustMatch("is_active", true)}, extra...)
	return &Filter{Must: must}
}

// ScoredPoint is a similarity search hit.
type ScoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Point is a stored point as returned by scroll or sent by upsert.
type Point struct {
	ID      any            `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}
