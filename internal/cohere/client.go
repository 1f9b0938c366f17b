// Package cohere is a minimal client for the Cohere embed and rerank APIs.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultBaseURL is the Cohere API endpoint.
	DefaultBaseURL = "https://api.cohere.com/v1"
	// DefaultEmbeddingModel produces 1024-dimensional embeddings.
	DefaultEmbeddingModel = "embed-english-v3.0"
	// DefaultRerankModel is the cross-encoder used to reorder candidates.
	DefaultRerankModel = "rerank-english-v3.0"
	// DefaultEmbeddingDimensions is the dimension of embed-english-v3.0 vectors.
	DefaultEmbeddingDimensions = 1024
)

// InputType selects the embedding mode. Queries and documents are embedded
// with different modes but share the same vector space and dimension; mixing
// the modes up measurably degrades ranking quality.
type InputType string

const (
	InputTypeQuery    InputType = "search_query"
	InputTypeDocument InputType = "search_document"
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrNoAPIKey is returned when the Cohere API key is not set
	ErrNoAPIKey = errors.New("COHERE_API_KEY environment variable not set")
)

// Config holds client configuration.
type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      string
	RerankModel         string
	EmbeddingDimensions int
	HTTPClient          *http.Client
}

// Client calls the Cohere embed and rerank endpoints.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	embedModel  string
	rerankModel string
	dimensions  int
}

// NewClient creates a new Cohere client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new Cohere client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.RerankModel == "" {
		cfg.RerankModel = DefaultRerankModel
	}
	if cfg.EmbeddingDimensions <= 0 {
		cfg.EmbeddingDimensions = DefaultEmbeddingDimensions
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient:  cfg.HTTPClient,
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		embedModel:  cfg.EmbeddingModel,
		rerankModel: cfg.RerankModel,
		dimensions:  cfg.EmbeddingDimensions,
	}
}

// NewClientFromEnv creates a new client using the COHERE_API_KEY environment variable.
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("COHERE_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Dimensions returns the embedding dimension this client is configured for.
func (c *Client) Dimensions() int {
	return c.dimensions
}

type embedRequest struct {
	Model     string    `json:"model"`
	Texts     []string  `json:"texts"`
	InputType InputType `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedQuery embeds a search query in query mode.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.embed(ctx, []string{text}, InputTypeQuery)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedDocuments embeds document chunks in document mode.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embed(ctx, texts, InputTypeDocument)
}

func (c *Client) embed(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}
	for _, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
	}

	var resp embedResponse
	err := c.post(ctx, "/embed", embedRequest{
		Model:     c.embedModel,
		Texts:     texts,
		InputType: inputType,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	for _, embedding := range resp.Embeddings {
		if len(embedding) != c.dimensions {
			return nil, fmt.Errorf("embedding has wrong dimensions, expected %d got %d",
				c.dimensions, len(embedding))
		}
	}

	return resp.Embeddings, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []RerankResult `json:"results"`
}

// RerankResult is one entry of the reranked ordering. Index refers to the
// position in the submitted documents slice.
type RerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Rerank scores documents against the query with the cross-encoder model and
// returns at most topN results, best first.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error) {
	if query == "" {
		return nil, ErrEmptyText
	}
	if len(documents) == 0 {
		return []RerankResult{}, nil
	}

	var resp rerankResponse
	err := c.post(ctx, "/rerank", rerankRequest{
		Model:     c.rerankModel,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	}, &resp)
	if err != nil {
		return nil, err
	}

	for _, result := range resp.Results {
		if result.Index < 0 || result.Index >= len(documents) {
			return nil, fmt.Errorf("rerank returned out-of-range index %d", result.Index)
		}
	}

	return resp.Results, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cohere request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("cohere %s returned %d: %s", path, resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
