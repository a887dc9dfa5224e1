// Package embed wraps the external embedding service. Texts go out in
// ordered batches; vectors come back matched to their inputs regardless of
// any reordering the service performs.
package embed

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client requests embedding vectors in batches.
type Client struct {
	api        *openai.Client
	model      string
	dimensions int
}

// NewClient builds a Client for the given model and vector dimensionality.
// baseURL overrides the service endpoint when non-empty (tests, proxies).
func NewClient(apiKey, baseURL, model string, dimensions int) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:        openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
	}
}

// EmbedBatch returns one vector per input text, in input order. The response
// is re-sorted by the service's returned index before zipping, and empty
// inputs are sent as a single space since the API rejects empty strings.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	cleaned := make([]string, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(strings.ReplaceAll(t, "\n", " "))
		if t == "" {
			t = " "
		}
		cleaned[i] = t
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      cleaned,
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
