// Package embedder talks to the optional image-embedding sidecar. Image
// vectors from the sidecar and from candidate artwork live in a shared
// embedding space, so cosine similarity between them is meaningful.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"cinescrapers/internal/services"
)

// Client requests image embeddings over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates an embedder client. An empty URL is a configuration error; the
// caller decides whether the sidecar is optional.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("embedder url required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedImage submits raw image bytes and returns the embedding vector.
func (c *Client) EmbedImage(ctx context.Context, image []byte) ([]float64, error) {
	if len(image) == 0 {
		return nil, errors.New("image bytes required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed/image", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "embedder", "embed image", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "embedder", "embed image",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(payload.Embedding) == 0 {
		return nil, errors.New("embedder returned an empty vector")
	}
	return payload.Embedding, nil
}

// Cosine computes cosine similarity between two vectors. Mismatched lengths
// or zero vectors yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
