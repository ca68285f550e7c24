package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// HTTPConfig configures a self-hosted embedding model served over HTTP.
type HTTPConfig struct {
	BaseURL    string
	Dimensions int
	Timeout    time.Duration

	// When TokenURL is set, requests carry a bearer token obtained with the
	// OAuth2 client-credentials grant.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// HTTPEmbedder posts texts to {BaseURL}/embed and reads back their vectors.
//
// Request:  {"texts": ["..."]}
// Response: {"vectors": [[0.1, ...], ...]}
type HTTPEmbedder struct {
	endpoint   string
	dimensions int
	client     *http.Client
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

// NewHTTPEmbedder creates an embedder for cfg. ctx is only used by the OAuth2
// token source to fetch tokens; it should live as long as the embedder.
func NewHTTPEmbedder(ctx context.Context, cfg HTTPConfig) (*HTTPEmbedder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("http embedder: base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = cc.Client(ctx)
		client.Timeout = cfg.Timeout
	}

	return &HTTPEmbedder{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/embed",
		dimensions: cfg.Dimensions,
		client:     client,
	}, nil
}

// Dimensions returns the configured vector size, or 0 when unchecked.
func (e *HTTPEmbedder) Dimensions() int { return e.dimensions }

func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Vectors) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(out.Vectors), len(texts))
	}
	if e.dimensions > 0 {
		for i, v := range out.Vectors {
			if len(v) != e.dimensions {
				return nil, fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), e.dimensions)
			}
		}
	}
	return out.Vectors, nil
}
