package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	recallerrors "github.com/notewell/recall/internal/errors"
	"github.com/notewell/recall/internal/vector"
)

// HTTPConfig configures an OpenAI-compatible embeddings client.
type HTTPConfig struct {
	// BaseURL is the API base, e.g. "https://api.openai.com/v1".
	BaseURL string
	// APIKey is the bearer credential. Optional for self-hosted bases.
	APIKey string
	// Model is the embedding model name.
	Model string
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// Dimensions fixes the expected dimensionality. Zero means lazy:
	// adopt the length of the first returned vector.
	Dimensions int
	// Retry overrides the default backoff policy.
	Retry *RetryConfig
}

// HTTPProvider speaks the OpenAI embeddings wire protocol:
// POST {base}/embeddings with {model, input, encoding_format}, response
// {data: [{embedding: [...]}, ...]} in input order. Both the hosted and
// the self-hosted variants are this type with different construction
// rules.
type HTTPProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	retry   RetryConfig

	mu   sync.RWMutex
	dims int
}

// Verify interface implementation at compile time.
var _ Provider = (*HTTPProvider)(nil)

// NewHosted creates the hosted provider. A credential is required; its
// absence is a config error at construction, before any I/O.
func NewHosted(cfg HTTPConfig) (*HTTPProvider, error) {
	if cfg.APIKey == "" {
		return nil, recallerrors.New(recallerrors.ErrCodeProviderCredentials,
			"hosted embedding provider requires an API key", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHostedBase
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = hostedModelDims[cfg.Model]
	}
	return newHTTPProvider(cfg), nil
}

// NewSelfHosted creates the self-hosted provider pointed at an
// OpenAI-compatible base URL. The credential is optional. Dimensions are
// provisional until the first response is received.
func NewSelfHosted(cfg HTTPConfig) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, recallerrors.ConfigError(
			"self-hosted embedding provider requires a base URL", nil)
	}
	return newHTTPProvider(cfg), nil
}

func newHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	retry := DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	return &HTTPProvider{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		retry:   retry,
		dims:    cfg.Dimensions,
	}
}

// ModelName returns the model identifier.
func (p *HTTPProvider) ModelName() string { return p.model }

// Dimensions returns the embedding dimensionality, or the provisional
// default when no response has been observed yet.
func (p *HTTPProvider) Dimensions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.dims == 0 {
		return DefaultSelfHostedDimensions
	}
	return p.dims
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Embed generates the embedding for a single text.
func (p *HTTPProvider) Embed(ctx context.Context, text string) (vector.Vector, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return vector.Vector{}, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in input order.
// Transient failures are retried with bounded backoff; exhausted retries
// surface as a provider error carrying the underlying cause.
func (p *HTTPProvider) EmbedBatch(ctx context.Context, texts []string) ([]vector.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vecs []vector.Vector
	err := withRetry(ctx, p.retry, func() error {
		var err error
		vecs, err = p.requestEmbeddings(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

type embeddingsRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *HTTPProvider) requestEmbeddings(ctx context.Context, texts []string) ([]vector.Vector, error) {
	body, err := json.Marshal(embeddingsRequest{
		Model:          p.model,
		Input:          texts,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, recallerrors.Wrap(recallerrors.ErrCodeInternal, err)
	}

	url := p.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, recallerrors.Wrap(recallerrors.ErrCodeInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, recallerrors.ProviderError("embedding request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, p.statusError(resp)
	}

	var out embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, recallerrors.New(recallerrors.ErrCodeProviderResponse,
			"failed to decode embedding response", err)
	}
	if len(out.Data) != len(texts) {
		return nil, recallerrors.New(recallerrors.ErrCodeProviderResponse,
			fmt.Sprintf("embedding response count mismatch: sent %d texts, got %d vectors",
				len(texts), len(out.Data)), nil)
	}

	vecs := make([]vector.Vector, len(out.Data))
	for i, d := range out.Data {
		if len(d.Embedding) == 0 {
			return nil, recallerrors.New(recallerrors.ErrCodeProviderResponse,
				fmt.Sprintf("empty embedding at position %d", i), nil)
		}
		vecs[i] = vector.New(d.Embedding)
	}

	p.adoptDimensions(len(vecs[0].Values))
	return vecs, nil
}

// statusError classifies a non-200 response. Rate limits and server
// errors are retryable; client errors are not.
func (p *HTTPProvider) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("embedding request returned %s: %s", resp.Status, string(snippet))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		err := recallerrors.New(recallerrors.ErrCodeProviderRateLimit, msg, nil)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			err = err.WithDetail("retry_after", ra)
		}
		return err
	case resp.StatusCode >= 500:
		return recallerrors.New(recallerrors.ErrCodeProviderRequest, msg, nil)
	default:
		return recallerrors.New(recallerrors.ErrCodeProviderResponse, msg, nil)
	}
}

// adoptDimensions records the observed dimensionality from the first
// response. A later change of dimensionality is logged but not adopted;
// the index enforces uniformity on insert.
func (p *HTTPProvider) adoptDimensions(observed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dims == 0 {
		p.dims = observed
		return
	}
	if p.dims != observed {
		slog.Warn("embedding dimensionality changed mid-run",
			slog.String("model", p.model),
			slog.Int("expected", p.dims),
			slog.Int("observed", observed))
	}
}
