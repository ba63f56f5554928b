package embedding

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

	"github.com/siherrmann/lexgraph/helper"
)

// OpenAI defaults
const (
	DefaultOpenAIBaseURL   = "https://api.openai.com"
	DefaultOpenAIModel     = "text-embedding-3-small"
	DefaultOpenAIDimension = 1536
	MaxBatchSize           = 100
)

// OpenAIConfig configures an OpenAI compatible embeddings endpoint
type OpenAIConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	Timeout   time.Duration
	Retry     helper.RetryConfig
}

// OpenAIProvider calls the /v1/embeddings endpoint of an OpenAI compatible API
type OpenAIProvider struct {
	config     OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider, filling unset fields with the OpenAI defaults.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, helper.NewError("openai provider", fmt.Errorf("%w: api key is required", helper.ErrConfiguration))
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultOpenAIBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.Dimension <= 0 {
		config.Dimension = DefaultOpenAIDimension
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = helper.DefaultRetryConfig()
	}

	return &OpenAIProvider{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch splits texts into batches of MaxBatchSize, each retried on transient errors.
func (o *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	texts = truncateAll(texts, MaxTokens)
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(texts))
		batch := texts[start:end]

		embedded, err := helper.Retry(ctx, o.config.Retry, func() ([][]float32, error) {
			return o.callAPI(ctx, batch)
		})
		if err != nil {
			if errors.Is(err, helper.ErrProviderData) || errors.Is(err, context.Canceled) {
				return nil, helper.NewError("embed batch", err)
			}
			return nil, helper.NewError("embed batch", fmt.Errorf("%w after %d attempts: %v", helper.ErrProviderTransient, o.config.Retry.MaxAttempts, err))
		}
		vectors = append(vectors, embedded...)
	}

	return vectors, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(map[string]interface{}{
		"input": texts,
		"model": o.config.Model,
	})
	if err != nil {
		return nil, helper.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	url := strings.TrimRight(o.config.BaseURL, "/") + "/v1/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, helper.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, helper.Permanent(fmt.Errorf("%w: api rejected request %d: %s", helper.ErrProviderData, resp.StatusCode, string(bodyBytes)))
		}
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, helper.Permanent(fmt.Errorf("%w: decode response: %v", helper.ErrProviderData, err))
	}
	if len(apiResp.Data) != len(texts) {
		return nil, helper.Permanent(fmt.Errorf("%w: expected %d embeddings, got %d", helper.ErrProviderData, len(texts), len(apiResp.Data)))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, helper.Permanent(fmt.Errorf("%w: embedding index %d out of range", helper.ErrProviderData, data.Index))
		}
		if len(data.Embedding) != o.config.Dimension {
			return nil, helper.Permanent(fmt.Errorf("%w: embedding has dimension %d, expected %d", helper.ErrProviderData, len(data.Embedding), o.config.Dimension))
		}
		vectors[data.Index] = data.Embedding
	}

	return vectors, nil
}

func (o *OpenAIProvider) Dimension() int {
	return o.config.Dimension
}

func (o *OpenAIProvider) Model() string {
	return o.config.Model
}
