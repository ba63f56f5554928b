package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siherrmann/lexgraph/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls  atomic.Int64
	texts  atomic.Int64
	delay  time.Duration
	failOn string
}

func (p *countingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.calls.Add(1)
	p.texts.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.failOn != "" && text == p.failOn {
		return nil, errors.New("boom")
	}
	return []float32{float32(len(text)), 1}, nil
}

func (p *countingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.calls.Add(1)
	p.texts.Add(int64(len(texts)))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

func (p *countingProvider) Dimension() int { return 2 }
func (p *countingProvider) Model() string  { return "counting" }

// waitingProvider answers after delay unless its context ends first.
type waitingProvider struct {
	calls atomic.Int64
	delay time.Duration
}

func (p *waitingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.calls.Add(1)
	select {
	case <-time.After(p.delay):
		return []float32{1, 1}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *waitingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (p *waitingProvider) Dimension() int { return 2 }
func (p *waitingProvider) Model() string  { return "waiting" }

func TestTruncate(t *testing.T) {
	t.Run("Truncate keeps short text unchanged", func(t *testing.T) {
		assert.Equal(t, "a  b c", Truncate("a  b c", 3))
	})

	t.Run("Truncate drops tokens from the end", func(t *testing.T) {
		assert.Equal(t, "one two", Truncate("one two three four", 2))
	})

	t.Run("Truncate is deterministic for long text", func(t *testing.T) {
		long := strings.Repeat("word ", MaxTokens+50)
		first := Truncate(long, MaxTokens)
		assert.Equal(t, first, Truncate(long, MaxTokens), "Expected identical truncation")
		assert.Len(t, strings.Fields(first), MaxTokens)
	})
}

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Repeated embed hits the cache", func(t *testing.T) {
		upstream := &countingProvider{}
		cached, err := NewCachedProvider(upstream, 10)
		require.NoError(t, err)

		first, err := cached.Embed(ctx, "motion to dismiss")
		require.NoError(t, err)
		second, err := cached.Embed(ctx, "motion to dismiss")
		require.NoError(t, err)

		assert.Equal(t, first, second, "Expected identical embeddings")
		assert.Equal(t, int64(1), upstream.calls.Load(), "Expected a single upstream call")
		assert.Equal(t, 1, cached.Len())
	})

	t.Run("Mutating a returned vector does not change the cache", func(t *testing.T) {
		cached, err := NewCachedProvider(&countingProvider{}, 10)
		require.NoError(t, err)

		vector, err := cached.Embed(ctx, "abc")
		require.NoError(t, err)
		vector[0] = 999

		again, err := cached.Embed(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, float32(3), again[0], "Expected cached vector to be unchanged")
	})

	t.Run("Concurrent misses collapse into one call", func(t *testing.T) {
		upstream := &countingProvider{delay: 50 * time.Millisecond}
		cached, err := NewCachedProvider(upstream, 10)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := cached.Embed(ctx, "same text")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), upstream.calls.Load(), "Expected concurrent misses to share one upstream call")
	})

	t.Run("Cancelled first caller does not fail a shared miss", func(t *testing.T) {
		upstream := &waitingProvider{delay: 100 * time.Millisecond}
		cached, err := NewCachedProvider(upstream, 10)
		require.NoError(t, err)

		firstCtx, cancel := context.WithCancel(ctx)
		firstErr := make(chan error, 1)
		go func() {
			_, err := cached.Embed(firstCtx, "shared text")
			firstErr <- err
		}()
		time.Sleep(20 * time.Millisecond)

		secondErr := make(chan error, 1)
		go func() {
			_, err := cached.Embed(ctx, "shared text")
			secondErr <- err
		}()
		time.Sleep(20 * time.Millisecond)
		cancel()

		assert.ErrorIs(t, <-firstErr, context.Canceled, "Expected the cancelled caller to stop waiting")
		assert.NoError(t, <-secondErr, "Expected the other caller to get the embedding")
		assert.Equal(t, int64(1), upstream.calls.Load(), "Expected one shared upstream call")
		assert.Equal(t, 1, cached.Len())
	})

	t.Run("Shared miss is bounded by the timeout", func(t *testing.T) {
		cached, err := NewCachedProvider(&waitingProvider{delay: time.Second}, 10)
		require.NoError(t, err)
		cached.Timeout = 20 * time.Millisecond

		_, err = cached.Embed(ctx, "slow text")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Errors are not cached", func(t *testing.T) {
		upstream := &countingProvider{failOn: "bad"}
		cached, err := NewCachedProvider(upstream, 10)
		require.NoError(t, err)

		_, err = cached.Embed(ctx, "bad")
		assert.Error(t, err)
		assert.Equal(t, 0, cached.Len(), "Expected failed embedding to not be cached")
	})

	t.Run("Batch only sends misses upstream and keeps order", func(t *testing.T) {
		upstream := &countingProvider{}
		cached, err := NewCachedProvider(upstream, 10)
		require.NoError(t, err)

		_, err = cached.Embed(ctx, "bb")
		require.NoError(t, err)

		vectors, err := cached.EmbedBatch(ctx, []string{"a", "bb", "ccc"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		assert.Equal(t, float32(1), vectors[0][0])
		assert.Equal(t, float32(2), vectors[1][0])
		assert.Equal(t, float32(3), vectors[2][0])
		assert.Equal(t, int64(3), upstream.texts.Load(), "Expected the cached text to not be sent again")
	})

	t.Run("Cache key depends on model and text", func(t *testing.T) {
		assert.NotEqual(t, CacheKey("m1", "text"), CacheKey("m2", "text"))
		assert.Equal(t, CacheKey("m1", "text"), CacheKey("m1", "text"))
	})

	t.Run("Nil provider is a configuration error", func(t *testing.T) {
		_, err := NewCachedProvider(nil, 10)
		assert.ErrorIs(t, err, helper.ErrConfiguration)
	})
}

func TestHashProvider(t *testing.T) {
	ctx := context.Background()
	provider := NewHashProvider(64)

	t.Run("Hash embedding is deterministic", func(t *testing.T) {
		first, err := provider.Embed(ctx, "Alice Corp patent eligibility")
		require.NoError(t, err)
		second, err := provider.Embed(ctx, "Alice Corp patent eligibility")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Len(t, first, 64)
	})

	t.Run("Texts sharing terms are more similar", func(t *testing.T) {
		vectors, err := provider.EmbedBatch(ctx, []string{"abstract idea patent", "patent abstract idea claims", "breach of contract damages"})
		require.NoError(t, err)
		assert.Greater(t, dot(vectors[0], vectors[1]), dot(vectors[0], vectors[2]), "Expected overlapping texts to be closer")
	})

	t.Run("Empty text yields zero vector", func(t *testing.T) {
		vector, err := provider.Embed(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, make([]float32, 64), vector)
	})
}

func TestOpenAIProvider(t *testing.T) {
	ctx := context.Background()
	retry := helper.RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Multiplier: 2}

	newServer := func(handler http.HandlerFunc) *httptest.Server {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		return server
	}

	respond := func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		data := make([]map[string]interface{}, len(body.Input))
		for i := range body.Input {
			data[len(body.Input)-1-i] = map[string]interface{}{"index": i, "embedding": []float32{float32(i), 0, 1}}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}

	t.Run("Embed batch returns vectors in input order", func(t *testing.T) {
		server := newServer(respond)
		provider, err := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL, APIKey: "key", Dimension: 3, Retry: retry})
		require.NoError(t, err)

		vectors, err := provider.EmbedBatch(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{0, 0, 1}, {1, 0, 1}}, vectors)
	})

	t.Run("Server errors are retried", func(t *testing.T) {
		var calls atomic.Int64
		server := newServer(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			respond(w, r)
		})
		provider, err := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL, APIKey: "key", Dimension: 3, Retry: retry})
		require.NoError(t, err)

		_, err = provider.Embed(ctx, "text")
		assert.NoError(t, err)
		assert.Equal(t, int64(3), calls.Load(), "Expected two retries before success")
	})

	t.Run("Exhausted retries are transient provider errors", func(t *testing.T) {
		server := newServer(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		provider, err := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL, APIKey: "key", Dimension: 3, Retry: retry})
		require.NoError(t, err)

		_, err = provider.Embed(ctx, "text")
		assert.ErrorIs(t, err, helper.ErrProviderTransient)
	})

	t.Run("Client errors are not retried", func(t *testing.T) {
		var calls atomic.Int64
		server := newServer(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		})
		provider, err := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL, APIKey: "key", Dimension: 3, Retry: retry})
		require.NoError(t, err)

		_, err = provider.Embed(ctx, "text")
		assert.ErrorIs(t, err, helper.ErrProviderData, "Expected a rejected request to be a data error")
		assert.NotErrorIs(t, err, helper.ErrProviderTransient)
		assert.Equal(t, int64(1), calls.Load(), "Expected no retry on 401")
	})

	t.Run("Wrong dimension is a data error", func(t *testing.T) {
		server := newServer(respond)
		provider, err := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL, APIKey: "key", Dimension: 4, Retry: retry})
		require.NoError(t, err)

		_, err = provider.Embed(ctx, "text")
		assert.ErrorIs(t, err, helper.ErrProviderData)
	})

	t.Run("Missing api key is a configuration error", func(t *testing.T) {
		_, err := NewOpenAIProvider(OpenAIConfig{})
		assert.ErrorIs(t, err, helper.ErrConfiguration)
	})
}

func TestNewProviderFromConfig(t *testing.T) {
	t.Run("Hash provider is the default", func(t *testing.T) {
		provider, err := NewProviderFromConfig(Config{Dimension: 16})
		require.NoError(t, err)
		assert.Equal(t, 16, provider.Dimension())
		assert.Equal(t, "hash-bow", provider.Model())
	})

	t.Run("Unknown provider is a configuration error", func(t *testing.T) {
		_, err := NewProviderFromConfig(Config{Provider: "nope"})
		assert.ErrorIs(t, err, helper.ErrConfiguration)
	})

	t.Run("Config from env picks openai when a key is set", func(t *testing.T) {
		t.Setenv("EMBEDDING_PROVIDER", "")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("EMBEDDING_CACHE_SIZE", "42")
		config, err := NewConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, config.Provider)
		assert.Equal(t, 42, config.CacheSize)
	})

	t.Run("Config from env rejects invalid integers", func(t *testing.T) {
		t.Setenv("EMBEDDING_DIMENSION", "many")
		_, err := NewConfigFromEnv()
		assert.ErrorIs(t, err, helper.ErrConfiguration)
	})
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

