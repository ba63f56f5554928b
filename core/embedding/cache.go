package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/siherrmann/lexgraph/helper"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of embeddings kept when no size is configured.
const DefaultCacheSize = 10000

// DefaultUpstreamTimeout bounds a shared upstream call once it no longer follows its first caller.
const DefaultUpstreamTimeout = 30 * time.Second

// CachedProvider memoizes the embeddings of another provider by content.
// It is safe for concurrent use, concurrent misses for the same text
// result in a single upstream call.
type CachedProvider struct {
	// Timeout bounds the upstream call shared by concurrent misses.
	Timeout  time.Duration
	provider Provider
	cache    *lru.Cache[string, []float32]
	group    singleflight.Group
}

// NewCachedProvider wraps provider with an LRU cache of size entries.
func NewCachedProvider(provider Provider, size int) (*CachedProvider, error) {
	if provider == nil {
		return nil, helper.NewError("cache validation", fmt.Errorf("%w: provider is nil", helper.ErrConfiguration))
	}
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, helper.NewError("create cache", err)
	}

	return &CachedProvider{
		Timeout:  DefaultUpstreamTimeout,
		provider: provider,
		cache:    cache,
	}, nil
}

// CacheKey is the content address of text embedded with model.
func CacheKey(model string, text string) string {
	h := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(h[:])
}

func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	text = Truncate(text, MaxTokens)
	key := CacheKey(c.provider.Model(), text)

	if vector, ok := c.get(key); ok {
		return vector, nil
	}

	// The shared call is detached from the first caller, a caller that
	// gives up stops waiting without failing the others.
	results := c.group.DoChan(key, func() (interface{}, error) {
		if vector, ok := c.cache.Get(key); ok {
			return vector, nil
		}
		upstreamCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.Timeout)
		defer cancel()

		vector, err := c.provider.Embed(upstreamCtx, text)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, copyVector(vector))
		return vector, nil
	})

	select {
	case <-ctx.Done():
		return nil, helper.NewError("embed", ctx.Err())
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		return copyVector(result.Val.([]float32)), nil
	}
}

// EmbedBatch only sends the texts missing from the cache upstream.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	texts = truncateAll(texts, MaxTokens)
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIndex []int
	for i, text := range texts {
		if vector, ok := c.get(CacheKey(c.provider.Model(), text)); ok {
			vectors[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIndex = append(missingIndex, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	embedded, err := c.provider.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missing) {
		return nil, helper.NewError("embed batch", fmt.Errorf("%w: expected %d embeddings, got %d", helper.ErrProviderData, len(missing), len(embedded)))
	}

	for j, vector := range embedded {
		c.cache.Add(CacheKey(c.provider.Model(), missing[j]), copyVector(vector))
		vectors[missingIndex[j]] = vector
	}

	return vectors, nil
}

func (c *CachedProvider) Dimension() int {
	return c.provider.Dimension()
}

func (c *CachedProvider) Model() string {
	return c.provider.Model()
}

// Len returns the number of cached embeddings.
func (c *CachedProvider) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *CachedProvider) Purge() {
	c.cache.Purge()
}

func (c *CachedProvider) get(key string) ([]float32, bool) {
	vector, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return copyVector(vector), true
}

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
