package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashDimension is the default dimension of the HashProvider.
const HashDimension = 384

// HashProvider is an offline provider producing deterministic bag of words
// vectors. Texts sharing terms are similar, identical texts are identical.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a hash provider, a dimension below one selects HashDimension.
func NewHashProvider(dimension int) *HashProvider {
	if dimension < 1 {
		dimension = HashDimension
	}
	return &HashProvider{dimension: dimension}
}

func (p *HashProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float32, p.dimension)
	terms := strings.FieldsFunc(strings.ToLower(Truncate(text, MaxTokens)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, term := range terms {
		h := fnv.New32a()
		_, _ = h.Write([]byte(term))
		sum := h.Sum32()
		bucket := int(sum % uint32(p.dimension))
		if sum&(1<<31) != 0 {
			vector[bucket] -= 1
		} else {
			vector[bucket] += 1
		}
	}

	return normalize(vector), nil
}

func (p *HashProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (p *HashProvider) Dimension() int {
	return p.dimension
}

func (p *HashProvider) Model() string {
	return "hash-bow"
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
