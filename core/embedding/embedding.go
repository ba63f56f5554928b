package embedding

import (
	"context"
	"strings"
)

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
	ProviderHash   = "hash"
)

// MaxTokens is the token budget of a single embedding input.
const MaxTokens = 8191

// Provider turns text into dense vectors of a fixed dimension.
type Provider interface {
	// Embed returns the embedding of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one embedding per text in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the length of every returned vector.
	Dimension() int
	// Model identifies the model the vectors come from.
	Model() string
}

// Truncate cuts text to at most maxTokens whitespace separated tokens,
// dropping tokens from the end. Texts within the budget are returned unchanged.
func Truncate(text string, maxTokens int) string {
	if maxTokens < 1 {
		return ""
	}

	tokens := strings.Fields(text)
	if len(tokens) <= maxTokens {
		return text
	}
	return strings.Join(tokens[:maxTokens], " ")
}

func truncateAll(texts []string, maxTokens int) []string {
	truncated := make([]string, len(texts))
	for i, text := range texts {
		truncated[i] = Truncate(text, maxTokens)
	}
	return truncated
}
