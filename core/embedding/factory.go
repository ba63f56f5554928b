package embedding

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/siherrmann/lexgraph/helper"
)

// Config selects and configures an embedding provider
type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	Dimension int
	CacheSize int
}

// NewConfigFromEnv reads EMBEDDING_PROVIDER, EMBEDDING_MODEL, EMBEDDING_BASE_URL,
// EMBEDDING_DIMENSION, EMBEDDING_CACHE_SIZE and OPENAI_API_KEY.
// Without an explicit provider the openai provider is used when a key is set,
// the hash provider otherwise.
func NewConfigFromEnv() (*Config, error) {
	config := &Config{
		Provider: strings.ToLower(os.Getenv("EMBEDDING_PROVIDER")),
		Model:    os.Getenv("EMBEDDING_MODEL"),
		BaseURL:  os.Getenv("EMBEDDING_BASE_URL"),
		APIKey:   os.Getenv("OPENAI_API_KEY"),
	}

	for env, target := range map[string]*int{"EMBEDDING_DIMENSION": &config.Dimension, "EMBEDDING_CACHE_SIZE": &config.CacheSize} {
		raw := os.Getenv(env)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, helper.NewError("embedding config", fmt.Errorf("%w: %s must be an integer, got %q", helper.ErrConfiguration, env, raw))
		}
		*target = v
	}

	if config.Provider == "" {
		config.Provider = ProviderHash
		if config.APIKey != "" {
			config.Provider = ProviderOpenAI
		}
	}

	return config, nil
}

// NewProviderFromConfig builds the configured provider wrapped in a CachedProvider.
func NewProviderFromConfig(config Config) (*CachedProvider, error) {
	var provider Provider
	switch strings.ToLower(config.Provider) {
	case ProviderOpenAI:
		openAI, err := NewOpenAIProvider(OpenAIConfig{
			BaseURL:   config.BaseURL,
			APIKey:    config.APIKey,
			Model:     config.Model,
			Dimension: config.Dimension,
		})
		if err != nil {
			return nil, err
		}
		provider = openAI
	case ProviderLocal:
		local, err := NewLocalProvider(config.Model, "")
		if err != nil {
			return nil, helper.NewError("local provider", err)
		}
		provider = local
	case ProviderHash, "":
		provider = NewHashProvider(config.Dimension)
	default:
		return nil, helper.NewError("embedding provider", fmt.Errorf("%w: unknown provider %q", helper.ErrConfiguration, config.Provider))
	}

	return NewCachedProvider(provider, config.CacheSize)
}
