package model

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/siherrmann/lexgraph/helper"
	"gopkg.in/yaml.v3"
)

// ScoringWeights are the coefficients of the hybrid score.
// They are independent and not required to sum to 1.
type ScoringWeights struct {
	Vector     float64 `json:"alpha" yaml:"alpha"`
	Judge      float64 `json:"beta" yaml:"beta"`
	Citation   float64 `json:"gamma" yaml:"gamma"`
	Outcome    float64 `json:"delta" yaml:"delta"`
	HopPenalty float64 `json:"epsilon" yaml:"epsilon"`
}

// DefaultScoringWeights returns α 0.4, β 0.2, γ 0.2, δ 0.1 and ε 0.1.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Vector:     0.4,
		Judge:      0.2,
		Citation:   0.2,
		Outcome:    0.1,
		HopPenalty: 0.1,
	}
}

// RetrievalConfig configures the retrieval coordinator
type RetrievalConfig struct {
	Weights ScoringWeights `json:"weights" yaml:"weights"`

	// Graph expansion
	MaxHops int `json:"max_hops" yaml:"max_hops"`

	// Result sizing
	DefaultLimit        int      `json:"default_limit" yaml:"default_limit"`
	VectorOverfetch     int      `json:"vector_overfetch" yaml:"vector_overfetch"`
	GraphOverfetch      int      `json:"graph_overfetch" yaml:"graph_overfetch"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty" yaml:"similarity_threshold,omitempty"`
	AnchorIssues        int      `json:"anchor_issues" yaml:"anchor_issues"`

	// Timeouts
	BackendTimeout time.Duration `json:"backend_timeout" yaml:"backend_timeout"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// Concurrent boost lookups per request
	BoostWorkers int `json:"boost_workers" yaml:"boost_workers"`
}

// DefaultRetrievalConfig returns the default configuration
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Weights:         DefaultScoringWeights(),
		MaxHops:         2,
		DefaultLimit:    DefaultLimit,
		VectorOverfetch: 3,
		GraphOverfetch:  2,
		AnchorIssues:    3,
		BackendTimeout:  5 * time.Second,
		RequestTimeout:  10 * time.Second,
		BoostWorkers:    8,
	}
}

// Validate returns a configuration error for values no request could work with.
func (c RetrievalConfig) Validate() error {
	weights := map[string]float64{
		"alpha":   c.Weights.Vector,
		"beta":    c.Weights.Judge,
		"gamma":   c.Weights.Citation,
		"delta":   c.Weights.Outcome,
		"epsilon": c.Weights.HopPenalty,
	}
	for name, w := range weights {
		if w < 0 {
			return configError("weight %s must not be negative, got %v", name, w)
		}
	}
	if c.MaxHops < 0 {
		return configError("max_hops must not be negative, got %d", c.MaxHops)
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > MaxLimit {
		return configError("default_limit must be between 1 and %d, got %d", MaxLimit, c.DefaultLimit)
	}
	if c.VectorOverfetch < 1 || c.GraphOverfetch < 1 {
		return configError("overfetch factors must be positive, got %d and %d", c.VectorOverfetch, c.GraphOverfetch)
	}
	if c.AnchorIssues < 1 {
		return configError("anchor_issues must be positive, got %d", c.AnchorIssues)
	}
	if c.BackendTimeout <= 0 || c.RequestTimeout <= 0 {
		return configError("timeouts must be positive, got %v and %v", c.BackendTimeout, c.RequestTimeout)
	}
	if c.BoostWorkers < 1 {
		return configError("boost_workers must be positive, got %d", c.BoostWorkers)
	}
	if c.SimilarityThreshold != nil && (*c.SimilarityThreshold < 0 || *c.SimilarityThreshold > 1) {
		return configError("similarity_threshold must be in [0, 1], got %v", *c.SimilarityThreshold)
	}
	return nil
}

// LoadRetrievalConfig reads the defaults, overlays the YAML file at path
// if path is not empty and then the LEXGRAPH_* environment variables.
func LoadRetrievalConfig(path string) (RetrievalConfig, error) {
	config := DefaultRetrievalConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, helper.NewError("read retrieval config", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, helper.NewError("parse retrieval config", fmt.Errorf("%w: %v", helper.ErrConfiguration, err))
		}
	}

	if err := applyEnv(&config); err != nil {
		return config, err
	}

	return config, config.Validate()
}

func applyEnv(c *RetrievalConfig) error {
	floats := map[string]*float64{
		"LEXGRAPH_WEIGHT_ALPHA":   &c.Weights.Vector,
		"LEXGRAPH_WEIGHT_BETA":    &c.Weights.Judge,
		"LEXGRAPH_WEIGHT_GAMMA":   &c.Weights.Citation,
		"LEXGRAPH_WEIGHT_DELTA":   &c.Weights.Outcome,
		"LEXGRAPH_WEIGHT_EPSILON": &c.Weights.HopPenalty,
	}
	for key, target := range floats {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return configError("%s: %v", key, err)
			}
			*target = f
		}
	}

	ints := map[string]*int{
		"LEXGRAPH_MAX_HOPS":      &c.MaxHops,
		"LEXGRAPH_DEFAULT_LIMIT": &c.DefaultLimit,
	}
	for key, target := range ints {
		if v, ok := os.LookupEnv(key); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				return configError("%s: %v", key, err)
			}
			*target = i
		}
	}

	durations := map[string]*time.Duration{
		"LEXGRAPH_BACKEND_TIMEOUT": &c.BackendTimeout,
		"LEXGRAPH_REQUEST_TIMEOUT": &c.RequestTimeout,
	}
	for key, target := range durations {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return configError("%s: %v", key, err)
			}
			*target = d
		}
	}

	return nil
}

func configError(format string, args ...interface{}) error {
	return helper.NewError("validate retrieval config", fmt.Errorf("%w: %s", helper.ErrConfiguration, fmt.Sprintf(format, args...)))
}
