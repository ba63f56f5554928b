package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/lexgraph/helper"
)

// Local model defaults
const (
	DefaultLocalModel     = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultLocalDimension = 384
)

// LocalProvider embeds text in process with a sentence transformer run by hugot.
type LocalProvider struct {
	model     string
	dimension int
	session   *hugot.Session
	pipeline  *pipelines.FeatureExtractionPipeline
	mu        sync.Mutex
}

// NewLocalProvider downloads the model if needed and starts a hugot session with the Go backend.
func NewLocalProvider(modelName string, onnxFilePath string) (*LocalProvider, error) {
	if modelName == "" {
		modelName = DefaultLocalModel
	}

	modelPath, err := helper.PrepareModel(modelName, onnxFilePath)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "lexgraph-embedder",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return &LocalProvider{
		model:     modelName,
		dimension: DefaultLocalDimension,
		session:   session,
		pipeline:  sentencePipeline,
	}, nil
}

func (l *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := l.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	l.mu.Lock()
	result, err := l.pipeline.RunPipeline(truncateAll(texts, MaxTokens))
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, helper.NewError("local embed", fmt.Errorf("%w: expected %d embeddings, got %d", helper.ErrProviderData, len(texts), len(result.Embeddings)))
	}

	return result.Embeddings, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Model() string {
	return l.model
}

// Close destroys the hugot session.
func (l *LocalProvider) Close() error {
	return l.session.Destroy()
}
