package lexgraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/lexgraph/core/embedding"
	"github.com/siherrmann/lexgraph/core/graph"
	"github.com/siherrmann/lexgraph/core/pipeline"
	"github.com/siherrmann/lexgraph/core/retrieval"
	"github.com/siherrmann/lexgraph/core/vector"
	"github.com/siherrmann/lexgraph/database"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	loadSql "github.com/siherrmann/lexgraph/sql"
)

// Lexgraph wires the database handlers, the embedding provider, the
// ingestion pipeline and the retrieval coordinator.
type Lexgraph struct {
	DB            *helper.Database
	Segments      *database.SegmentsDBHandler
	Nodes         *database.NodesDBHandler
	Relationships *database.RelationshipsDBHandler
	Embedder      embedding.Provider
	Index         vector.Index
	Store         graph.Store
	Pipeline      *pipeline.Pipeline
	Coordinator   *retrieval.Coordinator
	// Logging
	log *slog.Logger
}

// NewLogger creates the pretty console logger used by the facade
func NewLogger(level slog.Level) *slog.Logger {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: level,
		},
	}
	return slog.New(helper.NewPrettyHandler(os.Stdout, opts))
}

// NewLexgraph connects to PostgreSQL, loads the SQL functions and creates
// all handlers. The segment table is created with the dimension of embedder.
func NewLexgraph(dbConfig *helper.DatabaseConfiguration, embedder embedding.Provider, config model.RetrievalConfig, logger *slog.Logger) (*Lexgraph, error) {
	if embedder == nil {
		return nil, helper.NewError("create lexgraph", fmt.Errorf("%w: embedding provider is required", helper.ErrConfiguration))
	}
	if logger == nil {
		logger = NewLogger(slog.LevelInfo)
	}

	db, err := helper.ConnectDatabase("lexgraph", dbConfig, logger)
	if err != nil {
		return nil, err
	}
	err = loadSql.Init(db.Instance)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	segments, err := database.NewSegmentsDBHandler(db, embedder.Dimension(), false)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create segments handler", err)
	}

	nodes, err := database.NewNodesDBHandler(db, false)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create nodes handler", err)
	}

	relationships, err := database.NewRelationshipsDBHandler(db, false)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create relationships handler", err)
	}

	index := vector.NewPostgresIndex(segments, logger, config.BackendTimeout)
	store := graph.NewPostgresStore(nodes, relationships, logger, config.BackendTimeout)

	l, err := newLexgraph(embedder, index, store, config, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	l.DB = db
	l.Segments = segments
	l.Nodes = nodes
	l.Relationships = relationships

	return l, nil
}

// NewLexgraphFromEnv reads the database and embedding configuration from the
// environment and the retrieval configuration from configPath (optional).
func NewLexgraphFromEnv(configPath string, logger *slog.Logger) (*Lexgraph, error) {
	config, err := model.LoadRetrievalConfig(configPath)
	if err != nil {
		return nil, err
	}

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}

	embedConfig, err := embedding.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.NewProviderFromConfig(*embedConfig)
	if err != nil {
		return nil, helper.NewError("create embedding provider", err)
	}

	return NewLexgraph(dbConfig, embedder, config, logger)
}

// NewInMemory creates a Lexgraph over the in-memory vector index and graph store
func NewInMemory(embedder embedding.Provider, config model.RetrievalConfig, logger *slog.Logger) (*Lexgraph, error) {
	if embedder == nil {
		return nil, helper.NewError("create lexgraph", fmt.Errorf("%w: embedding provider is required", helper.ErrConfiguration))
	}
	if logger == nil {
		logger = NewLogger(slog.LevelInfo)
	}

	return newLexgraph(embedder, vector.NewMemoryIndex(embedder.Dimension()), graph.NewMemoryStore(), config, logger)
}

func newLexgraph(embedder embedding.Provider, index vector.Index, store graph.Store, config model.RetrievalConfig, logger *slog.Logger) (*Lexgraph, error) {
	coordinator, err := retrieval.NewCoordinator(embedder, index, store, config, logger)
	if err != nil {
		return nil, helper.NewError("create coordinator", err)
	}

	p, err := pipeline.NewPipeline(embedder, index, store, logger)
	if err != nil {
		return nil, helper.NewError("create pipeline", err)
	}

	return &Lexgraph{
		Embedder:    embedder,
		Index:       index,
		Store:       store,
		Pipeline:    p,
		Coordinator: coordinator,
		log:         logger,
	}, nil
}

// Close closes the database connection
func (l *Lexgraph) Close() error {
	return l.DB.Close()
}

// SetMetrics enables Prometheus instrumentation of the coordinator
func (l *Lexgraph) SetMetrics(metrics *retrieval.Metrics) {
	l.Coordinator.SetMetrics(metrics)
}

// Retrieve runs a hybrid retrieval
func (l *Lexgraph) Retrieve(ctx context.Context, request model.RetrievalRequest) (*model.RetrievalResponse, error) {
	return l.Coordinator.Retrieve(ctx, request)
}

// Ingest segments, embeds and links one argument
func (l *Lexgraph) Ingest(ctx context.Context, record model.ArgumentRecord) (*model.IngestResult, error) {
	return l.Pipeline.Ingest(ctx, record)
}

// IngestAll ingests records concurrently, see pipeline.Pipeline.IngestAll
func (l *Lexgraph) IngestAll(ctx context.Context, records []model.ArgumentRecord, workers int) ([]*model.IngestResult, error) {
	return l.Pipeline.IngestAll(ctx, records, workers)
}

// IngestFile loads the records of a JSON or YAML file and ingests them
func (l *Lexgraph) IngestFile(ctx context.Context, filePath string, workers int) ([]*model.IngestResult, error) {
	records, err := model.LoadArgumentRecords(filePath)
	if err != nil {
		return nil, err
	}

	l.log.Info("Loaded argument records", slog.String("file", filePath), slog.Int("records", len(records)))

	return l.Pipeline.IngestAll(ctx, records, workers)
}

// LinkIssues records broader as the parent issue of narrower
func (l *Lexgraph) LinkIssues(ctx context.Context, tenant string, broader model.Issue, narrower model.Issue) error {
	return l.Pipeline.LinkIssues(ctx, tenant, broader, narrower)
}

// IssueHierarchy returns the broader and narrower issues of an issue
func (l *Lexgraph) IssueHierarchy(ctx context.Context, issueID string, tenant string) (*model.IssueHierarchy, error) {
	return l.Store.IssueHierarchy(ctx, issueID, tenant)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (l *Lexgraph) ChangeIndexType(ctx context.Context, indexType string, params database.IndexParams) error {
	if l.Segments == nil {
		return helper.NewError("change index type", fmt.Errorf("%w: no database backend", helper.ErrConfiguration))
	}
	return l.Segments.ChangeIndexType(ctx, indexType, params)
}

// Ready checks that the database answers, in-memory instances are always ready.
func (l *Lexgraph) Ready(ctx context.Context) error {
	if l.DB == nil || l.DB.Instance == nil {
		return nil
	}
	if err := l.DB.Instance.PingContext(ctx); err != nil {
		return helper.NewError("ping database", err)
	}
	return nil
}
