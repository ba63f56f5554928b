package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siherrmann/lexgraph/helper"
)

// NewRouter sets up the gin routes. Metrics are served from gatherer when it is not nil.
func NewRouter(service Service, gatherer prometheus.Gatherer, logger *slog.Logger) *gin.Engine {
	handler := NewHandler(service, logger)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(handler.log))

	r.GET("/health", handler.Health)
	r.GET("/ready", handler.Ready)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		// Retrieval endpoints
		api.POST("/retrieval/past-defenses", handler.PastDefenses)
		api.GET("/retrieval/search", handler.Search)

		// Ingestion and taxonomy endpoints
		api.POST("/arguments", handler.IngestArgument)
		api.GET("/issues/:id/hierarchy", handler.IssueHierarchy)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug(
			"Handled request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// Serve runs the router on addr until ctx is done and then shuts down gracefully.
func Serve(ctx context.Context, addr string, router http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("addr", addr))
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return helper.NewError("serve", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Server shutting down", slog.String("addr", addr))
	if err := server.Shutdown(shutdownCtx); err != nil {
		return helper.NewError("shutdown server", err)
	}
	return nil
}
