package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
)

// Service is the part of the lexgraph facade the HTTP API serves
type Service interface {
	Retrieve(ctx context.Context, request model.RetrievalRequest) (*model.RetrievalResponse, error)
	Ingest(ctx context.Context, record model.ArgumentRecord) (*model.IngestResult, error)
	IssueHierarchy(ctx context.Context, issueID string, tenant string) (*model.IssueHierarchy, error)
	Ready(ctx context.Context) error
}

// Handler handles HTTP requests for retrieval and ingestion
type Handler struct {
	service Service
	log     *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		log:     logger,
	}
}

// SearchQuery are the query parameters of GET /api/retrieval/search
type SearchQuery struct {
	IssueText     string `form:"issue_text" binding:"required"`
	LawyerID      string `form:"lawyer_id"`
	Jurisdiction  string `form:"jurisdiction"`
	Tenant        string `form:"tenant"`
	Limit         int    `form:"limit"`
	IssueID       string `form:"issue_id"`
	JudgeID       string `form:"judge_id"`
	FiledYearFrom int    `form:"filed_year_from"`
	FiledYearTo   int    `form:"filed_year_to"`
}

// Request converts the query into a retrieval request
func (q SearchQuery) Request() model.RetrievalRequest {
	return model.RetrievalRequest{
		IssueText:     q.IssueText,
		LawyerID:      q.LawyerID,
		Jurisdiction:  q.Jurisdiction,
		Tenant:        q.Tenant,
		Limit:         q.Limit,
		IssueID:       q.IssueID,
		JudgeID:       q.JudgeID,
		FiledYearFrom: q.FiledYearFrom,
		FiledYearTo:   q.FiledYearTo,
	}
}

// PastDefenses handles POST /api/retrieval/past-defenses
func (h *Handler) PastDefenses(c *gin.Context) {
	var req model.RetrievalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	h.retrieve(c, req)
}

// Search handles GET /api/retrieval/search
func (h *Handler) Search(c *gin.Context) {
	var query SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	h.retrieve(c, query.Request())
}

func (h *Handler) retrieve(c *gin.Context, req model.RetrievalRequest) {
	response, err := h.service.Retrieve(c.Request.Context(), req)
	if err != nil {
		h.failFor(c, "RETRIEVAL_FAILED", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
	})
}

// IngestArgument handles POST /api/arguments
func (h *Handler) IngestArgument(c *gin.Context) {
	var record model.ArgumentRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), record)
	if err != nil {
		h.failFor(c, "INGEST_FAILED", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result,
	})
}

// IssueHierarchy handles GET /api/issues/:id/hierarchy
func (h *Handler) IssueHierarchy(c *gin.Context) {
	hierarchy, err := h.service.IssueHierarchy(c.Request.Context(), c.Param("id"), c.Query("tenant"))
	if err != nil {
		h.failFor(c, "HIERARCHY_FAILED", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    hierarchy,
	})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles GET /ready
func (h *Handler) Ready(c *gin.Context) {
	if err := h.service.Ready(c.Request.Context()); err != nil {
		h.fail(c, http.StatusServiceUnavailable, "NOT_READY", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// failFor maps the error taxonomy to a status code.
func (h *Handler) failFor(c *gin.Context, code string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, helper.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, helper.ErrProviderTransient), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	h.fail(c, status, code, err)
}

func (h *Handler) fail(c *gin.Context, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", slog.String("path", c.FullPath()), slog.String("code", code), slog.String("error", err.Error()))
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": err.Error(),
		},
	})
}
