// Package server exposes the shopping assistant over HTTP.
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Chative-shopping-guide/server/internal/agent/graph"
	"github.com/Chative-shopping-guide/server/internal/agent/graph/nodes"
	errx "github.com/Chative-shopping-guide/server/internal/core/error"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

type Comparer interface {
	Compare(ctx context.Context, names []string) string
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type CompareRequest struct {
	Names []string `json:"names" binding:"required"`
}

type CompareResponse struct {
	Result string `json:"result"`
}

type ChatHandler struct {
	runner     graph.Runner
	comparator Comparer
	backend    string
}

func NewChatHandler(runner graph.Runner, comparator Comparer, backend string) *ChatHandler {
	return &ChatHandler{runner: runner, comparator: comparator, backend: backend}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logx.Warn().Err(err).Msg("Invalid chat request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusOK, ChatResponse{SessionID: sessionID, Reply: nodes.EmptyInputMessage})
		return
	}

	reply := h.runner.Handle(c.Request.Context(), sessionID, req.Message)
	c.JSON(http.StatusOK, ChatResponse{SessionID: sessionID, Reply: reply})
}

func (h *ChatHandler) ClearHistory(c *gin.Context) {
	sessionID := c.Param("id")

	if err := h.runner.Reset(c.Request.Context(), sessionID); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("Failed to clear conversation history")
		c.JSON(errx.StatusOf(err), gin.H{
			"error": "Failed to clear history",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logx.Warn().Err(err).Msg("Invalid compare request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	c.JSON(http.StatusOK, CompareResponse{Result: h.comparator.Compare(c.Request.Context(), req.Names)})
}

func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"catalog_backend": h.backend,
	})
}
