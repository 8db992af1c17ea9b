package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jordaandigi/pdflingo/api/middleware"
	"github.com/jordaandigi/pdflingo/internal/service/document"
	"github.com/jordaandigi/pdflingo/pkg/logger"
)

type GenerationHandler struct {
	service document.Service
	logger  logger.Logger
}

type togglesRequest struct {
	Summary  bool `json:"summary"`
	Insights bool `json:"insights"`
}

func NewGenerationHandler(service document.Service, log logger.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: service,
		logger:  log,
	}
}

// SetToggles records the generation switches and fires whatever became
// due, returning the evaluated session.
func (h *GenerationHandler) SetToggles(c *gin.Context) {
	var req togglesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid toggles payload", err)
		return
	}

	state, err := h.service.SetToggles(c.Request.Context(), middleware.UserID(c), req.Summary, req.Insights)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to update toggles", err)
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(state))
}

// GetSummary re-evaluates the trigger rule and returns the summary.
func (h *GenerationHandler) GetSummary(c *gin.Context) {
	state, err := h.service.EvaluateGenerations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to generate summary", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": state.Summary,
		"pending": state.SummaryInFlight,
	})
}

// GetInsights re-evaluates the trigger rule and returns the insights.
func (h *GenerationHandler) GetInsights(c *gin.Context) {
	state, err := h.service.EvaluateGenerations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to generate insights", err)
		return
	}

	insights := state.Insights
	if insights == nil {
		insights = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"insights": insights,
		"pending":  state.InsightsInFlight,
	})
}
