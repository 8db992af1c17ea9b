package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jordaandigi/pdflingo/api/middleware"
	"github.com/jordaandigi/pdflingo/internal/models"
	"github.com/jordaandigi/pdflingo/internal/service/chat"
	"github.com/jordaandigi/pdflingo/pkg/logger"
)

type ChatHandler struct {
	service chat.Service
	logger  logger.Logger
}

type chatRequest struct {
	Question string `json:"question" binding:"required"`
}

func NewChatHandler(service chat.Service, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  log,
	}
}

// Open starts (or resumes) the chat session.
func (h *ChatHandler) Open(c *gin.Context) {
	messages, err := h.service.Open(c.Request.Context(), middleware.UserID(c))
	if errors.Is(err, chat.ErrNoDocument) {
		handleError(c, h.logger, http.StatusNotFound, "No translated document to chat about", err)
		return
	}
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to open chat", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Send asks a question and returns the full history including the reply.
func (h *ChatHandler) Send(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid chat payload", err)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid chat payload", errors.New("blank question"))
		return
	}

	messages, err := h.service.Send(c.Request.Context(), middleware.UserID(c), question)
	switch {
	case errors.Is(err, chat.ErrNoDocument):
		handleError(c, h.logger, http.StatusNotFound, "No translated document to chat about", err)
		return
	case errors.Is(err, chat.ErrSendInFlight):
		handleError(c, h.logger, http.StatusConflict, "A message is already being sent", err)
		return
	case errors.Is(err, chat.ErrChatFailed):
		handleError(c, h.logger, http.StatusBadGateway, "Chat request failed", err)
		return
	case err != nil:
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to send message", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// History returns the chat messages in order.
func (h *ChatHandler) History(c *gin.Context) {
	messages := h.service.History(middleware.UserID(c))
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
