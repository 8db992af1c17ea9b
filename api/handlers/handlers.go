package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jordaandigi/pdflingo/internal/auth"
	"github.com/jordaandigi/pdflingo/internal/service/chat"
	"github.com/jordaandigi/pdflingo/internal/service/document"
	"github.com/jordaandigi/pdflingo/pkg/logger"
)

type Handlers struct {
	Auth       *AuthHandler
	Document   *DocumentHandler
	Generation *GenerationHandler
	Chat       *ChatHandler
}

func NewHandlers(
	authService auth.Service,
	documentService document.Service,
	chatService chat.Service,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Auth:       NewAuthHandler(authService, log),
		Document:   NewDocumentHandler(documentService, log),
		Generation: NewGenerationHandler(documentService, log),
		Chat:       NewChatHandler(chatService, log),
	}
}

// ErrorResponse is the error body for every endpoint.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

func handleError(c *gin.Context, log logger.Logger, status int, message string, err error) {
	log.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
