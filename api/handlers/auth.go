package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jordaandigi/pdflingo/api/middleware"
	"github.com/jordaandigi/pdflingo/internal/auth"
	"github.com/jordaandigi/pdflingo/internal/models"
	"github.com/jordaandigi/pdflingo/internal/store"
	"github.com/jordaandigi/pdflingo/pkg/logger"
)

type AuthHandler struct {
	service auth.Service
	logger  logger.Logger
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func NewAuthHandler(service auth.Service, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  log,
	}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid credentials payload", err)
		return
	}

	user, token, err := h.service.SignUp(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, store.ErrDuplicateEmail) {
		handleError(c, h.logger, http.StatusConflict, "Email already registered", err)
		return
	}
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to create account", err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{User: user, Token: token})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid credentials payload", err)
		return
	}

	user, token, err := h.service.SignIn(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		handleError(c, h.logger, http.StatusUnauthorized, "Invalid email or password", err)
		return
	}
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to sign in", err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{User: user, Token: token})
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		handleError(c, h.logger, http.StatusUnauthorized, "Missing token", nil)
		return
	}

	if err := h.service.SignOut(c.Request.Context(), token); err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to sign out", err)
		return
	}

	c.Status(http.StatusNoContent)
}
