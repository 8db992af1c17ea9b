package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jordaandigi/pdflingo/api/middleware"
	"github.com/jordaandigi/pdflingo/internal/docstate"
	"github.com/jordaandigi/pdflingo/internal/models"
	"github.com/jordaandigi/pdflingo/internal/service/document"
	"github.com/jordaandigi/pdflingo/pkg/logger"
)

// uploadFieldName matches the form field the translation pipeline uses.
const uploadFieldName = "PDF"

type DocumentHandler struct {
	service document.Service
	logger  logger.Logger
}

// SessionResponse is the document session as the client renders it.
type SessionResponse struct {
	Document         *models.TranslatedDocument `json:"document"`
	GenerateSummary  bool                       `json:"generateSummary"`
	GenerateInsights bool                       `json:"generateInsights"`
	Summary          string                     `json:"summary,omitempty"`
	Insights         []string                   `json:"insights,omitempty"`
	Messages         []models.ChatMessage       `json:"messages,omitempty"`
	Uploading        bool                       `json:"uploading"`
	SummaryPending   bool                       `json:"summaryPending"`
	InsightsPending  bool                       `json:"insightsPending"`
	ChatPending      bool                       `json:"chatPending"`
}

func toSessionResponse(s docstate.State) SessionResponse {
	return SessionResponse{
		Document:         s.Document,
		GenerateSummary:  s.GenerateSummary,
		GenerateInsights: s.GenerateInsights,
		Summary:          s.Summary,
		Insights:         s.Insights,
		Messages:         s.Messages,
		Uploading:        s.Uploading,
		SummaryPending:   s.SummaryInFlight,
		InsightsPending:  s.InsightsInFlight,
		ChatPending:      s.ChatInFlight,
	}
}

func NewDocumentHandler(service document.Service, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  log,
	}
}

// Upload accepts a PDF and returns the translated document metadata.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile(uploadFieldName)
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Could not read upload", err)
		return
	}

	doc, err := h.service.Upload(c.Request.Context(), middleware.UserID(c), header.Filename, content)
	switch {
	case errors.Is(err, document.ErrUploadInFlight):
		handleError(c, h.logger, http.StatusConflict, "An upload is already in progress", err)
		return
	case errors.Is(err, document.ErrInvalidUpload):
		handleError(c, h.logger, http.StatusBadRequest, "Upload rejected", err)
		return
	case errors.Is(err, document.ErrTranslationFailed):
		handleError(c, h.logger, http.StatusBadGateway, "Translation failed", err)
		return
	case err != nil:
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to translate document", err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Download streams the stored translated PDF.
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, reader, err := h.service.Download(c.Request.Context(), middleware.UserID(c))
	if errors.Is(err, document.ErrNoDocument) {
		handleError(c, h.logger, http.StatusNotFound, "No translated document", err)
		return
	}
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to load document", err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", doc.Filename))
	c.DataFromReader(http.StatusOK, doc.SizeBytes, "application/pdf", reader, nil)
}

// Session returns the current document session.
func (h *DocumentHandler) Session(c *gin.Context) {
	state := h.service.Session(middleware.UserID(c))
	c.JSON(http.StatusOK, toSessionResponse(state))
}

// History lists past translations.
func (h *DocumentHandler) History(c *gin.Context) {
	records, err := h.service.History(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to load history", err)
		return
	}
	if records == nil {
		records = []models.TranslationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
