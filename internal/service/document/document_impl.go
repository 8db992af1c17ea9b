package document

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	cfg "github.com/jordaandigi/pdflingo/config"
	"github.com/jordaandigi/pdflingo/internal/docstate"
	"github.com/jordaandigi/pdflingo/internal/models"
	"github.com/jordaandigi/pdflingo/internal/normalizer"
	"github.com/jordaandigi/pdflingo/internal/store"
	"github.com/jordaandigi/pdflingo/internal/utils/validator"
	"github.com/jordaandigi/pdflingo/internal/webhook"
	"github.com/jordaandigi/pdflingo/pkg/logger"
	"github.com/jordaandigi/pdflingo/pkg/queue"
	"github.com/jordaandigi/pdflingo/pkg/storage"
)

// Translator is the slice of the webhook client this service needs.
type Translator interface {
	Translate(ctx context.Context, userID, filename string, content []byte) ([]byte, error)
	GenerateSummary(ctx context.Context, req webhook.GenerationRequest) ([]byte, error)
	GenerateInsights(ctx context.Context, req webhook.GenerationRequest) ([]byte, error)
}

// UploadValidator checks an upload before it is sent for translation.
type UploadValidator interface {
	ValidateFile(filename string, content []byte) *validator.ValidationResult
}

type DocumentService struct {
	sessions   *docstate.Store
	translator Translator
	validator  UploadValidator
	storage    storage.Storage
	queue      queue.Queue
	records    store.Store
	logger     logger.Logger
	config     *ServiceConfig
}

type ServiceConfig struct {
	MaxFileSize     int64
	MaxPageCount    int
	TargetLanguage  string
	TargetLangName  string
	RetentionPeriod time.Duration
}

func NewService(
	sessions *docstate.Store,
	translator Translator,
	docValidator UploadValidator,
	st storage.Storage,
	q queue.Queue,
	records store.Store,
	log logger.Logger,
	config *ServiceConfig,
) Service {
	if config == nil {
		config = &ServiceConfig{
			MaxFileSize:     50 * 1024 * 1024,
			MaxPageCount:    1000,
			TargetLanguage:  "en",
			TargetLangName:  "English",
			RetentionPeriod: 30 * 24 * time.Hour,
		}
	}

	return &DocumentService{
		sessions:   sessions,
		translator: translator,
		validator:  docValidator,
		storage:    st,
		queue:      q,
		records:    records,
		logger:     log,
		config:     config,
	}
}

// GetService wires the service from environment configuration.
func GetService(sessions *docstate.Store, translator Translator, st storage.Storage, records store.Store, log logger.Logger) (Service, error) {
	serverConfig := cfg.GetServerConfig()

	q, err := queue.GetQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	docValidator := validator.NewDocumentValidator(log, &validator.Config{
		MaxFileSize:  serverConfig.MaxUploadBytes,
		MaxPageCount: 1000,
	})

	config := &ServiceConfig{
		MaxFileSize:     serverConfig.MaxUploadBytes,
		MaxPageCount:    1000,
		TargetLanguage:  serverConfig.TargetLanguage,
		TargetLangName:  serverConfig.TargetLangName,
		RetentionPeriod: 30 * 24 * time.Hour,
	}

	return NewService(sessions, translator, docValidator, st, q, records, log, config), nil
}

func (s *DocumentService) Upload(ctx context.Context, userID, filename string, content []byte) (*models.TranslatedDocument, error) {
	// Validation runs before the session is touched: a rejected file must
	// not clear the previous document's results.
	result := s.validator.ValidateFile(filename, content)
	if !result.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUpload, result.Message())
	}

	if !s.sessions.BeginUpload(userID) {
		return nil, ErrUploadInFlight
	}

	s.logger.Info("Translating document",
		logger.String("userId", userID),
		logger.String("filename", filename),
		logger.Int64("size", result.FileInfo.Size),
	)

	translated, err := s.translator.Translate(ctx, userID, filename, content)
	if err != nil {
		s.sessions.Dispatch(userID, docstate.UploadFailed{})
		s.enqueueRecord(userID, filename, 0, models.RecordFailed)
		s.logger.Error("Translation failed",
			logger.String("userId", userID),
			logger.String("filename", filename),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}

	doc := models.TranslatedDocument{
		ID:         uuid.New().String(),
		UserID:     userID,
		SourceName: filename,
		Filename:   models.TranslatedName(filename, s.config.TargetLanguage),
		Size:       models.HumanSize(int64(len(translated))),
		SizeBytes:  int64(len(translated)),
		Pages:      result.FileInfo.Pages,
		CreatedAt:  time.Now().UTC(),
	}

	key := storage.ObjectKey(userID, doc.Filename)
	if _, err := s.storage.Store(ctx, key, translated); err != nil {
		// The session still gets the document; only download is degraded.
		s.logger.Error("Failed to store translated document",
			logger.String("key", key),
			logger.Error(err),
		)
	} else {
		doc.StorageKey = key
	}

	s.sessions.Dispatch(userID, docstate.DocumentTranslated{Document: doc})
	s.enqueueRecord(userID, filename, doc.SizeBytes, models.RecordCompleted)

	// A fresh document re-arms the generation toggles.
	go func() {
		if _, err := s.EvaluateGenerations(context.Background(), userID); err != nil {
			s.logger.Error("Generation evaluation failed", logger.Error(err))
		}
	}()

	return &doc, nil
}

func (s *DocumentService) Download(ctx context.Context, userID string) (*models.TranslatedDocument, io.ReadCloser, error) {
	session := s.sessions.Get(userID)
	if session.Document == nil {
		return nil, nil, ErrNoDocument
	}
	doc := *session.Document
	if doc.StorageKey == "" {
		return nil, nil, fmt.Errorf("document %s is not in storage", doc.Filename)
	}

	reader, err := s.storage.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return &doc, reader, nil
}

func (s *DocumentService) SetToggles(ctx context.Context, userID string, summary, insights bool) (docstate.State, error) {
	s.sessions.Dispatch(userID, docstate.TogglesSet{Summary: summary, Insights: insights})
	return s.EvaluateGenerations(ctx, userID)
}

// EvaluateGenerations fires every kind the trigger rule returns and
// waits for the results. A failed kind is released to fire again on the
// next evaluation; it never fails the call.
func (s *DocumentService) EvaluateGenerations(ctx context.Context, userID string) (docstate.State, error) {
	kinds := s.sessions.BeginPending(userID)
	if len(kinds) == 0 {
		return s.sessions.Get(userID), nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		kind := kind
		g.Go(func() error {
			s.runGeneration(ctx, userID, kind)
			return nil
		})
	}
	g.Wait()

	return s.sessions.Get(userID), nil
}

func (s *DocumentService) runGeneration(ctx context.Context, userID string, kind docstate.Kind) {
	session := s.sessions.Get(userID)
	if session.Document == nil {
		s.sessions.Dispatch(userID, docstate.GenerationFailed{Kind: kind})
		return
	}

	req := webhook.GenerationRequest{
		UserID:   userID,
		Filename: session.Document.Filename,
		Content:  s.documentContent(ctx, session.Document),
	}

	var body []byte
	var err error
	switch kind {
	case docstate.KindSummary:
		body, err = s.translator.GenerateSummary(ctx, req)
	case docstate.KindInsights:
		body, err = s.translator.GenerateInsights(ctx, req)
	}
	if err != nil {
		s.logger.Error("Generation request failed",
			logger.String("userId", userID),
			logger.String("kind", string(kind)),
			logger.Error(err),
		)
		s.sessions.Dispatch(userID, docstate.GenerationFailed{Kind: kind})
		return
	}

	payload := normalizer.Decode(body)
	switch kind {
	case docstate.KindSummary:
		s.sessions.Dispatch(userID, docstate.SummarySet{Text: normalizer.Text(payload)})
	case docstate.KindInsights:
		s.sessions.Dispatch(userID, docstate.InsightsSet{Items: normalizer.Items(payload)})
	}
}

func (s *DocumentService) Session(userID string) docstate.State {
	return s.sessions.Get(userID)
}

func (s *DocumentService) History(ctx context.Context, userID string) ([]models.TranslationRecord, error) {
	return s.records.RecordsByUser(ctx, userID)
}

func (s *DocumentService) Cleanup(ctx context.Context) error {
	threshold := time.Now().Add(-s.config.RetentionPeriod)

	if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup storage: %w", err)
	}

	s.logger.Info("Completed document cleanup",
		logger.Time("threshold", threshold),
	)
	return nil
}

// documentContent loads the translated binary for endpoints that want it
// inline. A storage miss degrades to an empty payload.
func (s *DocumentService) documentContent(ctx context.Context, doc *models.TranslatedDocument) []byte {
	if doc.StorageKey == "" {
		return nil
	}
	reader, err := s.storage.Get(ctx, doc.StorageKey)
	if err != nil {
		s.logger.Warn("Could not load stored document",
			logger.String("key", doc.StorageKey),
			logger.Error(err),
		)
		return nil
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		s.logger.Warn("Could not read stored document",
			logger.String("key", doc.StorageKey),
			logger.Error(err),
		)
		return nil
	}
	return content
}

// enqueueRecord hands the translation outcome to the history worker.
// Queue failures are logged and dropped; history must never block an
// upload.
func (s *DocumentService) enqueueRecord(userID, sourceName string, sizeBytes int64, status models.RecordStatus) {
	record := &models.TranslationRecord{
		ID:             uuid.New().String(),
		UserID:         userID,
		SourceName:     sourceName,
		TranslatedName: models.TranslatedName(sourceName, s.config.TargetLanguage),
		Size:           models.HumanSize(sizeBytes),
		SizeBytes:      sizeBytes,
		TargetLanguage: s.config.TargetLangName,
		Status:         status,
		CreatedAt:      time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.queue.EnqueueRecord(ctx, record); err != nil {
		s.logger.Error("Failed to enqueue translation record",
			logger.String("recordId", record.ID),
			logger.Error(err),
		)
	}
}
