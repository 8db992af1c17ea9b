// Package chat runs the question-and-answer session against the
// translated document.
package chat

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jordaandigi/pdflingo/internal/docstate"
	"github.com/jordaandigi/pdflingo/internal/models"
	"github.com/jordaandigi/pdflingo/internal/normalizer"
	"github.com/jordaandigi/pdflingo/internal/webhook"
	"github.com/jordaandigi/pdflingo/pkg/logger"
	"github.com/jordaandigi/pdflingo/pkg/storage"
)

var (
	// ErrNoDocument means chat was used before a translation succeeded.
	ErrNoDocument = errors.New("no translated document to chat about")
	// ErrSendInFlight means a previous question is still being answered.
	ErrSendInFlight = errors.New("a chat message is already being sent")
	// ErrChatFailed wraps a failed chat webhook call.
	ErrChatFailed = errors.New("chat request failed")
)

// Chatter is the slice of the webhook client this service needs.
type Chatter interface {
	Chat(ctx context.Context, req webhook.ChatRequest) ([]byte, error)
}

// Service manages per-user chat sessions over the translated document.
type Service interface {
	// Open seeds the session with the canned opener and returns the
	// history. Reopening keeps existing messages.
	Open(ctx context.Context, userID string) ([]models.ChatMessage, error)
	// Send appends the question, asks the chat endpoint and appends the
	// normalized answer.
	Send(ctx context.Context, userID, question string) ([]models.ChatMessage, error)
	// History returns the session's messages in order.
	History(userID string) []models.ChatMessage
}

type ChatService struct {
	sessions *docstate.Store
	chatter  Chatter
	storage  storage.Storage
	logger   logger.Logger
}

func NewService(sessions *docstate.Store, chatter Chatter, st storage.Storage, log logger.Logger) Service {
	return &ChatService{
		sessions: sessions,
		chatter:  chatter,
		storage:  st,
		logger:   log,
	}
}

func (s *ChatService) Open(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	session := s.sessions.Get(userID)
	if session.Document == nil {
		return nil, ErrNoDocument
	}

	seed := models.ChatMessage{
		ID:        models.SeedMessageID,
		Role:      models.RoleAssistant,
		Content:   models.SeedMessageText,
		CreatedAt: time.Now().UTC(),
	}
	next := s.sessions.Dispatch(userID, docstate.ChatOpened{Seed: seed})
	return next.Messages, nil
}

func (s *ChatService) Send(ctx context.Context, userID, question string) ([]models.ChatMessage, error) {
	msg := models.ChatMessage{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   question,
		CreatedAt: time.Now().UTC(),
	}

	session, ok := s.sessions.BeginChat(userID, msg)
	if !ok {
		if session.Document == nil {
			return nil, ErrNoDocument
		}
		return nil, ErrSendInFlight
	}

	req := webhook.ChatRequest{
		Question: question,
		UserID:   userID,
		Filename: session.Document.Filename,
		Content:  s.documentContent(ctx, session.Document),
		History:  historyTurns(session.Messages),
	}

	body, err := s.chatter.Chat(ctx, req)
	if err != nil {
		s.sessions.Dispatch(userID, docstate.ChatSendFailed{})
		s.logger.Error("Chat request failed",
			logger.String("userId", userID),
			logger.Error(err),
		)
		return nil, ErrChatFailed
	}

	reply := models.ChatMessage{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   normalizer.Text(normalizer.Decode(body)),
		CreatedAt: time.Now().UTC(),
	}
	next := s.sessions.Dispatch(userID, docstate.ChatReplyReceived{Message: reply})
	return next.Messages, nil
}

func (s *ChatService) History(userID string) []models.ChatMessage {
	return s.sessions.Get(userID).Messages
}

// historyTurns converts prior messages to wire turns, dropping the seed
// opener and the question that was just appended.
func historyTurns(messages []models.ChatMessage) []webhook.ChatTurn {
	if len(messages) == 0 {
		return nil
	}
	prior := messages[:len(messages)-1]

	turns := make([]webhook.ChatTurn, 0, len(prior))
	for _, m := range prior {
		if m.ID == models.SeedMessageID {
			continue
		}
		turns = append(turns, webhook.ChatTurn{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return turns
}

func (s *ChatService) documentContent(ctx context.Context, doc *models.TranslatedDocument) []byte {
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
