package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jordaandigi/pdflingo/internal/docstate"
	"github.com/jordaandigi/pdflingo/internal/models"
	"github.com/jordaandigi/pdflingo/internal/webhook"
	"github.com/jordaandigi/pdflingo/pkg/logger"
)

type fakeChatter struct {
	mu       sync.Mutex
	body     []byte
	err      error
	requests []webhook.ChatRequest
}

func (f *fakeChatter) Chat(ctx context.Context, req webhook.ChatRequest) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func (f *fakeChatter) last() webhook.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeStorage struct {
	objects map[string][]byte
}

func (f *fakeStorage) Store(ctx context.Context, key string, content []byte) (string, error) {
	f.objects[key] = content
	return key, nil
}

func (f *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	return nil
}

func newSession(withDoc bool) (*docstate.Store, *fakeStorage) {
	sessions := docstate.NewStore()
	st := &fakeStorage{objects: map[string][]byte{"u1/report_en.pdf": []byte("stored pdf")}}
	if withDoc {
		sessions.Dispatch("u1", docstate.DocumentTranslated{Document: models.TranslatedDocument{
			ID:         "d1",
			UserID:     "u1",
			Filename:   "report_en.pdf",
			StorageKey: "u1/report_en.pdf",
		}})
	}
	return sessions, st
}

func TestOpenRequiresDocument(t *testing.T) {
	sessions, st := newSession(false)
	svc := NewService(sessions, &fakeChatter{}, st, logger.NewTestLogger())

	if _, err := svc.Open(context.Background(), "u1"); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestOpenSeedsOnce(t *testing.T) {
	sessions, st := newSession(true)
	svc := NewService(sessions, &fakeChatter{}, st, logger.NewTestLogger())

	messages, err := svc.Open(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != models.SeedMessageID {
		t.Fatalf("unexpected seed: %+v", messages)
	}
	if messages[0].Content != models.SeedMessageText || messages[0].Role != models.RoleAssistant {
		t.Fatalf("unexpected seed message: %+v", messages[0])
	}

	again, err := svc.Open(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("reopen duplicated the seed: %+v", again)
	}
}

func TestSendAppendsQuestionAndReply(t *testing.T) {
	sessions, st := newSession(true)
	chatter := &fakeChatter{body: []byte(`[{"output":"It is a report."}]`)}
	svc := NewService(sessions, chatter, st, logger.NewTestLogger())

	if _, err := svc.Open(context.Background(), "u1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	messages, err := svc.Send(context.Background(), "u1", "what is this?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(messages))
	}
	if messages[1].Role != models.RoleUser || messages[1].Content != "what is this?" {
		t.Errorf("question not appended: %+v", messages[1])
	}
	if messages[2].Role != models.RoleAssistant || messages[2].Content != "It is a report." {
		t.Errorf("reply not appended: %+v", messages[2])
	}

	req := chatter.last()
	if req.Question != "what is this?" || req.Filename != "report_en.pdf" {
		t.Errorf("unexpected request: %+v", req)
	}
	if string(req.Content) != "stored pdf" {
		t.Errorf("document content not forwarded: %q", req.Content)
	}
	// Seed and the question itself stay out of the forwarded history.
	if len(req.History) != 0 {
		t.Errorf("unexpected history: %+v", req.History)
	}
}

func TestSendForwardsPriorTurns(t *testing.T) {
	sessions, st := newSession(true)
	chatter := &fakeChatter{body: []byte(`{"output":"second answer"}`)}
	svc := NewService(sessions, chatter, st, logger.NewTestLogger())

	svc.Open(context.Background(), "u1")
	if _, err := svc.Send(context.Background(), "u1", "first question"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := svc.Send(context.Background(), "u1", "second question"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	req := chatter.last()
	if len(req.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(req.History))
	}
	if req.History[0].Role != "user" || req.History[0].Content != "first question" {
		t.Errorf("history[0] = %+v", req.History[0])
	}
	if req.History[1].Role != "assistant" || req.History[1].Content != "second answer" {
		t.Errorf("history[1] = %+v", req.History[1])
	}
}

func TestSendWithoutDocument(t *testing.T) {
	sessions, st := newSession(false)
	svc := NewService(sessions, &fakeChatter{}, st, logger.NewTestLogger())

	if _, err := svc.Send(context.Background(), "u1", "hello"); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestSendFailureReleasesSession(t *testing.T) {
	sessions, st := newSession(true)
	chatter := &fakeChatter{err: errors.New("endpoint down")}
	svc := NewService(sessions, chatter, st, logger.NewTestLogger())

	svc.Open(context.Background(), "u1")
	if _, err := svc.Send(context.Background(), "u1", "q"); !errors.Is(err, ErrChatFailed) {
		t.Fatalf("expected ErrChatFailed, got %v", err)
	}

	chatter.err = nil
	chatter.body = []byte(`{"output":"ok now"}`)
	messages, err := svc.Send(context.Background(), "u1", "q again")
	if err != nil {
		t.Fatalf("Send after failure: %v", err)
	}
	last := messages[len(messages)-1]
	if last.Content != "ok now" {
		t.Fatalf("unexpected reply: %+v", last)
	}
}

func TestSendBusy(t *testing.T) {
	sessions, st := newSession(true)
	svc := NewService(sessions, &fakeChatter{body: []byte(`{"output":"a"}`)}, st, logger.NewTestLogger())

	sessions.BeginChat("u1", models.ChatMessage{ID: "m1", Role: models.RoleUser, Content: "pending"})
	if _, err := svc.Send(context.Background(), "u1", "another"); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}
}
