package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jordaandigi/pdflingo/internal/models"
	"github.com/jordaandigi/pdflingo/internal/store"
	"github.com/jordaandigi/pdflingo/pkg/logger"
	"github.com/jordaandigi/pdflingo/pkg/queue"
)

func newTestWorker(s store.Store) *RecordWorker {
	return &RecordWorker{
		store:  s,
		logger: logger.NewTestLogger(),
	}
}

func TestHandleTranslationRecordPersists(t *testing.T) {
	s := store.NewMemoryStore()
	w := newTestWorker(s)

	record := models.TranslationRecord{
		ID:             "r1",
		UserID:         "u1",
		SourceName:     "report.pdf",
		TranslatedName: "report_en.pdf",
		Size:           "1.20 MB",
		SizeBytes:      1258291,
		TargetLanguage: "en",
		Status:         models.RecordCompleted,
		CreatedAt:      time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	task := asynq.NewTask(queue.TaskTypeTranslationRecord, payload)
	if err := w.handleTranslationRecord(context.Background(), task); err != nil {
		t.Fatalf("handleTranslationRecord: %v", err)
	}

	records, err := s.RecordsByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("RecordsByUser: %v", err)
	}
	if len(records) != 1 || records[0].TranslatedName != "report_en.pdf" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestHandleTranslationRecordRejectsBadPayload(t *testing.T) {
	w := newTestWorker(store.NewMemoryStore())

	task := asynq.NewTask(queue.TaskTypeTranslationRecord, []byte("not json"))
	if err := w.handleTranslationRecord(context.Background(), task); err == nil {
		t.Fatalf("expected error for malformed payload")
	}

	missing, _ := json.Marshal(models.TranslationRecord{ID: "r1"})
	task = asynq.NewTask(queue.TaskTypeTranslationRecord, missing)
	if err := w.handleTranslationRecord(context.Background(), task); err == nil {
		t.Fatalf("expected error for missing user id")
	}
}
