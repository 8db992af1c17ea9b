package document

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
	"github.com/jordaandigi/pdflingo/internal/store"
	"github.com/jordaandigi/pdflingo/internal/utils/validator"
	"github.com/jordaandigi/pdflingo/internal/webhook"
	"github.com/jordaandigi/pdflingo/pkg/logger"
)

type fakeTranslator struct {
	mu            sync.Mutex
	translated    []byte
	translateErr  error
	summaryBody   []byte
	summaryErr    error
	insightsBody  []byte
	insightsErr   error
	summaryCalls  int
	insightsCalls int
}

func (f *fakeTranslator) Translate(ctx context.Context, userID, filename string, content []byte) ([]byte, error) {
	if f.translateErr != nil {
		return nil, f.translateErr
	}
	return f.translated, nil
}

func (f *fakeTranslator) GenerateSummary(ctx context.Context, req webhook.GenerationRequest) ([]byte, error) {
	f.mu.Lock()
	f.summaryCalls++
	f.mu.Unlock()
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.summaryBody, nil
}

func (f *fakeTranslator) GenerateInsights(ctx context.Context, req webhook.GenerationRequest) ([]byte, error) {
	f.mu.Lock()
	f.insightsCalls++
	f.mu.Unlock()
	if f.insightsErr != nil {
		return nil, f.insightsErr
	}
	return f.insightsBody, nil
}

func (f *fakeTranslator) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaryCalls, f.insightsCalls
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Store(ctx context.Context, key string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = content
	return key, nil
}

func (f *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	content, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	return nil
}

type fakeQueue struct {
	mu      sync.Mutex
	records []models.TranslationRecord
}

func (f *fakeQueue) EnqueueRecord(ctx context.Context, record *models.TranslationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeQueue) all() []models.TranslationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TranslationRecord(nil), f.records...)
}

type stubValidator struct {
	valid bool
	pages int
}

func (v stubValidator) ValidateFile(filename string, content []byte) *validator.ValidationResult {
	result := &validator.ValidationResult{
		IsValid: v.valid,
		FileInfo: validator.FileInfo{
			Filename: filename,
			Size:     int64(len(content)),
			Pages:    v.pages,
		},
	}
	if !v.valid {
		result.Errors = []validator.ValidationError{{
			Code:    "INVALID_FILE_TYPE",
			Message: "file type is not allowed",
		}}
	}
	return result
}

type fixture struct {
	sessions   *docstate.Store
	translator *fakeTranslator
	storage    *fakeStorage
	queue      *fakeQueue
	service    Service
}

func newFixture(t *testing.T, translator *fakeTranslator, valid bool) *fixture {
	t.Helper()
	sessions := docstate.NewStore()
	st := newFakeStorage()
	q := &fakeQueue{}
	svc := NewService(sessions, translator, stubValidator{valid: valid, pages: 3}, st, q, store.NewMemoryStore(), logger.NewTestLogger(), &ServiceConfig{
		MaxFileSize:     1 << 20,
		MaxPageCount:    100,
		TargetLanguage:  "en",
		TargetLangName:  "English",
		RetentionPeriod: time.Hour,
	})
	return &fixture{sessions: sessions, translator: translator, storage: st, queue: q, service: svc}
}

func TestUploadInstallsDocument(t *testing.T) {
	f := newFixture(t, &fakeTranslator{translated: []byte("translated pdf bytes")}, true)

	doc, err := f.service.Upload(context.Background(), "u1", "report.pdf", []byte("source"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.Filename != "report_en.pdf" {
		t.Errorf("Filename = %q, want report_en.pdf", doc.Filename)
	}
	if doc.SourceName != "report.pdf" || doc.Pages != 3 {
		t.Errorf("unexpected document: %+v", doc)
	}
	if doc.Size != models.HumanSize(int64(len("translated pdf bytes"))) {
		t.Errorf("Size = %q", doc.Size)
	}

	session := f.service.Session("u1")
	if session.Document == nil || session.Document.Filename != "report_en.pdf" {
		t.Fatalf("session document not installed: %+v", session.Document)
	}
	if session.Uploading {
		t.Fatalf("uploading flag still set")
	}

	if _, err := f.storage.Get(context.Background(), "u1/report_en.pdf"); err != nil {
		t.Fatalf("translated document not stored: %v", err)
	}

	records := f.queue.all()
	if len(records) != 1 || records[0].Status != models.RecordCompleted {
		t.Fatalf("unexpected records: %+v", records)
	}
	if records[0].TranslatedName != "report_en.pdf" || records[0].TargetLanguage != "English" {
		t.Fatalf("unexpected record fields: %+v", records[0])
	}
}

func TestUploadRefusedWhileInFlight(t *testing.T) {
	f := newFixture(t, &fakeTranslator{translated: []byte("x")}, true)

	if !f.sessions.BeginUpload("u1") {
		t.Fatalf("BeginUpload refused")
	}
	_, err := f.service.Upload(context.Background(), "u1", "report.pdf", []byte("source"))
	if !errors.Is(err, ErrUploadInFlight) {
		t.Fatalf("expected ErrUploadInFlight, got %v", err)
	}
}

func TestUploadValidationFailure(t *testing.T) {
	f := newFixture(t, &fakeTranslator{translated: []byte("x")}, false)
	installDocument(f, "u1")

	_, err := f.service.Upload(context.Background(), "u1", "report.txt", []byte("source"))
	if !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("expected ErrInvalidUpload, got %v", err)
	}

	// A rejected file leaves the previous document session intact.
	session := f.service.Session("u1")
	if session.Uploading {
		t.Fatalf("uploading flag set by rejected upload")
	}
	if session.Document == nil || session.Document.Filename != "report_en.pdf" {
		t.Fatalf("previous document lost: %+v", session.Document)
	}
	if len(f.queue.all()) != 0 {
		t.Fatalf("rejected upload should not produce a record")
	}
}

func TestUploadTranslationFailure(t *testing.T) {
	f := newFixture(t, &fakeTranslator{translateErr: errors.New("endpoint down")}, true)

	_, err := f.service.Upload(context.Background(), "u1", "report.pdf", []byte("source"))
	if !errors.Is(err, ErrTranslationFailed) {
		t.Fatalf("expected ErrTranslationFailed, got %v", err)
	}

	session := f.service.Session("u1")
	if session.Uploading || session.Document != nil {
		t.Fatalf("session not cleaned up: %+v", session)
	}

	records := f.queue.all()
	if len(records) != 1 || records[0].Status != models.RecordFailed {
		t.Fatalf("expected one failed record, got %+v", records)
	}
}

func installDocument(f *fixture, userID string) {
	f.sessions.Dispatch(userID, docstate.DocumentTranslated{Document: models.TranslatedDocument{
		ID:         "d1",
		UserID:     userID,
		SourceName: "report.pdf",
		Filename:   "report_en.pdf",
		StorageKey: userID + "/report_en.pdf",
	}})
	f.storage.Store(context.Background(), userID+"/report_en.pdf", []byte("stored pdf"))
}

func TestSetTogglesFiresDueGenerations(t *testing.T) {
	translator := &fakeTranslator{
		summaryBody:  []byte(`{"output":"A short summary."}`),
		insightsBody: []byte(`{"insights":"- first\n- second"}`),
	}
	f := newFixture(t, translator, true)
	installDocument(f, "u1")

	state, err := f.service.SetToggles(context.Background(), "u1", true, true)
	if err != nil {
		t.Fatalf("SetToggles: %v", err)
	}
	if state.Summary != "A short summary." {
		t.Errorf("Summary = %q", state.Summary)
	}
	if len(state.Insights) != 2 || state.Insights[0] != "first" {
		t.Errorf("Insights = %v", state.Insights)
	}

	// Unchanged state fires nothing more.
	if _, err := f.service.SetToggles(context.Background(), "u1", true, true); err != nil {
		t.Fatalf("SetToggles: %v", err)
	}
	sc, ic := translator.calls()
	if sc != 1 || ic != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", sc, ic)
	}
}

func TestTogglesWithoutDocumentFireNothing(t *testing.T) {
	translator := &fakeTranslator{summaryBody: []byte(`{"output":"s"}`)}
	f := newFixture(t, translator, true)

	state, err := f.service.SetToggles(context.Background(), "u1", true, true)
	if err != nil {
		t.Fatalf("SetToggles: %v", err)
	}
	if state.Summary != "" || state.Insights != nil {
		t.Fatalf("unexpected results: %+v", state)
	}
	sc, ic := translator.calls()
	if sc != 0 || ic != 0 {
		t.Fatalf("calls = %d/%d, want 0/0", sc, ic)
	}
}

func TestFailedGenerationFiresAgain(t *testing.T) {
	translator := &fakeTranslator{summaryErr: errors.New("temporarily down")}
	f := newFixture(t, translator, true)
	installDocument(f, "u1")

	state, err := f.service.SetToggles(context.Background(), "u1", true, false)
	if err != nil {
		t.Fatalf("SetToggles: %v", err)
	}
	if state.Summary != "" || state.SummaryInFlight {
		t.Fatalf("failed generation left bad state: %+v", state)
	}

	translator.summaryErr = nil
	translator.summaryBody = []byte(`{"output":"recovered"}`)
	state, err = f.service.EvaluateGenerations(context.Background(), "u1")
	if err != nil {
		t.Fatalf("EvaluateGenerations: %v", err)
	}
	if state.Summary != "recovered" {
		t.Fatalf("Summary = %q, want recovered", state.Summary)
	}
	sc, _ := translator.calls()
	if sc != 2 {
		t.Fatalf("summary calls = %d, want 2", sc)
	}
}

func TestDownload(t *testing.T) {
	f := newFixture(t, &fakeTranslator{}, true)

	if _, _, err := f.service.Download(context.Background(), "u1"); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}

	installDocument(f, "u1")
	doc, reader, err := f.service.Download(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer reader.Close()

	if doc.Filename != "report_en.pdf" {
		t.Errorf("Filename = %q", doc.Filename)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "stored pdf" {
		t.Fatalf("content = %q", content)
	}
}

func TestHistory(t *testing.T) {
	sessions := docstate.NewStore()
	records := store.NewMemoryStore()
	svc := NewService(sessions, &fakeTranslator{}, stubValidator{valid: true}, newFakeStorage(), &fakeQueue{}, records, logger.NewTestLogger(), nil)

	records.SaveRecord(context.Background(), &models.TranslationRecord{ID: "r1", UserID: "u1", Status: models.RecordCompleted})

	list, err := svc.History(context.Background(), "u1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(list) != 1 || list[0].ID != "r1" {
		t.Fatalf("unexpected history: %+v", list)
	}
}
