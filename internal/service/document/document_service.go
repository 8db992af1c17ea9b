package document

import (
	"context"
	"errors"
	"io"

	"github.com/jordaandigi/pdflingo/internal/docstate"
	"github.com/jordaandigi/pdflingo/internal/models"
)

var (
	// ErrUploadInFlight means another upload for this user is running.
	ErrUploadInFlight = errors.New("an upload is already in progress")
	// ErrInvalidUpload wraps a validation failure.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrNoDocument means no translated document exists in the session.
	ErrNoDocument = errors.New("no translated document")
	// ErrTranslationFailed wraps a failed translation webhook call.
	ErrTranslationFailed = errors.New("translation failed")
)

// Service owns the translate-and-generate lifecycle of one document per
// user: upload, automatic summary and insights, download and history.
type Service interface {
	// Upload validates the PDF, sends it for translation and installs
	// the translated document as the session document.
	Upload(ctx context.Context, userID, filename string, content []byte) (*models.TranslatedDocument, error)
	// Download streams the stored translated document.
	Download(ctx context.Context, userID string) (*models.TranslatedDocument, io.ReadCloser, error)
	// SetToggles records the generation switches and fires whatever the
	// trigger rule says is due.
	SetToggles(ctx context.Context, userID string, summary, insights bool) (docstate.State, error)
	// EvaluateGenerations fires due generations without changing toggles.
	EvaluateGenerations(ctx context.Context, userID string) (docstate.State, error)
	// Session returns a snapshot of the user's document session.
	Session(userID string) docstate.State
	// History lists the user's persisted translation records.
	History(ctx context.Context, userID string) ([]models.TranslationRecord, error)
	// Cleanup removes stored documents older than the retention period.
	Cleanup(ctx context.Context) error
}
