// Package docstate holds the per-user document session: the translated
// document, generation toggles, results, chat history and the in-flight
// flags guarding duplicate requests. State changes are expressed as
// events applied by a pure reducer, so the trigger rules can be tested
// without any transport attached.
package docstate

import (
	"github.com/jordaandigi/pdflingo/internal/models"
)

// State is one user's document session. The zero value is a session with
// nothing uploaded.
type State struct {
	Document         *models.TranslatedDocument
	GenerateSummary  bool
	GenerateInsights bool
	Summary          string
	Insights         []string
	Messages         []models.ChatMessage

	Uploading        bool
	SummaryInFlight  bool
	InsightsInFlight bool
	ChatInFlight     bool
}

// Event is a state transition applied by Reduce.
type Event interface {
	apply(State) State
}

// Reduce returns the state after the event. It never mutates its input.
func Reduce(s State, ev Event) State {
	return ev.apply(s)
}

// UploadStarted clears every result tied to the previous document before
// the new translation request goes out. Results and the document must
// never refer to different uploads, so the clear happens in one step.
type UploadStarted struct{}

func (UploadStarted) apply(s State) State {
	s.Document = nil
	s.Summary = ""
	s.Insights = nil
	s.Messages = nil
	s.SummaryInFlight = false
	s.InsightsInFlight = false
	s.Uploading = true
	return s
}

// UploadFailed ends an upload without installing a document.
type UploadFailed struct{}

func (UploadFailed) apply(s State) State {
	s.Uploading = false
	return s
}

// DocumentTranslated installs the freshly translated document.
type DocumentTranslated struct {
	Document models.TranslatedDocument
}

func (ev DocumentTranslated) apply(s State) State {
	doc := ev.Document
	s.Document = &doc
	s.Uploading = false
	return s
}

// TogglesSet records the user's generation toggles. Toggling alone never
// clears a result; the level-triggered rule decides what fires.
type TogglesSet struct {
	Summary  bool
	Insights bool
}

func (ev TogglesSet) apply(s State) State {
	s.GenerateSummary = ev.Summary
	s.GenerateInsights = ev.Insights
	return s
}

// GenerationStarted marks a generation kind in flight.
type GenerationStarted struct {
	Kind Kind
}

func (ev GenerationStarted) apply(s State) State {
	switch ev.Kind {
	case KindSummary:
		s.SummaryInFlight = true
	case KindInsights:
		s.InsightsInFlight = true
	}
	return s
}

// SummarySet stores a completed summary and releases its flag.
type SummarySet struct {
	Text string
}

func (ev SummarySet) apply(s State) State {
	s.Summary = ev.Text
	s.SummaryInFlight = false
	return s
}

// InsightsSet stores completed insights and releases their flag.
type InsightsSet struct {
	Items []string
}

func (ev InsightsSet) apply(s State) State {
	s.Insights = ev.Items
	s.InsightsInFlight = false
	return s
}

// GenerationFailed releases a flag without storing a result, leaving the
// kind eligible to fire again.
type GenerationFailed struct {
	Kind Kind
}

func (ev GenerationFailed) apply(s State) State {
	switch ev.Kind {
	case KindSummary:
		s.SummaryInFlight = false
	case KindInsights:
		s.InsightsInFlight = false
	}
	return s
}

// ChatOpened seeds the history once; reopening chat keeps the existing
// messages.
type ChatOpened struct {
	Seed models.ChatMessage
}

func (ev ChatOpened) apply(s State) State {
	if len(s.Messages) == 0 {
		s.Messages = []models.ChatMessage{ev.Seed}
	}
	return s
}

// ChatSendStarted appends the locally-authored message and marks the
// send in flight in the same transition.
type ChatSendStarted struct {
	Message models.ChatMessage
}

func (ev ChatSendStarted) apply(s State) State {
	s.Messages = appendMessage(s.Messages, ev.Message)
	s.ChatInFlight = true
	return s
}

// ChatReplyReceived appends the assistant reply and releases the flag.
type ChatReplyReceived struct {
	Message models.ChatMessage
}

func (ev ChatReplyReceived) apply(s State) State {
	s.Messages = appendMessage(s.Messages, ev.Message)
	s.ChatInFlight = false
	return s
}

// ChatSendFailed releases the flag without appending a reply.
type ChatSendFailed struct{}

func (ChatSendFailed) apply(s State) State {
	s.ChatInFlight = false
	return s
}

// appendMessage copies before appending so earlier snapshots stay valid.
func appendMessage(msgs []models.ChatMessage, msg models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, msg)
}

// clone deep-copies the slices and document pointer so a snapshot cannot
// be mutated behind the container's lock.
func (s State) clone() State {
	if s.Document != nil {
		doc := *s.Document
		s.Document = &doc
	}
	if s.Insights != nil {
		s.Insights = append([]string(nil), s.Insights...)
	}
	if s.Messages != nil {
		s.Messages = append([]models.ChatMessage(nil), s.Messages...)
	}
	return s
}
