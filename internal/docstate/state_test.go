package docstate

import (
	"reflect"
	"testing"
	"time"

	"github.com/jordaandigi/pdflingo/internal/models"
)

func sampleDoc() models.TranslatedDocument {
	return models.TranslatedDocument{
		ID:        "doc-1",
		UserID:    "u1",
		Filename:  "report_en.pdf",
		Size:      "1.00 MB",
		SizeBytes: 1 << 20,
		CreatedAt: time.Now(),
	}
}

func translatedState() State {
	s := Reduce(State{}, UploadStarted{})
	return Reduce(s, DocumentTranslated{Document: sampleDoc()})
}

func TestUploadClearsEverythingAtOnce(t *testing.T) {
	s := translatedState()
	s = Reduce(s, SummarySet{Text: "old summary"})
	s = Reduce(s, InsightsSet{Items: []string{"a", "b"}})
	s = Reduce(s, ChatOpened{Seed: models.ChatMessage{ID: models.SeedMessageID}})
	s = Reduce(s, GenerationStarted{Kind: KindSummary})
	s = Reduce(s, GenerationStarted{Kind: KindInsights})

	s = Reduce(s, UploadStarted{})
	if s.Document != nil || s.Summary != "" || s.Insights != nil || s.Messages != nil {
		t.Fatalf("upload start left stale state: %+v", s)
	}
	if s.SummaryInFlight || s.InsightsInFlight {
		t.Fatalf("generation flags survived upload start: %+v", s)
	}
	if !s.Uploading {
		t.Fatalf("uploading flag not set")
	}
}

func TestUploadFailureLeavesRetriableState(t *testing.T) {
	s := Reduce(State{}, UploadStarted{})
	s = Reduce(s, UploadFailed{})
	if s.Uploading {
		t.Fatalf("uploading flag still set after failure")
	}
	if s.Document != nil {
		t.Fatalf("document installed on failure")
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	orig := translatedState()
	orig = Reduce(orig, InsightsSet{Items: []string{"one"}})
	snapshot := orig.clone()

	_ = Reduce(orig, UploadStarted{})
	_ = Reduce(orig, ChatSendStarted{Message: models.ChatMessage{ID: "m1"}})

	if !reflect.DeepEqual(orig.Insights, snapshot.Insights) || orig.Document == nil {
		t.Fatalf("input state mutated by Reduce")
	}
}

func TestPendingLevelTriggered(t *testing.T) {
	tests := []struct {
		name  string
		state func() State
		want  []Kind
	}{
		{
			"no document",
			func() State {
				return Reduce(State{}, TogglesSet{Summary: true, Insights: true})
			},
			nil,
		},
		{
			"both toggles armed",
			func() State {
				return Reduce(translatedState(), TogglesSet{Summary: true, Insights: true})
			},
			[]Kind{KindSummary, KindInsights},
		},
		{
			"summary only",
			func() State {
				return Reduce(translatedState(), TogglesSet{Summary: true})
			},
			[]Kind{KindSummary},
		},
		{
			"result already present",
			func() State {
				s := Reduce(translatedState(), TogglesSet{Summary: true})
				return Reduce(s, SummarySet{Text: "done"})
			},
			nil,
		},
		{
			"re-enabling after result does not re-trigger",
			func() State {
				s := Reduce(translatedState(), TogglesSet{Summary: true})
				s = Reduce(s, SummarySet{Text: "done"})
				s = Reduce(s, TogglesSet{Summary: false})
				return Reduce(s, TogglesSet{Summary: true})
			},
			nil,
		},
		{
			"in-flight kind suppressed",
			func() State {
				s := Reduce(translatedState(), TogglesSet{Summary: true, Insights: true})
				return Reduce(s, GenerationStarted{Kind: KindSummary})
			},
			[]Kind{KindInsights},
		},
		{
			"failure re-arms",
			func() State {
				s := Reduce(translatedState(), TogglesSet{Summary: true})
				s = Reduce(s, GenerationStarted{Kind: KindSummary})
				return Reduce(s, GenerationFailed{Kind: KindSummary})
			},
			[]Kind{KindSummary},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pending(tt.state()); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Pending() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUploadReArmsGeneration(t *testing.T) {
	s := Reduce(translatedState(), TogglesSet{Summary: true, Insights: true})
	s = Reduce(s, SummarySet{Text: "old"})
	s = Reduce(s, InsightsSet{Items: []string{"old"}})
	if got := Pending(s); got != nil {
		t.Fatalf("expected nothing pending, got %v", got)
	}

	s = Reduce(s, UploadStarted{})
	s = Reduce(s, DocumentTranslated{Document: sampleDoc()})
	want := []Kind{KindSummary, KindInsights}
	if got := Pending(s); !reflect.DeepEqual(got, want) {
		t.Fatalf("Pending() after new upload = %v, want %v", got, want)
	}
}

func TestChatSeedOnlyOnce(t *testing.T) {
	seed := models.ChatMessage{ID: models.SeedMessageID, Role: models.RoleAssistant, Content: models.SeedMessageText}
	s := Reduce(State{}, ChatOpened{Seed: seed})
	s = Reduce(s, ChatSendStarted{Message: models.ChatMessage{ID: "m1", Role: models.RoleUser}})
	s = Reduce(s, ChatOpened{Seed: seed})
	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages))
	}
	if s.Messages[0].ID != models.SeedMessageID {
		t.Fatalf("seed message not first: %+v", s.Messages)
	}
}

func TestChatOrderingAndFlags(t *testing.T) {
	s := Reduce(State{}, ChatSendStarted{Message: models.ChatMessage{ID: "q", Role: models.RoleUser}})
	if !s.ChatInFlight {
		t.Fatalf("sending flag not set")
	}
	s = Reduce(s, ChatReplyReceived{Message: models.ChatMessage{ID: "a", Role: models.RoleAssistant}})
	if s.ChatInFlight {
		t.Fatalf("sending flag not cleared on reply")
	}
	if len(s.Messages) != 2 || s.Messages[0].ID != "q" || s.Messages[1].ID != "a" {
		t.Fatalf("messages out of order: %+v", s.Messages)
	}

	s = Reduce(s, ChatSendStarted{Message: models.ChatMessage{ID: "q2"}})
	s = Reduce(s, ChatSendFailed{})
	if s.ChatInFlight {
		t.Fatalf("sending flag not cleared on failure")
	}
	if len(s.Messages) != 3 {
		t.Fatalf("failure should not append a reply: %+v", s.Messages)
	}
}
