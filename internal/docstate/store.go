package docstate

import (
	"sync"

	"github.com/jordaandigi/pdflingo/internal/models"
)

// Store keeps one State per user behind a single lock. Every check that
// guards a request (upload in progress, generation pending, chat send)
// sets its flag inside the same critical section as the check, so
// repeated evaluation cannot issue duplicates.
type Store struct {
	mu       sync.Mutex
	sessions map[string]State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]State)}
}

// Get returns a snapshot of the user's session.
func (st *Store) Get(userID string) State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[userID].clone()
}

// Dispatch applies an event and returns the resulting snapshot.
func (st *Store) Dispatch(userID string, ev Event) State {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := Reduce(st.sessions[userID], ev)
	st.sessions[userID] = next
	return next.clone()
}

// BeginUpload clears previous results and marks the upload in flight.
// It refuses while another upload for the same user is running.
func (st *Store) BeginUpload(userID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.sessions[userID]
	if s.Uploading {
		return false
	}
	st.sessions[userID] = Reduce(s, UploadStarted{})
	return true
}

// BeginPending evaluates the trigger rule and marks every returned kind
// in flight before the lock is released. Calling it twice with unchanged
// state yields the kinds once and then nothing.
func (st *Store) BeginPending(userID string) []Kind {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.sessions[userID]
	kinds := Pending(s)
	for _, kind := range kinds {
		s = Reduce(s, GenerationStarted{Kind: kind})
	}
	st.sessions[userID] = s
	return kinds
}

// BeginChat appends the user message and sets the sending flag in one
// step. It reports false when there is no document to chat about or a
// send is already in flight; the message is not appended in either case.
func (st *Store) BeginChat(userID string, msg models.ChatMessage) (State, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.sessions[userID]
	if s.Document == nil || s.ChatInFlight {
		return s.clone(), false
	}
	next := Reduce(s, ChatSendStarted{Message: msg})
	st.sessions[userID] = next
	return next.clone(), true
}
