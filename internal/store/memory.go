package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jordaandigi/pdflingo/internal/models"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string]models.User
	records map[string]models.TranslationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]models.User),
		records: make(map[string]models.TranslationRecord),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := u
	return &user, nil
}

func (s *MemoryStore) SaveRecord(ctx context.Context, record *models.TranslationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = *record
	return nil
}

func (s *MemoryStore) RecordsByUser(ctx context.Context, userID string) ([]models.TranslationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.TranslationRecord
	for _, r := range s.records {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}
