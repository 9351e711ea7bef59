package store

import (
	"context"
	"sync"
	"time"

	"github.com/chatwire/push-bridge/internal/domain"
)

// MockStore is a hand-written, in-memory implementation of Store used in
// unit tests. No mock-generation library needed.
type MockStore struct {
	mu       sync.RWMutex
	requests map[string]*domain.NotificationRequest
	chats    map[string]*domain.Chat
	users    map[string]*domain.User
	messages map[string]*domain.ChatMessage

	// Optional error overrides — set in tests to simulate failure paths.
	ClaimErr         error
	MarkProcessedErr error
	MarkFailedErr    error
	GetChatErr       error
	GetUserErr       error
	GetUsersErr      error
	FindStaleErr     error
	DeleteErr        error

	DeleteCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{
		requests: make(map[string]*domain.NotificationRequest),
		chats:    make(map[string]*domain.Chat),
		users:    make(map[string]*domain.User),
		messages: make(map[string]*domain.ChatMessage),
	}
}

// ---- test seeding helpers ----

func (m *MockStore) PutRequest(r *domain.NotificationRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *r
	m.requests[r.ID] = &clone
}

func (m *MockStore) PutChat(c *domain.Chat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *c
	m.chats[c.ID] = &clone
}

func (m *MockStore) PutUser(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *u
	m.users[u.ID] = &clone
}

// ---- Store implementation ----

func (m *MockStore) RecordRequest(_ context.Context, r *domain.NotificationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[r.ID]; ok {
		return nil
	}
	clone := *r
	m.requests[r.ID] = &clone
	return nil
}

func (m *MockStore) GetRequest(_ context.Context, id string) (*domain.NotificationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (m *MockStore) ClaimRequest(_ context.Context, id string) (bool, error) {
	if m.ClaimErr != nil {
		return false, m.ClaimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Processed {
		return false, nil
	}
	r.Processed = true
	return true, nil
}

func (m *MockStore) MarkRequestProcessed(_ context.Context, id, receiptID string, processedAt time.Time) error {
	if m.MarkProcessedErr != nil {
		return m.MarkProcessedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		r.Processed = true
		r.MessageID = receiptID
		r.ProcessedAt = &processedAt
	}
	return nil
}

func (m *MockStore) MarkRequestFailed(_ context.Context, id, errMsg string, processedAt time.Time) error {
	if m.MarkFailedErr != nil {
		return m.MarkFailedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		r.Processed = true
		r.Failed = true
		r.ErrorMessage = errMsg
		r.ProcessedAt = &processedAt
	}
	return nil
}

func (m *MockStore) GetChat(_ context.Context, id string) (*domain.Chat, error) {
	if m.GetChatErr != nil {
		return nil, m.GetChatErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *MockStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	if m.GetUserErr != nil {
		return nil, m.GetUserErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MockStore) GetUsers(_ context.Context, ids []string) ([]*domain.User, error) {
	if m.GetUsersErr != nil {
		return nil, m.GetUsersErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []*domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			clone := *u
			users = append(users, &clone)
		}
	}
	return users, nil
}

func (m *MockStore) RecordMessage(_ context.Context, msg *domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *msg
	m.messages[msg.ID] = &clone
	return nil
}

func (m *MockStore) FindStaleRequests(_ context.Context, cutoff time.Time) ([]string, error) {
	if m.FindStaleErr != nil {
		return nil, m.FindStaleErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, r := range m.requests {
		if r.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MockStore) DeleteRequests(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for _, id := range ids {
		delete(m.requests, id)
	}
	return nil
}

// RequestCount reports how many request records remain; used by sweep tests.
func (m *MockStore) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

var _ Store = (*MockStore)(nil)
