package push

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a hand-written, in-memory implementation of Provider used
// in unit tests. No mock-generation library needed.
type MockProvider struct {
	mu   sync.Mutex
	sent []*Message

	// Optional error overrides — set in tests to simulate failure paths.
	SendErr    error            // fail every send
	FailTokens map[string]error // fail sends to specific tokens
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Send(_ context.Context, msg *Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, msg)

	if m.SendErr != nil {
		return "", m.SendErr
	}
	if err, ok := m.FailTokens[msg.Token]; ok {
		return "", err
	}
	return fmt.Sprintf("projects/mock/messages/%d", len(m.sent)), nil
}

// Sent returns a copy of every message passed to Send, in call order.
func (m *MockProvider) Sent() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// SendCount reports how many times Send was invoked.
func (m *MockProvider) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var _ Provider = (*MockProvider)(nil)
