// internal/provider/mock.go
package provider

import (
	"sync"

	"github.com/google/uuid"
)

// MockProvider records sends and fails on demand.
type MockProvider struct {
	mu sync.Mutex

	// FailDestinations lists destinations whose sends should error.
	FailDestinations map[string]string // destination -> error detail

	Sent []MockSend
}

type MockSend struct {
	Destination string
	TemplateSID string
	Variables   map[string]string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{FailDestinations: map[string]string{}}
}

func (m *MockProvider) Send(destination, templateSID string, variables map[string]string) (*SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if detail, ok := m.FailDestinations[destination]; ok {
		return nil, &Error{Code: 21211, Detail: detail}
	}

	m.Sent = append(m.Sent, MockSend{
		Destination: destination,
		TemplateSID: templateSID,
		Variables:   variables,
	})
	return &SendResult{
		MessageSID: "SM" + uuid.NewString(),
		Status:     "queued",
	}, nil
}

// SentCount returns how many sends succeeded.
func (m *MockProvider) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

var _ MessageProvider = (*MockProvider)(nil)
