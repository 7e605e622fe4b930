package services

import "sync"

// SentMail captures one email handed to the mock
type SentMail struct {
	Subject string
	Body    string
	From    string
	To      []string
}

// MockMailService is a mock implementation of MailService for testing.
// It records every message instead of delivering it.
type MockMailService struct {
	sent []SentMail
	mu   sync.RWMutex
}

// NewMockMailService creates a new mock mail service
func NewMockMailService() *MockMailService {
	return &MockMailService{}
}

// SetAsMockForTesting sets this mock as the global mail service instance for testing
func (m *MockMailService) SetAsMockForTesting() {
	SetMailService(m)
}

// Send records the message after running the usual validation
func (m *MockMailService) Send(subject, body, from string, to []string) error {
	if err := validateMail(subject, body, from, to); err != nil {
		return err
	}

	m.mu.Lock()
	m.sent = append(m.sent, SentMail{Subject: subject, Body: body, From: from, To: to})
	m.mu.Unlock()
	return nil
}

// SentCount returns how many messages have been recorded
func (m *MockMailService) SentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sent)
}

// SentMessages returns a copy of the recorded messages
func (m *MockMailService) SentMessages() []SentMail {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SentMail, len(m.sent))
	copy(out, m.sent)
	return out
}
