package mqtt

import (
	"fmt"
	"sync"
)

// Publisher sends fleet telemetry payloads onto the broker.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Messages   map[string][][]byte
	FailTopics map[string]bool
	mu         sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Messages:   make(map[string][][]byte),
		FailTopics: make(map[string]bool),
	}
}

// Publish records the payload or returns an error if configured to fail.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTopics[topic] {
		return fmt.Errorf("publish failed")
	}
	m.Messages[topic] = append(m.Messages[topic], payload)
	return nil
}

// Published returns the payloads recorded for topic.
func (m *MockPublisher) Published(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.Messages[topic]))
	copy(out, m.Messages[topic])
	return out
}

// Topics lists the topics that received at least one payload.
func (m *MockPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Messages))
	for t := range m.Messages {
		out = append(out, t)
	}
	return out
}
