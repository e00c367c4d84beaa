// Package notify_test provides mock implementations for notification sender testing.
// Related: internal/notify/sender.go
// Tags: notify, mocks, testing

package notify

import (
	"context"
	"errors"
	"sync"
)

// MockSender is a mock implementation of Sender for testing.
// It records all calls and allows configuring return values and errors.
type MockSender struct {
	mu sync.Mutex

	// Configuration
	SendError error
	SendFunc  func(context.Context, Notification) error
	available bool
	channel   Channel

	// Call tracking
	Calls            []Notification
	CallCount        int
	LastNotification Notification
}

// NewMockSender creates a new mock sender with default behavior (available, no errors)
func NewMockSender() *MockSender {
	return &MockSender{
		available: true,
		channel:   ChannelLog,
		Calls:     make([]Notification, 0),
	}
}

// WithSendError configures the mock to return an error on Send
func (m *MockSender) WithSendError(err error) *MockSender {
	m.SendError = err
	return m
}

// WithSendFunc configures a custom send function
func (m *MockSender) WithSendFunc(fn func(context.Context, Notification) error) *MockSender {
	m.SendFunc = fn
	return m
}

// WithChannel configures the reported channel
func (m *MockSender) WithChannel(c Channel) *MockSender {
	m.channel = c
	return m
}

// Send records the call and returns the configured error
func (m *MockSender) Send(ctx context.Context, n Notification) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, n)
	m.CallCount++
	m.LastNotification = n
	fn, err := m.SendFunc, m.SendError
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, n)
	}
	return err
}

func (m *MockSender) Available() bool { return m.available }

func (m *MockSender) Channel() Channel { return m.channel }

// Count returns the number of Send calls
func (m *MockSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Common test errors
var ErrMockSend = errors.New("mock send error")
