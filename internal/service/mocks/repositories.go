package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/SergeiKhy/promo-links/internal/models"
)

// ErrSinkUnavailable возвращается MockEventSink, пока не исчерпаны сбои
var ErrSinkUnavailable = errors.New("sink unavailable")

// MockEventSink implements repository.EventSink for testing
type MockEventSink struct {
	mu       sync.Mutex
	events   []*models.LinkEvent
	failures int
	attempts int
}

func NewMockEventSink() *MockEventSink {
	return &MockEventSink{}
}

// FailNext makes the next n Append calls fail
func (m *MockEventSink) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

func (m *MockEventSink) Append(ctx context.Context, event *models.LinkEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts++
	if m.failures > 0 {
		m.failures--
		return ErrSinkUnavailable
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventSink) Events() []*models.LinkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.LinkEvent(nil), m.events...)
}

func (m *MockEventSink) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// MockEventEmitter implements service.EventEmitter and records what was published synchronously
type MockEventEmitter struct {
	mu     sync.Mutex
	events []*models.LinkEvent
}

func NewMockEventEmitter() *MockEventEmitter {
	return &MockEventEmitter{}
}

func (m *MockEventEmitter) Publish(ctx context.Context, event *models.LinkEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventEmitter) Events() []*models.LinkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.LinkEvent(nil), m.events...)
}

// Kinds returns the kinds of published events in order
func (m *MockEventEmitter) Kinds() []models.EventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]models.EventKind, 0, len(m.events))
	for _, e := range m.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
