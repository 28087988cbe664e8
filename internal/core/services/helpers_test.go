package services_test

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingMetrics struct {
	mu        sync.Mutex
	createdBy map[domain.EventType]int
	pushes    map[string]int
	ticks     int
	published int
}

func (m *recordingMetrics) NotificationsCreated(eventType domain.EventType, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createdBy == nil {
		m.createdBy = make(map[domain.EventType]int)
	}
	m.createdBy[eventType] += count
}

func (m *recordingMetrics) PushAttempted(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushes == nil {
		m.pushes = make(map[string]int)
	}
	m.pushes[outcome]++
}

func (m *recordingMetrics) SchedulerTicked(published int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
	m.published += published
}

func (m *recordingMetrics) created(eventType domain.EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createdBy[eventType]
}

func (m *recordingMetrics) pushCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushes[outcome]
}
