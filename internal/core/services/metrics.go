package services

import (
	"time"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

type nopMetrics struct{}

var _ ports.DispatchMetrics = nopMetrics{}

func (nopMetrics) NotificationsCreated(domain.EventType, int) {}
func (nopMetrics) PushAttempted(string) {}
func (nopMetrics) SchedulerTicked(int, time.Duration) {}

func metricsOrNop(m ports.DispatchMetrics) ports.DispatchMetrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
