package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

const namespace = "newsroom"

// SessionCounter reports the number of live websocket sessions.
type SessionCounter interface {
	Count() int
}

// Dispatch holds the Prometheus collectors for the notification pipeline.
type Dispatch struct {
	registry *prometheus.Registry

	notificationsCreated *prometheus.CounterVec
	pushesTotal          *prometheus.CounterVec
	newsPublished        prometheus.Counter
	schedulerTicks       prometheus.Counter
	tickDuration         prometheus.Histogram
}

var _ ports.DispatchMetrics = (*Dispatch)(nil)

// NewDispatch registers the pipeline collectors on a dedicated registry.
// sessions may be nil.
func NewDispatch(sessions SessionCounter) *Dispatch {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	d := &Dispatch{
		registry: reg,
		notificationsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_created_total",
				Help:      "Total number of notification records written by fan-out",
			},
			[]string{"event_type"},
		),
		pushesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pushes_total",
				Help:      "Total number of live delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
		newsPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_news_published_total",
				Help:      "Total number of scheduled news items published",
			},
		),
		schedulerTicks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_ticks_total",
				Help:      "Total number of completed scheduler ticks",
			},
		),
		tickDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scheduler_tick_duration_seconds",
				Help:      "Scheduler tick duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
	}

	if sessions != nil {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of users with a live websocket session",
			},
			func() float64 { return float64(sessions.Count()) },
		)
	}

	return d
}

// NotificationsCreated records a completed fan-out.
func (d *Dispatch) NotificationsCreated(eventType domain.EventType, count int) {
	d.notificationsCreated.WithLabelValues(string(eventType)).Add(float64(count))
}

// PushAttempted records one live delivery attempt.
func (d *Dispatch) PushAttempted(outcome string) {
	d.pushesTotal.WithLabelValues(outcome).Inc()
}

// SchedulerTicked records one scheduler tick.
func (d *Dispatch) SchedulerTicked(published int, duration time.Duration) {
	d.schedulerTicks.Inc()
	d.newsPublished.Add(float64(published))
	d.tickDuration.Observe(duration.Seconds())
}

// Registry exposes the underlying registry.
func (d *Dispatch) Registry() *prometheus.Registry {
	return d.registry
}

// Handler returns the /metrics HTTP handler.
func (d *Dispatch) Handler() http.Handler {
	return promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry})
}
