package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

// ListenerState is the lifecycle state of a NotificationListener.
type ListenerState int32

const (
	ListenerStopped ListenerState = iota
	ListenerListening
	ListenerReconnecting
	ListenerFailed
)

func (s ListenerState) String() string {
	switch s {
	case ListenerStopped:
		return "stopped"
	case ListenerListening:
		return "listening"
	case ListenerReconnecting:
		return "reconnecting"
	case ListenerFailed:
		return "failed"
	default:
		return fmt.Sprintf("ListenerState(%d)", int32(s))
	}
}

// ReconnectPolicy controls how the listener resubscribes after the feed
// breaks. A zero MaxElapsedTime retries until stopped.
type ReconnectPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

func (p *ReconnectPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = p.MaxElapsedTime
	b.Reset()
	return b
}

// NotificationListener consumes the notification insert stream and pushes
// each new record to its recipient's live connection, if there is one.
// Recipients without a connection are skipped; they read their history
// through the REST API instead.
type NotificationListener struct {
	feed      ports.NotificationFeed
	sessions  ports.SessionLookup
	pusher    ports.Pusher
	reconnect *ReconnectPolicy
	metrics   ports.DispatchMetrics
	logger    *slog.Logger

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	mu    sync.Mutex
	state ListenerState
}

// NewNotificationListener creates a stopped listener. A nil reconnect
// policy leaves the listener Failed after the first feed error.
func NewNotificationListener(
	feed ports.NotificationFeed,
	sessions ports.SessionLookup,
	pusher ports.Pusher,
	reconnect *ReconnectPolicy,
	metrics ports.DispatchMetrics,
	logger *slog.Logger,
) *NotificationListener {
	return &NotificationListener{
		feed:      feed,
		sessions:  sessions,
		pusher:    pusher,
		reconnect: reconnect,
		metrics:   metricsOrNop(metrics),
		logger:    logger.With("component", "notification_listener"),
		state:     ListenerStopped,
	}
}

// Start subscribes to the feed and begins delivering in the background.
// The initial subscription happens before Start returns.
func (l *NotificationListener) Start(ctx context.Context) error {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if state := l.State(); state == ListenerListening || state == ListenerReconnecting {
		return apperrors.ErrListenerRunning
	}

	// A failed run has exited on its own; release its context first.
	l.release()

	sub, err := l.feed.Subscribe(ctx)
	if err != nil {
		l.mu.Lock()
		l.state = ListenerFailed
		l.mu.Unlock()
		return fmt.Errorf("subscribe to notification feed: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	l.mu.Lock()
	l.state = ListenerListening
	l.mu.Unlock()

	go l.run(runCtx, sub, l.done)

	l.logger.Info("notification listener started")
	return nil
}

// Stop ends delivery, releases the subscription, and waits for the
// background loop to exit. It is safe to call in any state.
func (l *NotificationListener) Stop() {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	l.release()

	l.mu.Lock()
	wasRunning := l.state != ListenerStopped
	l.state = ListenerStopped
	l.mu.Unlock()

	if wasRunning {
		l.logger.Info("notification listener stopped")
	}
}

// release cancels the current run and waits for it to exit. Callers hold
// lifecycle.
func (l *NotificationListener) release() {
	if l.cancel != nil {
		l.cancel()
	}
	if l.done != nil {
		<-l.done
	}
	l.cancel, l.done = nil, nil
}

// State returns the current lifecycle state.
func (l *NotificationListener) State() ListenerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *NotificationListener) setState(ctx context.Context, s ListenerState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Stop owns the final transition once the run context is cancelled.
	if ctx.Err() == nil {
		l.state = s
	}
}

func (l *NotificationListener) run(ctx context.Context, sub ports.NotificationSubscription, done chan struct{}) {
	defer close(done)

	for {
		err := l.consume(ctx, sub)
		if cerr := sub.Close(); cerr != nil {
			l.logger.Warn("failed to close feed subscription", "error", cerr)
		}
		if ctx.Err() != nil {
			return
		}

		l.logger.Error("notification feed interrupted", "error", err)

		if l.reconnect == nil {
			l.setState(ctx, ListenerFailed)
			return
		}

		l.setState(ctx, ListenerReconnecting)
		sub, err = l.resubscribe(ctx)
		if err != nil {
			if ctx.Err() == nil {
				l.logger.Error("giving up on notification feed", "error", err)
				l.setState(ctx, ListenerFailed)
			}
			return
		}

		l.logger.Info("notification feed resubscribed")
		l.setState(ctx, ListenerListening)
	}
}

func (l *NotificationListener) consume(ctx context.Context, sub ports.NotificationSubscription) error {
	for {
		n, err := sub.Next(ctx)
		if err != nil {
			return err
		}
		l.deliver(ctx, n)
	}
}

func (l *NotificationListener) deliver(ctx context.Context, n *domain.Notification) {
	connectionID, ok := l.sessions.Lookup(n.RecipientID)
	if !ok {
		l.metrics.PushAttempted(ports.PushOffline)
		return
	}

	if err := l.pusher.Push(connectionID, domain.NewNotificationEnvelope(n)); err != nil {
		l.metrics.PushAttempted(ports.PushFailed)
		l.logger.WarnContext(ctx, "failed to push notification",
			"notification_id", n.ID,
			"user_id", n.RecipientID,
			"connection_id", connectionID,
			"error", err,
		)
		return
	}

	l.metrics.PushAttempted(ports.PushDelivered)
}

func (l *NotificationListener) resubscribe(ctx context.Context) (ports.NotificationSubscription, error) {
	var sub ports.NotificationSubscription

	operation := func() error {
		s, err := l.feed.Subscribe(ctx)
		if err != nil {
			return err
		}
		sub = s
		return nil
	}

	notify := func(err error, wait time.Duration) {
		l.logger.Warn("resubscribe failed, retrying",
			"error", err,
			"retry_in", wait,
		)
	}

	b := backoff.WithContext(l.reconnect.newBackOff(), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}
	return sub, nil
}
