// Package refresh broadcasts "something changed" to every connected viewer.
//
// The bus holds a generation counter and a signal channel that is closed and
// replaced on each publish. A session remembers the last generation it
// reported, so any number of publishes between two wakes surface as a single
// refresh event.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// EventType is what a session observed on one wake.
type EventType string

const (
	EventRefresh   EventType = "refresh"
	EventHeartbeat EventType = "heartbeat"
)

// DefaultHeartbeat is used when NewBus is given a non-positive interval.
const DefaultHeartbeat = 15 * time.Second

// ErrSessionClosed is returned by Next after Close.
var ErrSessionClosed = errors.New("refresh session closed")

// Bus is a process-wide coalescing broadcast. The zero value is not usable;
// construct with NewBus.
type Bus struct {
	mu     sync.Mutex
	gen    uint64
	signal chan struct{}

	heartbeat time.Duration
	active    atomic.Int64
	logger    *slog.Logger
}

// NewBus creates a bus whose sessions wake at least once per heartbeat.
func NewBus(heartbeat time.Duration, logger *slog.Logger) *Bus {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Bus{
		signal:    make(chan struct{}),
		heartbeat: heartbeat,
		logger:    logger,
	}
}

// Publish marks a change as pending and wakes every waiting session.
func (b *Bus) Publish() {
	b.mu.Lock()
	b.gen++
	close(b.signal)
	b.signal = make(chan struct{})
	gen := b.gen
	b.mu.Unlock()

	publishedTotal.Inc()
	b.logger.Debug("refresh published", "generation", gen, "active_sessions", b.ActiveSessionCount())
}

func (b *Bus) current() (uint64, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen, b.signal
}

// ActiveSessionCount reports sessions that have subscribed and not yet closed.
func (b *Bus) ActiveSessionCount() int {
	return int(b.active.Load())
}

// Heartbeat returns the interval after which an idle session wakes.
func (b *Bus) Heartbeat() time.Duration { return b.heartbeat }

// Subscribe opens a session. Changes published before this call are not
// reported to it. Callers must Close the session.
func (b *Bus) Subscribe() *Session {
	gen, _ := b.current()
	s := &Session{
		ID:   uuid.New(),
		bus:  b,
		seen: gen,
	}
	n := b.active.Add(1)
	b.logger.Info("viewer connected", "session_id", s.ID, "active_sessions", n)
	return s
}

// Stream subscribes, hands every event to fn and closes the session when ctx
// ends or fn returns an error. The returned error is the one that ended the
// stream.
func (b *Bus) Stream(ctx context.Context, fn func(EventType) error) error {
	s := b.Subscribe()
	defer s.Close()

	for {
		ev, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

// Session is one subscriber's view of the bus. A session is used by a single
// goroutine; Close may be called from any goroutine.
type Session struct {
	ID uuid.UUID

	bus       *Bus
	seen      uint64
	closeOnce sync.Once
	closed    atomic.Bool
}

// Next blocks until a change is pending for this session, the heartbeat
// interval elapses, or ctx is done.
func (s *Session) Next(ctx context.Context) (EventType, error) {
	if s.closed.Load() {
		return "", ErrSessionClosed
	}

	timer := time.NewTimer(s.bus.heartbeat)
	defer timer.Stop()

	for {
		gen, signal := s.bus.current()
		if gen != s.seen {
			s.seen = gen
			deliveredTotal.WithLabelValues(string(EventRefresh)).Inc()
			return EventRefresh, nil
		}

		select {
		case <-signal:
		case <-timer.C:
			deliveredTotal.WithLabelValues(string(EventHeartbeat)).Inc()
			return EventHeartbeat, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Close releases the session. Only the first call has an effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		n := s.bus.active.Add(-1)
		s.bus.logger.Info("viewer disconnected", "session_id", s.ID, "active_sessions", n)
	})
}

// RegisterActiveSessionsGauge exposes the bus's session count on reg.
func RegisterActiveSessionsGauge(reg prometheus.Registerer, b *Bus) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "catalog_refresh_active_sessions",
		Help: "Viewers currently subscribed to refresh events",
	}, func() float64 {
		return float64(b.ActiveSessionCount())
	}))
}
