package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"quickref/internal/domain/repositories"
)

// stateSlot is a read-through, single-entry cache over one DurableStore key.
//
// Every mutation runs under one lock: load (or reuse) the current value, apply
// the change to a copy, persist the copy, then swap it in. A failed persist
// leaves the cached value untouched, so memory always equals the last value
// that was successfully saved.
type stateSlot[T any] struct {
	store  repositories.DurableStore
	key    string
	codec  codec[T]
	logger *slog.Logger

	mu     sync.RWMutex
	cached T
	loaded bool
}

type codec[T any] struct {
	decode func([]byte) (T, error)
	encode func(T) ([]byte, error)
	empty  func() T
	clone  func(T) T
}

func newStateSlot[T any](store repositories.DurableStore, key string, c codec[T], logger *slog.Logger) *stateSlot[T] {
	return &stateSlot[T]{store: store, key: key, codec: c, logger: logger}
}

// read returns the current value. Callers must treat it as read-only.
func (s *stateSlot[T]) read(ctx context.Context) (T, error) {
	s.mu.RLock()
	if s.loaded {
		v := s.cached
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// mutate applies fn to a private copy of the current value and commits it
// when fn reports a change. fn must not retain the value.
func (s *stateSlot[T]) mutate(ctx context.Context, fn func(T) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}

	next := s.codec.clone(current)
	changed, err := fn(next)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	data, err := s.codec.encode(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.store.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist %s: %w", s.key, err)
	}

	s.cached = next
	s.loaded = true
	return nil
}

// invalidate drops the cached value so the next read reloads from the store.
func (s *stateSlot[T]) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.cached = zero
	s.loaded = false
}

// loadLocked returns the cached value, loading it first if needed. Absent or
// undecodable state yields the empty default; store I/O errors are returned.
func (s *stateSlot[T]) loadLocked(ctx context.Context) (T, error) {
	if s.loaded {
		return s.cached, nil
	}

	data, ok, err := s.store.Load(ctx, s.key)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load %s: %w", s.key, err)
	}

	value := s.codec.empty()
	if ok {
		decoded, err := s.codec.decode(data)
		if err != nil {
			s.logger.Warn("stored state unreadable, using empty default",
				"key", s.key,
				"error", err,
			)
		} else {
			value = decoded
		}
	}

	s.cached = value
	s.loaded = true
	return value, nil
}
