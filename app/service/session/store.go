package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/do"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExists   = errors.New("session already exists")
)

type entry[T any] struct {
	// lock serializes turns on one session; a channel so waiting can be cancelled.
	lock    chan struct{}
	value   T
	touched time.Time
}

// Store keeps per-session values in memory. Update calls on the same id run
// one at a time; different ids never block each other beyond map access.
type Store[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	now     func() time.Time
}

func New[T any](_ *do.Injector) (*Store[T], error) {
	return NewStore[T](), nil
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		now:     time.Now,
	}
}

func (s *Store[T]) Create(id string, value T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; ok {
		return ErrExists
	}

	s.entries[id] = &entry[T]{
		lock:    make(chan struct{}, 1),
		value:   value,
		touched: s.now(),
	}

	return nil
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		var zero T
		return zero, false
	}

	return e.value, true
}

// Update runs fn on the current value and stores its result. Nothing is
// stored when fn fails or ctx ends before fn returns.
func (s *Store[T]) Update(ctx context.Context, id string, fn func(value T) (T, error)) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.lock }()

	s.mu.Lock()
	current := e.value
	s.mu.Unlock()

	next, err := fn(current)
	if err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[id] != e {
		return ErrNotFound
	}

	e.value = next
	e.touched = s.now()

	return nil
}

func (s *Store[T]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// EvictIdle drops sessions untouched for longer than ttl. Sessions with a
// turn in flight are kept.
func (s *Store[T]) EvictIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	evicted := 0

	for id, e := range s.entries {
		if !e.touched.Before(cutoff) {
			continue
		}

		select {
		case e.lock <- struct{}{}:
			delete(s.entries, id)
			evicted++
			<-e.lock
		default:
		}
	}

	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx ends.
func (s *Store[T]) RunJanitor(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(ttl); n > 0 {
				slog.Info("Evicted idle sessions",
					"count", n,
					"remaining", s.Len())
			}
		}
	}
}
